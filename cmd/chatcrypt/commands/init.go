package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatcrypt/internal/crypto"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate identity keys and store them wrapped with the passphrase",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			bundle, err := wire.Keys.GenerateIdentity()
			if err != nil {
				return err
			}
			if err := wire.Identity.SaveIdentity(passphrase, bundle); err != nil {
				return err
			}
			fmt.Printf("Identity created.\nFingerprint: %s\n", crypto.Fingerprint(bundle.Encryption.Public.Slice()))
			return nil
		},
	}
}
