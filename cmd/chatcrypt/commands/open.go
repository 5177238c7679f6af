package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chatcrypt/internal/domain"
)

func openCmd() *cobra.Command {
	var from, inPath string
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Verify and decrypt an envelope from a contact",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			raw, err := readInput(inPath)
			if err != nil {
				return err
			}
			var env domain.EncryptedMessage
			if err := json.Unmarshal(raw, &env); err != nil {
				return fmt.Errorf("envelope: %w", err)
			}
			bundle, err := wire.Identity.LoadIdentity(passphrase)
			if err != nil {
				return err
			}
			plaintext, err := wire.Messages.DecryptFrom(cmd.Context(), domain.UserID(from), env, bundle)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(plaintext)
			return err
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "sender user id")
	cmd.Flags().StringVar(&inPath, "in", "", "envelope JSON file (default stdin)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
