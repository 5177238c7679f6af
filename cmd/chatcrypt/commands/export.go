package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatcrypt/internal/crypto"
)

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the local public keys as base64 DER for sharing",
		RunE: func(cmd *cobra.Command, args []string) error {
			encDER, signDER, err := wire.Identity.PublicKeys()
			if err != nil {
				return err
			}
			fmt.Printf("encryption: %s\n", crypto.B64(encDER))
			fmt.Printf("signing:    %s\n", crypto.B64(signDER))
			return nil
		},
	}
}
