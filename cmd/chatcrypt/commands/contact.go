package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatcrypt/internal/crypto"
	"chatcrypt/internal/domain"
)

func contactCmd() *cobra.Command {
	contact := &cobra.Command{
		Use:   "contact",
		Short: "Manage the local public key directory",
	}

	var user, encB64, signB64 string
	add := &cobra.Command{
		Use:   "add",
		Short: "Record a peer's public keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			encDER, err := crypto.FromB64(encB64)
			if err != nil {
				return fmt.Errorf("encryption key: %w", err)
			}
			signDER, err := crypto.FromB64(signB64)
			if err != nil {
				return fmt.Errorf("signing key: %w", err)
			}
			if err := wire.Directory.Add(domain.UserID(user), encDER, signDER); err != nil {
				return err
			}
			fmt.Printf("Contact %q saved.\n", user)
			return nil
		},
	}
	add.Flags().StringVar(&user, "user", "", "peer user id")
	add.Flags().StringVar(&encB64, "encryption-key", "", "peer encryption public key (base64 DER)")
	add.Flags().StringVar(&signB64, "signing-key", "", "peer signing public key (base64 DER)")
	_ = add.MarkFlagRequired("user")
	_ = add.MarkFlagRequired("encryption-key")
	_ = add.MarkFlagRequired("signing-key")

	list := &cobra.Command{
		Use:   "list",
		Short: "List known peers",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := wire.Directory.List()
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Println(u)
			}
			return nil
		},
	}

	contact.AddCommand(add, list)
	return contact
}
