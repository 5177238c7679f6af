package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"chatcrypt/internal/domain"
)

func sealCmd() *cobra.Command {
	var to, inPath string
	cmd := &cobra.Command{
		Use:   "seal",
		Short: "Encrypt a message for a contact and print the envelope JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			plaintext, err := readInput(inPath)
			if err != nil {
				return err
			}
			bundle, err := wire.Identity.LoadIdentity(passphrase)
			if err != nil {
				return err
			}
			env, err := wire.Messages.EncryptFor(cmd.Context(), domain.UserID(to), plaintext, bundle)
			if err != nil {
				return err
			}
			out, err := json.Marshal(env)
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient user id")
	cmd.Flags().StringVar(&inPath, "in", "", "plaintext file (default stdin)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
