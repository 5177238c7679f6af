package commands

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"chatcrypt/internal/app"
)

var (
	home       string
	passphrase string

	wire *app.Wire
)

// Execute builds and runs the root command.
func Execute() error {
	root := &cobra.Command{
		Use:           "chatcrypt",
		Short:         "End-to-end message encryption toolkit",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Flags beat env; env beats defaults. A missing .env is fine.
			_ = godotenv.Load()

			if home == "" {
				home = os.Getenv("CHATCRYPT_HOME")
			}
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".chatcrypt")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			iterations := 0
			if v := os.Getenv("CHATCRYPT_KDF_ITERATIONS"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					return err
				}
				iterations = n
			}

			var err error
			wire, err = app.NewWire(app.Config{
				Home:          home,
				DatabaseURL:   os.Getenv("CHATCRYPT_DATABASE_URL"),
				KDFIterations: iterations,
			})
			return err
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.chatcrypt)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the identity keys")

	root.AddCommand(initCmd(), fingerprintCmd(), exportCmd(), contactCmd(), sealCmd(), openCmd())
	return root.Execute()
}
