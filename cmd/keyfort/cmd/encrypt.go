package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/keyfort/keyfort/envelope"
)

var marked bool

var encryptCmd = &cobra.Command{
	Use:   "encrypt [text]",
	Short: "Encrypt a string under the stored data key",
	Long: `Encrypt a string under the stored data key, creating the key file on first
use. With no argument, the plaintext is read from stdin. With --marked, the
output is prefixed with the cipher marker so it can be dropped into
configuration files and recognized on the way back in.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := newKeeper()
		if err != nil {
			return err
		}
		defer k.Destroy()

		var plainText string
		if len(args) == 1 {
			plainText = args[0]
		} else {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			plainText = string(data)
		}

		cipherText, err := k.Encrypt(plainText)
		if err != nil {
			return err
		}
		if marked {
			cipherText = envelope.CipherMarker + cipherText
		}

		fmt.Fprintln(cmd.OutOrStdout(), cipherText)
		return nil
	},
}

func init() {
	encryptCmd.Flags().BoolVarP(&marked, "marked", "m", false, "prefix the output with the cipher marker")
	rootCmd.AddCommand(encryptCmd)
}
