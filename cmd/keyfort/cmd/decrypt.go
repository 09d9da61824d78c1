package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var decryptCmd = &cobra.Command{
	Use:   "decrypt [ciphertext]",
	Short: "Decrypt a string encrypted with the stored data key",
	Long: `Decrypt base64 ciphertext produced by "keyfort encrypt". Marker-prefixed
input (from "encrypt --marked") is recognized and unwrapped; with no argument,
the ciphertext is read from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := newKeeper()
		if err != nil {
			return err
		}
		defer k.Destroy()

		var cipherText string
		if len(args) == 1 {
			cipherText = args[0]
		} else {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			cipherText = strings.TrimRight(string(data), "\n")
		}

		var plainText string
		if k.IsEncrypted(cipherText) {
			plainText, err = k.DecryptMarked(cipherText)
		} else {
			plainText, err = k.Decrypt(cipherText)
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), plainText)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decryptCmd)
}
