package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the key file",
	Long: `Delete the key file. The next encrypt operation generates a fresh data key,
after which previously produced ciphertexts can no longer be decrypted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := newKeeper()
		if err != nil {
			return err
		}
		defer k.Destroy()

		if err := k.Reset(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", k.FilePath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
