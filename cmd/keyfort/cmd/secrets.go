package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keyfort/keyfort/store"
)

var dbPath string

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage named secrets in an encrypted store",
}

var secretSetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Store a secret",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *store.Store) error {
			return s.Put(args[0], args[1])
		})
	},
}

var secretGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Retrieve a secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *store.Store) error {
			value, err := s.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		})
	},
}

var secretListCmd = &cobra.Command{
	Use:   "list",
	Short: "List secret names",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *store.Store) error {
			names, err := s.List()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		})
	},
}

var secretDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *store.Store) error {
			return s.Delete(args[0])
		})
	},
}

func withStore(fn func(*store.Store) error) error {
	k, err := newKeeper()
	if err != nil {
		return err
	}
	defer k.Destroy()

	s, err := store.Open(dbPath, k)
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(s)
}

func init() {
	secretCmd.PersistentFlags().StringVar(&dbPath, "db", "secrets.db", "path to the secret database")
	secretCmd.AddCommand(secretSetCmd, secretGetCmd, secretListCmd, secretDeleteCmd)
	rootCmd.AddCommand(secretCmd)
}
