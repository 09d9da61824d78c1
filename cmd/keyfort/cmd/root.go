package cmd

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keyfort/keyfort/crypto"
	"github.com/keyfort/keyfort/keeper"
)

var (
	keyFile      string
	masterKeyHex string
	passphrase   string
	saltHex      string
)

var rootCmd = &cobra.Command{
	Use:   "keyfort",
	Short: "Keyfort is an envelope-encrypted key store",
	Long: `Keyfort keeps a long-lived data-encryption key on disk inside a key file
that is itself encrypted under a caller-supplied master key, and encrypts and
decrypts strings with the stored key.

Supply the master key either directly (--master-key) or as a passphrase plus
salt (--passphrase, --salt), from which a 32-byte key is derived.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&keyFile, "key-file", "f", "", "key file path (default: next to the executable)")
	rootCmd.PersistentFlags().StringVarP(&masterKeyHex, "master-key", "k", "", "master key, 32 bytes hex-encoded")
	rootCmd.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase to derive the master key from")
	rootCmd.PersistentFlags().StringVarP(&saltHex, "salt", "s", "", "hex-encoded salt for passphrase derivation")
}

// newKeeper builds a Keeper from the persistent flags.
func newKeeper() (*keeper.Keeper, error) {
	masterKey, err := masterKeyFromFlags()
	if err != nil {
		return nil, err
	}

	var opts []keeper.Option
	if keyFile != "" {
		opts = append(opts, keeper.WithPath(keyFile))
	}
	return keeper.New(masterKey, opts...)
}

func masterKeyFromFlags() ([]byte, error) {
	switch {
	case masterKeyHex != "":
		masterKey, err := hex.DecodeString(masterKeyHex)
		if err != nil {
			return nil, fmt.Errorf("decoding --master-key: %w", err)
		}
		return masterKey, nil
	case passphrase != "":
		if saltHex == "" {
			return nil, fmt.Errorf("--passphrase requires --salt")
		}
		salt, err := hex.DecodeString(saltHex)
		if err != nil {
			return nil, fmt.Errorf("decoding --salt: %w", err)
		}
		return crypto.DeriveMasterKey(passphrase, salt)
	default:
		return nil, fmt.Errorf("either --master-key or --passphrase is required")
	}
}
