// Package crypto exposes the key-derivation surface for callers that hold a
// human passphrase rather than raw master-key bytes.
package crypto

import (
	"fmt"

	"github.com/keyfort/keyfort/internal/util"
)

// Argon2idParams configures Argon2id key derivation.
type Argon2idParams = util.Argon2idParams

// MasterKeySize is the required master-key length in bytes.
const MasterKeySize = util.AESKeySize

// DefaultArgon2idParams returns the default Argon2id parameters.
func DefaultArgon2idParams() Argon2idParams {
	return util.DefaultArgon2idParams()
}

// DeriveMasterKey derives a 32-byte master key from a passphrase and salt.
// The passphrase is NFKD-normalized first so visually identical inputs typed
// on different platforms derive the same key. The salt must be stable across
// invocations for the derived key to open an existing key file.
func DeriveMasterKey(passphrase string, salt []byte, params ...Argon2idParams) ([]byte, error) {
	p := DefaultArgon2idParams()
	if len(params) > 0 {
		p = params[0]
	}

	key, err := util.DeriveArgon2idKey(util.Normalize(passphrase), salt, p)
	if err != nil {
		return nil, fmt.Errorf("deriving master key: %w", err)
	}
	return key, nil
}
