package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastParams() Argon2idParams {
	p := DefaultArgon2idParams()
	p.MemoryKiB = 8 * 1024
	return p
}

func TestDeriveMasterKey(t *testing.T) {
	salt := []byte("0123456789abcdef")

	key, err := DeriveMasterKey("correct horse battery staple", salt, fastParams())
	require.NoError(t, err)
	assert.Len(t, key, MasterKeySize)

	again, err := DeriveMasterKey("correct horse battery staple", salt, fastParams())
	require.NoError(t, err)
	assert.Equal(t, key, again, "derivation is deterministic")

	other, err := DeriveMasterKey("wrong passphrase", salt, fastParams())
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	otherSalt, err := DeriveMasterKey("correct horse battery staple", []byte("fedcba9876543210"), fastParams())
	require.NoError(t, err)
	assert.NotEqual(t, key, otherSalt)
}

func TestDeriveMasterKey_Normalizes(t *testing.T) {
	salt := []byte("0123456789abcdef")

	// U+00E9 (precomposed) and U+0065 U+0301 (decomposed) are the same
	// passphrase after NFKD.
	composed, err := DeriveMasterKey("café", salt, fastParams())
	require.NoError(t, err)
	decomposed, err := DeriveMasterKey("café", salt, fastParams())
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestDeriveMasterKey_RejectsEmptySalt(t *testing.T) {
	_, err := DeriveMasterKey("passphrase", nil, fastParams())
	require.Error(t, err)
}
