package keeper

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyfort/keyfort/envelope"
	"github.com/keyfort/keyfort/internal/util"
)

func newTestKeeper(t *testing.T, masterKey []byte) *Keeper {
	t.Helper()
	k, err := New(masterKey, WithPath(filepath.Join(t.TempDir(), "test.key")))
	require.NoError(t, err)
	return k
}

func TestNew_RejectsBadMasterKeySize(t *testing.T) {
	_, err := New([]byte("too short"), WithPath("unused.key"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "master key size")
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	masterKey, _ := util.NewAESKey()
	k := newTestKeeper(t, masterKey)
	defer k.Destroy()

	for _, plain := range []string{"secret message", "", "héllo wörld ☺", "multi\nline\ninput"} {
		cipherText, err := k.Encrypt(plain)
		require.NoError(t, err)

		decrypted, err := k.Decrypt(cipherText)
		require.NoError(t, err)
		assert.Equal(t, plain, decrypted)
	}

	// Repeated calls keep working off the resident key.
	first, err := k.Encrypt("again")
	require.NoError(t, err)
	second, err := k.Encrypt("again")
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "fresh IV per encryption")
}

func TestEncrypt_CreatesKeyFileOnFirstUse(t *testing.T) {
	masterKey, _ := util.NewAESKey()
	k := newTestKeeper(t, masterKey)
	defer k.Destroy()

	_, err := os.Stat(k.FilePath())
	require.True(t, os.IsNotExist(err), "no key file before first use")

	_, err = k.Encrypt("anything")
	require.NoError(t, err)

	info, err := os.Stat(k.FilePath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestDecrypt_AcrossInstances(t *testing.T) {
	masterKey, _ := util.NewAESKey()
	path := filepath.Join(t.TempDir(), "shared.key")

	k1, err := New(masterKey, WithPath(path))
	require.NoError(t, err)
	cipherText, err := k1.Encrypt("survives restarts")
	require.NoError(t, err)
	k1.Destroy()

	k2, err := New(masterKey, WithPath(path))
	require.NoError(t, err)
	defer k2.Destroy()

	decrypted, err := k2.Decrypt(cipherText)
	require.NoError(t, err)
	assert.Equal(t, "survives restarts", decrypted)
}

func TestDecrypt_RejectsBadInput(t *testing.T) {
	masterKey, _ := util.NewAESKey()
	k := newTestKeeper(t, masterKey)
	defer k.Destroy()

	_, err := k.Decrypt("not base64 !!!")
	require.Error(t, err)

	_, err = k.Decrypt(util.Base64Encode([]byte("too short")))
	require.Error(t, err)
}

func TestDecryptMarked(t *testing.T) {
	masterKey, _ := util.NewAESKey()
	k := newTestKeeper(t, masterKey)
	defer k.Destroy()

	cipherText, err := k.Encrypt("marked value")
	require.NoError(t, err)

	// Raw Encrypt output carries no marker; the storing caller prepends it.
	assert.False(t, k.IsEncrypted(cipherText))

	marked := envelope.CipherMarker + cipherText
	assert.True(t, k.IsEncrypted(marked))

	decrypted, err := k.DecryptMarked(marked)
	require.NoError(t, err)
	assert.Equal(t, "marked value", decrypted)

	// Unmarked values pass through unchanged, including the empty string.
	for _, plain := range []string{"plain value", "", cipherText} {
		out, err := k.DecryptMarked(plain)
		require.NoError(t, err)
		assert.Equal(t, plain, out)
	}
}

func TestLoad_TamperedKeyFile(t *testing.T) {
	masterKey, _ := util.NewAESKey()
	path := filepath.Join(t.TempDir(), "tampered.key")

	k1, err := New(masterKey, WithPath(path))
	require.NoError(t, err)
	_, err = k1.Encrypt("anything")
	require.NoError(t, err)
	k1.Destroy()

	fileBytes, err := os.ReadFile(path)
	require.NoError(t, err)
	fileBytes[0] ^= 0x01
	require.NoError(t, os.WriteFile(path, fileBytes, 0o600))

	k2, err := New(masterKey, WithPath(path))
	require.NoError(t, err)
	defer k2.Destroy()

	_, err = k2.Encrypt("anything")
	require.ErrorIs(t, err, ErrMalformedKeyFile)
}

func TestLoad_WrongMasterKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrongkey.key")

	masterKey, _ := util.NewAESKey()
	k1, err := New(masterKey, WithPath(path))
	require.NoError(t, err)
	_, err = k1.Encrypt("anything")
	require.NoError(t, err)
	k1.Destroy()

	otherKey, _ := util.NewAESKey()
	k2, err := New(otherKey, WithPath(path))
	require.NoError(t, err)
	defer k2.Destroy()

	_, err = k2.Encrypt("anything")
	require.ErrorIs(t, err, ErrMalformedKeyFile)
}

func TestKey_DirectoryAtPath(t *testing.T) {
	masterKey, _ := util.NewAESKey()
	k, err := New(masterKey, WithPath(t.TempDir()))
	require.NoError(t, err)
	defer k.Destroy()

	_, err = k.Encrypt("anything")
	require.ErrorIs(t, err, ErrMalformedKeyFile)
}

func TestCreate_RefusesExistingFile(t *testing.T) {
	masterKey, _ := util.NewAESKey()
	path := filepath.Join(t.TempDir(), "existing.key")
	require.NoError(t, os.WriteFile(path, []byte("already here"), 0o600))

	k, err := New(masterKey, WithPath(path))
	require.NoError(t, err)
	defer k.Destroy()

	// Drive the creation path directly, as a racing creator would hit it.
	_, err = k.create()
	require.ErrorIs(t, err, ErrKeyFileExists)

	untouched, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("already here"), untouched, "existing file left untouched")
}

func TestReset(t *testing.T) {
	masterKey, _ := util.NewAESKey()
	path := filepath.Join(t.TempDir(), "reset.key")

	k1, err := New(masterKey, WithPath(path))
	require.NoError(t, err)
	oldCipher, err := k1.Encrypt("old secret")
	require.NoError(t, err)

	require.NoError(t, k1.Reset())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "key file absent after Reset")

	// Reset on an absent file is a no-op.
	require.NoError(t, k1.Reset())

	// The live instance keeps its resident key.
	decrypted, err := k1.Decrypt(oldCipher)
	require.NoError(t, err)
	assert.Equal(t, "old secret", decrypted)
	k1.Destroy()

	// A fresh instance regenerates the file with a new data key, so the old
	// ciphertext is no longer decryptable.
	k2, err := New(masterKey, WithPath(path))
	require.NoError(t, err)
	defer k2.Destroy()

	_, err = k2.Encrypt("new secret")
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err, "key file regenerated")

	decrypted, err = k2.Decrypt(oldCipher)
	if err == nil {
		assert.NotEqual(t, "old secret", decrypted)
	}
}

func TestEncrypt_ZeroMasterKey(t *testing.T) {
	k := newTestKeeper(t, make([]byte, 32))
	defer k.Destroy()

	cipherText, err := k.Encrypt("secret message")
	require.NoError(t, err)
	assert.False(t, k.IsEncrypted(cipherText))

	decrypted, err := k.Decrypt(cipherText)
	require.NoError(t, err)
	assert.Equal(t, "secret message", decrypted)
}

func TestKey_ConcurrentFirstUse(t *testing.T) {
	masterKey, _ := util.NewAESKey()
	k := newTestKeeper(t, masterKey)
	defer k.Destroy()

	const n = 16
	cipherTexts := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cipherText, err := k.Encrypt("concurrent")
			assert.NoError(t, err)
			cipherTexts[i] = cipherText
		}(i)
	}
	wg.Wait()

	// Every ciphertext decrypts under the single resident key.
	for _, cipherText := range cipherTexts {
		decrypted, err := k.Decrypt(cipherText)
		require.NoError(t, err)
		assert.Equal(t, "concurrent", decrypted)
	}
}

func TestKeyPathFor(t *testing.T) {
	assert.Equal(t, filepath.Join("/opt/app", "server.key"), keyPathFor("/opt/app/server.bin"))
	assert.Equal(t, filepath.Join("/opt/app", "server.key"), keyPathFor("/opt/app/server"))
	assert.Equal(t, filepath.Join("/opt/app", "server.key"), keyPathFor("/opt/app/server.tar.gz"))
}
