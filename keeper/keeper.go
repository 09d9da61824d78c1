// Package keeper manages the lifecycle of an envelope-wrapped data key and
// exposes string encryption on top of it. A Keeper owns a caller-supplied
// master key and a key-file path; the data key is generated and persisted on
// first use, then cached for the lifetime of the instance.
//
// The master key is held in a memguard Enclave (encrypted at rest in memory).
// Call Destroy() when done to wipe resident key material.
package keeper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/awnumar/memguard"

	"github.com/keyfort/keyfort/envelope"
	"github.com/keyfort/keyfort/internal/util"
)

// Keeper owns a master key and a key-file path. Safe for concurrent use;
// Destroy must not race in-flight operations.
type Keeper struct {
	path   string
	master *memguard.Enclave

	mu      sync.Mutex
	dataKey []byte
}

// Option configures a Keeper.
type Option func(*Keeper)

// WithPath sets the key-file path. Default: the running executable's
// directory, file named after the executable up to its first dot with ".key"
// appended.
func WithPath(path string) Option {
	return func(k *Keeper) {
		k.path = path
	}
}

// New returns a Keeper for the given 32-byte master key. The key is copied
// into an enclave; the caller may wipe its own copy afterwards. No file I/O
// happens until the first Encrypt or Decrypt.
func New(masterKey []byte, opts ...Option) (*Keeper, error) {
	if len(masterKey) != util.AESKeySize {
		return nil, fmt.Errorf("invalid master key size: got %d, want %d", len(masterKey), util.AESKeySize)
	}

	k := &Keeper{
		master: memguard.NewEnclave(util.CopyBytes(masterKey)),
	}
	for _, opt := range opts {
		opt(k)
	}

	if k.path == "" {
		path, err := defaultPath()
		if err != nil {
			return nil, err
		}
		k.path = path
	}

	return k, nil
}

func defaultPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoExecutablePath, err)
	}
	return keyPathFor(exe), nil
}

// keyPathFor derives the default key-file path from an executable path:
// same directory, base name truncated at the first dot, ".key" appended.
func keyPathFor(exe string) string {
	base := filepath.Base(exe)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return filepath.Join(filepath.Dir(exe), base+".key")
}

// key returns the resident data key, loading or creating the key file on
// first use. At-most-once per instance, mutex-guarded.
func (k *Keeper) key() ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.dataKey != nil {
		return k.dataKey, nil
	}

	info, err := os.Stat(k.path)
	var dataKey []byte
	switch {
	case err == nil && info.IsDir():
		return nil, fmt.Errorf("%w: %s is a directory", ErrMalformedKeyFile, k.path)
	case err == nil:
		dataKey, err = k.load()
	case os.IsNotExist(err):
		dataKey, err = k.create()
	default:
		return nil, fmt.Errorf("checking key file: %w", err)
	}
	if err != nil {
		return nil, err
	}

	k.dataKey = dataKey
	return k.dataKey, nil
}

func (k *Keeper) load() ([]byte, error) {
	fileBytes, err := os.ReadFile(k.path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	master, err := k.master.Open()
	if err != nil {
		return nil, fmt.Errorf("opening master key enclave: %w", err)
	}
	defer master.Destroy()

	dataKey, err := envelope.Open(fileBytes, master.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKeyFile, err)
	}
	return dataKey, nil
}

// create seals a fresh data key and writes the key file. The file must not
// already exist: a concurrent creator loses with ErrKeyFileExists and the
// winner's file is left untouched.
func (k *Keeper) create() ([]byte, error) {
	master, err := k.master.Open()
	if err != nil {
		return nil, fmt.Errorf("opening master key enclave: %w", err)
	}
	defer master.Destroy()

	fileBytes, dataKey, err := envelope.Seal(master.Bytes())
	if err != nil {
		return nil, fmt.Errorf("sealing key file: %w", err)
	}

	f, err := os.OpenFile(k.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		util.WipeBytes(dataKey)
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrKeyFileExists, k.path)
		}
		return nil, fmt.Errorf("creating key file: %w", err)
	}
	if _, err = f.Write(fileBytes); err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		util.WipeBytes(dataKey)
		os.Remove(k.path) // no partial key file left behind
		return nil, fmt.Errorf("writing key file: %w", err)
	}

	return dataKey, nil
}

// Encrypt encrypts plainText with the stored data key and returns the
// ciphertext base64-encoded, without any marker prefix. The first call loads
// or creates the key file.
func (k *Keeper) Encrypt(plainText string) (string, error) {
	dataKey, err := k.key()
	if err != nil {
		return "", err
	}

	cipherText, err := util.EncryptAESCBC([]byte(plainText), dataKey)
	if err != nil {
		return "", fmt.Errorf("encrypting: %w", err)
	}
	return util.Base64Encode(cipherText), nil
}

// Decrypt reverses Encrypt. It fails on invalid base64 and on input that is
// not ciphertext under the stored data key.
func (k *Keeper) Decrypt(cipherText string) (string, error) {
	dataKey, err := k.key()
	if err != nil {
		return "", err
	}

	raw, err := util.Base64Decode(cipherText)
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}
	plainText, err := util.DecryptAESCBC(raw, dataKey)
	if err != nil {
		return "", fmt.Errorf("decrypting: %w", err)
	}
	return string(plainText), nil
}

// DecryptMarked returns data unchanged unless it starts with the cipher
// marker, in which case the marker is stripped and the remainder decrypted.
// The empty string passes through unchanged. This is the convention for
// configuration values that mix plaintext and stored ciphertext.
func (k *Keeper) DecryptMarked(data string) (string, error) {
	if !k.IsEncrypted(data) {
		return data, nil
	}
	return k.Decrypt(strings.TrimPrefix(data, envelope.CipherMarker))
}

// IsEncrypted reports whether data carries the cipher marker prefix.
func (k *Keeper) IsEncrypted(data string) bool {
	return strings.HasPrefix(data, envelope.CipherMarker)
}

// Reset deletes the key file if present. The resident data key of this
// instance is deliberately left intact: a live Keeper keeps operating on its
// already-loaded key, and only a fresh instance (or process) generates a new
// key file.
func (k *Keeper) Reset() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := os.Remove(k.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing key file: %w", err)
	}
	return nil
}

// FilePath returns the key-file path this Keeper operates on.
func (k *Keeper) FilePath() string {
	return k.path
}

// Destroy wipes the resident data key and drops the master-key enclave.
// The Keeper must not be used afterwards.
func (k *Keeper) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()

	util.WipeBytes(k.dataKey)
	k.dataKey = nil
	k.master = nil
}
