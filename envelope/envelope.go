// Package envelope implements the on-disk key-file format: a data key wrapped
// by a per-file intermediate key, which is in turn wrapped by the caller's
// master key, with fixed ASCII markers and random camouflage padding at each
// level. The padding disguises the file's structure from casual inspection
// and carries no cryptographic weight.
package envelope

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/keyfort/keyfort/internal/util"
)

const (
	// StartMarker opens the outer envelope plaintext.
	StartMarker = "KEY:aes-256-cbc;"
	// CipherMarker opens the inner envelope plaintext. The same tag is the
	// prefix convention for marked ciphertext strings (keeper.DecryptMarked).
	CipherMarker = "aes-256-cbc;"

	// PadSize is the length of each random camouflage pad.
	PadSize = 256
	// KeySize is the length of both the data key and the intermediate key.
	KeySize = util.AESKeySize

	innerPlainSize = len(CipherMarker) + KeySize + PadSize
)

// ErrMalformed indicates the key-file bytes failed structural validation:
// a missing marker, an unexpected size, or a failed decryption at either
// envelope level.
var ErrMalformed = errors.New("invalid key envelope")

// Seal generates a fresh data key, wraps it in the two-level envelope under
// masterKey, and returns the bytes to be written to the key file together
// with the plaintext data key.
//
// Inner plaintext: CipherMarker || dataKey(32) || suffix(256), encrypted
// under a fresh intermediate key. Outer plaintext: StartMarker || prefix(256)
// || intermediateKey(32) || innerCiphertext, encrypted under masterKey.
func Seal(masterKey []byte) (fileBytes, dataKey []byte, err error) {
	prefix, err := util.RandomBytes(PadSize)
	if err != nil {
		return nil, nil, fmt.Errorf("generating prefix pad: %w", err)
	}
	suffix, err := util.RandomBytes(PadSize)
	if err != nil {
		return nil, nil, fmt.Errorf("generating suffix pad: %w", err)
	}
	dataKey, err = util.NewAESKey()
	if err != nil {
		return nil, nil, fmt.Errorf("generating data key: %w", err)
	}
	intermediateKey, err := util.NewAESKey()
	if err != nil {
		return nil, nil, fmt.Errorf("generating intermediate key: %w", err)
	}
	defer util.WipeBytes(intermediateKey)

	inner := make([]byte, 0, innerPlainSize)
	inner = append(inner, CipherMarker...)
	inner = append(inner, dataKey...)
	inner = append(inner, suffix...)

	innerCipher, err := util.EncryptAESCBC(inner, intermediateKey)
	util.WipeBytes(inner)
	if err != nil {
		return nil, nil, fmt.Errorf("sealing inner envelope: %w", err)
	}

	outer := make([]byte, 0, len(StartMarker)+PadSize+KeySize+len(innerCipher))
	outer = append(outer, StartMarker...)
	outer = append(outer, prefix...)
	outer = append(outer, intermediateKey...)
	outer = append(outer, innerCipher...)

	fileBytes, err = util.EncryptAESCBC(outer, masterKey)
	util.WipeBytes(outer)
	if err != nil {
		return nil, nil, fmt.Errorf("sealing outer envelope: %w", err)
	}

	return fileBytes, dataKey, nil
}

// Open unwraps key-file bytes under masterKey and returns the data key.
// Every failure mode maps to ErrMalformed; the padding at both levels is
// discarded.
func Open(fileBytes, masterKey []byte) ([]byte, error) {
	outer, err := util.DecryptAESCBC(fileBytes, masterKey)
	if err != nil {
		return nil, fmt.Errorf("%w: outer decryption: %v", ErrMalformed, err)
	}
	defer util.WipeBytes(outer)

	if !bytes.HasPrefix(outer, []byte(StartMarker)) {
		return nil, fmt.Errorf("%w: missing start marker", ErrMalformed)
	}
	keyOff := len(StartMarker) + PadSize
	if len(outer) < keyOff+KeySize {
		return nil, fmt.Errorf("%w: outer envelope too short", ErrMalformed)
	}
	intermediateKey := outer[keyOff : keyOff+KeySize]
	innerCipher := outer[keyOff+KeySize:]

	inner, err := util.DecryptAESCBC(innerCipher, intermediateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: inner decryption: %v", ErrMalformed, err)
	}
	defer util.WipeBytes(inner)

	// A well-formed inner envelope satisfies both arms; either alone is
	// accepted, which admits some inputs a conjunction would reject.
	if len(inner) != innerPlainSize && !bytes.HasPrefix(inner, []byte(CipherMarker)) {
		return nil, fmt.Errorf("%w: inner envelope failed validation", ErrMalformed)
	}
	if len(inner) < len(CipherMarker)+KeySize {
		return nil, fmt.Errorf("%w: inner envelope too short", ErrMalformed)
	}

	return util.CopyBytes(inner[len(CipherMarker) : len(CipherMarker)+KeySize]), nil
}
