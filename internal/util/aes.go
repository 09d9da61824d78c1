package util

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

const (
	AESKeySize = 32

	// IVSize is the length of the random IV prepended to every ciphertext.
	IVSize = aes.BlockSize
)

// EncryptAESCBC encrypts plainText with AES-256-CBC under rawKey. The
// plaintext is PKCS#7-padded and a fresh random IV is prepended to the
// returned ciphertext.
func EncryptAESCBC(plainText, rawKey []byte) ([]byte, error) {
	if len(rawKey) != AESKeySize {
		return nil, fmt.Errorf("invalid AES key size: got %d, want %d", len(rawKey), AESKeySize)
	}

	block, err := aes.NewCipher(rawKey)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	padded := padPKCS7(plainText, aes.BlockSize)

	cipherText := make([]byte, IVSize+len(padded))
	iv := cipherText[:IVSize]
	if _, err = io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("generating IV: %w", err)
	}

	cipher.NewCBCEncrypter(block, iv).CryptBlocks(cipherText[IVSize:], padded)

	return cipherText, nil
}

// DecryptAESCBC reverses EncryptAESCBC: it strips the leading IV, decrypts,
// and removes the PKCS#7 padding. Truncated input, misaligned ciphertext and
// invalid padding are all errors.
func DecryptAESCBC(cipherText, rawKey []byte) ([]byte, error) {
	if len(rawKey) != AESKeySize {
		return nil, fmt.Errorf("invalid AES key size: got %d, want %d", len(rawKey), AESKeySize)
	}

	block, err := aes.NewCipher(rawKey)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	// PKCS#7 always pads, so the smallest valid input is the IV plus one block.
	if len(cipherText) < IVSize+aes.BlockSize {
		return nil, fmt.Errorf("ciphertext shorter than IV plus one block")
	}

	iv, cipherText := cipherText[:IVSize], cipherText[IVSize:]
	if len(cipherText)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of the block size", len(cipherText))
	}

	plainText := make([]byte, len(cipherText))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plainText, cipherText)

	return unpadPKCS7(plainText, aes.BlockSize)
}

func padPKCS7(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	padded := make([]byte, len(b)+n)
	copy(padded, b)
	for i := len(b); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func unpadPKCS7(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(b))
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return b[:len(b)-n], nil
}

// NewAESKey returns a fresh random 256-bit AES key.
func NewAESKey() ([]byte, error) {
	rawKey := make([]byte, AESKeySize)
	if _, err := rand.Read(rawKey); err != nil {
		return nil, fmt.Errorf("generating AES key: %w", err)
	}
	return rawKey, nil
}
