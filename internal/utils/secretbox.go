// internal/utils/secretbox.go
package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// Scratch codes are stored as base64(salt || nonce || tag || ciphertext).
// Encryption is non-deterministic (fresh salt and nonce per call); duplicate
// detection goes through HashScratchCode instead of comparing ciphertexts.
var (
	ErrScratchKeyMissing = errors.New("scratch code encryption key is missing or too short")
	ErrScratchBlobFormat = errors.New("stored scratch code blob is malformed")
	ErrScratchIntegrity  = errors.New("stored scratch code failed integrity check")
)

const (
	scratchSaltLen   = 16
	scratchNonceLen  = 12
	scratchTagLen    = 16
	scratchMinKeyLen = 32
)

func deriveScratchKey(masterKey string, salt []byte) ([]byte, error) {
	return scrypt.Key([]byte(masterKey), salt, 1<<14, 8, 1, 32)
}

func EncryptScratchCode(masterKey, plaintext string) (string, error) {
	if len(masterKey) < scratchMinKeyLen {
		return "", ErrScratchKeyMissing
	}

	salt := make([]byte, scratchSaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := deriveScratchKey(masterKey, salt)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, scratchNonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends the auth tag after the ciphertext; the stored layout
	// puts the tag before it so fixed offsets parse every segment.
	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-scratchTagLen]
	tag := sealed[len(sealed)-scratchTagLen:]

	blob := make([]byte, 0, scratchSaltLen+scratchNonceLen+scratchTagLen+len(ciphertext))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, tag...)
	blob = append(blob, ciphertext...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

func DecryptScratchCode(masterKey, encoded string) (string, error) {
	if len(masterKey) < scratchMinKeyLen {
		return "", ErrScratchKeyMissing
	}

	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrScratchBlobFormat
	}

	if len(blob) <= scratchSaltLen+scratchNonceLen+scratchTagLen {
		return "", ErrScratchBlobFormat
	}

	salt := blob[:scratchSaltLen]
	nonce := blob[scratchSaltLen : scratchSaltLen+scratchNonceLen]
	tag := blob[scratchSaltLen+scratchNonceLen : scratchSaltLen+scratchNonceLen+scratchTagLen]
	ciphertext := blob[scratchSaltLen+scratchNonceLen+scratchTagLen:]

	key, err := deriveScratchKey(masterKey, salt)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	sealed := make([]byte, 0, len(ciphertext)+scratchTagLen)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrScratchIntegrity
	}

	return string(plaintext), nil
}

// HashScratchCode returns a deterministic digest used only to detect the
// same real-world code being listed twice, never for access control.
// Retail codes vary in grouping (dashes, spaces) and case between
// renderings, so everything except the alphanumerics is dropped before
// hashing.
func HashScratchCode(code string) string {
	normalized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return -1
		}
	}, code)
	return HashString(strings.ToUpper(normalized))
}
