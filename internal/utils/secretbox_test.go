// internal/utils/secretbox_test.go
package utils

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMasterKey = "0123456789abcdef0123456789abcdef"

func TestScratchCodeRoundTrip(t *testing.T) {
	blob, err := EncryptScratchCode(testMasterKey, "AMZN-1234-5678-ABCD")
	require.NoError(t, err)
	assert.NotContains(t, blob, "AMZN")

	plaintext, err := DecryptScratchCode(testMasterKey, blob)
	require.NoError(t, err)
	assert.Equal(t, "AMZN-1234-5678-ABCD", plaintext)
}

func TestEncryptScratchCodeNonDeterministic(t *testing.T) {
	first, err := EncryptScratchCode(testMasterKey, "SAME-CODE-1111")
	require.NoError(t, err)
	second, err := EncryptScratchCode(testMasterKey, "SAME-CODE-1111")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestEncryptScratchCodeRequiresKey(t *testing.T) {
	_, err := EncryptScratchCode("", "CODE-1234")
	assert.ErrorIs(t, err, ErrScratchKeyMissing)

	_, err = EncryptScratchCode("too-short", "CODE-1234")
	assert.ErrorIs(t, err, ErrScratchKeyMissing)

	_, err = DecryptScratchCode("", "whatever")
	assert.ErrorIs(t, err, ErrScratchKeyMissing)
}

func TestDecryptScratchCodeMalformedBlob(t *testing.T) {
	_, err := DecryptScratchCode(testMasterKey, "not base64!!!")
	assert.ErrorIs(t, err, ErrScratchBlobFormat)

	// Valid base64 but shorter than salt+nonce+tag.
	short := base64.StdEncoding.EncodeToString(make([]byte, 20))
	_, err = DecryptScratchCode(testMasterKey, short)
	assert.ErrorIs(t, err, ErrScratchBlobFormat)
}

func TestDecryptScratchCodeTamperDetected(t *testing.T) {
	blob, err := EncryptScratchCode(testMasterKey, "GIFT-9999-0000")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)

	// Flip one bit in the ciphertext portion.
	raw[len(raw)-1] ^= 0x01
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = DecryptScratchCode(testMasterKey, tampered)
	assert.ErrorIs(t, err, ErrScratchIntegrity)
}

func TestDecryptScratchCodeWrongKey(t *testing.T) {
	blob, err := EncryptScratchCode(testMasterKey, "GIFT-9999-0000")
	require.NoError(t, err)

	_, err = DecryptScratchCode("ffffffffffffffffffffffffffffffff", blob)
	assert.ErrorIs(t, err, ErrScratchIntegrity)
}

func TestHashScratchCodeNormalization(t *testing.T) {
	base := HashScratchCode("amzn-1234-abcd")

	assert.Equal(t, base, HashScratchCode("AMZN-1234-ABCD"))
	assert.Equal(t, base, HashScratchCode("  amzn-1234-abcd  "))
	assert.Equal(t, base, HashScratchCode("amzn- 1234 -abcd"))

	// Grouping is presentation only: hyphenated, spaced, and bare
	// renderings of one code must collide.
	assert.Equal(t, base, HashScratchCode("amzn 1234 abcd"))
	assert.Equal(t, base, HashScratchCode("AMZN1234ABCD"))

	assert.NotEqual(t, base, HashScratchCode("amzn-1234-abce"))
	assert.Len(t, base, 64)
	assert.Equal(t, HashString("AMZN1234ABCD"), base)
}
