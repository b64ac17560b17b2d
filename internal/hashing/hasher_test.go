package hashing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beneficiary-portal/internal/config"
)

func testHasher() *Hasher {
	return NewHasher(&config.Config{
		Environment: "test",
		Hashing: config.HashingConfig{
			Argon2MemoryCost:  1024,
			Argon2TimeCost:    1,
			Argon2Parallelism: 1,
			Pepper:            "test-pepper",
		},
	})
}

func TestHashAndVerifyPIN(t *testing.T) {
	h := testHasher()

	result, err := h.HashPIN("123456")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmArgon2, result.Algorithm)
	assert.NotEmpty(t, result.Salt)
	assert.NotEqual(t, "123456", result.Hash)

	ok, err := h.VerifyPIN("123456", result)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.VerifyPIN("654321", result)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPINUniqueSalts(t *testing.T) {
	h := testHasher()

	first, err := h.HashPIN("123456")
	require.NoError(t, err)
	second, err := h.HashPIN("123456")
	require.NoError(t, err)

	assert.NotEqual(t, first.Salt, second.Salt)
	assert.NotEqual(t, first.Hash, second.Hash)
}

func TestContextSeparatesCredentialTypes(t *testing.T) {
	h := testHasher()

	pinResult, err := h.HashPIN("123456")
	require.NoError(t, err)

	// the same digits hashed as a PIN must not verify as an OTP
	ok, err := h.VerifyOTP("123456", pinResult)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyRejectsCorruptHash(t *testing.T) {
	h := testHasher()

	_, err := h.VerifyPIN("123456", &HashResult{
		Hash:      "!!!not-base64!!!",
		Salt:      "!!!not-base64!!!",
		Algorithm: AlgorithmArgon2,
	})
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestLegacyHash(t *testing.T) {
	assert.Equal(t, LegacyHash("123456"), LegacyHash("123456"))
	assert.NotEqual(t, LegacyHash("123456"), LegacyHash("654321"))
	assert.NotEmpty(t, LegacyHash("000000"))
}

func TestVerifyLegacyCredential(t *testing.T) {
	h := testHasher()

	stored := &HashResult{
		Hash:      LegacyHash("123456"),
		Algorithm: AlgorithmLegacy,
	}

	ok, err := h.VerifyPIN("123456", stored)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.VerifyPIN("111111", stored)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTempPasswordRoundtrip(t *testing.T) {
	h := testHasher()

	result, err := h.HashTempPassword("XK7Q2MNP")
	require.NoError(t, err)

	ok, err := h.VerifyTempPassword("XK7Q2MNP", result)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.VerifyTempPassword("WRONGPWD", result)
	require.NoError(t, err)
	assert.False(t, ok)
}
