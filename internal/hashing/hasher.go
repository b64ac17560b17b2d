package hashing

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"beneficiary-portal/internal/config"
	"beneficiary-portal/internal/util"

	"golang.org/x/crypto/argon2"
)

var ErrInvalidHash = errors.New("invalid hash format")

const (
	// AlgorithmArgon2 is the scheme used for every credential written today.
	AlgorithmArgon2 = "argon2id-v1"
	// AlgorithmLegacy marks credentials migrated from the old portal, which
	// stored a multiply-by-31 rolling hash rendered in base 36. Verified once
	// and rehashed on the next successful login.
	AlgorithmLegacy = "legacy-v0"

	saltLength = 32
	keyLength  = 32
)

type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
}

type Hasher struct {
	params Argon2Params
	pepper string
}

// HashResult is what gets persisted alongside a credential or OTP.
type HashResult struct {
	Hash      string `json:"hash"`
	Salt      string `json:"salt"`
	Algorithm string `json:"algorithm"`
}

func NewHasher(cfg *config.Config) *Hasher {
	pepper := cfg.Hashing.Pepper
	if pepper == "" {
		if cfg.IsProduction() {
			util.Fatal("HASHING_PEPPER must be set in production")
		}
		pepper = "dev-pepper"
	}

	return &Hasher{
		params: Argon2Params{
			Memory:      uint32(cfg.Hashing.Argon2MemoryCost),
			Iterations:  uint32(cfg.Hashing.Argon2TimeCost),
			Parallelism: uint8(cfg.Hashing.Argon2Parallelism),
		},
		pepper: pepper,
	}
}

func (h *Hasher) HashPIN(pin string) (*HashResult, error) {
	return h.hashWithPepper(pin, "pin")
}

func (h *Hasher) VerifyPIN(pin string, result *HashResult) (bool, error) {
	return h.verifyWithPepper(pin, result, "pin")
}

func (h *Hasher) HashOTP(otp string) (*HashResult, error) {
	return h.hashWithPepper(otp, "otp")
}

func (h *Hasher) VerifyOTP(otp string, result *HashResult) (bool, error) {
	return h.verifyWithPepper(otp, result, "otp")
}

func (h *Hasher) HashTempPassword(password string) (*HashResult, error) {
	return h.hashWithPepper(password, "temp_password")
}

func (h *Hasher) VerifyTempPassword(password string, result *HashResult) (bool, error) {
	return h.verifyWithPepper(password, result, "temp_password")
}

func (h *Hasher) hashWithPepper(data, context string) (*HashResult, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	// Context string keeps a PIN hash from doubling as an OTP hash
	contextualData := data + h.pepper + context

	hash := argon2.IDKey(
		[]byte(contextualData),
		salt,
		h.params.Iterations,
		h.params.Memory,
		h.params.Parallelism,
		keyLength,
	)

	return &HashResult{
		Hash:      base64.RawURLEncoding.EncodeToString(hash),
		Salt:      base64.RawURLEncoding.EncodeToString(salt),
		Algorithm: AlgorithmArgon2,
	}, nil
}

func (h *Hasher) verifyWithPepper(data string, result *HashResult, context string) (bool, error) {
	if result.Algorithm == AlgorithmLegacy {
		return subtle.ConstantTimeCompare([]byte(LegacyHash(data)), []byte(result.Hash)) == 1, nil
	}

	salt, err := base64.RawURLEncoding.DecodeString(result.Salt)
	if err != nil {
		return false, ErrInvalidHash
	}

	expectedHash, err := base64.RawURLEncoding.DecodeString(result.Hash)
	if err != nil {
		return false, ErrInvalidHash
	}

	contextualData := data + h.pepper + context

	computedHash := argon2.IDKey(
		[]byte(contextualData),
		salt,
		h.params.Iterations,
		h.params.Memory,
		h.params.Parallelism,
		uint32(len(expectedHash)),
	)

	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1, nil
}

// LegacyHash reproduces the old portal's rolling hash: 32-bit multiply-by-31
// accumulation, absolute value, base-36. Collision-prone and reversible; kept
// only so pre-migration credentials stay verifiable until rehashed.
func LegacyHash(data string) string {
	var hash int32
	for _, r := range data {
		hash = hash*31 + int32(r)
	}

	value := int64(hash)
	if value < 0 {
		value = -value
	}
	return strconv.FormatInt(value, 36)
}
