package encryption

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"beneficiary-portal/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/google/uuid"
)

var (
	ErrEncryptionFailed = errors.New("encryption failed")
	ErrDecryptionFailed = errors.New("decryption failed")
)

// EncryptedField is the envelope stored for an encrypted column: the AES-GCM
// ciphertext plus the KMS-wrapped data key that produced it.
type EncryptedField struct {
	Ciphertext   string    `json:"ciphertext"`
	EncryptedDEK string    `json:"encrypted_dek"`
	KeyID        string    `json:"key_id"`
	Version      string    `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
}

// Manager performs envelope encryption for beneficiary contact data. With KMS
// disabled (development) data keys are generated locally and stored base64
// encoded rather than wrapped.
type Manager struct {
	kmsClient *kms.Client
	config    *config.Config
	keyCache  sync.Map // encrypted DEK -> plaintext DEK
}

type dataKey struct {
	Plaintext  []byte
	Ciphertext []byte
	KeyID      string
}

func NewManager(cfg *config.Config, kmsClient *kms.Client) *Manager {
	return &Manager{
		kmsClient: kmsClient,
		config:    cfg,
	}
}

func (m *Manager) generateDataKey(ctx context.Context) (*dataKey, error) {
	if !m.config.KMS.Enabled || m.kmsClient == nil {
		return m.generateLocalKey()
	}

	input := &kms.GenerateDataKeyInput{
		KeyId:   aws.String(m.config.KMS.KeyID),
		KeySpec: types.DataKeySpecAes256,
	}

	result, err := m.kmsClient.GenerateDataKey(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to generate data key: %w", err)
	}

	return &dataKey{
		Plaintext:  result.Plaintext,
		Ciphertext: result.CiphertextBlob,
		KeyID:      m.config.KMS.KeyID,
	}, nil
}

func (m *Manager) generateLocalKey() (*dataKey, error) {
	key := make([]byte, 32) // AES-256
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate local key: %w", err)
	}

	// Without KMS the "wrapped" key is just base64 of the plaintext key
	return &dataKey{
		Plaintext:  key,
		Ciphertext: []byte(base64.StdEncoding.EncodeToString(key)),
		KeyID:      uuid.New().String(),
	}, nil
}

// EncryptPhone encrypts a beneficiary phone number for storage at rest
func (m *Manager) EncryptPhone(ctx context.Context, phone string) (*EncryptedField, error) {
	dk, err := m.generateDataKey(ctx)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(dk.Plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(phone), nil)

	encodedDEK := base64.StdEncoding.EncodeToString(dk.Ciphertext)
	m.keyCache.Store(encodedDEK, dk.Plaintext)

	return &EncryptedField{
		Ciphertext:   base64.StdEncoding.EncodeToString(ciphertext),
		EncryptedDEK: encodedDEK,
		KeyID:        dk.KeyID,
		Version:      "v1",
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// DecryptPhone reverses EncryptPhone
func (m *Manager) DecryptPhone(ctx context.Context, field *EncryptedField) (string, error) {
	if cached, ok := m.keyCache.Load(field.EncryptedDEK); ok {
		return m.decryptWithKey(field.Ciphertext, cached.([]byte))
	}

	var plaintextDEK []byte
	if m.config.KMS.Enabled && m.kmsClient != nil {
		ciphertextBlob, err := base64.StdEncoding.DecodeString(field.EncryptedDEK)
		if err != nil {
			return "", fmt.Errorf("%w: invalid DEK format", ErrDecryptionFailed)
		}

		result, err := m.kmsClient.Decrypt(ctx, &kms.DecryptInput{
			CiphertextBlob: ciphertextBlob,
		})
		if err != nil {
			return "", fmt.Errorf("%w: failed to decrypt DEK: %v", ErrDecryptionFailed, err)
		}
		plaintextDEK = result.Plaintext
	} else {
		var err error
		plaintextDEK, err = base64.StdEncoding.DecodeString(field.EncryptedDEK)
		if err != nil {
			return "", fmt.Errorf("%w: invalid local DEK", ErrDecryptionFailed)
		}
	}

	m.keyCache.Store(field.EncryptedDEK, plaintextDEK)

	return m.decryptWithKey(field.Ciphertext, plaintextDEK)
}

func (m *Manager) decryptWithKey(ciphertextB64 string, key []byte) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return "", fmt.Errorf("%w: invalid ciphertext format", ErrDecryptionFailed)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	return string(plaintext), nil
}

// ClearCache drops the DEK cache
func (m *Manager) ClearCache() {
	m.keyCache.Range(func(key, _ interface{}) bool {
		m.keyCache.Delete(key)
		return true
	})
}
