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

	"account-service/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
)

var (
	ErrEncryptionFailed = errors.New("encryption failed")
	ErrDecryptionFailed = errors.New("decryption failed")
)

// EncryptedField is the envelope-encryption result for one stored value:
// AES-GCM ciphertext plus the KMS-wrapped data key that protects it.
type EncryptedField struct {
	Ciphertext []byte
	WrappedDEK string
	KeyID      string
}

// Manager envelope-encrypts PII columns (email at rest). With KMS disabled
// the data key is held locally base64-encoded, which keeps development
// environments free of AWS credentials.
type Manager struct {
	kmsClient *kms.Client
	config    *config.Config
	keyCache  sync.Map // wrapped DEK -> plaintext DEK
}

func NewManager(cfg *config.Config, kmsClient *kms.Client) *Manager {
	return &Manager{
		kmsClient: kmsClient,
		config:    cfg,
	}
}

type dataKey struct {
	plaintext []byte
	wrapped   []byte
	keyID     string
}

func (m *Manager) generateDataKey(ctx context.Context) (*dataKey, error) {
	if !m.config.KMS.Enabled {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
		}
		return &dataKey{
			plaintext: key,
			wrapped:   []byte(base64.StdEncoding.EncodeToString(key)),
			keyID:     "local",
		}, nil
	}

	out, err := m.kmsClient.GenerateDataKey(ctx, &kms.GenerateDataKeyInput{
		KeyId:   aws.String(m.config.KMS.KeyID),
		KeySpec: types.DataKeySpecAes256,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate data key: %w", err)
	}

	return &dataKey{
		plaintext: out.Plaintext,
		wrapped:   out.CiphertextBlob,
		keyID:     m.config.KMS.KeyID,
	}, nil
}

// EncryptField encrypts plaintext under a fresh data key.
func (m *Manager) EncryptField(ctx context.Context, plaintext string) (*EncryptedField, error) {
	dk, err := m.generateDataKey(ctx)
	if err != nil {
		return nil, err
	}

	gcm, err := newGCM(dk.plaintext)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	wrapped := base64.StdEncoding.EncodeToString(dk.wrapped)
	m.keyCache.Store(wrapped, dk.plaintext)

	return &EncryptedField{
		Ciphertext: gcm.Seal(nonce, nonce, []byte(plaintext), nil),
		WrappedDEK: wrapped,
		KeyID:      dk.keyID,
	}, nil
}

// DecryptField recovers the plaintext of a stored field, unwrapping the data
// key through KMS (or the local fallback) on cache miss.
func (m *Manager) DecryptField(ctx context.Context, field *EncryptedField) (string, error) {
	var plaintextDEK []byte

	if cached, ok := m.keyCache.Load(field.WrappedDEK); ok {
		plaintextDEK = cached.([]byte)
	} else {
		wrapped, err := base64.StdEncoding.DecodeString(field.WrappedDEK)
		if err != nil {
			return "", fmt.Errorf("%w: invalid DEK format", ErrDecryptionFailed)
		}

		if m.config.KMS.Enabled {
			out, err := m.kmsClient.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: wrapped})
			if err != nil {
				return "", fmt.Errorf("%w: failed to unwrap DEK: %v", ErrDecryptionFailed, err)
			}
			plaintextDEK = out.Plaintext
		} else {
			plaintextDEK, err = base64.StdEncoding.DecodeString(string(wrapped))
			if err != nil {
				return "", fmt.Errorf("%w: invalid local DEK", ErrDecryptionFailed)
			}
		}
		m.keyCache.Store(field.WrappedDEK, plaintextDEK)
	}

	gcm, err := newGCM(plaintextDEK)
	if err != nil {
		return "", err
	}

	if len(field.Ciphertext) < gcm.NonceSize() {
		return "", ErrDecryptionFailed
	}
	nonce, ciphertext := field.Ciphertext[:gcm.NonceSize()], field.Ciphertext[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	return gcm, nil
}
