package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/metta/pkg/ports"
)

// encryptedPrefix marks an entry sealed by the encryption middleware.
const encryptedPrefix = "enc:v1:"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey seals new entries. Must be 32 bytes (AES-256).
	ActiveKey []byte

	// FallbackKeys are tried when the active key cannot open an entry,
	// so keys can be rotated without losing history.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.HistoryStore
	config EncryptionConfig
}

// NewEncryptionMiddleware seals every entry with AES-GCM before it reaches
// the store. Loading an entry that is not sealed, or that no key opens, fails.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, fmt.Errorf("active key must be 32 bytes (AES-256), got %d", len(config.ActiveKey))
	}
	return func(next ports.HistoryStore) ports.HistoryStore {
		return &encryptionMiddleware{next: next, config: config}
	}, nil
}

// ParseKey decodes a base64 AES-256 key.
func ParseKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("history key is not base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("history key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func (m *encryptionMiddleware) Load(ctx context.Context) ([]string, error) {
	sealed, err := m.next.Load(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]string, 0, len(sealed))
	for i, s := range sealed {
		if !strings.HasPrefix(s, encryptedPrefix) {
			return nil, fmt.Errorf("history entry %d is not encrypted", i+1)
		}
		ciphertext, err := base64.StdEncoding.DecodeString(s[len(encryptedPrefix):])
		if err != nil {
			return nil, fmt.Errorf("history entry %d: %w", i+1, err)
		}
		plain, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
		if err != nil {
			return nil, fmt.Errorf("history entry %d: %w", i+1, err)
		}
		entries = append(entries, string(plain))
	}
	return entries, nil
}

func (m *encryptionMiddleware) Append(ctx context.Context, entries ...string) error {
	sealed := make([]string, len(entries))
	for i, e := range entries {
		ciphertext, err := encrypt([]byte(e), m.config.ActiveKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt history entry: %w", err)
		}
		sealed[i] = encryptedPrefix + base64.StdEncoding.EncodeToString(ciphertext)
	}
	return m.next.Append(ctx, sealed...)
}

func (m *encryptionMiddleware) Clear(ctx context.Context) error {
	return m.next.Clear(ctx)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	for _, key := range append([][]byte{activeKey}, fallbackKeys...) {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}
