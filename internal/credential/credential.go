// Package credential encrypts API keys before they are written to the
// settings database. Values are sealed with AES-256-GCM under a key derived
// from the current machine and user, so a copied database is useless
// elsewhere.
package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
)

// EncryptedPrefix marks sealed values in storage.
const EncryptedPrefix = "enc:v1:"

var (
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrInvalidFormat    = errors.New("invalid encrypted format")
)

// secretSuffixes identifies configuration keys whose values are secrets.
var secretSuffixes = []string{".api_key", ".token", ".secret", ".credentials_json"}

// IsSecretKey reports whether a configuration key holds a secret.
func IsSecretKey(key string) bool {
	key = strings.ToLower(key)
	for _, suffix := range secretSuffixes {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}

// Manager seals and opens secret values.
type Manager struct {
	aead cipher.AEAD
}

// NewManager derives the key from the host and user.
func NewManager() (*Manager, error) {
	return NewManagerWithSeed(machineSeed())
}

// NewManagerWithSeed derives the key from an explicit seed.
func NewManagerWithSeed(seed string) (*Manager, error) {
	key := sha256.Sum256([]byte(seed))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Manager{aead: aead}, nil
}

// Encrypt seals plaintext. The empty string stays empty.
func (m *Manager) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, m.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := m.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return EncryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a sealed value. Values without the prefix were stored in
// plain text and are returned unchanged.
func (m *Manager) Decrypt(stored string) (string, error) {
	if !IsEncrypted(stored) {
		return stored, nil
	}

	sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, EncryptedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64: %v", ErrInvalidFormat, err)
	}
	ns := m.aead.NonceSize()
	if len(sealed) < ns {
		return "", ErrInvalidFormat
	}
	plaintext, err := m.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// Protect encrypts value when key names a secret and leaves it alone otherwise.
func (m *Manager) Protect(key, value string) (string, error) {
	if !IsSecretKey(key) || IsEncrypted(value) {
		return value, nil
	}
	return m.Encrypt(value)
}

// Reveal is the inverse of Protect.
func (m *Manager) Reveal(key, value string) (string, error) {
	if !IsSecretKey(key) {
		return value, nil
	}
	return m.Decrypt(value)
}

// IsEncrypted checks if a value is already encrypted.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, EncryptedPrefix)
}

func machineSeed() string {
	hostname, _ := os.Hostname()
	home, _ := os.UserHomeDir()
	parts := []string{hostname, home, runtime.GOOS, runtime.GOARCH, "studyplan-credential-v1"}
	if uid := os.Getuid(); uid != -1 {
		parts = append(parts, fmt.Sprintf("uid:%d", uid))
	}
	if user := os.Getenv("USER"); user != "" {
		parts = append(parts, user)
	}
	return strings.Join(parts, "|")
}

// MaskSecret shows only the first and last 4 characters of long secrets.
func MaskSecret(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
