package secrets

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const keySize = 32

// Cipher encrypts and decrypts sender-account credentials with AES-GCM.
// The key comes from the secrets Manager at construction time; plaintext
// passwords exist only transiently at send time.
type Cipher struct {
	key []byte
}

// NewCipher builds a Cipher from the named secret held by the manager.
func NewCipher(ctx context.Context, m Manager, keyName string) (*Cipher, error) {
	secret, err := m.GetSecret(ctx, keyName)
	if err != nil {
		return nil, fmt.Errorf("failed to load credential key %s: %w", keyName, err)
	}

	// Pad or truncate to the AES-256 key size
	key := make([]byte, keySize)
	copy(key, secret)

	return &Cipher{key: key}, nil
}

// Encrypt seals plaintext and returns a base64 blob with the nonce prefixed.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt opens a blob produced by Encrypt.
func (c *Cipher) Decrypt(encrypted string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return "", errors.New("ciphertext shorter than nonce")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertext = ciphertext[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}
