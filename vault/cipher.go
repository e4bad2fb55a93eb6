package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
)

const gcmTagSize = 16

// compactHeader is the constant first segment of every encrypted value.
var compactHeader = base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"dir","enc":"A256GCM"}`))

// TokenCipher encrypts secret strings with AES-256-GCM. Ciphertext is
// serialized as a 5-segment dot-separated compact token
// (header.keyid.iv.ciphertext.tag), which doubles as the detection
// signature for values that are already encrypted. Values that do not
// match that shape are treated as legacy plaintext and passed through
// unchanged on decrypt.
type TokenCipher struct {
	aead  cipher.AEAD
	keyID string
}

// NewTokenCipher derives the AES-256 key from the first 32 bytes of the
// shared service secret. Shorter secrets are a configuration error.
func NewTokenCipher(secret string) (*TokenCipher, error) {
	if len(secret) < 32 {
		return nil, errors.New("encryption secret must be at least 32 characters")
	}

	key := []byte(secret)[:32]

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher block: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM cipher: %w", err)
	}

	// The key id segment lets a future migration distinguish "encrypted
	// with a rotated key" from "legacy plaintext" without guessing from
	// decrypt failures.
	sum := sha256.Sum256(key)
	keyID := base64.RawURLEncoding.EncodeToString(sum[:8])

	return &TokenCipher{aead: gcm, keyID: keyID}, nil
}

// IsEncrypted reports whether a value carries the compact token shape:
// exactly 5 non-empty dot-separated segments.
func IsEncrypted(value string) bool {
	segments := strings.Split(value, ".")
	if len(segments) != 5 {
		return false
	}
	for _, segment := range segments {
		if segment == "" {
			return false
		}
	}
	return true
}

func (c *TokenCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-gcmTagSize]
	tag := sealed[len(sealed)-gcmTagSize:]

	enc := base64.RawURLEncoding.EncodeToString
	return strings.Join([]string{
		compactHeader,
		c.keyID,
		enc(nonce),
		enc(ciphertext),
		enc(tag),
	}, "."), nil
}

// Decrypt reverses Encrypt. A value that does not parse or fails
// authentication is returned unchanged: stored credentials predating
// encryption-at-rest must keep working. This is the documented
// legacy-plaintext fallback, not error recovery.
func (c *TokenCipher) Decrypt(value string) string {
	if !IsEncrypted(value) {
		return value
	}

	segments := strings.Split(value, ".")

	if segments[1] != c.keyID {
		log.Printf("Warning: encrypted value has unknown key id %q, treating as legacy plaintext", segments[1])
		return value
	}

	dec := base64.RawURLEncoding.DecodeString
	nonce, errNonce := dec(segments[2])
	ciphertext, errCiphertext := dec(segments[3])
	tag, errTag := dec(segments[4])
	if errNonce != nil || errCiphertext != nil || errTag != nil || len(nonce) != c.aead.NonceSize() {
		log.Println("Warning: failed to parse encrypted value, treating as legacy plaintext")
		return value
	}

	plaintext, err := c.aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		log.Printf("Warning: failed to decrypt stored value, treating as legacy plaintext: %v", err)
		return value
	}

	return string(plaintext)
}

// SafeEncrypt passes empty values through unchanged.
func (c *TokenCipher) SafeEncrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	return c.Encrypt(plaintext)
}

// SafeDecrypt passes empty values through unchanged.
func (c *TokenCipher) SafeDecrypt(value string) string {
	if value == "" {
		return ""
	}
	return c.Decrypt(value)
}
