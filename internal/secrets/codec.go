// Package secrets encrypts portal credential bundles for storage at rest.
package secrets

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// MaskToken is the fixed display token substituted for non-empty credential
// values in API responses. It is never stored.
const MaskToken = "**********"

// hkdfInfo binds derived keys to this codec so the same passphrase used
// elsewhere yields a different key.
const hkdfInfo = "portalaccess credential codec v1"

// Codec seals and opens credential mappings with XChaCha20-Poly1305.
// The key is process-wide and loaded once at startup; construction fails
// when no key material is configured.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec derives a 32-byte AEAD key from the configured passphrase via
// HKDF-SHA256 and returns a ready codec.
func NewCodec(passphrase string) (*Codec, error) {
	if passphrase == "" {
		return nil, errors.New("secret key is empty")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(passphrase), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init aead: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Encrypt serializes the credential mapping to JSON, seals it with a random
// nonce, and returns base64(nonce || ciphertext || tag).
func (c *Codec) Encrypt(data map[string]string) (string, error) {
	if data == nil {
		data = map[string]string{}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	out := c.aead.Seal(nonce, nonce, raw, nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a token produced by Encrypt. It fails open: any decoding or
// authentication error yields an empty mapping, never an error. Tampered or
// foreign ciphertext therefore degrades to "no credentials" and the eventual
// remote auth failure, which is the intended path.
func (c *Codec) Decrypt(token string) map[string]string {
	data, err := c.decode(token)
	if err != nil {
		return map[string]string{}
	}
	return data
}

// decode is the strict counterpart of Decrypt; Decrypt collapses its error.
func (c *Codec) decode(token string) (map[string]string, error) {
	if token == "" {
		return map[string]string{}, nil
	}

	blob, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	if len(blob) < chacha20poly1305.NonceSizeX {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ct := blob[:chacha20poly1305.NonceSizeX], blob[chacha20poly1305.NonceSizeX:]
	raw, err := c.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	var data map[string]string
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal credentials: %w", err)
	}
	if data == nil {
		data = map[string]string{}
	}
	return data, nil
}

// Mask returns the fixed display token for a non-empty value and the empty
// string otherwise. Display only, never for storage.
func Mask(value string) string {
	if value == "" {
		return ""
	}
	return MaskToken
}
