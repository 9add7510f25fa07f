package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrMalformedToken is returned when a token does not split into the
	// nonce:tag:ciphertext form.
	ErrMalformedToken = errors.New("vault: malformed token")
	// ErrAuthenticationFailed is returned when the GCM tag check fails,
	// either because the ciphertext was tampered with or the master key
	// is wrong.
	ErrAuthenticationFailed = errors.New("vault: authentication failed")
)

// Vault provides reversible confidentiality for agent signing keys at
// rest using AES-256-GCM under a process-wide master key.
type Vault struct {
	aead cipher.AEAD
}

// New builds a Vault from a 64-character hex master key. Key problems are
// configuration errors: callers treat them as fatal at startup.
func New(hexKey string) (*Vault, error) {
	hexKey = strings.TrimSpace(hexKey)
	if hexKey == "" {
		return nil, errors.New("vault: master key is not set")
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("vault: master key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("vault: master key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: cipher init: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: gcm init: %w", err)
	}
	return &Vault{aead: aead}, nil
}

// Encrypt seals a plaintext key into a nonce:tag:ciphertext token with
// hex-encoded segments. A fresh random nonce is drawn per call.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("vault: nonce: %w", err)
	}
	sealed := v.aead.Seal(nil, nonce, []byte(plaintext), nil)
	// Seal appends the tag after the ciphertext. Split it back out so the
	// token carries the segments explicitly.
	tagStart := len(sealed) - v.aead.Overhead()
	ct := sealed[:tagStart]
	tag := sealed[tagStart:]
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ct), nil
}

// Decrypt opens a token produced by Encrypt. The plaintext must never be
// logged or persisted by callers.
func (v *Vault) Decrypt(token string) (string, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return "", ErrMalformedToken
	}
	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != v.aead.NonceSize() {
		return "", ErrMalformedToken
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != v.aead.Overhead() {
		return "", ErrMalformedToken
	}
	ct, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrMalformedToken
	}
	plaintext, err := v.aead.Open(nil, nonce, append(ct, tag...), nil)
	if err != nil {
		return "", ErrAuthenticationFailed
	}
	return string(plaintext), nil
}
