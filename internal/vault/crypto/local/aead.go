// Package local provides a reference Provider implementation backed by
// AES-256-GCM and ChaCha20-Poly1305, adapted from the teacher's AEAD
// cipher implementations. It exists for tests and for deployments that
// don't need an external KMS: a real production deployment would swap
// this for a provider backed by a hardware security module or a cloud KMS.
package local

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// aead is the minimal cipher.AEAD-shaped contract both algorithms satisfy.
type aead interface {
	cipher.AEAD
}

func newAESGCM(key []byte) (aead, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("aes-gcm key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating aes cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

func newChaCha20Poly1305(key []byte) (aead, error) {
	a, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("creating chacha20-poly1305 cipher: %w", err)
	}
	return a, nil
}

// seal encrypts plaintext, returning nonce||ciphertext — the vault core's
// EncKey contract carries no separate nonce field, so the nonce travels
// prepended to the ciphertext blob.
func seal(a aead, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, a.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	sealed := a.Seal(nil, nonce, plaintext, nil)
	out := make([]byte, 0, len(nonce)+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// open splits nonce||ciphertext and decrypts.
func open(a aead, blob []byte) ([]byte, error) {
	n := a.NonceSize()
	if len(blob) < n {
		return nil, fmt.Errorf("ciphertext shorter than nonce size")
	}
	nonce, ciphertext := blob[:n], blob[n:]
	plaintext, err := a.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	return plaintext, nil
}
