// Package crypto declares the external cryptographic contract the vault
// core consumes (spec §6). Concrete providers are collaborators, not part
// of the core: this package holds the interfaces plus Compose, which
// chains two providers.
package crypto

// EncKey is a resolved encryption-key handle.
type EncKey interface {
	// Encrypt returns ciphertext for plaintext. Implementations choose
	// their own nonce/IV handling and must embed whatever is needed to
	// decrypt inside the returned bytes.
	Encrypt(plaintext []byte) ([]byte, error)
	// Decrypt reverses Encrypt.
	Decrypt(ciphertext []byte) ([]byte, error)
	// IsVersioned reports whether the ciphertext self-describes the key
	// version used to produce it. Versioned keys never need their name
	// recorded alongside the ciphertext; unversioned keys do.
	IsVersioned() bool
}

// MacKey is a resolved MAC-key handle used for value-based lookup.
type MacKey interface {
	// Hash returns a keyed digest of data.
	Hash(data []byte) ([]byte, error)
	// Verify reports whether hash is the keyed digest of data, in
	// constant time.
	Verify(data, hash []byte) (bool, error)
}

// Provider resolves named keys and exposes a randomness source. A nil
// return from GetEncKey/GetMacKey (with a nil error) means "no such key";
// callers translate that into a Cryptography error.
type Provider interface {
	GetEncKey(name string) (EncKey, error)
	GetMacKey(name string) (MacKey, error)
	Random(buf []byte) error
}
