package local

// Algorithm selects the AEAD cipher backing an EncKey.
type Algorithm string

const (
	// AESGCM selects AES-256-GCM.
	AESGCM Algorithm = "aes-gcm"
	// ChaCha20Poly1305 selects ChaCha20-Poly1305.
	ChaCha20Poly1305 Algorithm = "chacha20-poly1305"
)

func newAEAD(alg Algorithm, key []byte) (aead, error) {
	switch alg {
	case ChaCha20Poly1305:
		return newChaCha20Poly1305(key)
	default:
		return newAESGCM(key)
	}
}

// staticEncKey is an unversioned key: a single fixed cipher, no version
// byte in the ciphertext. Callers must record enc_key_name alongside rows
// encrypted with it, per spec.md's unversioned-key contract.
type staticEncKey struct {
	cipher aead
}

// NewStaticEncKey returns an unversioned EncKey over a single key.
func NewStaticEncKey(alg Algorithm, key []byte) (*staticEncKey, error) {
	c, err := newAEAD(alg, key)
	if err != nil {
		return nil, err
	}
	return &staticEncKey{cipher: c}, nil
}

func (k *staticEncKey) Encrypt(plaintext []byte) ([]byte, error) { return seal(k.cipher, plaintext) }
func (k *staticEncKey) Decrypt(ciphertext []byte) ([]byte, error) { return open(k.cipher, ciphertext) }
func (k *staticEncKey) IsVersioned() bool                         { return false }

// versionedEncKey embeds a one-byte version prefix ahead of nonce||
// ciphertext so old ciphertexts keep decrypting after the active version
// advances, without the row needing to record a key name. Encrypt always
// uses the highest-numbered version, the last entry of byVersion.
type versionedEncKey struct {
	byVersion []aead
}

// NewVersionedEncKey builds a versioned EncKey from an ordered list of
// keys, oldest first; the last entry is the active encryption version.
func NewVersionedEncKey(alg Algorithm, keysOldestFirst [][]byte) (*versionedEncKey, error) {
	if len(keysOldestFirst) == 0 {
		return nil, errNoVersions
	}
	ciphers := make([]aead, 0, len(keysOldestFirst))
	for _, key := range keysOldestFirst {
		c, err := newAEAD(alg, key)
		if err != nil {
			return nil, err
		}
		ciphers = append(ciphers, c)
	}
	return &versionedEncKey{byVersion: ciphers}, nil
}

func (k *versionedEncKey) Encrypt(plaintext []byte) ([]byte, error) {
	version := byte(len(k.byVersion) - 1)
	blob, err := seal(k.byVersion[version], plaintext)
	if err != nil {
		return nil, err
	}
	return append([]byte{version}, blob...), nil
}

func (k *versionedEncKey) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 1 {
		return nil, errShortCiphertext
	}
	version := int(ciphertext[0])
	if version < 0 || version >= len(k.byVersion) {
		return nil, errUnknownVersion
	}
	return open(k.byVersion[version], ciphertext[1:])
}

func (k *versionedEncKey) IsVersioned() bool { return true }
