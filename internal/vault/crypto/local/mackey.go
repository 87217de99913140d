package local

import (
	"crypto/hmac"
	"crypto/sha256"
)

// hmacKey is a MacKey backed by HMAC-SHA256. Verify uses hmac.Equal, a
// constant-time comparison — deliberately improving on the original
// implementation's plain std::equal, since spec.md §6 requires a
// constant-time verify.
type hmacKey struct {
	key []byte
}

// NewHMACKey returns a MacKey backed by HMAC-SHA256.
func NewHMACKey(key []byte) *hmacKey {
	return &hmacKey{key: key}
}

func (k *hmacKey) Hash(data []byte) ([]byte, error) {
	mac := hmac.New(sha256.New, k.key)
	mac.Write(data)
	return mac.Sum(nil), nil
}

func (k *hmacKey) Verify(data, hash []byte) (bool, error) {
	expected, err := k.Hash(data)
	if err != nil {
		return false, err
	}
	return hmac.Equal(expected, hash), nil
}
