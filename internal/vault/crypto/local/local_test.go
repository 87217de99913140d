package local

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEncKeyRoundTrip(t *testing.T) {
	key, err := NewStaticEncKey(AESGCM, make([]byte, 32))
	require.NoError(t, err)
	assert.False(t, key.IsVersioned())

	ciphertext, err := key.Encrypt([]byte("6044342464567232"))
	require.NoError(t, err)

	plaintext, err := key.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "6044342464567232", string(plaintext))
}

func TestVersionedEncKeyRoundTripAcrossRotation(t *testing.T) {
	v0 := make([]byte, 32)
	v1 := make([]byte, 32)
	v1[0] = 1

	key, err := NewVersionedEncKey(AESGCM, [][]byte{v0})
	require.NoError(t, err)
	assert.True(t, key.IsVersioned())

	oldCiphertext, err := key.Encrypt([]byte("old-value"))
	require.NoError(t, err)

	rotated, err := NewVersionedEncKey(AESGCM, [][]byte{v0, v1})
	require.NoError(t, err)

	plaintext, err := rotated.Decrypt(oldCiphertext)
	require.NoError(t, err)
	assert.Equal(t, "old-value", string(plaintext))

	newCiphertext, err := rotated.Encrypt([]byte("new-value"))
	require.NoError(t, err)
	assert.Equal(t, byte(1), newCiphertext[0])
}

func TestHMACKeyVerify(t *testing.T) {
	key := NewHMACKey([]byte("MACKEY!!!"))
	mac, err := key.Hash([]byte("6044342464567232"))
	require.NoError(t, err)

	ok, err := key.Verify([]byte("6044342464567232"), mac)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = key.Verify([]byte("other"), mac)
	require.NoError(t, err)
	assert.False(t, ok)
}
