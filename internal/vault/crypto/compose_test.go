package crypto

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	encKey    EncKey
	encKeyErr error
	macKey    MacKey
	macKeyErr error
	randomErr error
}

func (s *stubProvider) GetEncKey(name string) (EncKey, error) { return s.encKey, s.encKeyErr }
func (s *stubProvider) GetMacKey(name string) (MacKey, error) { return s.macKey, s.macKeyErr }
func (s *stubProvider) Random(buf []byte) error               { return s.randomErr }

type stubEncKey struct{}

func (stubEncKey) Encrypt(p []byte) ([]byte, error) { return p, nil }
func (stubEncKey) Decrypt(c []byte) ([]byte, error) { return c, nil }
func (stubEncKey) IsVersioned() bool                { return false }

type stubMacKey struct{}

func (stubMacKey) Hash(data []byte) ([]byte, error)       { return data, nil }
func (stubMacKey) Verify(data, hash []byte) (bool, error) { return true, nil }

func TestComposeGetEncKeyReturnsFirstNonNil(t *testing.T) {
	empty := &stubProvider{}
	found := &stubProvider{encKey: stubEncKey{}}
	c := Compose{empty, found}

	key, err := c.GetEncKey("anything")
	require.NoError(t, err)
	assert.Equal(t, stubEncKey{}, key)
}

func TestComposeGetEncKeyReturnsNilWhenNoneMatch(t *testing.T) {
	c := Compose{&stubProvider{}, &stubProvider{}}

	key, err := c.GetEncKey("anything")
	require.NoError(t, err)
	assert.Nil(t, key)
}

func TestComposeGetEncKeyStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	c := Compose{&stubProvider{encKeyErr: boom}, &stubProvider{encKey: stubEncKey{}}}

	_, err := c.GetEncKey("anything")
	assert.ErrorIs(t, err, boom)
}

func TestComposeGetMacKeyReturnsFirstNonNil(t *testing.T) {
	c := Compose{&stubProvider{}, &stubProvider{macKey: stubMacKey{}}}

	key, err := c.GetMacKey("anything")
	require.NoError(t, err)
	assert.Equal(t, stubMacKey{}, key)
}

func TestComposeRandomReturnsFirstSuccess(t *testing.T) {
	boom := errors.New("boom")
	c := Compose{&stubProvider{randomErr: boom}, &stubProvider{}}

	err := c.Random(make([]byte, 4))
	assert.NoError(t, err)
}

func TestComposeRandomReturnsLastErrorWhenAllFail(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	c := Compose{&stubProvider{randomErr: first}, &stubProvider{randomErr: second}}

	err := c.Random(make([]byte, 4))
	assert.ErrorIs(t, err, second)
}
