package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcsantanello/tokengov/internal/vault/crypto"
)

func TestPropertiesRoundTrip(t *testing.T) {
	cases := []map[string]string{
		{"property": "value"},
		{"a": "1", "b": "2"},
		{},
	}
	for _, m := range cases {
		encoded, err := SerializeProperties(m)
		require.NoError(t, err)
		decoded, err := DeserializeProperties(encoded)
		require.NoError(t, err)
		assert.Equal(t, m, decoded)
	}
}

func TestDeserializePropertiesEmptyInput(t *testing.T) {
	decoded, err := DeserializeProperties(nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{}, decoded)
}

func TestDeserializePropertiesRejectsGarbage(t *testing.T) {
	_, err := DeserializeProperties([]byte{0xff, 0xff, 0xff})
	assert.ErrorIs(t, err, ErrStorage)
}

func TestTokenEntryIsEmpty(t *testing.T) {
	assert.True(t, TokenEntry{}.IsEmpty())
	assert.False(t, TokenEntry{Token: "T"}.IsEmpty())
	assert.False(t, TokenEntry{HMAC: []byte{1}}.IsEmpty())
}

func TestTokenEntryHasExpiration(t *testing.T) {
	assert.False(t, TokenEntry{}.HasExpiration())
	assert.False(t, TokenEntry{Expiration: NoExpiration}.HasExpiration())
	assert.True(t, TokenEntry{Expiration: time.Unix(1700000000, 0).UTC()}.HasExpiration())
}

func TestDeriveTableName(t *testing.T) {
	assert.Equal(t, "transactional20_7_su", DeriveTableName("transactional", 20, FormatF6L4, false))
	assert.Equal(t, "durable20_7_mu", DeriveTableName("durable", 20, FormatF6L4, true))
}

func TestStatusValues(t *testing.T) {
	assert.Equal(t, "Operational", Operational.Description)
	assert.Equal(t, "Inoperative: database failure", InoperativeDB.Description)
	assert.Equal(t, "Inoperative: encryption failure", InoperativeCrypto.Description)
}

type stubKey struct{}

func (stubKey) Encrypt(p []byte) ([]byte, error) { return p, nil }
func (stubKey) Decrypt(c []byte) ([]byte, error) { return c, nil }
func (stubKey) IsVersioned() bool                { return false }
func (stubKey) Hash(d []byte) ([]byte, error)    { return d, nil }
func (stubKey) Verify(d, h []byte) (bool, error) { return true, nil }

type countingProvider struct {
	calls int
}

func (p *countingProvider) GetEncKey(name string) (crypto.EncKey, error) {
	p.calls++
	return stubKey{}, nil
}
func (p *countingProvider) GetMacKey(name string) (crypto.MacKey, error) { return stubKey{}, nil }
func (p *countingProvider) Random(buf []byte) error                     { return nil }

func TestVaultDescriptorLoadKeysMemoizes(t *testing.T) {
	desc := &VaultDescriptor{EncKeyName: "ENCKEY!!!", MacKeyName: "MACKEY!!!"}
	provider := &countingProvider{}

	require.NoError(t, desc.LoadKeys(provider))
	require.NoError(t, desc.LoadKeys(provider))

	assert.Equal(t, 1, provider.calls)
	assert.True(t, desc.HasKeys())
	assert.NotNil(t, desc.EncKey())
	assert.NotNil(t, desc.MacKey())
}
