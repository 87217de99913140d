package domain

import (
	"fmt"
	"sync"

	"github.com/tcsantanello/tokengov/internal/vault/crypto"
)

// VaultDescriptor is the immutable metadata identifying a vault, plus a
// lazily-filled pair of resolved key handles. Everything but the key
// handles is fixed at creation time; enc_key/mac_key are resolved at most
// once per descriptor, the first time a keyed operation runs against it.
type VaultDescriptor struct {
	Alias      string
	Table      string
	Format     Format
	ValueLen   int
	Durable    bool
	EncKeyName string
	MacKeyName string

	keyMu  sync.Mutex
	encKey crypto.EncKey
	macKey crypto.MacKey
}

// HasKeys reports whether both key handles have already been resolved.
func (v *VaultDescriptor) HasKeys() bool {
	v.keyMu.Lock()
	defer v.keyMu.Unlock()
	return v.encKey != nil && v.macKey != nil
}

// LoadKeys resolves enc_key and mac_key from provider if not already
// resolved. Safe for concurrent use; the first caller to run pays the
// provider round-trip, later callers observe the cached handles.
func (v *VaultDescriptor) LoadKeys(provider crypto.Provider) error {
	v.keyMu.Lock()
	defer v.keyMu.Unlock()

	if v.encKey != nil && v.macKey != nil {
		return nil
	}

	encKey, err := provider.GetEncKey(v.EncKeyName)
	if err != nil {
		return fmt.Errorf("%w: resolving enc key %q: %v", ErrCryptography, v.EncKeyName, err)
	}
	macKey, err := provider.GetMacKey(v.MacKeyName)
	if err != nil {
		return fmt.Errorf("%w: resolving mac key %q: %v", ErrCryptography, v.MacKeyName, err)
	}
	if encKey == nil || macKey == nil {
		return fmt.Errorf("%w: keys %q/%q not found", ErrCryptography, v.EncKeyName, v.MacKeyName)
	}

	v.encKey = encKey
	v.macKey = macKey
	return nil
}

// EncKey returns the resolved encryption key handle, or nil if LoadKeys has
// not run yet.
func (v *VaultDescriptor) EncKey() crypto.EncKey {
	v.keyMu.Lock()
	defer v.keyMu.Unlock()
	return v.encKey
}

// MacKey returns the resolved MAC key handle, or nil if LoadKeys has not
// run yet.
func (v *VaultDescriptor) MacKey() crypto.MacKey {
	v.keyMu.Lock()
	defer v.keyMu.Unlock()
	return v.macKey
}

// DeriveTableName computes the default physical table name for a vault
// when the caller did not supply one: "{alias}{value_len}_{format}_{su|mu}".
func DeriveTableName(alias string, valueLen int, format Format, durable bool) string {
	return fmt.Sprintf("%s%d_%d_%s", alias, valueLen, int(format), TableSuffix(durable))
}
