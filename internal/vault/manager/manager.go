// Package manager implements the Token Manager: the top-level
// tokenize/detokenize/retrieve/update/remove/query/rekey flows described
// in spec.md §4.1, wired against the vault metadata cache, the generator
// registry, and a storage.TokenStore backend.
package manager

import (
	"context"
	"fmt"

	"github.com/tcsantanello/tokengov/internal/vault/cache"
	"github.com/tcsantanello/tokengov/internal/vault/crypto"
	"github.com/tcsantanello/tokengov/internal/vault/domain"
	"github.com/tcsantanello/tokengov/internal/vault/generator"
	"github.com/tcsantanello/tokengov/internal/vault/storage"
)

// maxTokenizeAttempts bounds the unique-token collision retry loop.
const maxTokenizeAttempts = 10

// Manager is the Token Manager. It is safe for concurrent use; all
// mutable state lives in its collaborators (the cache, the registry, the
// storage backend), not in the Manager itself.
type Manager struct {
	store      storage.TokenStore
	provider   crypto.Provider
	generators *generator.Registry
	cache      *cache.VaultCache
}

// New builds a Manager. generators defaults to generator.Default when nil.
func New(store storage.TokenStore, provider crypto.Provider, generators *generator.Registry) *Manager {
	if generators == nil {
		generators = generator.Default
	}
	m := &Manager{store: store, provider: provider, generators: generators}
	m.cache = cache.New(func(ctx context.Context, name string) (*domain.VaultDescriptor, error) {
		return store.LoadVaultRow(ctx, name)
	})
	return m
}

// resolveVault loads (or fetches from cache) the descriptor for name and
// ensures its key handles are resolved.
func (m *Manager) resolveVault(ctx context.Context, name string) (*domain.VaultDescriptor, error) {
	desc, err := m.cache.GetVault(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := desc.LoadKeys(m.provider); err != nil {
		return nil, err
	}
	return desc, nil
}

// encKeyFor resolves the key that should decrypt entry: its own per-row
// key if it carries one, else the vault's current key.
func (m *Manager) encKeyFor(desc *domain.VaultDescriptor, entry domain.TokenEntry) (crypto.EncKey, error) {
	if entry.EncKey == "" {
		return desc.EncKey(), nil
	}
	key, err := m.provider.GetEncKey(entry.EncKey)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving key %q: %v", domain.ErrCryptography, entry.EncKey, err)
	}
	if key == nil {
		return nil, fmt.Errorf("%w: key %q not found", domain.ErrCryptography, entry.EncKey)
	}
	return key, nil
}

func (m *Manager) decrypt(desc *domain.VaultDescriptor, entry domain.TokenEntry) (domain.TokenEntry, error) {
	if len(entry.Crypt) == 0 {
		return entry, nil
	}
	key, err := m.encKeyFor(desc, entry)
	if err != nil {
		return domain.TokenEntry{}, err
	}
	value, err := key.Decrypt(entry.Crypt)
	if err != nil {
		return domain.TokenEntry{}, fmt.Errorf("%w: decrypting token %q: %v", domain.ErrCryptography, entry.Token, err)
	}
	entry.Value = string(value)
	return entry, nil
}

// Tokenize implements spec.md §4.1's tokenize flow, including the
// durable-vault short-circuit and the bounded collision-retry loop.
func (m *Manager) Tokenize(ctx context.Context, vaultName, value, hint string, properties map[string]string) (domain.TokenEntry, error) {
	desc, err := m.resolveVault(ctx, vaultName)
	if err != nil {
		return domain.TokenEntry{}, err
	}

	hmacSum, err := desc.MacKey().Hash([]byte(value))
	if err != nil {
		return domain.TokenEntry{}, fmt.Errorf("%w: hashing value: %v", domain.ErrCryptography, err)
	}

	if desc.Durable {
		existing, err := m.store.GetByHMAC(ctx, desc.Table, hmacSum)
		if err != nil {
			return domain.TokenEntry{}, err
		}
		if len(existing) > 0 {
			return m.decrypt(desc, existing[0])
		}
	}

	crypt, err := desc.EncKey().Encrypt([]byte(value))
	if err != nil {
		return domain.TokenEntry{}, fmt.Errorf("%w: encrypting value: %v", domain.ErrCryptography, err)
	}

	entry := domain.TokenEntry{
		HMAC:       hmacSum,
		Crypt:      crypt,
		Value:      value,
		Properties: properties,
	}
	if !desc.EncKey().IsVersioned() {
		entry.EncKey = desc.EncKeyName
	}

	token := hint
	var mask string
	for attempt := 1; attempt <= maxTokenizeAttempts; attempt++ {
		if token == "" {
			generated, err := m.generators.Generate(desc.Format, m.provider.Random, value, &mask)
			if err != nil {
				return domain.TokenEntry{}, err
			}
			token = generated
		}
		entry.Token = token
		entry.Mask = mask

		err := m.store.Insert(ctx, desc.Table, entry)
		if err == nil {
			return entry, nil
		}

		collision := isTokenCollision(err)
		if !collision {
			existing, getErr := m.store.Get(ctx, desc.Table, token)
			if getErr == nil && !existing.IsEmpty() {
				collision = true
			}
		}
		if !collision {
			return domain.TokenEntry{}, err
		}

		token = ""
	}

	return domain.TokenEntry{}, fmt.Errorf("%w: exhausted %d token generation attempts", domain.ErrStorage, maxTokenizeAttempts)
}

// Detokenize fetches entry by token and decrypts it.
func (m *Manager) Detokenize(ctx context.Context, vaultName, token string) (domain.TokenEntry, error) {
	desc, err := m.resolveVault(ctx, vaultName)
	if err != nil {
		return domain.TokenEntry{}, err
	}
	entry, err := m.store.Get(ctx, desc.Table, token)
	if err != nil {
		return domain.TokenEntry{}, err
	}
	if entry.IsEmpty() {
		return domain.TokenEntry{}, fmt.Errorf("%w: token %q not found in vault %q", domain.ErrStorage, token, vaultName)
	}
	return m.decrypt(desc, entry)
}

// Retrieve looks up every entry matching value's HMAC and decrypts each,
// memoizing resolved key handles for the duration of the call.
func (m *Manager) Retrieve(ctx context.Context, vaultName, value string) ([]domain.TokenEntry, error) {
	desc, err := m.resolveVault(ctx, vaultName)
	if err != nil {
		return nil, err
	}
	hmacSum, err := desc.MacKey().Hash([]byte(value))
	if err != nil {
		return nil, fmt.Errorf("%w: hashing value: %v", domain.ErrCryptography, err)
	}
	entries, err := m.store.GetByHMAC(ctx, desc.Table, hmacSum)
	if err != nil {
		return nil, err
	}

	keys := map[string]crypto.EncKey{}
	decryptMemo := func(entry domain.TokenEntry) (domain.TokenEntry, error) {
		if entry.EncKey == "" || len(entry.Crypt) == 0 {
			return m.decrypt(desc, entry)
		}
		key, ok := keys[entry.EncKey]
		if !ok {
			var err error
			key, err = m.provider.GetEncKey(entry.EncKey)
			if err != nil || key == nil {
				return domain.TokenEntry{}, fmt.Errorf("%w: resolving key %q", domain.ErrCryptography, entry.EncKey)
			}
			keys[entry.EncKey] = key
		}
		value, err := key.Decrypt(entry.Crypt)
		if err != nil {
			return domain.TokenEntry{}, fmt.Errorf("%w: decrypting token %q: %v", domain.ErrCryptography, entry.Token, err)
		}
		entry.Value = string(value)
		return entry, nil
	}

	result := make([]domain.TokenEntry, len(entries))
	for i, entry := range entries {
		decrypted, err := decryptMemo(entry)
		if err != nil {
			return nil, err
		}
		result[i] = decrypted
	}
	return result, nil
}

// Remove deletes the entry by token and returns it with Value decrypted,
// so the caller can confirm what was destroyed.
func (m *Manager) Remove(ctx context.Context, vaultName, token string) (domain.TokenEntry, error) {
	desc, err := m.resolveVault(ctx, vaultName)
	if err != nil {
		return domain.TokenEntry{}, err
	}
	removed, err := m.store.Remove(ctx, desc.Table, domain.TokenEntry{Token: token})
	if err != nil {
		return domain.TokenEntry{}, err
	}
	return m.decrypt(desc, removed)
}

// Update applies a partial update keyed by entry.Token. If entry.Value is
// non-empty, hmac/crypt/enc_key are recomputed under the vault's current
// key before the partial write. Only non-empty fields are written, so a
// field cannot be cleared through Update.
func (m *Manager) Update(ctx context.Context, vaultName string, entry domain.TokenEntry) (domain.TokenEntry, error) {
	desc, err := m.resolveVault(ctx, vaultName)
	if err != nil {
		return domain.TokenEntry{}, err
	}

	if entry.Value != "" {
		hmacSum, err := desc.MacKey().Hash([]byte(entry.Value))
		if err != nil {
			return domain.TokenEntry{}, fmt.Errorf("%w: hashing value: %v", domain.ErrCryptography, err)
		}
		crypt, err := desc.EncKey().Encrypt([]byte(entry.Value))
		if err != nil {
			return domain.TokenEntry{}, fmt.Errorf("%w: encrypting value: %v", domain.ErrCryptography, err)
		}
		entry.HMAC = hmacSum
		entry.Crypt = crypt
		if !desc.EncKey().IsVersioned() {
			entry.EncKey = desc.EncKeyName
		}
	}

	return m.store.Update(ctx, desc.Table, entry)
}

// Query hashes each value into an HMAC, delegates filter composition to
// storage, and decrypts every returned entry.
func (m *Manager) Query(ctx context.Context, vaultName string, params storage.QueryParams, values []string) (storage.QueryResult, error) {
	desc, err := m.resolveVault(ctx, vaultName)
	if err != nil {
		return storage.QueryResult{}, err
	}

	if len(values) > 0 {
		hmacs := make([][]byte, len(values))
		for i, v := range values {
			sum, err := desc.MacKey().Hash([]byte(v))
			if err != nil {
				return storage.QueryResult{}, fmt.Errorf("%w: hashing value: %v", domain.ErrCryptography, err)
			}
			hmacs[i] = sum
		}
		params.HMACs = append(params.HMACs, hmacs...)
	}

	result, err := m.store.Query(ctx, desc.Table, params)
	if err != nil {
		return storage.QueryResult{}, err
	}

	for i, entry := range result.Entries {
		decrypted, err := m.decrypt(desc, entry)
		if err != nil {
			return storage.QueryResult{}, err
		}
		result.Entries[i] = decrypted
	}
	return result, nil
}

// Status reports process-wide operational status: a crypto probe via
// provider.Random, then a storage connectivity probe.
func (m *Manager) Status(ctx context.Context) domain.Status {
	var probe [1]byte
	if err := m.provider.Random(probe[:]); err != nil {
		return domain.InoperativeCrypto
	}
	if m.store.Test(ctx) {
		return domain.Operational
	}
	return domain.InoperativeDB
}

// VaultStatus reports status for one vault, substituting an encrypt
// round-trip of the vault name for the generic random-bytes probe.
func (m *Manager) VaultStatus(ctx context.Context, vaultName string) domain.Status {
	desc, err := m.resolveVault(ctx, vaultName)
	if err != nil {
		return domain.InoperativeCrypto
	}
	if _, err := desc.EncKey().Encrypt([]byte(vaultName)); err != nil {
		return domain.InoperativeCrypto
	}
	if m.store.Test(ctx) {
		return domain.Operational
	}
	return domain.InoperativeDB
}

// CreateVault persists a new vault row, deriving the table name from
// alias/value_len/format/durable when table is empty.
func (m *Manager) CreateVault(ctx context.Context, alias, encKeyName, macKeyName string, format domain.Format, valueLen int, durable bool, table string) error {
	if table == "" {
		table = domain.DeriveTableName(alias, valueLen, format, durable)
	}
	return m.store.CreateVaultRow(ctx, storage.VaultRow{
		Alias:      alias,
		Table:      table,
		Format:     format,
		ValueLen:   valueLen,
		Durable:    durable,
		EncKeyName: encKeyName,
		MacKeyName: macKeyName,
	})
}

// RekeyVault resolves newEncKeyName and updates the vault's current key
// pointer, unless deep mode and a versioned new key make that pointer
// update redundant (a versioned key self-describes its version in every
// ciphertext it produces, so there is nothing for the pointer to record
// once every row has been re-encrypted under it). In shallow mode
// (deep == false) the pointer update is the entire operation: rows
// retain whatever per-row enc_key they already carry and keep decrypting
// correctly. In deep mode every row is re-encrypted under the new key
// inside a single transaction.
func (m *Manager) RekeyVault(ctx context.Context, vaultName, newEncKeyName string, deep bool) (bool, error) {
	desc, err := m.resolveVault(ctx, vaultName)
	if err != nil {
		return false, err
	}

	newKey, err := m.provider.GetEncKey(newEncKeyName)
	if err != nil {
		return false, fmt.Errorf("%w: resolving new key %q: %v", domain.ErrCryptography, newEncKeyName, err)
	}
	if newKey == nil {
		return false, fmt.Errorf("%w: new key %q not found", domain.ErrCryptography, newEncKeyName)
	}

	if !deep || !newKey.IsVersioned() {
		ok, err := m.store.UpdateKey(ctx, desc.Alias, newEncKeyName)
		if err != nil {
			return false, err
		}
		if !deep {
			return ok, nil
		}
	}

	priorKeyName := desc.EncKeyName
	priorKey := desc.EncKey()
	keys := map[string]crypto.EncKey{priorKeyName: priorKey, newEncKeyName: newKey}

	recrypt := func(ctx context.Context, newKeyName, srcKeyName string, ciphertext []byte) ([]byte, error) {
		srcKey := priorKey
		if srcKeyName != "" {
			cached, ok := keys[srcKeyName]
			if !ok {
				resolved, err := m.provider.GetEncKey(srcKeyName)
				if err != nil || resolved == nil {
					return nil, fmt.Errorf("%w: resolving source key %q", domain.ErrCryptography, srcKeyName)
				}
				keys[srcKeyName] = resolved
				cached = resolved
			}
			srcKey = cached
		}

		plain, err := srcKey.Decrypt(ciphertext)
		if err != nil {
			return nil, fmt.Errorf("%w: decrypting during rekey: %v", domain.ErrCryptography, err)
		}
		return newKey.Encrypt(plain)
	}

	return m.store.Rekey(ctx, desc.Alias, desc.Table, newEncKeyName, newKey.IsVersioned(), recrypt)
}

// GeneratorRegister exposes the manager's registry insert-if-absent.
func (m *Manager) GeneratorRegister(id domain.Format, fn generator.Func) bool {
	return m.generators.Register(id, fn)
}
