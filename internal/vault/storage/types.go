// Package storage implements the Token DB: a connection-pooled,
// transactional CRUD surface over per-vault tables plus the shared
// "vaults" metadata table, for both PostgreSQL and MySQL backends.
package storage

import (
	"context"
	"time"

	"github.com/tcsantanello/tokengov/internal/vault/domain"
)

// QueryParams composes the filter/sort/page arguments of Query. Within
// each field group values are OR'ed (IN (...)); groups are AND'ed.
type QueryParams struct {
	Tokens      []string
	HMACs       [][]byte
	Expirations []time.Time
	SortField   string
	SortAsc     bool
	Offset      int
	Limit       int
	WithCount   bool
}

// QueryResult carries the page of entries plus, when QueryParams.WithCount
// was set, the total row count ignoring Offset/Limit.
type QueryResult struct {
	Entries []domain.TokenEntry
	Count   *int
}

// RecryptFunc re-encrypts one row's ciphertext under newKeyName, given the
// key name the row was previously encrypted under (srcKeyName is empty
// when the row carried no per-row key, i.e. the vault's prior current key
// was versioned).
type RecryptFunc func(ctx context.Context, newKeyName, srcKeyName string, ciphertext []byte) ([]byte, error)

// VaultRow is a row of the "vaults" metadata table.
type VaultRow struct {
	Alias      string
	Table      string
	Format     domain.Format
	ValueLen   int
	Durable    bool
	EncKeyName string
	MacKeyName string
}

// TokenStore is the storage engine's contract, consumed by the vault
// metadata cache (LoadVaultRow) and by the Token Manager (everything
// else).
type TokenStore interface {
	LoadVaultRow(ctx context.Context, name string) (*domain.VaultDescriptor, error)
	CreateVaultRow(ctx context.Context, row VaultRow) error

	Get(ctx context.Context, table, token string) (domain.TokenEntry, error)
	GetByHMAC(ctx context.Context, table string, hmac []byte) ([]domain.TokenEntry, error)
	Insert(ctx context.Context, table string, entry domain.TokenEntry) error
	Remove(ctx context.Context, table string, entry domain.TokenEntry) (domain.TokenEntry, error)
	Update(ctx context.Context, table string, entry domain.TokenEntry) (domain.TokenEntry, error)
	Query(ctx context.Context, table string, params QueryParams) (QueryResult, error)
	UpdateKey(ctx context.Context, alias, newKeyName string) (bool, error)
	Rekey(ctx context.Context, alias, table, newKeyName string, newKeyVersioned bool, recrypt RecryptFunc) (bool, error)
	Test(ctx context.Context) bool
}
