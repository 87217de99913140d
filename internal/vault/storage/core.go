package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tcsantanello/tokengov/internal/database"
	"github.com/tcsantanello/tokengov/internal/vault/domain"
)

// vaultsTable is the name of the shared metadata table (spec.md §6 schema).
const vaultsTable = "vaults"

// sqlStore is the dialect-agnostic core shared by the PostgreSQL and
// MySQL backends; the only thing that differs between them is how
// placeholders are rendered, which ph supplies.
type sqlStore struct {
	db        *sql.DB
	txManager database.TxManager
	gate      *database.ConnGate
	ph        func(n int) string
	tableDDL  func(table string, valueLen int, durable bool) string
}

func newSQLStore(db *sql.DB, gate *database.ConnGate, ph func(n int) string, tableDDL func(table string, valueLen int, durable bool) string) *sqlStore {
	return &sqlStore{db: db, txManager: database.NewTxManager(db), gate: gate, ph: ph, tableDDL: tableDDL}
}

func (s *sqlStore) querier(ctx context.Context) database.Querier {
	return database.GetTx(ctx, s.db)
}

// withGatedTx runs fn inside a transaction, first acquiring a slot from
// the connection gate when one is configured; each call is one logical
// unit of work per spec.md §5, ending in commit or rollback.
func (s *sqlStore) withGatedTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.gate == nil {
		return s.txManager.WithTx(ctx, fn)
	}
	return s.gate.Do(ctx, func(ctx context.Context) error {
		return s.txManager.WithTx(ctx, fn)
	})
}

// LoadVaultRow implements the vault cache's Loader: looks up a row of the
// vaults table by alias or table name, matching the original's
// "WHERE ? IN (alias, tablename)".
func (s *sqlStore) LoadVaultRow(ctx context.Context, name string) (*domain.VaultDescriptor, error) {
	query := fmt.Sprintf(
		"SELECT alias, tablename, format, durable, enckey, mackey FROM %s WHERE alias = %s OR tablename = %s",
		vaultsTable, s.ph(1), s.ph(2),
	)
	row := s.querier(ctx).QueryRowContext(ctx, query, name, name)

	var alias, table, encKeyName, macKeyName string
	var format int
	var durable bool
	if err := row.Scan(&alias, &table, &format, &durable, &encKeyName, &macKeyName); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %q", domain.ErrNoVault, name)
		}
		return nil, fmt.Errorf("%w: loading vault %q: %v", domain.ErrStorage, name, err)
	}

	return &domain.VaultDescriptor{
		Alias:      alias,
		Table:      table,
		Format:     domain.Format(format),
		Durable:    durable,
		EncKeyName: encKeyName,
		MacKeyName: macKeyName,
	}, nil
}

// CreateVaultRow persists a new vaults row. Numeric aliases are rejected
// up front, per spec.md §9's resolution of the table-name-derivation
// ambiguity.
func (s *sqlStore) CreateVaultRow(ctx context.Context, row VaultRow) error {
	if isNumeric(row.Alias) {
		return fmt.Errorf("%w: vault alias %q must not be purely numeric", domain.ErrStorage, row.Alias)
	}
	if err := validateIdentifier(row.Table); err != nil {
		return err
	}

	return s.withGatedTx(ctx, func(ctx context.Context) error {
		if _, err := s.querier(ctx).ExecContext(ctx, s.tableDDL(row.Table, row.ValueLen, row.Durable)); err != nil {
			return fmt.Errorf("%w: creating table for vault %q: %v", domain.ErrStorage, row.Alias, err)
		}

		query := fmt.Sprintf(
			"INSERT INTO %s (alias, tablename, format, durable, enckey, mackey) VALUES (%s, %s, %s, %s, %s, %s)",
			vaultsTable, s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5), s.ph(6),
		)
		_, err := s.querier(ctx).ExecContext(ctx, query,
			row.Alias, row.Table, int(row.Format), row.Durable, row.EncKeyName, row.MacKeyName)
		if err != nil {
			return fmt.Errorf("%w: creating vault %q: %v", domain.ErrStorage, row.Alias, err)
		}
		return nil
	})
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

var entryColumns = "token, hmac, crypt, mask, expiration, properties, enckey"

func scanEntry(scanner interface {
	Scan(dest ...any) error
}) (domain.TokenEntry, error) {
	var (
		token      string
		hmac       []byte
		crypt      []byte
		mask       sql.NullString
		expiration sql.NullTime
		properties []byte
		encKey     sql.NullString
	)
	if err := scanner.Scan(&token, &hmac, &crypt, &mask, &expiration, &properties, &encKey); err != nil {
		return domain.TokenEntry{}, err
	}

	props, err := domain.DeserializeProperties(properties)
	if err != nil {
		return domain.TokenEntry{}, err
	}

	exp := domain.NoExpiration
	if expiration.Valid {
		exp = expiration.Time
	}

	return domain.TokenEntry{
		Token:      token,
		HMAC:       hmac,
		Crypt:      crypt,
		Mask:       mask.String,
		EncKey:     encKey.String,
		Expiration: exp,
		Properties: props,
	}, nil
}

// Get fetches a single row by token; an empty entry (not an error) is
// returned when no row matches.
func (s *sqlStore) Get(ctx context.Context, table, token string) (domain.TokenEntry, error) {
	if err := validateIdentifier(table); err != nil {
		return domain.TokenEntry{}, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE token = %s", entryColumns, table, s.ph(1))
	row := s.querier(ctx).QueryRowContext(ctx, query, token)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return domain.TokenEntry{}, nil
	}
	if err != nil {
		return domain.TokenEntry{}, fmt.Errorf("%w: get by token: %v", domain.ErrStorage, err)
	}
	return entry, nil
}

// GetByHMAC fetches every row sharing the given hmac.
func (s *sqlStore) GetByHMAC(ctx context.Context, table string, hmac []byte) ([]domain.TokenEntry, error) {
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE hmac = %s", entryColumns, table, s.ph(1))
	rows, err := s.querier(ctx).QueryContext(ctx, query, hmac)
	if err != nil {
		return nil, fmt.Errorf("%w: get by hmac: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var entries []domain.TokenEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning hmac row: %v", domain.ErrStorage, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Insert stores a new row. The enckey column is included only when
// entry.EncKey is non-empty, matching the versioned-key contract.
func (s *sqlStore) Insert(ctx context.Context, table string, entry domain.TokenEntry) error {
	if err := validateIdentifier(table); err != nil {
		return err
	}

	return s.withGatedTx(ctx, func(ctx context.Context) error {
		properties, err := domain.SerializeProperties(entry.Properties)
		if err != nil {
			return err
		}

		columns := []string{"token", "hmac", "crypt", "mask", "expiration", "properties"}
		values := []any{entry.Token, entry.HMAC, entry.Crypt, entry.Mask, expirationValue(entry), properties}
		if entry.EncKey != "" {
			columns = append(columns, "enckey")
			values = append(values, entry.EncKey)
		}

		placeholders := make([]string, len(values))
		for i := range values {
			placeholders[i] = s.ph(i + 1)
		}

		query := fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(columns, ", "), strings.Join(placeholders, ", "),
		)

		result, err := s.querier(ctx).ExecContext(ctx, query, values...)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		return checkAffected(result, 1)
	})
}

func expirationValue(entry domain.TokenEntry) time.Time {
	if entry.HasExpiration() {
		return entry.Expiration
	}
	return domain.NoExpiration
}

func checkAffected(result sql.Result, want int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: reading affected rows: %v", domain.ErrStorage, err)
	}
	if affected != want {
		return fmt.Errorf("%w: expected %d affected row(s), got %d", domain.ErrStorage, want, affected)
	}
	return nil
}

// Remove re-reads the row (by token if present, else by hmac) into the
// returned entry, then deletes it the same way.
func (s *sqlStore) Remove(ctx context.Context, table string, entry domain.TokenEntry) (domain.TokenEntry, error) {
	if err := validateIdentifier(table); err != nil {
		return domain.TokenEntry{}, err
	}
	if entry.Token == "" && len(entry.HMAC) == 0 {
		return domain.TokenEntry{}, fmt.Errorf("%w: remove requires a token or hmac", domain.ErrStorage)
	}

	var result domain.TokenEntry
	err := s.withGatedTx(ctx, func(ctx context.Context) error {
		var (
			column string
			value  any
		)
		if entry.Token != "" {
			column, value = "token", entry.Token
		} else {
			column, value = "hmac", entry.HMAC
		}

		selectQuery := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s", entryColumns, table, column, s.ph(1))
		row := s.querier(ctx).QueryRowContext(ctx, selectQuery, value)
		current, err := scanEntry(row)
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("%w: no row to remove", domain.ErrStorage)
			}
			return fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		result = current

		deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", table, column, s.ph(1))
		execResult, err := s.querier(ctx).ExecContext(ctx, deleteQuery, value)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		return checkAffected(execResult, 1)
	})
	if err != nil {
		return domain.TokenEntry{}, err
	}
	return result, nil
}

// Update applies a partial UPDATE containing only the non-empty fields
// among {enckey, hmac, crypt, mask, expiration, properties}, keyed by
// token. An empty token, or an entry with nothing to set, is a no-op that
// returns entry unchanged. After a successful update, the row is re-read.
func (s *sqlStore) Update(ctx context.Context, table string, entry domain.TokenEntry) (domain.TokenEntry, error) {
	if err := validateIdentifier(table); err != nil {
		return domain.TokenEntry{}, err
	}
	if entry.Token == "" {
		return entry, nil
	}

	columns := make([]string, 0, 6)
	values := make([]any, 0, 6)

	if entry.EncKey != "" {
		columns = append(columns, "enckey")
		values = append(values, entry.EncKey)
	}
	if len(entry.HMAC) > 0 {
		columns = append(columns, "hmac")
		values = append(values, entry.HMAC)
	}
	if len(entry.Crypt) > 0 {
		columns = append(columns, "crypt")
		values = append(values, entry.Crypt)
	}
	if entry.Mask != "" {
		columns = append(columns, "mask")
		values = append(values, entry.Mask)
	}
	if entry.HasExpiration() {
		columns = append(columns, "expiration")
		values = append(values, entry.Expiration)
	}
	if len(entry.Properties) > 0 {
		properties, err := domain.SerializeProperties(entry.Properties)
		if err != nil {
			return domain.TokenEntry{}, err
		}
		columns = append(columns, "properties")
		values = append(values, properties)
	}

	if len(columns) == 0 {
		return entry, nil
	}

	var result domain.TokenEntry
	err := s.withGatedTx(ctx, func(ctx context.Context) error {
		setClauses := make([]string, len(columns))
		for i, col := range columns {
			setClauses[i] = fmt.Sprintf("%s = %s", col, s.ph(i+1))
		}
		values = append(values, entry.Token)

		query := fmt.Sprintf(
			"UPDATE %s SET %s WHERE token = %s",
			table, strings.Join(setClauses, ", "), s.ph(len(columns)+1),
		)
		execResult, err := s.querier(ctx).ExecContext(ctx, query, values...)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		if err := checkAffected(execResult, 1); err != nil {
			return err
		}

		selectQuery := fmt.Sprintf("SELECT %s FROM %s WHERE token = %s", entryColumns, table, s.ph(1))
		row := s.querier(ctx).QueryRowContext(ctx, selectQuery, entry.Token)
		result, err = scanEntry(row)
		if err != nil {
			return fmt.Errorf("%w: re-reading after update: %v", domain.ErrStorage, err)
		}
		return nil
	})
	if err != nil {
		return domain.TokenEntry{}, err
	}
	return result, nil
}

// Query composes filters (§4.3), optional sort/page, and an optional
// COUNT(0) probe using the same WHERE clause.
func (s *sqlStore) Query(ctx context.Context, table string, params QueryParams) (QueryResult, error) {
	if err := validateIdentifier(table); err != nil {
		return QueryResult{}, err
	}

	where, args := s.buildWhere(params)

	sortField := params.SortField
	if sortField == "" {
		sortField = "creation_date"
	}
	direction := "DESC"
	if params.SortAsc {
		direction = "ASC"
	}

	query := fmt.Sprintf("SELECT %s FROM %s", entryColumns, table)
	if where != "" {
		query += " " + where
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortField, direction)
	if params.Offset != 0 {
		query += fmt.Sprintf(" OFFSET %d", params.Offset)
	}
	if params.Limit != 0 {
		query += fmt.Sprintf(" LIMIT %d", params.Limit)
	}

	rows, err := s.querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return QueryResult{}, fmt.Errorf("%w: query: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var entries []domain.TokenEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return QueryResult{}, fmt.Errorf("%w: scanning query row: %v", domain.ErrStorage, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return QueryResult{}, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	result := QueryResult{Entries: entries}
	if params.WithCount {
		_, countArgs := s.buildWhere(params)
		countQuery := fmt.Sprintf("SELECT COUNT(0) FROM %s", table)
		if where != "" {
			countQuery += " " + where
		}
		var count int
		if err := s.querier(ctx).QueryRowContext(ctx, countQuery, countArgs...).Scan(&count); err != nil {
			return QueryResult{}, fmt.Errorf("%w: count query: %v", domain.ErrStorage, err)
		}
		result.Count = &count
	}

	return result, nil
}

func (s *sqlStore) buildWhere(params QueryParams) (string, []any) {
	w := newWhereBuilder(s.ph)
	if len(params.Tokens) > 0 {
		values := make([]any, len(params.Tokens))
		for i, t := range params.Tokens {
			values[i] = t
		}
		w.addIn("token", values)
	}
	if len(params.HMACs) > 0 {
		values := make([]any, len(params.HMACs))
		for i, h := range params.HMACs {
			values[i] = h
		}
		w.addIn("hmac", values)
	}
	if len(params.Expirations) > 0 {
		values := make([]any, len(params.Expirations))
		for i, e := range params.Expirations {
			values[i] = e
		}
		w.addIn("expiration", values)
	}
	return w.sql(), w.args
}

// UpdateKey updates the vaults table's current key pointer for alias.
func (s *sqlStore) UpdateKey(ctx context.Context, alias, newKeyName string) (bool, error) {
	var ok bool
	err := s.withGatedTx(ctx, func(ctx context.Context) error {
		query := fmt.Sprintf("UPDATE %s SET enckey = %s WHERE alias = %s", vaultsTable, s.ph(1), s.ph(2))
		result, err := s.querier(ctx).ExecContext(ctx, query, newKeyName, alias)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		ok = affected == 1
		return nil
	})
	return ok, err
}

// Rekey holds every row of table under SELECT ... FOR UPDATE and applies
// recrypt per row, committing once at the end. Any decrypt/encrypt
// failure aborts the whole pass; the absence of a commit rolls back
// partial work. newKeyVersioned clears enckey on every row regardless of
// what it carried before, since a versioned key needs no per-row name to
// identify itself.
func (s *sqlStore) Rekey(ctx context.Context, alias, table, newKeyName string, newKeyVersioned bool, recrypt RecryptFunc) (bool, error) {
	if err := validateIdentifier(table); err != nil {
		return false, err
	}

	err := s.withGatedTx(ctx, func(ctx context.Context) error {
		selectQuery := fmt.Sprintf("SELECT token, crypt, enckey FROM %s FOR UPDATE", table)
		rows, err := s.querier(ctx).QueryContext(ctx, selectQuery)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}

		type row struct {
			token  string
			crypt  []byte
			encKey sql.NullString
		}
		var toUpdate []row
		for rows.Next() {
			var r row
			if err := rows.Scan(&r.token, &r.crypt, &r.encKey); err != nil {
				rows.Close()
				return fmt.Errorf("%w: %v", domain.ErrStorage, err)
			}
			toUpdate = append(toUpdate, r)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		rows.Close()

		updateQuery := fmt.Sprintf("UPDATE %s SET crypt = %s, enckey = %s WHERE token = %s", table, s.ph(1), s.ph(2), s.ph(3))

		for _, r := range toUpdate {
			newCrypt, err := recrypt(ctx, newKeyName, r.encKey.String, r.crypt)
			if err != nil {
				return fmt.Errorf("%w: recrypting token %q: %v", domain.ErrCryptography, r.token, err)
			}

			// A versioned new key self-describes its version inside every
			// ciphertext it produces, so enckey is cleared for every row
			// regardless of what it carried before. Otherwise rows that
			// previously carried a per-row enckey keep carrying one (now
			// the new key's name); rows that didn't carry one stay that way.
			newEncKey := ""
			if !newKeyVersioned && r.encKey.Valid && r.encKey.String != "" {
				newEncKey = newKeyName
			}

			if _, err := s.querier(ctx).ExecContext(ctx, updateQuery, newCrypt, newEncKey, r.token); err != nil {
				return fmt.Errorf("%w: updating token %q: %v", domain.ErrStorage, r.token, err)
			}
		}

		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Test probes connectivity; any error yields false.
func (s *sqlStore) Test(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}
