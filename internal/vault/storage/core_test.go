package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcsantanello/tokengov/internal/vault/domain"
)

func newMockStore(t *testing.T) (*sqlStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return newSQLStore(db, nil, postgresPlaceholder, postgresTableDDL), mock
}

func TestSQLStoreGetFound(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"token", "hmac", "crypt", "mask", "expiration", "properties", "enckey"}).
		AddRow("TOK123", []byte("hmac-bytes"), []byte("cipher-bytes"), "****", nil, nil, "ENCKEY1")
	mock.ExpectQuery(`SELECT .* FROM transactional20_7_su WHERE token = \$1`).
		WithArgs("TOK123").
		WillReturnRows(rows)

	entry, err := store.Get(context.Background(), "transactional20_7_su", "TOK123")
	require.NoError(t, err)
	assert.Equal(t, "TOK123", entry.Token)
	assert.Equal(t, "ENCKEY1", entry.EncKey)
	assert.Equal(t, domain.NoExpiration, entry.Expiration)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreGetNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .* FROM transactional20_7_su WHERE token = \$1`).
		WithArgs("MISSING").
		WillReturnRows(sqlmock.NewRows([]string{"token", "hmac", "crypt", "mask", "expiration", "properties", "enckey"}))

	entry, err := store.Get(context.Background(), "transactional20_7_su", "MISSING")
	require.NoError(t, err)
	assert.True(t, entry.IsEmpty())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreGetRejectsBadTableName(t *testing.T) {
	store, _ := newMockStore(t)
	_, err := store.Get(context.Background(), "1; DROP TABLE vaults", "TOK")
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestSQLStoreInsertWithoutEncKeyColumn(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO durable20_7_mu \(token, hmac, crypt, mask, expiration, properties\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)`).
		WithArgs("TOK1", []byte("h"), []byte("c"), "****", domain.NoExpiration, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entry := domain.TokenEntry{Token: "TOK1", HMAC: []byte("h"), Crypt: []byte("c"), Mask: "****"}
	err := store.Insert(context.Background(), "durable20_7_mu", entry)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreInsertWithEncKeyColumn(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO transactional20_7_su \(token, hmac, crypt, mask, expiration, properties, enckey\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7\)`).
		WithArgs("TOK1", []byte("h"), []byte("c"), "****", domain.NoExpiration, sqlmock.AnyArg(), "ENCKEY1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entry := domain.TokenEntry{Token: "TOK1", HMAC: []byte("h"), Crypt: []byte("c"), Mask: "****", EncKey: "ENCKEY1"}
	err := store.Insert(context.Background(), "transactional20_7_su", entry)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreInsertRollsBackOnAffectedRowsMismatch(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO durable20_7_mu`).
		WillReturnResult(sqlmock.NewResult(1, 0))
	mock.ExpectRollback()

	entry := domain.TokenEntry{Token: "TOK1", Mask: "****"}
	err := store.Insert(context.Background(), "durable20_7_mu", entry)
	assert.ErrorIs(t, err, domain.ErrStorage)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreUpdateNoOpOnEmptyToken(t *testing.T) {
	store, _ := newMockStore(t)
	entry := domain.TokenEntry{Value: "ignored"}
	result, err := store.Update(context.Background(), "durable20_7_mu", entry)
	require.NoError(t, err)
	assert.Equal(t, entry, result)
}

func TestSQLStoreUpdateNoOpWhenNoFieldsSet(t *testing.T) {
	store, _ := newMockStore(t)
	entry := domain.TokenEntry{Token: "TOK1"}
	result, err := store.Update(context.Background(), "durable20_7_mu", entry)
	require.NoError(t, err)
	assert.Equal(t, entry, result)
}

func TestSQLStoreUpdatePartialFields(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE durable20_7_mu SET mask = \$1 WHERE token = \$2`).
		WithArgs("####", "TOK1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	rows := sqlmock.NewRows([]string{"token", "hmac", "crypt", "mask", "expiration", "properties", "enckey"}).
		AddRow("TOK1", nil, nil, "####", nil, nil, nil)
	mock.ExpectQuery(`SELECT .* FROM durable20_7_mu WHERE token = \$1`).
		WithArgs("TOK1").
		WillReturnRows(rows)
	mock.ExpectCommit()

	entry := domain.TokenEntry{Token: "TOK1", Mask: "####"}
	result, err := store.Update(context.Background(), "durable20_7_mu", entry)
	require.NoError(t, err)
	assert.Equal(t, "####", result.Mask)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreRemoveByToken(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"token", "hmac", "crypt", "mask", "expiration", "properties", "enckey"}).
		AddRow("TOK1", []byte("h"), []byte("c"), "****", nil, nil, nil)
	mock.ExpectQuery(`SELECT .* FROM durable20_7_mu WHERE token = \$1`).
		WithArgs("TOK1").
		WillReturnRows(rows)
	mock.ExpectExec(`DELETE FROM durable20_7_mu WHERE token = \$1`).
		WithArgs("TOK1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, err := store.Remove(context.Background(), "durable20_7_mu", domain.TokenEntry{Token: "TOK1"})
	require.NoError(t, err)
	assert.Equal(t, "TOK1", removed.Token)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreRemoveRequiresTokenOrHMAC(t *testing.T) {
	store, _ := newMockStore(t)
	_, err := store.Remove(context.Background(), "durable20_7_mu", domain.TokenEntry{})
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestSQLStoreQueryWithFiltersAndCount(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"token", "hmac", "crypt", "mask", "expiration", "properties", "enckey"}).
		AddRow("TOK1", nil, nil, "****", nil, nil, nil).
		AddRow("TOK2", nil, nil, "****", nil, nil, nil)
	mock.ExpectQuery(`SELECT .* FROM durable20_7_mu WHERE token IN \(\$1, \$2\) ORDER BY creation_date DESC LIMIT 10`).
		WithArgs("TOK1", "TOK2").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(0\) FROM durable20_7_mu WHERE token IN \(\$1, \$2\)`).
		WithArgs("TOK1", "TOK2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	result, err := store.Query(context.Background(), "durable20_7_mu", QueryParams{
		Tokens: []string{"TOK1", "TOK2"}, Limit: 10, WithCount: true,
	})
	require.NoError(t, err)
	assert.Len(t, result.Entries, 2)
	require.NotNil(t, result.Count)
	assert.Equal(t, 2, *result.Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreUpdateKey(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE vaults SET enckey = \$1 WHERE alias = \$2`).
		WithArgs("ENCKEY2", "transactional").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := store.UpdateKey(context.Background(), "transactional", "ENCKEY2")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreRekeyRecryptsEveryRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"token", "crypt", "enckey"}).
		AddRow("TOK1", []byte("old-cipher-1"), "ENCKEY1").
		AddRow("TOK2", []byte("old-cipher-2"), nil)
	mock.ExpectQuery(`SELECT token, crypt, enckey FROM durable20_7_mu FOR UPDATE`).
		WillReturnRows(rows)
	mock.ExpectExec(`UPDATE durable20_7_mu SET crypt = \$1, enckey = \$2 WHERE token = \$3`).
		WithArgs([]byte("new-cipher-1"), "ENCKEY2", "TOK1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE durable20_7_mu SET crypt = \$1, enckey = \$2 WHERE token = \$3`).
		WithArgs([]byte("new-cipher-2"), "", "TOK2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	calls := 0
	recrypt := func(ctx context.Context, newKeyName, srcKeyName string, ciphertext []byte) ([]byte, error) {
		calls++
		return []byte("new-cipher-" + string(rune('0'+calls))), nil
	}

	ok, err := store.Rekey(context.Background(), "durable", "durable20_7_mu", "ENCKEY2", false, recrypt)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreRekeyClearsEncKeyWhenNewKeyVersioned(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"token", "crypt", "enckey"}).
		AddRow("TOK1", []byte("old-cipher-1"), "ENCKEY1").
		AddRow("TOK2", []byte("old-cipher-2"), nil)
	mock.ExpectQuery(`SELECT token, crypt, enckey FROM durable20_7_mu FOR UPDATE`).
		WillReturnRows(rows)
	mock.ExpectExec(`UPDATE durable20_7_mu SET crypt = \$1, enckey = \$2 WHERE token = \$3`).
		WithArgs([]byte("new-cipher-1"), "", "TOK1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE durable20_7_mu SET crypt = \$1, enckey = \$2 WHERE token = \$3`).
		WithArgs([]byte("new-cipher-2"), "", "TOK2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	calls := 0
	recrypt := func(ctx context.Context, newKeyName, srcKeyName string, ciphertext []byte) ([]byte, error) {
		calls++
		return []byte("new-cipher-" + string(rune('0'+calls))), nil
	}

	ok, err := store.Rekey(context.Background(), "durable", "durable20_7_mu", "ENCKEY2", true, recrypt)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreLoadVaultRowNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT alias, tablename, format, durable, enckey, mackey FROM vaults WHERE alias = \$1 OR tablename = \$2`).
		WithArgs("missing", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"alias", "tablename", "format", "durable", "enckey", "mackey"}))

	_, err := store.LoadVaultRow(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNoVault)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreCreateVaultRowRejectsNumericAlias(t *testing.T) {
	store, _ := newMockStore(t)
	err := store.CreateVaultRow(context.Background(), VaultRow{Alias: "12345", Table: "t12345_0_su"})
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestSQLStoreCreateVaultRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS transactional20_7_su`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO vaults \(alias, tablename, format, durable, enckey, mackey\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)`).
		WithArgs("transactional", "transactional20_7_su", 7, true, "ENCKEY1", "MACKEY1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.CreateVaultRow(context.Background(), VaultRow{
		Alias: "transactional", Table: "transactional20_7_su",
		Format: domain.FormatF6L4, Durable: true, EncKeyName: "ENCKEY1", MacKeyName: "MACKEY1",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTableDDLDurableAddsUniqueHMACAndPrimaryKeyToken(t *testing.T) {
	ddl := postgresTableDDL("durable20_7_mu", 20, true)
	assert.Contains(t, ddl, "PRIMARY KEY (token)")
	assert.Contains(t, ddl, "UNIQUE (hmac)")
}

func TestPostgresTableDDLTransactionalAddsOnlyUniqueToken(t *testing.T) {
	ddl := postgresTableDDL("transactional20_7_su", 20, false)
	assert.Contains(t, ddl, "UNIQUE (token)")
	assert.NotContains(t, ddl, "PRIMARY KEY")
	assert.NotContains(t, ddl, "UNIQUE (hmac)")
}

func TestMySQLTableDDLDurableAddsUniqueHMACAndPrimaryKeyToken(t *testing.T) {
	ddl := mysqlTableDDL("durable20_7_mu", 20, true)
	assert.Contains(t, ddl, "PRIMARY KEY (token)")
	assert.Contains(t, ddl, "UNIQUE KEY (hmac)")
}

func TestMySQLTableDDLTransactionalAddsOnlyUniqueToken(t *testing.T) {
	ddl := mysqlTableDDL("transactional20_7_su", 20, false)
	assert.Contains(t, ddl, "UNIQUE KEY (token)")
	assert.NotContains(t, ddl, "PRIMARY KEY")
	assert.NotContains(t, ddl, "UNIQUE KEY (hmac)")
}

func TestSQLStoreTest(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectPing()
	assert.True(t, store.Test(context.Background()))
}
