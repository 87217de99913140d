package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/tcsantanello/tokengov/internal/database"
)

// postgresPlaceholder renders PostgreSQL's "$1, $2, ..." positional
// placeholder style.
func postgresPlaceholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// postgresTableDDL builds the per-vault token table, sized to valueLen
// when set, defaulting to a generous width otherwise. Durable vaults get
// UNIQUE(hmac) and PRIMARY KEY(token), since a durable vault's own
// invariant is one token per distinct value; transactional vaults only
// get UNIQUE(token), since repeated tokenization of the same value is
// expected to mint distinct rows.
func postgresTableDDL(table string, valueLen int, durable bool) string {
	if valueLen <= 0 {
		valueLen = 255
	}
	constraint := "UNIQUE (token)"
	if durable {
		constraint = "PRIMARY KEY (token), UNIQUE (hmac)"
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	token      VARCHAR(%d) NOT NULL,
	hmac       BYTEA,
	crypt      BYTEA NOT NULL,
	mask       VARCHAR(255),
	expiration TIMESTAMP WITH TIME ZONE,
	properties BYTEA,
	enckey     VARCHAR(255),
	%s
)`, table, valueLen, constraint)
}

// NewPostgresStore builds a TokenStore backed by a PostgreSQL connection
// pool opened against db. gate may be nil to skip connection gating.
func NewPostgresStore(db *sql.DB, gate *database.ConnGate) TokenStore {
	return newSQLStore(db, gate, postgresPlaceholder, postgresTableDDL)
}
