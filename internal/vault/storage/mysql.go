package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/tcsantanello/tokengov/internal/database"
)

// mysqlPlaceholder renders MySQL's "?" positional placeholder style;
// position is irrelevant since every "?" just fills in order.
func mysqlPlaceholder(int) string {
	return "?"
}

// mysqlTableDDL builds the per-vault token table, sized to valueLen when
// set, defaulting to a generous width otherwise. Durable vaults get
// UNIQUE(hmac) and PRIMARY KEY(token), since a durable vault's own
// invariant is one token per distinct value; transactional vaults only
// get UNIQUE(token), since repeated tokenization of the same value is
// expected to mint distinct rows.
func mysqlTableDDL(table string, valueLen int, durable bool) string {
	if valueLen <= 0 {
		valueLen = 255
	}
	constraint := "UNIQUE KEY (token)"
	if durable {
		constraint = "PRIMARY KEY (token), UNIQUE KEY (hmac)"
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	token      VARCHAR(%d) NOT NULL,
	hmac       VARBINARY(255),
	crypt      BLOB NOT NULL,
	mask       VARCHAR(255),
	expiration DATETIME,
	properties BLOB,
	enckey     VARCHAR(255),
	%s
)`, table, valueLen, constraint)
}

// NewMySQLStore builds a TokenStore backed by a MySQL connection pool
// opened against db. gate may be nil to skip connection gating.
func NewMySQLStore(db *sql.DB, gate *database.ConnGate) TokenStore {
	return newSQLStore(db, gate, mysqlPlaceholder, mysqlTableDDL)
}
