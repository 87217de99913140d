package storage

import (
	"fmt"
	"regexp"

	"github.com/tcsantanello/tokengov/internal/vault/domain"
)

// identifierPattern bounds what we are willing to interpolate directly
// into SQL as a table or column identifier. Table names are derived from
// caller-supplied aliases (DeriveTableName) or loaded back out of the
// vaults metadata table, never taken verbatim from an unvalidated
// request, but every identifier is still re-checked here before use:
// dynamic per-vault table names can't be bound as query parameters, so
// this is the one place an injection could otherwise creep in.
var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

func validateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: invalid table identifier %q", domain.ErrStorage, name)
	}
	return nil
}
