// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/tcsantanello/tokengov/internal/errors"
	"github.com/tcsantanello/tokengov/internal/vault/domain"
)

var (
	// emailRegex is a basic email validation pattern
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// aliasRegex restricts a vault alias to characters safe to embed in a
	// derived table name: letters, digits, and underscore.
	aliasRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// VaultAlias validates that a string is a well-formed, non-numeric vault
// alias: create_vault derives the per-vault table name by concatenating
// the alias with value_len, so a purely numeric alias would be ambiguous.
// An empty alias is rejected too.
var VaultAlias = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_vault_alias_type", "must be a string")
	}
	if !aliasRegex.MatchString(s) {
		return validation.NewError("validation_vault_alias", "must start with a letter or underscore and contain only letters, digits, and underscores")
	}
	return nil
})

// TokenFormat validates that a string names a registered token format id.
var TokenFormat = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_token_format_type", "must be a string")
	}
	if _, err := domain.ParseFormat(s); err != nil {
		return validation.NewError("validation_token_format", "must be a recognized token format")
	}
	return nil
})

// Email validates email format using regex
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return emailRegex.MatchString(s)
	},
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
