package domain

import (
	apperrors "github.com/tcsantanello/tokengov/internal/errors"
)

// Error kinds for the tokenization core, per the error taxonomy: every
// failure the vault raises wraps exactly one of these sentinels so callers
// can classify with errors.Is regardless of the human-readable message.
var (
	// ErrNoVault indicates the named vault is not present in metadata.
	ErrNoVault = apperrors.New("no such vault")

	// ErrInvalidTokenFormat indicates no generator is registered for the
	// vault's format id.
	ErrInvalidTokenFormat = apperrors.New("invalid token format")

	// ErrTokenGeneration indicates a generator exceeded its retry budget.
	ErrTokenGeneration = apperrors.New("token generation failed")

	// ErrTokenRange indicates preserved prefix/suffix lengths meet or
	// exceed the value length.
	ErrTokenRange = apperrors.New("token range error")

	// ErrCryptography indicates the provider could not resolve or use a key.
	ErrCryptography = apperrors.New("cryptography error")

	// ErrStorage indicates any SQL failure, including affected-row
	// mismatches and count-query failures.
	ErrStorage = apperrors.New("storage error")
)
