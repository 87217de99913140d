// Package domain holds the core data types of the tokenization vault: vault
// descriptors, token entries, format ids and the taxonomy of errors the vault
// can raise.
package domain

import (
	"fmt"
	"time"
)

// Format enumerates the structural template a generator produces.
type Format int

const (
	// FormatRandom replaces every character with a random one drawn from
	// {upper, lower, digit, punctuation}. Output length equals input length.
	FormatRandom Format = iota
	// FormatFPRandom draws only from the character classes present in the
	// input (upper/lower/digit); punctuation is never used.
	FormatFPRandom
	// FormatDate draws from a digits-only alphabet.
	FormatDate
	// FormatEmail draws from an upper+lower alphabet.
	FormatEmail
	// FormatL4 preserves the last 4 characters and must pass Luhn.
	FormatL4
	// FormatF6 preserves the first 6 characters and must pass Luhn.
	FormatF6
	// FormatF2L4 preserves the first 2 and last 4 characters and must pass Luhn.
	FormatF2L4
	// FormatF6L4 preserves the first 6 and last 4 characters and must pass Luhn.
	FormatF6L4
	// FormatL4NoLuhn is FormatL4's geometry but must fail Luhn.
	FormatL4NoLuhn
	// FormatF6NoLuhn is FormatF6's geometry but must fail Luhn.
	FormatF6NoLuhn
	// FormatF2L4NoLuhn is FormatF2L4's geometry but must fail Luhn.
	FormatF2L4NoLuhn
	// FormatF6L4NoLuhn is FormatF6L4's geometry but must fail Luhn.
	FormatF6L4NoLuhn
)

// String returns the canonical name of the format, as used in create_vault
// requests and log lines.
func (f Format) String() string {
	switch f {
	case FormatRandom:
		return "RANDOM"
	case FormatFPRandom:
		return "FP_RANDOM"
	case FormatDate:
		return "DATE"
	case FormatEmail:
		return "EMAIL"
	case FormatL4:
		return "L4"
	case FormatF6:
		return "F6"
	case FormatF2L4:
		return "F2L4"
	case FormatF6L4:
		return "F6L4"
	case FormatL4NoLuhn:
		return "L4_NOLUHN"
	case FormatF6NoLuhn:
		return "F6_NOLUHN"
	case FormatF2L4NoLuhn:
		return "F2L4_NOLUHN"
	case FormatF6L4NoLuhn:
		return "F6L4_NOLUHN"
	default:
		return "UNKNOWN"
	}
}

// ParseFormat maps a format's canonical name (as used in create_vault
// requests) back to its Format id. The zero value and an error are
// returned for an unrecognized name.
func ParseFormat(name string) (Format, error) {
	for f := FormatRandom; f <= FormatF6L4NoLuhn; f++ {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: unrecognized format %q", ErrInvalidTokenFormat, name)
}

// MaxTokenLength bounds the length of a generated token and the token column.
const MaxTokenLength = 255

// NoExpiration is the sentinel "no expiration" value: the epoch origin.
// An expiration equal to this value is never sent as part of a partial
// UPDATE; an INSERT writes it as the expiration of an entry that has none.
var NoExpiration = time.Unix(0, 0).UTC()

// durability table-name suffixes, indexed by the durable bool, matching the
// original "su"/"mu" lookup table.
var tableSuffixes = [2]string{"su", "mu"}

// TableSuffix returns the table-name suffix for a vault's durability.
func TableSuffix(durable bool) string {
	if durable {
		return tableSuffixes[1]
	}
	return tableSuffixes[0]
}
