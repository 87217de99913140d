package domain

import "time"

// TokenEntry is a row in a vault. Value is populated only in memory after a
// successful decrypt; it is never persisted in cleartext.
type TokenEntry struct {
	Token      string
	HMAC       []byte
	Crypt      []byte
	Mask       string
	Value      string
	EncKey     string
	Expiration time.Time
	Properties map[string]string
}

// IsEmpty reports whether the entry carries no identifying data, the
// storage layer's signal for "no such row".
func (e TokenEntry) IsEmpty() bool {
	return e.Token == "" && len(e.HMAC) == 0 && len(e.Crypt) == 0
}

// HasExpiration reports whether Expiration is something other than the
// "no expiration" sentinel.
func (e TokenEntry) HasExpiration() bool {
	return !e.Expiration.IsZero() && !e.Expiration.Equal(NoExpiration)
}
