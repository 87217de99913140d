package manager

import "strings"

// isTokenCollision classifies a storage error as a unique-token violation
// by the portability heuristic in spec.md §9: backends report unique
// constraint violations differently, so the manager matches on substrings
// rather than a typed error. Tokenize retries on a match; only when the
// error does not match does it fall back to an explicit get(token) to
// detect a collision.
func isTokenCollision(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToUpper(err.Error())
	return strings.Contains(msg, "UNIQUE") && strings.Contains(msg, "TOKEN")
}
