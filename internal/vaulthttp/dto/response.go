package dto

import (
	"time"

	"github.com/tcsantanello/tokengov/internal/vault/domain"
	"github.com/tcsantanello/tokengov/internal/vault/storage"
)

// TokenEntryResponse represents one vault row in API responses.
type TokenEntryResponse struct {
	Token      string            `json:"token"`
	Mask       string            `json:"mask,omitempty"`
	Value      string            `json:"value,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	Expiration *time.Time        `json:"expiration,omitempty"`
}

// MapTokenEntry converts a domain token entry to its API response shape.
func MapTokenEntry(entry domain.TokenEntry) TokenEntryResponse {
	resp := TokenEntryResponse{
		Token:      entry.Token,
		Mask:       entry.Mask,
		Value:      entry.Value,
		Properties: entry.Properties,
	}
	if entry.HasExpiration() {
		exp := entry.Expiration
		resp.Expiration = &exp
	}
	return resp
}

// MapTokenEntries converts a slice of domain token entries.
func MapTokenEntries(entries []domain.TokenEntry) []TokenEntryResponse {
	out := make([]TokenEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = MapTokenEntry(e)
	}
	return out
}

// QueryResponse represents the result of a vault query.
type QueryResponse struct {
	Entries []TokenEntryResponse `json:"entries"`
	Count   *int                 `json:"count,omitempty"`
}

// MapQueryResult converts a storage query result to its API response shape.
func MapQueryResult(result storage.QueryResult) QueryResponse {
	return QueryResponse{
		Entries: MapTokenEntries(result.Entries),
		Count:   result.Count,
	}
}

// RekeyVaultResponse reports whether a rekey completed.
type RekeyVaultResponse struct {
	Completed bool `json:"completed"`
}

// StatusResponse represents the vault core's operational status.
type StatusResponse struct {
	Status      string `json:"status"`
	Description string `json:"description"`
}

// MapStatus converts a domain status to its API response shape.
func MapStatus(status domain.Status) StatusResponse {
	return StatusResponse{Status: status.Text, Description: status.Description}
}
