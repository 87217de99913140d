// Package dto provides data transfer objects for the vault HTTP API.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	customValidation "github.com/tcsantanello/tokengov/internal/validation"
)

// TokenizeRequest contains the parameters for tokenizing a value.
type TokenizeRequest struct {
	Value      string            `json:"value"`
	Hint       string            `json:"hint,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Validate checks if the tokenize request is valid.
func (r *TokenizeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Value, validation.Required, customValidation.NotBlank),
	)
}

// DetokenizeRequest contains the parameters for detokenizing a token.
type DetokenizeRequest struct {
	Token string `json:"token"`
}

// Validate checks if the detokenize request is valid.
func (r *DetokenizeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Token, validation.Required, customValidation.NotBlank),
	)
}

// RetrieveRequest contains the parameters for retrieving entries by value.
type RetrieveRequest struct {
	Value string `json:"value"`
}

// Validate checks if the retrieve request is valid.
func (r *RetrieveRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Value, validation.Required, customValidation.NotBlank),
	)
}

// UpdateRequest contains the partial fields to apply to a token.
type UpdateRequest struct {
	Token      string            `json:"token"`
	Value      string            `json:"value,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Validate checks if the update request is valid.
func (r *UpdateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Token, validation.Required, customValidation.NotBlank),
	)
}

// QueryRequest contains filter/sort/page parameters for a vault query.
type QueryRequest struct {
	Values      []string    `json:"values,omitempty"`
	Tokens      []string    `json:"tokens,omitempty"`
	Expirations []time.Time `json:"expirations,omitempty"`
	SortField   string      `json:"sort_field,omitempty"`
	SortAsc     bool        `json:"sort_asc,omitempty"`
	Offset      int         `json:"offset,omitempty"`
	Limit       int         `json:"limit,omitempty"`
	WithCount   bool        `json:"with_count,omitempty"`
}

// CreateVaultRequest contains the parameters for creating a vault.
type CreateVaultRequest struct {
	Alias      string `json:"alias"`
	Format     string `json:"format"`
	ValueLen   int    `json:"value_len"`
	Durable    bool   `json:"durable"`
	EncKeyName string `json:"enc_key_name"`
	MacKeyName string `json:"mac_key_name"`
	Table      string `json:"table,omitempty"`
}

// Validate checks if the create vault request is valid.
func (r *CreateVaultRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Alias, validation.Required, customValidation.NotBlank, customValidation.VaultAlias),
		validation.Field(&r.Format, validation.Required, customValidation.NotBlank, customValidation.TokenFormat),
		validation.Field(&r.ValueLen, validation.Required, validation.Min(1)),
		validation.Field(&r.EncKeyName, validation.Required, customValidation.NotBlank),
		validation.Field(&r.MacKeyName, validation.Required, customValidation.NotBlank),
	)
}

// RekeyVaultRequest contains the parameters for rekeying a vault.
type RekeyVaultRequest struct {
	NewEncKeyName string `json:"new_enc_key_name"`
	Deep          bool   `json:"deep"`
}

// Validate checks if the rekey vault request is valid.
func (r *RekeyVaultRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.NewEncKeyName, validation.Required, customValidation.NotBlank),
	)
}
