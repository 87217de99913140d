// Package vaulthttp provides HTTP handlers for the tokenization vault:
// tokenize, detokenize, retrieve, update, remove, query, vault lifecycle,
// and status, coordinating each request with the Token Manager.
package vaulthttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tcsantanello/tokengov/internal/httputil"
	"github.com/tcsantanello/tokengov/internal/metrics"
	"github.com/tcsantanello/tokengov/internal/vault/domain"
	"github.com/tcsantanello/tokengov/internal/vault/manager"
	"github.com/tcsantanello/tokengov/internal/vault/storage"
	"github.com/tcsantanello/tokengov/internal/vaulthttp/dto"
	customValidation "github.com/tcsantanello/tokengov/internal/validation"
)

// errMissingTokenParam is returned when the :token path parameter is empty.
var errMissingTokenParam = errors.New("token is required in URL path")

// metricsDomain is the "domain" label this handler's operations are
// recorded under in BusinessMetrics.
const metricsDomain = "vault"

// Handler handles HTTP requests for vault operations, delegating to a
// Token Manager for every operation's actual semantics.
type Handler struct {
	manager *manager.Manager
	logger  *slog.Logger
	metrics metrics.BusinessMetrics
}

// NewHandler creates a new vault HTTP handler. Metrics recording is
// disabled until WithMetrics is called.
func NewHandler(mgr *manager.Manager, logger *slog.Logger) *Handler {
	return &Handler{manager: mgr, logger: logger}
}

// WithMetrics attaches business-operation metrics recording and returns h
// for chaining.
func (h *Handler) WithMetrics(m metrics.BusinessMetrics) *Handler {
	h.metrics = m
	return h
}

// record reports operation count and duration when metrics are configured.
func (h *Handler) record(ctx context.Context, operation string, start time.Time, err error) {
	if h.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	h.metrics.RecordOperation(ctx, metricsDomain, operation, status)
	h.metrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

// TokenizeHandler generates a token for the given value in the named vault.
// POST /v1/vaults/:name/tokenize
func (h *Handler) TokenizeHandler(c *gin.Context) {
	var req dto.TokenizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	start := time.Now()
	entry, err := h.manager.Tokenize(c.Request.Context(), c.Param("name"), req.Value, req.Hint, req.Properties)
	h.record(c.Request.Context(), "tokenize", start, err)
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusCreated, dto.MapTokenEntry(entry))
}

// DetokenizeHandler recovers the original value for a token.
// POST /v1/vaults/:name/detokenize
func (h *Handler) DetokenizeHandler(c *gin.Context) {
	var req dto.DetokenizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	start := time.Now()
	entry, err := h.manager.Detokenize(c.Request.Context(), c.Param("name"), req.Token)
	h.record(c.Request.Context(), "detokenize", start, err)
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, dto.MapTokenEntry(entry))
}

// RetrieveHandler returns every entry whose value matches, by HMAC lookup.
// POST /v1/vaults/:name/retrieve
func (h *Handler) RetrieveHandler(c *gin.Context) {
	var req dto.RetrieveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	start := time.Now()
	entries, err := h.manager.Retrieve(c.Request.Context(), c.Param("name"), req.Value)
	h.record(c.Request.Context(), "retrieve", start, err)
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, dto.MapTokenEntries(entries))
}

// RemoveHandler deletes a token and returns what was removed.
// DELETE /v1/vaults/:name/tokens/:token
func (h *Handler) RemoveHandler(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		httputil.HandleBadRequestGin(c, errMissingTokenParam, h.logger)
		return
	}

	start := time.Now()
	entry, err := h.manager.Remove(c.Request.Context(), c.Param("name"), token)
	h.record(c.Request.Context(), "remove", start, err)
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, dto.MapTokenEntry(entry))
}

// UpdateHandler applies a partial update to an existing token.
// PATCH /v1/vaults/:name/tokens
func (h *Handler) UpdateHandler(c *gin.Context) {
	var req dto.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	start := time.Now()
	entry, err := h.manager.Update(c.Request.Context(), c.Param("name"), domain.TokenEntry{
		Token:      req.Token,
		Value:      req.Value,
		Properties: req.Properties,
	})
	h.record(c.Request.Context(), "update", start, err)
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, dto.MapTokenEntry(entry))
}

// QueryHandler lists entries in a vault by filter/sort/page parameters.
// POST /v1/vaults/:name/query
func (h *Handler) QueryHandler(c *gin.Context) {
	var req dto.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	start := time.Now()
	result, err := h.manager.Query(c.Request.Context(), c.Param("name"), storage.QueryParams{
		Tokens:      req.Tokens,
		Expirations: req.Expirations,
		SortField:   req.SortField,
		SortAsc:     req.SortAsc,
		Offset:      req.Offset,
		Limit:       req.Limit,
		WithCount:   req.WithCount,
	}, req.Values)
	h.record(c.Request.Context(), "query", start, err)
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, dto.MapQueryResult(result))
}

// CreateVaultHandler creates a new vault.
// POST /v1/vaults
func (h *Handler) CreateVaultHandler(c *gin.Context) {
	var req dto.CreateVaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	format, err := domain.ParseFormat(req.Format)
	if err != nil {
		handleError(c, err, h.logger)
		return
	}

	start := time.Now()
	err = h.manager.CreateVault(c.Request.Context(), req.Alias, req.EncKeyName, req.MacKeyName, format, req.ValueLen, req.Durable, req.Table)
	h.record(c.Request.Context(), "create_vault", start, err)
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	c.Status(http.StatusCreated)
}

// RekeyVaultHandler rotates a vault's current encryption key.
// POST /v1/vaults/:name/rekey
func (h *Handler) RekeyVaultHandler(c *gin.Context) {
	var req dto.RekeyVaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	start := time.Now()
	completed, err := h.manager.RekeyVault(c.Request.Context(), c.Param("name"), req.NewEncKeyName, req.Deep)
	h.record(c.Request.Context(), "rekey_vault", start, err)
	if err != nil {
		handleError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, dto.RekeyVaultResponse{Completed: completed})
}

// StatusHandler reports process-wide operational status.
// GET /v1/status
func (h *Handler) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, dto.MapStatus(h.manager.Status(c.Request.Context())))
}

// VaultStatusHandler reports the operational status of one vault.
// GET /v1/vaults/:name/status
func (h *Handler) VaultStatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, dto.MapStatus(h.manager.VaultStatus(c.Request.Context(), c.Param("name"))))
}
