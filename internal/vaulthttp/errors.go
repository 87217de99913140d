package vaulthttp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tcsantanello/tokengov/internal/httputil"
	"github.com/tcsantanello/tokengov/internal/vault/domain"
)

// handleError maps the vault core's error taxonomy (spec.md §7) to HTTP
// status codes and writes a JSON error response.
func handleError(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, domain.ErrNoVault):
		status, code = http.StatusNotFound, "no_such_vault"
	case errors.Is(err, domain.ErrInvalidTokenFormat):
		status, code = http.StatusUnprocessableEntity, "invalid_token_format"
	case errors.Is(err, domain.ErrTokenGeneration):
		status, code = http.StatusConflict, "token_generation_failed"
	case errors.Is(err, domain.ErrTokenRange):
		status, code = http.StatusUnprocessableEntity, "token_range_error"
	case errors.Is(err, domain.ErrCryptography):
		status, code = http.StatusInternalServerError, "cryptography_error"
	case errors.Is(err, domain.ErrStorage):
		status, code = http.StatusInternalServerError, "storage_error"
	}

	if logger != nil {
		logger.Error("vault request failed", slog.Int("status_code", status), slog.String("error_code", code), slog.Any("error", err))
	}

	c.JSON(status, httputil.ErrorResponse{Error: code, Message: err.Error()})
}
