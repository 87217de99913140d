package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tcsantanello/tokengov/internal/app"
	"github.com/tcsantanello/tokengov/internal/config"
	"github.com/tcsantanello/tokengov/internal/vault/domain"
)

// RunStatus reports operational status, for the process or for a single
// named vault when vaultName is non-empty.
func RunStatus(ctx context.Context, vaultName, format string, w io.Writer) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	mgr, err := container.VaultManager()
	if err != nil {
		return fmt.Errorf("failed to initialize vault manager: %w", err)
	}

	var status domain.Status
	if vaultName != "" {
		status = mgr.VaultStatus(ctx, vaultName)
	} else {
		status = mgr.Status(ctx)
	}

	if format == "json" {
		return json.NewEncoder(w).Encode(map[string]any{
			"value":       int(status.Value),
			"text":        status.Text,
			"description": status.Description,
		})
	}

	_, err = fmt.Fprintf(w, "%s: %s\n", status.Text, status.Description)
	return err
}
