package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tcsantanello/tokengov/internal/app"
	"github.com/tcsantanello/tokengov/internal/config"
	"github.com/tcsantanello/tokengov/internal/vault/domain"
)

// RunCreateVault provisions a new vault with its own physical token table.
func RunCreateVault(ctx context.Context, alias, encKeyName, macKeyName, format string, valueLen int, durable bool, table string) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	fmtVal, err := domain.ParseFormat(format)
	if err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}

	mgr, err := container.VaultManager()
	if err != nil {
		return fmt.Errorf("failed to initialize vault manager: %w", err)
	}

	if err := mgr.CreateVault(ctx, alias, encKeyName, macKeyName, fmtVal, valueLen, durable, table); err != nil {
		return fmt.Errorf("failed to create vault: %w", err)
	}

	logger.Info("vault created", slog.String("alias", alias), slog.Bool("durable", durable))
	return nil
}
