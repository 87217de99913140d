package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tcsantanello/tokengov/internal/app"
	"github.com/tcsantanello/tokengov/internal/config"
)

// RunRekeyVault rotates a vault's current encryption key. With deep set, it
// also re-encrypts every existing token instead of only switching the key
// used for future writes.
func RunRekeyVault(ctx context.Context, vaultName, newEncKeyName string, deep bool) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	mgr, err := container.VaultManager()
	if err != nil {
		return fmt.Errorf("failed to initialize vault manager: %w", err)
	}

	completed, err := mgr.RekeyVault(ctx, vaultName, newEncKeyName, deep)
	if err != nil {
		return fmt.Errorf("failed to rekey vault: %w", err)
	}

	logger.Info("vault rekeyed",
		slog.String("vault", vaultName),
		slog.String("enc_key", newEncKeyName),
		slog.Bool("deep", deep),
		slog.Bool("completed", completed),
	)
	return nil
}
