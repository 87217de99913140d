// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/tcsantanello/tokengov/internal/config"
	"github.com/tcsantanello/tokengov/internal/database"
	"github.com/tcsantanello/tokengov/internal/http"
	"github.com/tcsantanello/tokengov/internal/metrics"
	"github.com/tcsantanello/tokengov/internal/vault/crypto"
	"github.com/tcsantanello/tokengov/internal/vault/crypto/gocloudsecrets"
	"github.com/tcsantanello/tokengov/internal/vault/crypto/local"
	"github.com/tcsantanello/tokengov/internal/vault/generator"
	"github.com/tcsantanello/tokengov/internal/vault/manager"
	"github.com/tcsantanello/tokengov/internal/vault/storage"
	"github.com/tcsantanello/tokengov/internal/vaulthttp"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB
	gate   *database.ConnGate

	// Vault domain
	store        storage.TokenStore
	cryptoProv   crypto.Provider
	generators   *generator.Registry
	vaultManager *manager.Manager

	// Observability
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Servers
	vaultHandler  *vaulthttp.Handler
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	gateInit            sync.Once
	storeInit           sync.Once
	cryptoProvInit      sync.Once
	generatorsInit      sync.Once
	managerInit         sync.Once
	vaultHandlerInit    sync.Once
	httpServerInit      sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// ConnGate returns the bounded connection-pool gate used to serialize
// mutating storage operations ahead of the driver's own pool limits.
func (c *Container) ConnGate() *database.ConnGate {
	c.gateInit.Do(func() {
		c.gate = database.NewConnGate(c.config.DBPoolSemaphoreWeight)
	})
	return c.gate
}

// TokenStore returns the vault storage backend, selected by DBDriver.
func (c *Container) TokenStore() (storage.TokenStore, error) {
	var err error
	c.storeInit.Do(func() {
		c.store, err = c.initTokenStore()
		if err != nil {
			c.initErrors["store"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["store"]; exists {
		return nil, storedErr
	}
	return c.store, nil
}

// CryptoProvider returns the vault's key resolver, seeded with any
// bootstrap keys named in configuration and, when SecretsKeeperProvider
// is set, composed with a gocloud.dev/secrets-backed provider.
func (c *Container) CryptoProvider() (crypto.Provider, error) {
	var err error
	c.cryptoProvInit.Do(func() {
		c.cryptoProv, err = c.initCryptoProvider()
		if err != nil {
			c.initErrors["cryptoProv"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cryptoProv"]; exists {
		return nil, storedErr
	}
	return c.cryptoProv, nil
}

// Generators returns the token generator registry.
func (c *Container) Generators() *generator.Registry {
	c.generatorsInit.Do(func() {
		c.generators = generator.Default
	})
	return c.generators
}

// VaultManager returns the Token Manager.
func (c *Container) VaultManager() (*manager.Manager, error) {
	var err error
	c.managerInit.Do(func() {
		c.vaultManager, err = c.initVaultManager()
		if err != nil {
			c.initErrors["vaultManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["vaultManager"]; exists {
		return nil, storedErr
	}
	return c.vaultManager, nil
}

// VaultHandler returns the HTTP handler bound to the Token Manager.
func (c *Container) VaultHandler() (*vaulthttp.Handler, error) {
	var err error
	c.vaultHandlerInit.Do(func() {
		c.vaultHandler, err = c.initVaultHandler()
		if err != nil {
			c.initErrors["vaultHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["vaultHandler"]; exists {
		return nil, storedErr
	}
	return c.vaultHandler, nil
}

// HTTPServer returns the HTTP server instance, with its router already set up.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsProvider returns the OpenTelemetry/Prometheus metrics provider.
// Returns nil, nil when MetricsEnabled is false.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business-operation metrics recorder bound
// to the metrics provider's meter. Returns nil, nil when metrics are
// disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		provider, provErr := c.MetricsProvider()
		if provErr != nil {
			err = provErr
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			return
		}
		c.businessMetrics, err = metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// MetricsServer returns the Prometheus metrics HTTP server. Returns nil,
// nil when MetricsEnabled is false.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, provErr := c.MetricsProvider()
		if provErr != nil {
			err = provErr
			c.initErrors["metricsServer"] = err
			return
		}
		c.metricsServer = http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTokenStore creates the vault storage backend, selecting the
// dialect-specific implementation by DBDriver.
func (c *Container) initTokenStore() (storage.TokenStore, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for token store: %w", err)
	}
	gate := c.ConnGate()

	switch c.config.DBDriver {
	case "mysql":
		return storage.NewMySQLStore(db, gate), nil
	case "postgres":
		return storage.NewPostgresStore(db, gate), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initCryptoProvider builds the local in-memory provider, seeding it with
// the bootstrap enc/mac keys named in configuration, and composes it with
// a gocloud.dev/secrets-backed provider when SecretsKeeperProvider is set.
// Composing rather than swapping lets a deployment resolve some key names
// against the local table (MAC keys, dev/test enc keys) and others against
// an external keeper, all through the single crypto.Provider seam the
// manager depends on.
func (c *Container) initCryptoProvider() (crypto.Provider, error) {
	localProvider := local.NewProvider()

	if c.config.LocalEncKeyName != "" {
		keyBytes, err := base64.StdEncoding.DecodeString(c.config.LocalEncKeyBase64)
		if err != nil {
			return nil, fmt.Errorf("decoding LOCAL_ENC_KEY_BASE64: %w", err)
		}
		encKey, err := local.NewStaticEncKey(local.Algorithm(c.config.LocalEncKeyAlgorithm), keyBytes)
		if err != nil {
			return nil, fmt.Errorf("building bootstrap encryption key %q: %w", c.config.LocalEncKeyName, err)
		}
		localProvider.RegisterEncKey(c.config.LocalEncKeyName, encKey)
	}

	if c.config.LocalMacKeyName != "" {
		keyBytes, err := base64.StdEncoding.DecodeString(c.config.LocalMacKeyBase64)
		if err != nil {
			return nil, fmt.Errorf("decoding LOCAL_MAC_KEY_BASE64: %w", err)
		}
		localProvider.RegisterMacKey(c.config.LocalMacKeyName, local.NewHMACKey(keyBytes))
	}

	if c.config.SecretsKeeperProvider == "" {
		return localProvider, nil
	}

	urls := map[string]string{}
	if c.config.LocalEncKeyName != "" {
		urls[c.config.LocalEncKeyName] = c.config.SecretsKeeperURLPrefix + c.config.LocalEncKeyName
	}
	keeperProvider := gocloudsecrets.NewProvider(urls)

	return crypto.Compose{keeperProvider, localProvider}, nil
}

// initVaultManager wires the Token Manager against the storage backend,
// the crypto provider, and the default generator registry.
func (c *Container) initVaultManager() (*manager.Manager, error) {
	store, err := c.TokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get token store for vault manager: %w", err)
	}

	provider, err := c.CryptoProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get crypto provider for vault manager: %w", err)
	}

	return manager.New(store, provider, c.Generators()), nil
}

// initVaultHandler wires the HTTP handler against the Token Manager.
func (c *Container) initVaultHandler() (*vaulthttp.Handler, error) {
	mgr, err := c.VaultManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get vault manager for handler: %w", err)
	}

	handler := vaulthttp.NewHandler(mgr, c.Logger())

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for handler: %w", err)
	}
	if businessMetrics != nil {
		handler = handler.WithMetrics(businessMetrics)
	}

	return handler, nil
}

// initHTTPServer creates the HTTP server with its router set up over the
// vault handler.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	handler, err := c.VaultHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get vault handler for http server: %w", err)
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(handler, c.config.CORSEnabled, c.config.CORSAllowOrigins,
		c.config.RateLimitEnabled, c.config.RateLimitRPS, c.config.RateLimitBurst)

	return server, nil
}
