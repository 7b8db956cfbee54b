// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artpar/metergate/adapters/clock"
	apihttp "github.com/artpar/metergate/adapters/http"
	"github.com/artpar/metergate/adapters/memory"
	"github.com/artpar/metergate/adapters/metrics"
	"github.com/artpar/metergate/adapters/model"
	"github.com/artpar/metergate/adapters/payment"
	"github.com/artpar/metergate/adapters/sqlite"
	"github.com/artpar/metergate/app"
	"github.com/artpar/metergate/config"
	"github.com/artpar/metergate/ports"
	"github.com/rs/zerolog"
)

// purgeInterval is how often expired usage counters are swept from sqlite.
const purgeInterval = time.Hour

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Holder
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	// Services
	quotaService     *app.QuotaService
	syncService      *app.SyncService
	checkoutService  *app.CheckoutService
	inferenceService *app.InferenceService

	// Adapters (for cleanup)
	memUsage    *memory.UsageStore
	sqliteUsage *sqlite.UsageStore

	stopCh chan struct{}
}

// New creates and initializes the application from a config file path.
// An empty path falls back to environment-only configuration.
func New(cfgPath string) (*App, error) {
	holder, err := newHolder(cfgPath)
	if err != nil {
		return nil, err
	}
	cfg := holder.Get()

	logger := setupLogger(cfg.Logging)
	logger.Info().Msg("initializing metergate")

	a := &App{
		Logger: logger,
		Config: holder,
		stopCh: make(chan struct{}),
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	}

	profiles, usage, err := a.initStores(cfg)
	if err != nil {
		return nil, fmt.Errorf("init stores: %w", err)
	}

	provider, err := payment.NewProvider(payment.FactoryConfig{
		Mode:                cfg.Billing.Mode,
		StripeSecretKey:     cfg.Billing.StripeSecretKey,
		StripeWebhookSecret: cfg.Billing.StripeWebhookSecret,
		SuccessURL:          cfg.Billing.SuccessURL,
	})
	if err != nil {
		return nil, fmt.Errorf("init billing provider: %w", err)
	}
	logger.Info().Str("provider", provider.Name()).Msg("billing provider initialized")

	a.initServices(cfg, profiles, usage, provider)
	a.initHTTPServer(cfg, provider)

	// Hot reload: quota limits and checkout URLs apply without restart.
	holder.OnChange(func(cfg *config.Config) {
		limits := quotaLimits(cfg)
		a.quotaService.UpdateLimits(limits)
		a.syncService.UpdateLimits(limits)
		a.checkoutService.UpdateConfig(checkoutConfig(cfg))
	})

	return a, nil
}

func newHolder(cfgPath string) (*config.Holder, error) {
	if cfgPath != "" {
		if _, err := os.Stat(cfgPath); err == nil {
			return config.NewHolder(cfgPath, setupLogger(config.LoggingConfig{Level: "info", Format: "json"}))
		}
	}

	// No file: build a static holder from environment variables.
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}
	return config.NewStaticHolder(cfg), nil
}

func (a *App) initStores(cfg *config.Config) (ports.ProfileStore, ports.UsageStore, error) {
	switch cfg.Database.Driver {
	case "memory":
		a.memUsage = memory.NewUsageStore(memory.UsageStoreConfig{})
		a.Logger.Info().Msg("using in-memory stores")
		return memory.NewProfileStore(), a.memUsage, nil

	case "sqlite":
		db, err := sqlite.Open(cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(context.Background()); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		a.DB = db
		a.sqliteUsage = sqlite.NewUsageStore(db)
		a.Logger.Info().Str("dsn", cfg.Database.DSN).Msg("database initialized")
		return sqlite.NewProfileStore(db), a.sqliteUsage, nil

	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func (a *App) initServices(cfg *config.Config, profiles ports.ProfileStore, usage ports.UsageStore, provider ports.BillingProvider) {
	limits := quotaLimits(cfg)
	clk := clock.Real{}

	a.quotaService = app.NewQuotaService(app.QuotaDeps{
		Profiles: profiles,
		Usage:    usage,
		Clock:    clk,
		Logger:   a.Logger,
		Metrics:  a.Metrics,
	}, limits)

	a.syncService = app.NewSyncService(app.SyncDeps{
		Profiles: profiles,
		Clock:    clk,
		Logger:   a.Logger,
		Metrics:  a.Metrics,
	}, limits)

	a.checkoutService = app.NewCheckoutService(provider, checkoutConfig(cfg), a.Logger, a.Metrics)

	a.inferenceService = app.NewInferenceService(a.quotaService, model.Echo{}, a.Logger)
}

func (a *App) initHTTPServer(cfg *config.Config, provider ports.BillingProvider) {
	handler := apihttp.NewHandler(apihttp.HandlerDeps{
		Inference: a.inferenceService,
		Checkout:  a.checkoutService,
		Sync:      a.syncService,
		Provider:  provider,
		Logger:    a.Logger,
		Metrics:   a.Metrics,
	})

	router := apihttp.NewRouter(handler, a.Logger, apihttp.RouterConfig{
		Metrics:     a.Metrics,
		MetricsPath: cfg.Metrics.Path,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	a.HTTPServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	a.Logger.Info().Str("addr", addr).Msg("http server configured")
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	if a.sqliteUsage != nil {
		go a.purgeLoop()
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// purgeLoop periodically deletes expired usage counters. Counters carry a
// long retention window, so the sweep is housekeeping, not correctness.
func (a *App) purgeLoop() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			n, err := a.sqliteUsage.PurgeExpired(ctx, time.Now())
			cancel()
			if err != nil {
				a.Logger.Error().Err(err).Msg("usage counter purge failed")
			} else if n > 0 {
				a.Logger.Info().Int64("purged", n).Msg("expired usage counters removed")
			}
		case <-a.stopCh:
			return
		}
	}
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	close(a.stopCh)

	if a.Config != nil {
		a.Config.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.memUsage != nil {
		a.memUsage.Close()
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// Watch enables config hot reload via file watching and SIGHUP.
func (a *App) Watch() error {
	a.Config.WatchSignals()
	if err := a.Config.WatchFile(); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	return nil
}

func quotaLimits(cfg *config.Config) app.Limits {
	return app.Limits{
		FreeQuota: cfg.Quota.FreeRequestsPerMonth,
		ProQuota:  cfg.Quota.ProRequestsPerMonth,
	}
}

func checkoutConfig(cfg *config.Config) app.CheckoutConfig {
	return app.CheckoutConfig{
		PriceID:      cfg.Billing.StripePriceID,
		SuccessURL:   cfg.Billing.SuccessURL,
		CancelURL:    cfg.Billing.CancelURL,
		DashboardURL: cfg.Billing.DashboardURL,
	}
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
