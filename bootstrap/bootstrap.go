// Package bootstrap wires all dependencies and starts the application.
// Configuration is loaded once at startup; there is no runtime reload.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/stacgate/adapters/auth"
	"github.com/artpar/stacgate/adapters/identity"
	"github.com/artpar/stacgate/adapters/metrics"
	"github.com/artpar/stacgate/adapters/sqlite"
	"github.com/artpar/stacgate/app"
	"github.com/artpar/stacgate/config"
	"github.com/artpar/stacgate/core/registry"
	"github.com/artpar/stacgate/core/schema"
	"github.com/artpar/stacgate/extensions"
	"github.com/artpar/stacgate/ports"
	"github.com/artpar/stacgate/web"
)

// App represents the running application.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	DB         *sqlite.DB
	Registry   *registry.Registry
	Pool       *app.Pool
	Metrics    *metrics.Collector
	HTTPServer *http.Server
}

// New creates and initializes the application.
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)
	logger.Info().Msg("initializing stacgate")

	a := &App{Config: cfg, Logger: logger}

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.DB = db

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	}

	client := sqlite.NewClient(db, sqlite.ClientConfig{
		BaseURL:     cfg.API.BaseURL,
		Title:       cfg.API.Title,
		Description: cfg.API.Description,
	}, a.Metrics, logger)

	exchanger := a.buildExchanger()
	authBuilder := auth.NewContextBuilder(exchanger, logger)

	a.Pool = app.NewPool(cfg.Workers.Count, cfg.Workers.QueueSize)
	if a.Metrics != nil {
		a.Pool.Instrument(a.Metrics.PoolQueueDepth, a.Metrics.PoolBusy)
	}
	a.Pool.Start()

	adapter := app.NewAdapter(authBuilder, a.Pool, cachePolicy(cfg), logger)

	reg, core, err := buildRegistry(cfg, client, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Registry = reg

	// Conformance aggregates across extensions; wire it after all of
	// them have registered.
	core.ConformanceList = reg.Conformance
	client.SetConformance(reg.Conformance)

	router := web.NewRouter(web.RouterConfig{
		Registry:        reg,
		Adapter:         adapter,
		Collector:       a.Metrics,
		Logger:          logger,
		MetricsEndpoint: cfg.Metrics.Enabled,
	})

	a.HTTPServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return a, nil
}

// buildExchanger constructs the identity client, instrumented when
// metrics are on. Without an identity provider every bearer credential
// fails exchange; anonymous access still works.
func (a *App) buildExchanger() ports.TokenExchanger {
	var exchanger ports.TokenExchanger
	if a.Config.Identity.BaseURL != "" {
		exchanger = identity.New(identity.Config{
			BaseURL:      a.Config.Identity.BaseURL,
			Realm:        a.Config.Identity.Realm,
			ClientID:     a.Config.Identity.ClientID,
			ClientSecret: a.Config.Identity.ClientSecret,
			Timeout:      a.Config.Identity.Timeout,
		}, a.Logger)
	} else {
		a.Logger.Warn().Msg("no identity provider configured; bearer credentials will be rejected")
		exchanger = disabledExchanger{}
	}
	if a.Metrics != nil {
		exchanger = &meteredExchanger{next: exchanger, metrics: a.Metrics}
	}
	return exchanger
}

// buildRegistry constructs the configured extensions and registers
// them in configuration order. Fragment-only extensions are built
// first so their fragments are available when the route-owning
// extensions compose their request models.
func buildRegistry(cfg *config.Config, client *sqlite.Client, logger zerolog.Logger) (*registry.Registry, *extensions.Core, error) {
	fragmentProviders := make(map[string]registry.Extension)
	for _, name := range cfg.Extensions {
		switch name {
		case "pagination.token":
			fragmentProviders[name] = extensions.TokenPagination{}
		case "pagination.page":
			fragmentProviders[name] = extensions.PagePagination{}
		}
	}

	var getFragments, postFragments []*schema.RequestSchema
	for _, name := range cfg.Extensions {
		p, ok := fragmentProviders[name]
		if !ok {
			continue
		}
		if frag := p.RequestFragment(http.MethodGet); frag != nil {
			getFragments = append(getFragments, frag)
		}
		if frag := p.RequestFragment(http.MethodPost); frag != nil {
			postFragments = append(postFragments, frag)
		}
	}

	reg := registry.New(cfg.API.Prefix, logger)
	var core *extensions.Core

	for _, name := range cfg.Extensions {
		var ext registry.Extension
		var err error
		switch name {
		case "core":
			core, err = extensions.NewCore(client, client, getFragments, postFragments)
			ext = core
		case "transaction":
			ext = extensions.NewTransaction(client)
		case "collection-search":
			ext, err = extensions.NewCollectionSearch(client, getFragments, postFragments)
		case "discovery-search":
			ext, err = extensions.NewDiscoverySearch(client, getFragments, postFragments)
		case "pagination.token", "pagination.page":
			ext = fragmentProviders[name]
		default:
			return nil, nil, fmt.Errorf("unknown extension %q", name)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("build extension %s: %w", name, err)
		}
		if err := reg.Register(ext); err != nil {
			return nil, nil, fmt.Errorf("register extension %s: %w", name, err)
		}
	}

	return reg, core, nil
}

// Run starts the HTTP server and blocks until a signal or server
// error, then shuts down.
func (a *App) Run() error {
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

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown")
		}
	}
	return a.Close()
}

// Close releases resources without draining in-flight requests.
func (a *App) Close() error {
	if a.Pool != nil {
		a.Pool.Stop()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}
	return nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func cachePolicy(cfg *config.Config) app.CachePolicy {
	catalogs := make(map[string]bool, len(cfg.Cache.Catalogs))
	for _, id := range cfg.Cache.Catalogs {
		catalogs[id] = true
	}
	return app.CachePolicy{
		SharedDirective: cfg.Cache.SharedDirective,
		Catalogs:        catalogs,
		Prefix:          strings.TrimSuffix(cfg.API.Prefix, "/"),
	}
}

// disabledExchanger fails every exchange; used when no identity
// provider is configured.
type disabledExchanger struct{}

func (disabledExchanger) Exchange(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("identity provider not configured")
}

// meteredExchanger counts exchange outcomes.
type meteredExchanger struct {
	next    ports.TokenExchanger
	metrics *metrics.Collector
}

func (e *meteredExchanger) Exchange(ctx context.Context, subjectToken, scope string) (string, error) {
	token, err := e.next.Exchange(ctx, subjectToken, scope)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	e.metrics.TokenExchanges.WithLabelValues(outcome).Inc()
	return token, err
}
