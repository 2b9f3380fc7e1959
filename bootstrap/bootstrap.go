// Package bootstrap wires configuration, storage, and the generated
// resource routers into a running HTTP server.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/crudgate/adapters/gormdb"
	"github.com/artpar/crudgate/adapters/hasher"
	"github.com/artpar/crudgate/adapters/http/crud"
	"github.com/artpar/crudgate/adapters/idgen"
	"github.com/artpar/crudgate/adapters/memory"
	"github.com/artpar/crudgate/adapters/metrics"
	"github.com/artpar/crudgate/adapters/sqldb"
	"github.com/artpar/crudgate/config"
	"github.com/artpar/crudgate/ports"
)

// App is the assembled server.
type App struct {
	Logger  zerolog.Logger
	holder  *config.Holder
	server  *http.Server
	handler *swappableHandler
	metrics *metrics.Collector

	mu          sync.Mutex
	storeCloser func() error
}

// swapCloser installs the closer for the current backend set and returns
// the superseded one, which the caller must close.
func (a *App) swapCloser(closer func() error) func() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	old := a.storeCloser
	a.storeCloser = closer
	return old
}

// New creates an application from a loaded configuration, without hot
// reload.
func New(cfg *config.Config) (*App, error) {
	return build(cfg, nil)
}

// NewWithHotReload creates an application that watches the config file and
// rebuilds its resource routers when it changes.
func NewWithHotReload(path string) (*App, error) {
	bootLogger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	holder, err := config.NewHolder(path, bootLogger)
	if err != nil {
		return nil, err
	}
	app, err := build(holder.Get(), holder)
	if err != nil {
		return nil, err
	}
	holder.OnChange(func(cfg *config.Config) {
		h, closer, err := app.buildHandler(cfg)
		if err != nil {
			app.Logger.Error().Err(err).Msg("rebuild after config change failed, keeping old routes")
			return
		}
		app.handler.swap(h)
		if old := app.swapCloser(closer); old != nil {
			if cerr := old(); cerr != nil {
				app.Logger.Error().Err(cerr).Msg("closing replaced storage handle failed")
			}
		}
		app.Logger.Info().Msg("routes rebuilt from new configuration")
	})
	if err := holder.WatchFile(); err != nil {
		return nil, err
	}
	holder.WatchSignals()
	return app, nil
}

func build(cfg *config.Config, holder *config.Holder) (*App, error) {
	app := &App{
		Logger:  setupLogger(cfg.Logging),
		holder:  holder,
		handler: &swappableHandler{},
		metrics: metrics.New(prometheus.DefaultRegisterer),
	}

	h, closer, err := app.buildHandler(cfg)
	if err != nil {
		return nil, err
	}
	app.handler.swap(h)
	app.storeCloser = closer

	app.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      app.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return app, nil
}

// buildHandler assembles the full route tree for one configuration: the
// generated resource routers plus the openapi, metrics, and health
// endpoints. The returned closer releases the backend storage handle and
// may be nil.
func (a *App) buildHandler(cfg *config.Config) (http.Handler, func() error, error) {
	backends, closer, err := a.buildBackends(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeStores := func() {
		if closer != nil {
			closer()
		}
	}

	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)

	var routers []*crud.Router
	for _, rc := range cfg.Resources {
		opts := []crud.Option{
			crud.WithLogger(a.Logger),
			crud.WithMetrics(a.metrics),
		}
		if rc.Prefix != "" {
			opts = append(opts, crud.WithPrefix(rc.Prefix))
		}
		if rc.StaticLimit > 0 {
			opts = append(opts, crud.WithStaticLimit(rc.StaticLimit))
		}
		if len(rc.Disable) > 0 {
			ops := make([]crud.Operation, len(rc.Disable))
			for i, op := range rc.Disable {
				ops[i] = crud.Operation(op)
			}
			opts = append(opts, crud.Without(ops...))
		}
		if cfg.Auth.TokenHash != "" {
			mw := tokenAuth(cfg.Auth.TokenHash, hasher.NewBcrypt(0))
			for _, op := range []crud.Operation{
				crud.OpList, crud.OpGet, crud.OpCreate,
				crud.OpUpdate, crud.OpDeleteOne, crud.OpDeleteAll,
			} {
				opts = append(opts, crud.WithOperationMiddleware(op, mw))
			}
		}

		router, err := crud.NewRouter(rc.Schema(), backends[rc.Name], opts...)
		if err != nil {
			closeStores()
			return nil, nil, fmt.Errorf("resource %q: %w", rc.Name, err)
		}
		routers = append(routers, router)
		mux.Mount("/"+router.Prefix(), router)
		a.Logger.Info().
			Str("resource", rc.Name).
			Str("prefix", router.Prefix()).
			Msg("mounted resource")
	}

	spec := crud.BuildSpec(cfg.API.Title, cfg.API.Version, routers)
	mux.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, spec)
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return mux, closer, nil
}

// buildBackends constructs one backend per resource over the configured
// driver.
func (a *App) buildBackends(cfg *config.Config) (map[string]ports.Backend, func() error, error) {
	backends := make(map[string]ports.Backend, len(cfg.Resources))
	ids := idgen.UUID{}
	ctx := context.Background()

	switch cfg.Store.Driver {
	case "memory":
		for _, rc := range cfg.Resources {
			store, err := memory.New(rc.Schema(), ids)
			if err != nil {
				return nil, nil, err
			}
			backends[rc.Name] = store
		}
		return backends, nil, nil

	case "sqlite":
		db, err := sqldb.Open(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		for _, rc := range cfg.Resources {
			store, err := sqldb.NewStore(db, rc.Schema(), ids)
			if err != nil {
				db.Close()
				return nil, nil, err
			}
			if err := store.EnsureTable(ctx); err != nil {
				db.Close()
				return nil, nil, err
			}
			backends[rc.Name] = store
		}
		return backends, db.Close, nil

	case "gorm":
		db, err := gormdb.Open(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		for _, rc := range cfg.Resources {
			store, err := gormdb.NewStore(db, rc.Schema(), ids)
			if err != nil {
				sqlDB.Close()
				return nil, nil, err
			}
			if err := store.EnsureTable(ctx); err != nil {
				sqlDB.Close()
				return nil, nil, err
			}
			backends[rc.Name] = store
		}
		return backends, sqlDB.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", a.server.Addr).Msg("server listening")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}
	return a.Shutdown()
}

// Shutdown stops the server and releases storage handles.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.holder != nil {
		a.holder.Stop()
	}
	err := a.server.Shutdown(ctx)
	if closer := a.swapCloser(nil); closer != nil {
		if cerr := closer(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
}

// swappableHandler lets hot reload replace the route tree while the server
// keeps serving.
type swappableHandler struct {
	current atomic.Value // http.Handler
}

func (s *swappableHandler) swap(h http.Handler) {
	s.current.Store(h)
}

func (s *swappableHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.current.Load().(http.Handler).ServeHTTP(w, r)
}
