package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/OmegaDesk/backend/internal/api/http"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/api/middleware"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/api/ws"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/apps"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/events"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/launcher"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/process"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/registry"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/session"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/surface/headless"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/window"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/tracing"
)

// Server wraps the HTTP server and the desktop it drives
type Server struct {
	router   *gin.Engine
	http     *http.Server
	surface  *headless.Surface
	procs    *process.Table
	windows  *window.Manager
	launcher *launcher.Launcher
	sessions *session.Manager
	bus      *events.Bus
	tracer   *tracing.Tracer
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics

	stop     chan struct{}
	stopOnce sync.Once
}

// NewServer wires the desktop from cfg, seeds the app registry and starts
// the autostart apps
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing OmegaDesk server",
		zap.String("port", cfg.Server.Port),
		zap.Int("desktop_width", cfg.Desktop.Width),
		zap.Int("desktop_height", cfg.Desktop.Height),
	)

	// Dedicated registry so tests can build several servers in one process
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(promRegistry)
	tracer := tracing.New("desktop", logger.Component("tracing"))

	bus := events.NewBus(
		events.WithLogger(logger.Component("events")),
		events.WithMetrics(metrics),
		events.WithBuffer(cfg.Desktop.EventBuffer),
	)

	appRegistry := launcher.NewRegistry(metrics)
	seeder := registry.NewSeeder(appRegistry, apps.DefaultCatalog(),
		registry.WithLogger(logger.Component("registry")),
		registry.WithMetrics(metrics),
	)
	if _, err := seeder.SeedDefaults(); err != nil {
		tracer.Close()
		return nil, fmt.Errorf("failed to seed built-in apps: %w", err)
	}
	if res, err := seeder.Seed(cfg.Apps.ManifestDir); err != nil {
		logger.Warn("Failed to scan app manifests", zap.String("dir", cfg.Apps.ManifestDir), zap.Error(err))
	} else if res.Loaded+res.Failed > 0 {
		logger.Info("Loaded app manifests",
			zap.String("dir", cfg.Apps.ManifestDir),
			zap.Int("loaded", res.Loaded),
			zap.Int("failed", res.Failed),
		)
	}

	surf := headless.New(SurfaceConfig(cfg.Desktop))
	procs := process.NewTable(
		process.WithLogger(logger.Component("process")),
		process.WithMetrics(metrics),
		process.WithPublisher(bus),
	)
	windows := window.NewManager(surf, surf, procs,
		window.WithConfig(WindowConfig(cfg.Desktop, appRegistry)),
		window.WithLogger(logger.Component("window")),
		window.WithMetrics(metrics),
		window.WithShell(bus),
		window.WithPublisher(bus),
	)

	breakerLog := logger.Component("breaker")
	breakers := resilience.NewGroup(resilience.Settings{
		Timeout: cfg.Apps.BreakerTimeout,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= cfg.Apps.BreakerFailures
		},
		OnStateChange: func(name string, from, to resilience.State) {
			breakerLog.Warn("Launch circuit changed state",
				zap.String("app", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})
	appLauncher := launcher.New(appRegistry, procs, windows,
		launcher.WithLogger(logger.Component("launcher")),
		launcher.WithMetrics(metrics),
		launcher.WithBreakers(breakers),
	)

	store, err := session.NewFileStore(cfg.Apps.SessionsDir)
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	sessions := session.NewManager(store, windows, procs, appLauncher,
		session.WithLogger(logger.Component("session")),
		session.WithMetrics(metrics),
	)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.CORSFor(cfg.Server.AllowedOrigins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(apihttp.Deps{
		Launcher:  appLauncher,
		Processes: procs,
		Windows:   windows,
		Sessions:  sessions,
		Bus:       bus,
		Tracer:    tracer,
		Metrics:   metrics,
		Logger:    logger.Component("api"),
	})
	handlers.Register(router)

	wsHandler := ws.NewHandler(bus,
		ws.WithLogger(logger.Component("ws")),
		ws.WithMetrics(metrics),
	)
	router.GET("/ws", wsHandler.HandleConnection)

	aggregator := apihttp.NewMetricsAggregator(metrics, breakers, bus)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))
	router.GET("/metrics/json", aggregator.GetAggregatedMetrics)
	router.GET("/scene", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"nodes":         surf.Nodes(),
			"dock":          surf.DockSlots(),
			"has_minimized": surf.HasMinimized(),
		})
	})

	s := &Server{
		router:   router,
		surface:  surf,
		procs:    procs,
		windows:  windows,
		launcher: appLauncher,
		sessions: sessions,
		bus:      bus,
		tracer:   tracer,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		stop:     make(chan struct{}),
	}

	if err := appLauncher.Autostart(context.Background()); err != nil {
		logger.Warn("Some apps failed to autostart", zap.Error(err))
	}
	go metrics.RunUptime(s.stop)

	logger.Info("Server initialized successfully",
		zap.Int("apps", appRegistry.Count()),
		zap.Int("processes", procs.Count()),
	)
	return s, nil
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, then terminates every process so each
// app runs its cleanup
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if err := s.procs.Shutdown(ctx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("process shutdown: %w", err))
	}
	s.stopOnce.Do(func() { close(s.stop) })
	s.tracer.Close()

	if errs != nil {
		s.logger.Error("Shutdown finished with errors", zap.Error(errs))
	} else {
		s.logger.Info("Shutdown complete", zap.Int("windows", s.windows.Count()))
	}
	_ = s.logger.Sync()
	return errs
}
