package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"

	"doorstroom/internal/config"
	"doorstroom/internal/errors"
	"doorstroom/internal/infrastructure"
	customMiddleware "doorstroom/internal/middleware"
	"doorstroom/internal/services"
	"doorstroom/internal/session"
	handlers "doorstroom/internal/transport/http"
	ws "doorstroom/internal/websocket"
)

const (
	// Version is the application version, overridable at build time.
	Version = "1.0.0"
	AppName = "Doorstroom Monitor"
)

// BuildTime is set at compile time via -ldflags.
var BuildTime = ""

// Application is the main application container.
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	Metrics          *infrastructure.Metrics
	SessionStore     *session.Store
	WebSocketHub     *ws.Hub
	DashboardService *services.DashboardService
	HealthService    *services.HealthService

	janitorCancel context.CancelFunc
}

// NewApplication creates a new application instance with all services
// wired.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port))

	app := &Application{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices wires the metrics, session store, websocket hub and
// the business services.
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	a.Metrics = metrics

	a.SessionStore = session.NewStore(a.Config.Dashboard.SessionTTL, a.Logger)
	a.WebSocketHub = ws.NewHub(a.Config.WebSocket, a.Logger)

	notifier := ws.NewNotifier(a.WebSocketHub, a.Logger)
	a.DashboardService = services.NewDashboardService(a.Config, a.SessionStore, a.Logger, a.Metrics, notifier)
	a.HealthService = services.NewHealthService(Version, BuildTime, a.DashboardService, a.WebSocketHub, a.Logger)

	return nil
}

// setupRouter builds the route tree. The websocket and metrics endpoints
// stay outside the full middleware group: response wrapping breaks
// upgrades, and scrapes should not pay for request logging.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.HandleFunc("/ws", a.handleWebSocket)
	r.Handle("/metrics", a.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
		}))
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}
		r.Use(customMiddleware.RequestMetrics(a.Metrics))

		a.setupAPIRoutes(r)
	})

	errorHandler := errors.NewErrorHandler(a.Logger, false)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures the /api endpoints.
func (a *Application) setupAPIRoutes(r chi.Router) {
	errorHandler := errors.NewErrorHandler(a.Logger, false)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger, errorHandler)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.GetVersion)

		sessionHandler := handlers.NewSessionHandler(a.DashboardService, a.Logger, errorHandler, a.Config.Dashboard.MaxUploadBytes)
		dashboardHandler := handlers.NewDashboardHandler(a.DashboardService, a.Logger, errorHandler)
		r.Mount("/sessions", sessionHandler.Routes(dashboardHandler))
	})
}

// createServer builds the HTTP server.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.ListenAddr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// handleWebSocket upgrades the connection and binds it to a session. The
// session ID comes from the "session" query parameter.
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session query parameter is required", http.StatusBadRequest)
		return
	}
	if _, err := a.SessionStore.Get(sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range a.Config.Security.AllowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.ErrorContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}

	a.Logger.InfoContext(r.Context(), "websocket client connected",
		slog.String("session_id", sessionID),
		slog.String("remote_addr", r.RemoteAddr))

	ws.ServeWS(a.WebSocketHub, conn, sessionID)
}

// Start launches the background services and the HTTP server.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.WebSocketHub.Start()

	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	a.janitorCancel = janitorCancel
	go a.DashboardService.RunJanitor(janitorCtx, a.Config.Dashboard.SessionTTL/4)

	go func() {
		a.Logger.InfoContext(ctx, "http server listening",
			slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	return nil
}

// Stop gracefully shuts down the server and background services.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "server shutdown failed", slog.String("error", err.Error()))
	}

	if a.janitorCancel != nil {
		a.janitorCancel()
	}
	a.WebSocketHub.Shutdown()

	if err := a.Metrics.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "metrics shutdown failed", slog.String("error", err.Error()))
	}

	infrastructure.CloseLogFile()
	a.Logger.InfoContext(ctx, "shutdown complete")
	return nil
}

// Run starts the application and blocks until an interrupt arrives.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "received signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer stopCancel()
	return a.Stop(stopCtx)
}
