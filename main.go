package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"wordrill/internal/corpus"
	"wordrill/internal/drill"
	"wordrill/internal/ledger"
)

// App holds the wired services behind the HTTP gateway.
type App struct {
	Config *Config
	Logger *slog.Logger

	Corpus *corpus.Corpus
	Ledger *ledger.Ledger
	Drills *drill.Controller
	Hub    *Hub

	LimiterMap   map[string]*rate.Limiter
	LimiterMutex sync.Mutex
	StartTime    time.Time
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logFatal("Failed to load config: %v", err)
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	logInfo("Starting wordrill in %s mode", map[bool]string{true: "production", false: "development"}[cfg.IsProduction()])

	var store ledger.Store = &ledger.MemoryStore{}
	if cfg.StatsPath != "" {
		store = ledger.NewFileStore(cfg.StatsPath)
		logInfo("Persisting progress to %s", cfg.StatsPath)
	} else {
		logWarn("STATS_FILE is empty, progress will not survive a restart")
	}

	app, err := newApp(cfg, logger, corpus.FileProvider{Path: cfg.WordsPath}, store)
	if err != nil {
		logFatal("Failed to start: %v", err)
	}
	stats := app.Corpus.Stats()
	logInfo("Loaded words: %d easy, %d medium, %d hard, %d polish",
		stats[corpus.Easy], stats[corpus.Medium], stats[corpus.Hard], stats[corpus.LangPolish])

	app.startServer(app.setupRouter())
}

// newApp loads the corpus and ledger and wires the drill controller to the hub.
// A corpus that cannot be loaded is an error.
func newApp(cfg *Config, logger *slog.Logger, words corpus.Provider, store ledger.Store) (*App, error) {
	c, err := words.LoadCorpus()
	if err != nil {
		return nil, fmt.Errorf("load words: %w", err)
	}
	l, err := ledger.New(store, ledger.WithLogger(logger.With("component", "ledger")))
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	hub := NewHub(cfg.NoticeHistory)
	drills := drill.New(c, l, hub,
		drill.WithTimings(cfg.Timings()),
		drill.WithStopKeyword(cfg.StopKeyword),
		drill.WithLogger(logger.With("component", "drill")),
	)
	return &App{
		Config:     cfg,
		Logger:     logger,
		Corpus:     c,
		Ledger:     l,
		Drills:     drills,
		Hub:        hub,
		LimiterMap: make(map[string]*rate.Limiter),
		StartTime:  time.Now(),
	}, nil
}

func (app *App) setupRouter() *gin.Engine {
	if app.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}
	router.Use(requestIDMiddleware(), noStoreMiddleware())

	router.GET(RouteHealth, app.healthHandler)
	// The socket stays outside the gzip group; it hijacks the connection.
	router.GET(RouteSocket, app.socketHandler)

	api := router.Group("", gzipMiddleware(), app.rateLimitMiddleware())
	api.POST(RouteSessions, app.startSessionHandler)
	api.GET(RouteSession, app.sessionHandler)
	api.DELETE(RouteSession, app.stopSessionHandler)
	api.POST(RouteEvents, app.eventHandler)
	api.GET(RouteNotices, app.noticesHandler)
	api.GET(RouteStats, app.statsHandler)
	return router
}

func (app *App) startServer(router *gin.Engine) {
	srv := &http.Server{
		Addr:              ":" + app.Config.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
		<-sigint
		logInfo("Shutdown signal received, shutting down server gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), app.Config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logWarn("HTTP server Shutdown: %v", err)
		}
		if err := app.Drills.Shutdown(ctx); err != nil {
			logWarn("Drill sessions did not stop in time: %v", err)
		}
		close(idleConnsClosed)
	}()

	logInfo("Server starting on http://localhost:%s", app.Config.Port)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	logInfo("Server shutdown complete")
}
