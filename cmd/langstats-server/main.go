// Package main runs the language-stats HTTP server: it wires the embedded
// store, the GitHub upstream client, the search core, and the leaderboard
// behind a chi router, and serves them until an interrupt signal arrives.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/codeGROOVE-dev/langstats/internal/config"
	"github.com/codeGROOVE-dev/langstats/internal/httpapi"
	"github.com/codeGROOVE-dev/langstats/internal/leaderboard"
	"github.com/codeGROOVE-dev/langstats/internal/searchcore"
	"github.com/codeGROOVE-dev/langstats/internal/store"
	"github.com/codeGROOVE-dev/langstats/internal/upstream"
)

var (
	port             = flag.String("port", "8080", "port for the web server")
	githubToken      = flag.String("github-token", "", "GitHub API token (or set GITHUB_TOKEN)")
	githubBaseURL    = flag.String("github-base-url", "", "GitHub Enterprise base URL, empty for public GitHub (or set GITHUB_BASE_URL)")
	dbPath           = flag.String("db-path", "", "sqlite database path, empty for in-memory (or set DB_PATH)")
	allowedOrigins   = flag.String("allowed-origins", "*", "comma-separated list of allowed CORS origins (or set ALLOWED_ORIGINS)")
	cacheTTLHours    = flag.Int("cache-ttl-hours", 12, "cache TTL in hours, capped at 24 (or set CACHE_TTL_HOURS)")
	concurrencyLimit = flag.Int("concurrency-limit", 20, "max simultaneous in-flight upstream fetches (or set CONCURRENCY_LIMIT)")
	verbose          = flag.Bool("verbose", false, "enable debug logging")
	version          = flag.Bool("version", false, "show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("langstats-server v1.0.0")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *githubToken == "" {
		*githubToken = os.Getenv("GITHUB_TOKEN")
		if *githubToken == "" {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if token, err := exec.CommandContext(ctx, "gh", "auth", "token").Output(); err == nil {
				*githubToken = strings.TrimSpace(string(token))
			}
			cancel()
		}
	}
	if *githubBaseURL == "" {
		*githubBaseURL = os.Getenv("GITHUB_BASE_URL")
	}
	if v := os.Getenv("DB_PATH"); v != "" && *dbPath == "" {
		*dbPath = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		*allowedOrigins = v
	}
	if v := os.Getenv("CACHE_TTL_HOURS"); v != "" {
		if n, err := fmt.Sscanf(v, "%d", cacheTTLHours); err != nil || n != 1 {
			logger.Warn("ignoring malformed CACHE_TTL_HOURS", "value", v)
		}
	}
	if v := os.Getenv("CONCURRENCY_LIMIT"); v != "" {
		if n, err := fmt.Sscanf(v, "%d", concurrencyLimit); err != nil || n != 1 {
			logger.Warn("ignoring malformed CONCURRENCY_LIMIT", "value", v)
		}
	}

	cfg := config.Normalize(config.Raw{
		Port:              *port,
		UpstreamToken:     *githubToken,
		UpstreamBaseURL:   *githubBaseURL,
		DBPath:            *dbPath,
		AllowedOriginsCSV: *allowedOrigins,
		EnableCache:       true,
		CacheTTLHours:     *cacheTTLHours,
		ConcurrencyLimit:  *concurrencyLimit,
		LogLevel:          level.String(),
	})
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	if cfg.UpstreamToken == "" {
		logger.Warn("no GitHub token configured; unauthenticated requests are rate-limited aggressively")
	}

	st, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error("opening store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	client := upstream.NewClient("github", cfg.UpstreamToken, cfg.UpstreamBaseURL, logger)
	lb := leaderboard.New(st)
	core := searchcore.New(st, client, lb, cfg.CacheTTL, cfg.ConcurrencyLimit, logger)

	if err := runServer(cfg, core, lb, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func runServer(cfg config.Config, core *searchcore.Core, lb *leaderboard.Leaderboard, logger *slog.Logger) error {
	api := httpapi.New(core, lb, "github", logger)
	limiter := httpapi.NewRateLimiter(65, time.Minute)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httpapi.Recoverer(logger))
	r.Use(httpapi.SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", api.HandleHealthz)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Get("/search", api.HandleSearch)
		r.Get("/topsearch", api.HandleTopSearch)
	})

	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:           addr,
		Handler:        r,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting langstats server", "addr", addr)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server stopped cleanly")
	}

	return nil
}
