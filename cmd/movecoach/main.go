package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/claude/movecoach/internal/config"
	"github.com/claude/movecoach/internal/mcp"
	"github.com/claude/movecoach/internal/metrics"
	"github.com/claude/movecoach/internal/server"
	"github.com/claude/movecoach/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	mcpStdio := flag.Bool("mcp", false, "serve MCP over stdio against the configured database")
	mcpRemote := flag.String("mcp-remote", "", "serve MCP over stdio against a remote MoveCoach server URL")
	apiKey := flag.String("api-key", os.Getenv("MOVECOACH_AUTH_API_KEY"), "API key for -mcp-remote")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	// stdout carries the MCP protocol in stdio modes.
	out := os.Stdout
	if *mcpStdio || *mcpRemote != "" {
		out = os.Stderr
	}
	log := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: parseLevel(*logLevel)}))
	log.Info("MoveCoach starting", "version", Version)

	if *mcpRemote != "" {
		if err := serveRemoteMCP(*mcpRemote, *apiKey, log); err != nil {
			log.Error("mcp server error", "error", err)
			os.Exit(1)
		}
		return
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}
	cat, err := cfg.Catalog()
	if err != nil {
		log.Error("invalid exercise overrides", "error", err)
		os.Exit(1)
	}

	// Run migrations
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Connect database
	ctx := context.Background()
	db, err := storage.New(ctx, dsn, cfg.Database.MaxConns)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected", "max_conns", cfg.Database.MaxConns)

	mcpSrv := mcp.New(db, cat, Version, log)
	if *mcpStdio {
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			log.Error("mcp server error", "error", err)
			os.Exit(1)
		}
		return
	}

	// Metrics
	promRegistry := metrics.SetupPrometheus(
		pgxpoolprometheus.NewCollector(db.Pool, map[string]string{"db_name": cfg.Database.Name}),
	)
	metricsManager := metrics.NewManager("movecoach", "server", promRegistry)

	// Create server
	srv := server.New(db, cat, server.Options{
		Engine:      cfg.EngineOptions(),
		Tick:        cfg.Engine.Tick,
		APIKey:      cfg.Auth.APIKey,
		IdleTimeout: cfg.Server.SessionIdleTimeout,
		Metrics:     metricsManager,
		Gatherer:    promRegistry,
		MCP:         mcp.HTTPHandler(mcpSrv),
	}, log)

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go srv.ExpireIdle(janitorCtx, time.Minute)

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)
	stopJanitor()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("ending live sessions", "error", err)
	}
	log.Info("server stopped")
}

// serveRemoteMCP runs the MCP tools locally against a remote server's REST API.
func serveRemoteMCP(baseURL, apiKey string, log *slog.Logger) error {
	if apiKey == "" {
		return fmt.Errorf("-api-key or MOVECOACH_AUTH_API_KEY is required with -mcp-remote")
	}
	cfg := config.Default()
	cat, err := cfg.Catalog()
	if err != nil {
		return err
	}
	client := mcp.NewHTTPClient(baseURL, apiKey)
	log.Info("serving remote MCP", "server", baseURL)
	return mcpserver.ServeStdio(mcp.New(client, cat, Version, log))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
