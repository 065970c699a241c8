package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/claude/movecoach/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "MoveCoach server URL (e.g. https://movecoach.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("MOVECOACH_AUTH_API_KEY"), "server API key")
	stateDir := flag.String("state", "", "state directory (default ~/.movecoach)")
	dryRun := flag.Bool("dry-run", false, "list pending results but don't send them")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("movecoach-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Usage: movecoach-upload -server <URL> -api-key <key> [-state dir] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *apiKey == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -api-key is required (or set MOVECOACH_AUTH_API_KEY)\n")
		os.Exit(1)
	}

	// Strip trailing slash from server URL
	*serverURL = strings.TrimRight(*serverURL, "/")

	// Open state database
	dir := *stateDir
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		dir = filepath.Join(homeDir, ".movecoach")
	}
	state, err := upload.OpenStateDB(dir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	// Create client (nil-safe in dry-run mode)
	var client *upload.Client
	if !*dryRun {
		client = upload.NewClient(*serverURL, *apiKey)
	}

	if *dryRun {
		log.Info("DRY RUN mode: pending results will be listed but not sent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uploader := upload.New(client, state, *dryRun, log)
	stats, err := uploader.Run(ctx)
	if err != nil {
		log.Error("upload failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}

	printStats(stats)
	if stats.ResultsErrored > 0 {
		log.Warn("some results were not uploaded and stay pending", "count", stats.ResultsErrored)
		os.Exit(1)
	}
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Results pending:   %d\n", stats.ResultsPending)
	fmt.Printf("  Results uploaded:  %d\n", stats.ResultsUploaded)
	fmt.Printf("  Results errored:   %d\n", stats.ResultsErrored)
	fmt.Println()
}
