package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/claude/movecoach/internal/config"
	"github.com/claude/movecoach/internal/exercise"
	"github.com/claude/movecoach/internal/program"
	"github.com/claude/movecoach/internal/replay"
	"github.com/claude/movecoach/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "optional config file with engine settings and exercise overrides")
	exercises := flag.String("exercises", "", "comma-separated program, e.g. shoulder_abduction:left,biceps_flexion (required)")
	filePath := flag.String("file", "", "JSON Lines pose recording, or - for stdin (required)")
	stateDir := flag.String("state", "", "state directory (default ~/.movecoach)")
	startAt := flag.String("start", "", "wall-clock time of the first frame (RFC 3339, default file mtime)")
	dryRun := flag.Bool("dry-run", false, "run the program but don't record results")
	force := flag.Bool("force", false, "replay files that were replayed before")
	quiet := flag.Bool("quiet", false, "don't print spoken feedback")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("movecoach-replay", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exercises == "" || *filePath == "" {
		fmt.Fprintf(os.Stderr, "Usage: movecoach-replay -exercises <list> -file <recording.jsonl> [-config config.yaml] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}
	cat, err := cfg.Catalog()
	if err != nil {
		log.Error("invalid exercise overrides", "error", err)
		os.Exit(1)
	}

	items, err := program.ParseItems(*exercises)
	if err != nil {
		log.Error("invalid exercise list", "error", err)
		os.Exit(1)
	}
	opts := cfg.EngineOptions()
	opts.Logger = log
	if !*quiet {
		opts.Sink = exercise.SinkFunc(printFeedback)
	}
	prog, err := program.New(cat, items, opts)
	if err != nil {
		log.Error("invalid program", "error", err)
		os.Exit(1)
	}

	// Open input
	var in io.Reader = os.Stdin
	base := time.Now()
	var absPath, hash string
	var size int64
	if *filePath != "-" {
		f, err := os.Open(*filePath)
		if err != nil {
			log.Error("failed to open recording", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			log.Error("failed to stat recording", "error", err)
			os.Exit(1)
		}
		in, size, base = f, info.Size(), info.ModTime()
		if absPath, err = filepath.Abs(*filePath); err != nil {
			absPath = *filePath
		}
		if hash, err = upload.HashFile(*filePath); err != nil {
			log.Error("failed to hash recording", "error", err)
			os.Exit(1)
		}
	}
	if *startAt != "" {
		base, err = time.Parse(time.RFC3339, *startAt)
		if err != nil {
			log.Error("invalid -start", "error", err)
			os.Exit(1)
		}
	}

	// Open state database
	var state *upload.StateDB
	var rec replay.Recorder
	if !*dryRun {
		dir := *stateDir
		if dir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				log.Error("failed to get home directory", "error", err)
				os.Exit(1)
			}
			dir = filepath.Join(homeDir, ".movecoach")
		}
		state, err = upload.OpenStateDB(dir)
		if err != nil {
			log.Error("failed to open state database", "error", err)
			os.Exit(1)
		}
		defer state.Close()
		rec = state

		if hash != "" && !*force {
			done, err := state.IsReplayed(absPath, size, hash)
			if err != nil {
				log.Error("failed to check replay state", "error", err)
				os.Exit(1)
			}
			if done {
				log.Info("recording already replayed, use -force to replay again", "file", absPath)
				return
			}
		}
	} else {
		log.Info("DRY RUN mode: results will not be recorded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := replay.New(prog, rec, base, log).Replay(ctx, in)
	if err != nil {
		log.Error("replay failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}

	if state != nil && hash != "" {
		if err := state.MarkReplayed(absPath, size, hash); err != nil {
			log.Warn("failed to mark recording replayed", "error", err)
		}
	}

	printStats(stats)
	printReport(prog.Report())
}

func printFeedback(ev exercise.Event) {
	switch ev.Kind {
	case exercise.EventSpeak:
		fmt.Printf("[%7.1fs] %-28s %s\n", ev.At.Seconds(), ev.Description, ev.Text)
	case exercise.EventChime:
		fmt.Printf("[%7.1fs] %-28s (%s)\n", ev.At.Seconds(), ev.Description, ev.Cue)
	}
}

func printStats(stats *replay.Stats) {
	fmt.Println()
	fmt.Println("=== Replay Summary ===")
	fmt.Printf("  Recording length:  %s\n", stats.RecordingDuration.Round(100*time.Millisecond))
	fmt.Printf("  Frames read:       %d\n", stats.FramesRead)
	fmt.Printf("  Frames processed:  %d\n", stats.FramesProcessed)
	fmt.Printf("  Frames rejected:   %d\n", stats.FramesRejected)
	fmt.Printf("  Frames ignored:    %d (program finished)\n", stats.FramesIgnored)
	fmt.Printf("  Exercises ended:   %d\n", stats.ExercisesEnded)
	fmt.Printf("  Results recorded:  %d\n", stats.ResultsRecorded)
}

func printReport(r program.Report) {
	fmt.Println()
	fmt.Println("=== Program Report ===")
	for _, s := range r.Exercises {
		fmt.Printf("  %-32s %d/%d repetitions, %d/%d sets, %d give-ups\n",
			s.ExerciseName, s.CompletedRepetitions, s.TotalRepetitions,
			s.CompletedSets, s.TotalSets, s.GiveUps)
	}
	fmt.Println()
	fmt.Printf("  Completed: %d/%d (%.0f%%) %s\n", r.CompletedRepetitions, r.TotalRepetitions, r.Fraction*100, r.Category)
	fmt.Printf("  %s\n", r.Feedback)
	fmt.Println()
}
