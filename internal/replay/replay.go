// Package replay drives exercise engines from recorded pose frames, using
// the frame timestamps as the engines' logical clock.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/claude/movecoach/internal/exercise"
	"github.com/claude/movecoach/internal/ingest"
	"github.com/claude/movecoach/internal/models"
	"github.com/claude/movecoach/internal/program"
	"github.com/google/uuid"
)

// errProgramDone stops reading once every exercise has ended.
var errProgramDone = errors.New("program done")

// Recorder stores session results. upload.StateDB satisfies it.
type Recorder interface {
	RecordResult(ctx context.Context, row models.SessionResult) error
}

// Stats tracks replay progress.
type Stats struct {
	FramesRead      int
	FramesProcessed int
	FramesRejected  int
	FramesIgnored   int

	ExercisesEnded    int
	ResultsRecorded   int
	RecordingDuration time.Duration
}

// Replayer feeds a recording through a program.
type Replayer struct {
	prog  *program.Program
	rec   Recorder
	base  time.Time
	log   *slog.Logger
	stats Stats

	last    time.Duration
	started time.Duration
}

// New creates a Replayer. rec may be nil to skip recording results. base is
// the wall-clock time of the recording's first frame.
func New(prog *program.Program, rec Recorder, base time.Time, log *slog.Logger) *Replayer {
	return &Replayer{prog: prog, rec: rec, base: base, log: log}
}

// Replay reads JSON Lines frames from r until the input or the program ends.
// An exercise cut short by the end of input is recorded if it completed at
// least one repetition.
func (rp *Replayer) Replay(ctx context.Context, r io.Reader) (*Stats, error) {
	err := ingest.ReadLines(r, func(line int, f ingest.Frame) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rp.stats.FramesRead++
		if rp.prog.Done() {
			rp.stats.FramesIgnored++
			return errProgramDone
		}
		return rp.frame(ctx, line, f)
	})
	if err != nil && !errors.Is(err, errProgramDone) {
		return &rp.stats, err
	}

	if e, _ := rp.prog.Current(); e != nil && e.Session().CompletedRepetitions > 0 {
		if err := rp.record(ctx, e); err != nil {
			return &rp.stats, err
		}
	}
	return &rp.stats, nil
}

func (rp *Replayer) frame(ctx context.Context, line int, f ingest.Frame) error {
	obs, err := f.Observation(rp.base)
	if err != nil {
		rp.reject(line, err)
		return nil
	}
	off := f.Offset()
	if off < rp.last {
		rp.reject(line, fmt.Errorf("frame at %v precedes %v", off, rp.last))
		return nil
	}

	e, _ := rp.prog.Current()
	e.Advance(off - rp.last)
	rp.last = off
	rp.stats.RecordingDuration = off
	e.ProcessFrame(obs)
	rp.stats.FramesProcessed++

	if e.State() != exercise.StateExerciseEnd {
		return nil
	}
	rp.stats.ExercisesEnded++
	if err := rp.record(ctx, e); err != nil {
		return err
	}
	rp.prog.Next()
	rp.started = off
	return nil
}

func (rp *Replayer) reject(line int, err error) {
	rp.stats.FramesRejected++
	rp.log.Warn("frame rejected", "line", line, "error", err)
}

func (rp *Replayer) record(ctx context.Context, e *exercise.Engine) error {
	sum := e.Summary()
	rp.log.Info("exercise finished",
		"exercise", sum.ExerciseKey,
		"completed", sum.CompletedRepetitions,
		"total", sum.TotalRepetitions,
		"give_ups", sum.GiveUps,
	)
	if rp.rec == nil {
		return nil
	}
	row := models.NewSessionResult(uuid.New(), sum,
		rp.base.Add(rp.started), rp.base.Add(rp.last), models.SourceReplay)
	if err := rp.rec.RecordResult(ctx, row); err != nil {
		return fmt.Errorf("recording %s result: %w", sum.ExerciseKey, err)
	}
	rp.stats.ResultsRecorded++
	return nil
}
