package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/movecoach/internal/exercise"
	"github.com/claude/movecoach/internal/ingest"
	"github.com/claude/movecoach/internal/models"
	"github.com/claude/movecoach/internal/pose"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxFrameBody bounds a frames request.
const maxFrameBody = 8 << 20

type createSessionRequest struct {
	Exercise string    `json:"exercise"`
	Side     pose.Side `json:"side"`
}

type sessionResponse struct {
	ID       uuid.UUID         `json:"id"`
	Snapshot exercise.Snapshot `json:"snapshot"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	ls, err := s.startSession(userIDFromContext(r), req.Exercise, req.Side)
	if err != nil {
		writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{ID: ls.id, Snapshot: ls.runner.Snapshot()})
}

// startSession builds an engine for the exercise and starts its runner.
func (s *Server) startSession(userID int, key string, side pose.Side) (*liveSession, error) {
	def, err := s.catalog.Get(key)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	log := s.log.With("session", id)
	fb := &feedbackLog{}
	opts := s.opts.Engine
	opts.Side = side
	opts.Sink = exercise.MultiSink{fb, s.metrics.Sink()}
	opts.Logger = log
	e, err := exercise.NewEngine(def, opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	ls := &liveSession{
		id:       id,
		userID:   userID,
		exercise: def.Key,
		started:  time.Now(),
		runner:   exercise.NewRunner(e, s.opts.Tick, log),
		feedback: fb,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	ls.touch(ls.started)
	if err := s.sessions.add(ls); err != nil {
		cancel()
		return nil, err
	}
	go func() {
		defer close(ls.done)
		ls.runner.Run(ctx)
	}()

	s.metrics.GaugeSessions.Inc()
	log.Info("session started", "exercise", def.Key, "side", e.Session().Side, "user_id", userID)
	return ls, nil
}

// sessionFromRequest resolves the {id} URL parameter for the caller.
func (s *Server) sessionFromRequest(w http.ResponseWriter, r *http.Request) (*liveSession, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return nil, false
	}
	ls, err := s.sessions.get(id, userIDFromContext(r))
	if err != nil {
		writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
		return nil, false
	}
	return ls, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: ls.id, Snapshot: ls.runner.Snapshot()})
}

func (s *Server) handleFrames(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFrameBody))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
		return
	}
	frames, err := ingest.DecodeFrames(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result := ingest.Result{FramesReceived: len(frames)}
	for _, f := range frames {
		obs, err := f.Observation(ls.started)
		if err != nil {
			result.Reject(err)
			continue
		}
		if err := ls.runner.Submit(r.Context(), obs); err != nil {
			writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
			return
		}
		result.FramesProcessed++
	}
	s.metrics.CounterFrames.WithLabelValues(ls.exercise).Add(float64(result.FramesProcessed))

	writeJSON(w, http.StatusOK, map[string]any{
		"result":   result,
		"snapshot": ls.runner.Snapshot(),
	})
}

func (s *Server) handleInstructed(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, (*exercise.Engine).MarkInstructed)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, (*exercise.Engine).Reset)
}

// command runs fn on the session's runner and replies with the snapshot.
func (s *Server) command(w http.ResponseWriter, r *http.Request, fn func(*exercise.Engine)) {
	ls, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	if err := ls.runner.Do(r.Context(), fn); err != nil {
		writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: ls.id, Snapshot: ls.runner.Snapshot()})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	ls, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	since := 0
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid since cursor"})
			return
		}
		since = n
	}
	events, next := ls.feedback.Since(since)
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"next":   next,
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}
	ls, err := s.sessions.remove(id, userIDFromContext(r))
	if err != nil {
		writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
		return
	}

	sum, stored, err := s.endSession(r.Context(), ls)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary": sum,
		"stored":  stored,
	})
}

// ExpireIdle ends sessions idle for longer than the configured timeout,
// checking every interval until ctx is done.
func (s *Server) ExpireIdle(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.expireIdle(ctx, now)
		}
	}
}

func (s *Server) expireIdle(ctx context.Context, now time.Time) int {
	stale := s.sessions.expire(now.Add(-s.opts.IdleTimeout))
	for _, ls := range stale {
		_, stored, err := s.endSession(ctx, ls)
		if err != nil {
			s.log.Error("ending idle session", "session", ls.id, "error", err)
			continue
		}
		s.log.Info("idle session expired", "session", ls.id, "stored", stored)
	}
	return len(stale)
}

// endSession stops a detached session and stores its result if at least
// one repetition was completed.
func (s *Server) endSession(ctx context.Context, ls *liveSession) (exercise.Summary, bool, error) {
	var sum exercise.Summary
	err := ls.runner.Do(ctx, func(e *exercise.Engine) { sum = e.Summary() })
	ls.stop()
	s.metrics.GaugeSessions.Dec()
	if err != nil {
		return sum, false, err
	}
	s.log.Info("session ended", "session", ls.id, "exercise", sum.ExerciseKey,
		"completed", sum.CompletedRepetitions, "total", sum.TotalRepetitions)

	if sum.CompletedRepetitions == 0 {
		return sum, false, nil
	}
	row := models.NewSessionResult(ls.id, sum, ls.started, time.Now(), models.SourceLive)
	row.UserID = ls.userID
	inserted, err := s.store.InsertSessionResult(ctx, row)
	if err != nil {
		return sum, false, err
	}
	if inserted {
		s.metrics.CounterResults.Inc()
	}
	return sum, inserted, nil
}
