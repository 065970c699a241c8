package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/claude/movecoach/internal/catalog"
	"github.com/claude/movecoach/internal/exercise"
	"github.com/claude/movecoach/internal/models"
	"github.com/claude/movecoach/internal/program"
	"github.com/google/uuid"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, database := http.StatusOK, "ok"
	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn("health: database unreachable", "error", err)
		status, database = http.StatusServiceUnavailable, "unreachable"
	}
	writeJSON(w, status, map[string]any{
		"status":   http.StatusText(status),
		"database": database,
		"sessions": s.sessions.len(),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Infos())
}

func (s *Server) handleInsertResult(w http.ResponseWriter, r *http.Request) {
	var row models.SessionResult
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.validateResult(&row); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	row.UserID = userIDFromContext(r)

	inserted, err := s.store.InsertSessionResult(r.Context(), row)
	if err != nil {
		s.log.Error("insert result error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	status := http.StatusOK
	if inserted {
		s.metrics.CounterResults.Inc()
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"id": row.ID, "inserted": inserted})
}

// validateResult checks an uploaded result against the catalog and fills
// in a missing ID.
func (s *Server) validateResult(row *models.SessionResult) error {
	if _, err := s.catalog.Get(row.ExerciseKey); err != nil {
		return err
	}
	if row.TotalRepetitions <= 0 {
		return errors.New("total_repetitions must be positive")
	}
	if row.CompletedRepetitions < 0 || row.CompletedSets < 0 || row.GiveUps < 0 {
		return errors.New("counts must not be negative")
	}
	if row.StartedAt.IsZero() || row.EndedAt.Before(row.StartedAt) {
		return errors.New("invalid started_at/ended_at")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Source == "" {
		row.Source = models.SourceReplay
	}
	return nil
}

func (s *Server) handleQueryResults(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	results, err := s.store.QuerySessionResults(r.Context(), userIDFromContext(r), start, end,
		r.URL.Query().Get("exercise"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if results == nil {
		results = []models.SessionResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleResultStats(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	stats, err := s.store.GetExerciseStats(r.Context(), userIDFromContext(r), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleResultReport rates all results in the range as one program.
func (s *Server) handleResultReport(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	results, err := s.store.QuerySessionResults(r.Context(), userIDFromContext(r), start, end, "")
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	summaries := make([]exercise.Summary, len(results))
	for i, res := range results {
		summaries[i] = res.Summary()
	}
	writeJSON(w, http.StatusOK, program.Evaluate(summaries))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrUnknownExercise), errors.Is(err, errSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, errTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, exercise.ErrRunnerStopped):
		return http.StatusGone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: last 30 days
		end = time.Now()
		start = end.AddDate(0, 0, -30)
		return
	}

	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if endStr == "" {
		end = time.Now()
	} else {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.Parse("2006-01-02", endStr)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			// End of day for date-only
			end = end.Add(24 * time.Hour)
		}
	}
	return
}
