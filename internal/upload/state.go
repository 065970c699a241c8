package upload

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/claude/movecoach/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS results (
		id          TEXT PRIMARY KEY,
		exercise    TEXT NOT NULL,
		payload     TEXT NOT NULL,
		recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		uploaded_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS replayed_files (
		path        TEXT PRIMARY KEY,
		size        INTEGER NOT NULL,
		hash        TEXT NOT NULL,
		replayed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
}

// StateDB is the local results log. Replays record session results here and
// the uploader drains them to the server. It also remembers which recordings
// were already replayed.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) the SQLite state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating state tables: %w", err)
		}
	}

	return &StateDB{db: db}, nil
}

// RecordResult stores a result for later upload. Recording the same ID
// twice is a no-op.
func (s *StateDB) RecordResult(ctx context.Context, row models.SessionResult) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO results (id, exercise, payload) VALUES (?, ?, ?)`,
		row.ID.String(), row.ExerciseKey, string(payload),
	)
	if err != nil {
		return fmt.Errorf("recording result: %w", err)
	}
	return nil
}

// PendingResults returns results not yet uploaded, oldest first. A limit of
// zero returns all of them.
func (s *StateDB) PendingResults(ctx context.Context, limit int) ([]models.SessionResult, error) {
	query := `SELECT payload FROM results WHERE uploaded_at IS NULL ORDER BY recorded_at, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pending results: %w", err)
	}
	defer rows.Close()

	var out []models.SessionResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning pending result: %w", err)
		}
		var r models.SessionResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("decoding pending result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkUploaded records that a result reached the server.
func (s *StateDB) MarkUploaded(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE results SET uploaded_at = CURRENT_TIMESTAMP WHERE id = ?`, id.String())
	return err
}

// Counts returns the number of pending and uploaded results.
func (s *StateDB) Counts(ctx context.Context) (pending, uploaded int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FILTER (WHERE uploaded_at IS NULL), COUNT(*) FILTER (WHERE uploaded_at IS NOT NULL) FROM results`,
	).Scan(&pending, &uploaded)
	return pending, uploaded, err
}

// IsReplayed checks if a recording was already replayed with the same size and hash.
func (s *StateDB) IsReplayed(relPath string, size int64, hash string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM replayed_files WHERE path = ? AND size = ? AND hash = ?`,
		relPath, size, hash,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkReplayed records that a recording was replayed.
func (s *StateDB) MarkReplayed(relPath string, size int64, hash string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO replayed_files (path, size, hash) VALUES (?, ?, ?)`,
		relPath, size, hash,
	)
	return err
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// HashFile computes the SHA-256 hash of a file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
