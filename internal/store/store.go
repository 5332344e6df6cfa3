package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a session id has no row.
var ErrNotFound = errors.New("session not found")

// Store manages the PostgreSQL connection pool for analysis sessions.
type Store struct {
	pool *pgxpool.Pool
}

// Session is one stored analysis run.
type Session struct {
	ID            uuid.UUID  `json:"id"`
	Exercise      string     `json:"exercise"`
	Source        string     `json:"source"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	TotalFrames   int        `json:"total_frames"`
	CorrectFrames int        `json:"correct_frames"`
	Transitions   int        `json:"transitions"`
	LongestStreak int        `json:"longest_streak"`
}

// FrameResult is the evaluation outcome stored for one frame.
type FrameResult struct {
	FrameIndex int    `json:"frame"`
	Feedback   string `json:"feedback"`
	Correct    bool   `json:"correct"`
	Cue        string `json:"cue,omitempty"`
}

// Totals carries the final counters written by FinishSession.
type Totals struct {
	TotalFrames   int
	CorrectFrames int
	Transitions   int
	LongestStreak int
}

// New establishes a connection pool and ensures the schema is initialized.
func New(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
		CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY,
			exercise TEXT NOT NULL,
			source TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			finished_at TIMESTAMPTZ,
			total_frames INT NOT NULL DEFAULT 0,
			correct_frames INT NOT NULL DEFAULT 0,
			transitions INT NOT NULL DEFAULT 0,
			longest_streak INT NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS frame_results (
			session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			frame_index INT NOT NULL,
			feedback TEXT NOT NULL,
			correct BOOLEAN NOT NULL,
			cue TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (session_id, frame_index)
		);
	`
	_, err := pool.Exec(ctx, query)
	return err
}

// Close terminates all pooled connections.
func (s *Store) Close() {
	s.pool.Close()
}

// CreateSession registers a new run.
func (s *Store) CreateSession(ctx context.Context, id uuid.UUID, exercise, source string, startedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, exercise, source, started_at)
		VALUES ($1, $2, $3, $4)
	`, id, exercise, source, startedAt)
	return err
}

// InsertResults bulk-loads frame results with COPY.
func (s *Store) InsertResults(ctx context.Context, sessionID uuid.UUID, results []FrameResult) error {
	if len(results) == 0 {
		return nil
	}
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"frame_results"},
		[]string{"session_id", "frame_index", "feedback", "correct", "cue"},
		pgx.CopyFromSlice(len(results), func(i int) ([]any, error) {
			r := results[i]
			return []any{sessionID, r.FrameIndex, r.Feedback, r.Correct, r.Cue}, nil
		}),
	)
	return err
}

// FinishSession stamps the end time and final counters.
func (s *Store) FinishSession(ctx context.Context, id uuid.UUID, t Totals) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions
		SET finished_at = NOW(), total_frames = $2, correct_frames = $3, transitions = $4, longest_streak = $5
		WHERE id = $1
	`, id, t.TotalFrames, t.CorrectFrames, t.Transitions, t.LongestStreak)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes a run and, through the cascade, its frame results.
func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const sessionColumns = `id, exercise, source, started_at, finished_at, total_frames, correct_frames, transitions, longest_streak`

func scanSession(row pgx.Row) (Session, error) {
	var ss Session
	err := row.Scan(&ss.ID, &ss.Exercise, &ss.Source, &ss.StartedAt, &ss.FinishedAt,
		&ss.TotalFrames, &ss.CorrectFrames, &ss.Transitions, &ss.LongestStreak)
	return ss, err
}

// ListSessions returns the most recent sessions first. limit <= 0 means all.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		ss, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, ss)
	}
	return sessions, rows.Err()
}

// GetSession fetches one session by id.
func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (Session, error) {
	ss, err := scanSession(s.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return ss, ErrNotFound
	}
	return ss, err
}

// GetTransitions returns the frames where a cue fired, in frame order.
func (s *Store) GetTransitions(ctx context.Context, id uuid.UUID) ([]FrameResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT frame_index, feedback, correct, cue
		FROM frame_results
		WHERE session_id = $1 AND cue <> ''
		ORDER BY frame_index
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FrameResult
	for rows.Next() {
		var r FrameResult
		if err := rows.Scan(&r.FrameIndex, &r.Feedback, &r.Correct, &r.Cue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Reset drops all application tables to clear the database state.
// This is useful for development to force a schema refresh without migrations.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		DROP TABLE IF EXISTS frame_results CASCADE;
		DROP TABLE IF EXISTS sessions CASCADE;
	`)
	return err
}
