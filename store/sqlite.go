package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hupe1980/deliberate/core"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Gateway using SQLite. All engine writes arrive from
// a single goroutine; the store itself is nevertheless safe for concurrent
// readers (history viewing while a discussion runs).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-backed gateway at the given path, creating the
// parent directory and schema as needed.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL mode for concurrent readers during a live discussion.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS discussions (
		id TEXT PRIMARY KEY,
		prompt TEXT NOT NULL,
		status TEXT NOT NULL,
		final_consensus TEXT,
		started_at INTEGER NOT NULL,
		completed_at INTEGER
	);

	CREATE TABLE IF NOT EXISTS discussion_rounds (
		id TEXT PRIMARY KEY,
		discussion_id TEXT NOT NULL REFERENCES discussions(id),
		stage TEXT NOT NULL,
		round_index INTEGER NOT NULL,
		prompt TEXT NOT NULL,
		similarity REAL NOT NULL DEFAULT 0,
		consensus_reached INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		UNIQUE(discussion_id, round_index)
	);
	CREATE INDEX IF NOT EXISTS idx_rounds_discussion ON discussion_rounds(discussion_id);

	CREATE TABLE IF NOT EXISTS participant_responses (
		id TEXT PRIMARY KEY,
		round_id TEXT NOT NULL REFERENCES discussion_rounds(id),
		participant TEXT NOT NULL,
		response_text TEXT NOT NULL,
		confidence REAL,
		parsed INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_responses_round ON participant_responses(round_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// CreateDiscussion implements Gateway.
func (s *SQLiteStore) CreateDiscussion(ctx context.Context, d *core.Discussion) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO discussions (id, prompt, status, started_at) VALUES (?, ?, ?, ?)`,
		d.ID, d.Prompt, string(d.Status), d.StartedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert discussion: %w", err)
	}
	return nil
}

// CreateRound implements Gateway.
func (s *SQLiteStore) CreateRound(ctx context.Context, r *core.Round) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO discussion_rounds (id, discussion_id, stage, round_index, prompt, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.DiscussionID, string(r.Stage), r.Index, r.Prompt, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

// StoreResponse implements Gateway.
func (s *SQLiteStore) StoreResponse(ctx context.Context, roundID string, resp core.ParticipantResponse) error {
	var confidence any
	if resp.Confidence != nil {
		confidence = *resp.Confidence
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO participant_responses (id, round_id, participant, response_text, confidence, parsed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		core.NewID(), roundID, resp.Participant, resp.Text, confidence, boolToInt(resp.Parsed), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

// UpdateRoundScore implements Gateway.
func (s *SQLiteStore) UpdateRoundScore(ctx context.Context, roundID string, similarity float64, consensusReached bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE discussion_rounds SET similarity = ?, consensus_reached = ? WHERE id = ?`,
		similarity, boolToInt(consensusReached), roundID,
	)
	if err != nil {
		return fmt.Errorf("update round score: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update round score: %w", ErrNotFound)
	}
	return nil
}

// CompleteDiscussion implements Gateway.
func (s *SQLiteStore) CompleteDiscussion(ctx context.Context, discussionID string, status core.Status, finalAnswer string) error {
	var final any
	if status == core.StatusConsensus && finalAnswer != "" {
		final = finalAnswer
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE discussions SET status = ?, final_consensus = ?, completed_at = ? WHERE id = ?`,
		string(status), final, time.Now().Unix(), discussionID,
	)
	if err != nil {
		return fmt.Errorf("complete discussion: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("complete discussion: %w", ErrNotFound)
	}
	return nil
}

// LoadDiscussion implements Gateway.
func (s *SQLiteStore) LoadDiscussion(ctx context.Context, discussionID string) (*core.Discussion, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, prompt, status, final_consensus, started_at, completed_at
		 FROM discussions WHERE id = ?`, discussionID)

	d, err := scanDiscussion(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan discussion: %w", err)
	}

	rounds, err := s.db.QueryContext(ctx,
		`SELECT id, stage, round_index, prompt, similarity, consensus_reached
		 FROM discussion_rounds WHERE discussion_id = ? ORDER BY round_index`, discussionID)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rounds.Close()

	for rounds.Next() {
		var r core.Round
		var stage string
		var reached int
		if err := rounds.Scan(&r.ID, &stage, &r.Index, &r.Prompt, &r.Similarity, &reached); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		r.DiscussionID = discussionID
		r.Stage = core.Stage(stage)
		r.ConsensusReached = reached != 0

		if r.Responses, err = s.loadResponses(ctx, r.ID); err != nil {
			return nil, err
		}
		d.Rounds = append(d.Rounds, r)
	}
	if err := rounds.Err(); err != nil {
		return nil, fmt.Errorf("iterate rounds: %w", err)
	}
	return d, nil
}

func (s *SQLiteStore) loadResponses(ctx context.Context, roundID string) ([]core.ParticipantResponse, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT participant, response_text, confidence, parsed
		 FROM participant_responses WHERE round_id = ? ORDER BY created_at, participant`, roundID)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	var out []core.ParticipantResponse
	for rows.Next() {
		var resp core.ParticipantResponse
		var confidence sql.NullFloat64
		var parsed int
		if err := rows.Scan(&resp.Participant, &resp.Text, &confidence, &parsed); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		if confidence.Valid {
			v := confidence.Float64
			resp.Confidence = &v
		}
		resp.Parsed = parsed != 0
		out = append(out, resp)
	}
	return out, rows.Err()
}

// ListDiscussions implements Gateway.
func (s *SQLiteStore) ListDiscussions(ctx context.Context, limit int) ([]*core.Discussion, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, prompt, status, final_consensus, started_at, completed_at
		 FROM discussions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query discussions: %w", err)
	}
	defer rows.Close()

	var out []*core.Discussion
	for rows.Next() {
		d, err := scanDiscussion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan discussion: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Close implements Gateway.
func (s *SQLiteStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDiscussion(row rowScanner) (*core.Discussion, error) {
	var d core.Discussion
	var status string
	var final sql.NullString
	var startedAt int64
	var completedAt sql.NullInt64

	if err := row.Scan(&d.ID, &d.Prompt, &status, &final, &startedAt, &completedAt); err != nil {
		return nil, err
	}
	d.Status = core.Status(status)
	d.FinalConsensus = final.String
	d.StartedAt = time.Unix(startedAt, 0).UTC()
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0).UTC()
		d.CompletedAt = &t
	}
	return &d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
