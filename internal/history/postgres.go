package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rachitsh/studybuddy/internal/domain"
)

// PostgresStore persists history records in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS history_records (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			query TEXT NOT NULL,
			subject TEXT NOT NULL,
			summary TEXT NOT NULL,
			answer JSONB NOT NULL,
			saved_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_history_records_owner_saved ON history_records (owner_id, saved_at DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

// Save inserts one record. saved_at is assigned by the database so that
// out-of-order fire-and-forget completions still sort by commit time.
func (s *PostgresStore) Save(ctx context.Context, record domain.HistoryRecord) error {
	if strings.TrimSpace(record.OwnerID) == "" {
		return domain.ErrMissingOwner
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	answerJSON, err := json.Marshal(record.Answer)
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO history_records (id, owner_id, query, subject, summary, answer)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID,
		record.OwnerID,
		record.Query,
		record.Subject,
		record.Summary,
		answerJSON,
	)
	if err != nil {
		return fmt.Errorf("save history record: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's records, most recent first.
func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.HistoryRecord, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.ErrMissingOwner
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, query, subject, summary, answer, saved_at
		 FROM history_records WHERE owner_id=$1 ORDER BY saved_at DESC LIMIT $2`,
		ownerID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	records := make([]domain.HistoryRecord, 0, limit)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}

	return records, nil
}

// Get fetches a single record, still scoped by owner so one user can never
// load another user's turn by guessing an id.
func (s *PostgresStore) Get(ctx context.Context, ownerID, recordID string) (*domain.HistoryRecord, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.ErrMissingOwner
	}

	row := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, query, subject, summary, answer, saved_at
		 FROM history_records WHERE owner_id=$1 AND id=$2`,
		ownerID,
		recordID,
	)
	r, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return &r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.HistoryRecord, error) {
	var r domain.HistoryRecord
	var answerJSON []byte
	if err := row.Scan(&r.ID, &r.OwnerID, &r.Query, &r.Subject, &r.Summary, &answerJSON, &r.SavedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.HistoryRecord{}, err
		}
		return domain.HistoryRecord{}, fmt.Errorf("scan history row: %w", err)
	}
	if err := json.Unmarshal(answerJSON, &r.Answer); err != nil {
		return domain.HistoryRecord{}, fmt.Errorf("decode stored answer: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
