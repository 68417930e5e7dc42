// Package store persists researched source texts and the user-input audit
// trail in postgres.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/postforge/postforge/internal/workflow"
)

type Store struct {
	DB *sql.DB
}

// NewWithDSN opens a postgres connection and verifies it.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error { return s.DB.Close() }

// FindRecent returns research records for a topic created after since,
// newest first.
func (s *Store) FindRecent(ctx context.Context, topic string, since time.Time) ([]workflow.ResearchRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
        SELECT topic, details, url, core_text, created_at
        FROM research
        WHERE topic=$1 AND created_at > $2
        ORDER BY created_at DESC`, topic, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []workflow.ResearchRecord
	for rows.Next() {
		var rec workflow.ResearchRecord
		if err := rows.Scan(&rec.Topic, &rec.Details, &rec.URL, &rec.CoreText, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Insert stores one researched source text.
func (s *Store) Insert(ctx context.Context, rec workflow.ResearchRecord) error {
	_, err := s.DB.ExecContext(ctx, `
        INSERT INTO research (topic, details, url, core_text, created_at)
        VALUES ($1,$2,$3,$4,$5)`,
		rec.Topic, rec.Details, rec.URL, rec.CoreText, rec.CreatedAt)
	return err
}

// SaveUserInput appends a raw user message to the audit trail.
func (s *Store) SaveUserInput(ctx context.Context, conversationID, message string) error {
	_, err := s.DB.ExecContext(ctx, `
        INSERT INTO user_inputs (conversation_id, message) VALUES ($1,$2)`,
		conversationID, message)
	return err
}
