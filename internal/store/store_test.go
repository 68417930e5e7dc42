package store

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/postforge/postforge/internal/workflow"
)

func TestFindRecent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	s := &Store{DB: db}

	since := time.Now().Add(-90 * 24 * time.Hour)
	created := time.Now().Add(-time.Hour)
	mock.ExpectQuery(`SELECT topic, details, url, core_text, created_at`).
		WithArgs("tech", since).
		WillReturnRows(sqlmock.NewRows([]string{"topic", "details", "url", "core_text", "created_at"}).
			AddRow("tech", "AI trends", "https://a.example", "core text", created))

	recs, err := s.FindRecent(context.Background(), "tech", since)
	if err != nil {
		t.Fatalf("FindRecent: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record got %d", len(recs))
	}
	if recs[0].Topic != "tech" || recs[0].CoreText != "core text" {
		t.Fatalf("unexpected record: %+v", recs[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindRecentEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	s := &Store{DB: db}

	since := time.Now()
	mock.ExpectQuery(`SELECT topic, details, url, core_text, created_at`).
		WithArgs("gaming", since).
		WillReturnRows(sqlmock.NewRows([]string{"topic", "details", "url", "core_text", "created_at"}))

	recs, err := s.FindRecent(context.Background(), "gaming", since)
	if err != nil {
		t.Fatalf("FindRecent: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records got %d", len(recs))
	}
}

func TestInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	s := &Store{DB: db}

	rec := workflow.ResearchRecord{
		Topic:     "tech",
		Details:   "AI trends",
		URL:       "https://a.example",
		CoreText:  "core text",
		CreatedAt: time.Now(),
	}
	mock.ExpectExec(`INSERT INTO research`).
		WithArgs(rec.Topic, rec.Details, rec.URL, rec.CoreText, rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.Insert(context.Background(), rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveUserInput(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	s := &Store{DB: db}

	mock.ExpectExec(`INSERT INTO user_inputs`).
		WithArgs("conv-1", "hello").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.SaveUserInput(context.Background(), "conv-1", "hello"); err != nil {
		t.Fatalf("SaveUserInput: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
