package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yoockh/careermentor/internal/models"
	"github.com/yoockh/careermentor/internal/repositories"
	"github.com/yoockh/careermentor/internal/utils"
)

const schema = `
CREATE TABLE IF NOT EXISTS interview_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL UNIQUE,
    user_id TEXT NOT NULL,
    date TEXT NOT NULL,
    job_title TEXT NOT NULL,
    interview_type TEXT NOT NULL,
    score INTEGER NOT NULL,
    questions_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_interview_history_user ON interview_history(user_id, id);
`

// HistoryStore keeps the interview history in a local SQLite file.
type HistoryStore struct {
	db *sql.DB
}

var _ repositories.HistoryRepository = (*HistoryStore)(nil)

// Open creates the schema if needed. Use ":memory:" for a throwaway store.
func Open(path string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer; also keeps a :memory: database alive across calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &HistoryStore{db: db}, nil
}

func (s *HistoryStore) Close() error {
	return s.db.Close()
}

func (s *HistoryStore) Append(ctx context.Context, h *models.SessionSummary) error {
	if h.Date.IsZero() {
		h.Date = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interview_history (session_id, user_id, date, job_title, interview_type, score, questions_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.SessionID, h.UserID, h.Date.UTC().Format(time.RFC3339Nano),
		h.JobTitle, h.InterviewType, h.FinalScorePercent, h.QuestionsCount,
	)
	return err
}

const selectColumns = `SELECT session_id, user_id, date, job_title, interview_type, score, questions_count FROM interview_history`

func (s *HistoryStore) ListByUser(ctx context.Context, userID string) ([]models.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE user_id = ? ORDER BY id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.SessionSummary{}
	for rows.Next() {
		h, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *HistoryStore) GetBySessionID(ctx context.Context, sessionID string) (*models.SessionSummary, error) {
	h, err := scanSummary(s.db.QueryRowContext(ctx, selectColumns+` WHERE session_id = ?`, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (models.SessionSummary, error) {
	var (
		h    models.SessionSummary
		date string
	)
	if err := row.Scan(&h.SessionID, &h.UserID, &date, &h.JobTitle, &h.InterviewType, &h.FinalScorePercent, &h.QuestionsCount); err != nil {
		return h, err
	}
	t, err := time.Parse(time.RFC3339Nano, date)
	if err != nil {
		return h, err
	}
	h.Date = t
	return h, nil
}
