package students

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

type repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) Repo {
	return &repo{db: db}
}

func (r *repo) GetByTelegramID(ctx context.Context, telegramID int64) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(telegram_id, 0), telegram_username, level, status
		FROM students
		WHERE telegram_id = $1
	`, telegramID)
	return scanStudent(row)
}

func (r *repo) GetByUsername(ctx context.Context, username string) (*Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(telegram_id, 0), telegram_username, level, status
		FROM students
		WHERE telegram_username = $1
	`, strings.TrimPrefix(username, "@"))
	return scanStudent(row)
}

func scanStudent(row *sql.Row) (*Student, error) {
	var s Student
	var status string
	err := row.Scan(&s.ID, &s.TelegramID, &s.Username, &s.Level, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Status = Status(status)
	if s.Level == "" {
		s.Level = "beginner"
	}
	return &s, nil
}

func (r *repo) BindTelegramID(ctx context.Context, studentID string, telegramID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE students
		SET telegram_id = $2, status = 'active'
		WHERE id = $1
	`, studentID, telegramID)
	return err
}

func (r *repo) Touch(ctx context.Context, studentID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE students SET last_active_at = now() WHERE id = $1
	`, studentID)
	return err
}

func (r *repo) AppendTurn(ctx context.Context, studentID string, turn Turn) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversations (student_id, role, content, intent)
		VALUES ($1, $2, $3, NULLIF($4, ''))
	`, studentID, string(turn.Role), turn.Text, turn.Intent)
	return err
}

func (r *repo) RecentHistory(ctx context.Context, studentID string, limit int) ([]Turn, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT role, content, COALESCE(intent, '')
		FROM conversations
		WHERE student_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, studentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Turn
	for rows.Next() {
		var t Turn
		var role string
		if err := rows.Scan(&role, &t.Text, &t.Intent); err != nil {
			return nil, err
		}
		t.Role = Role(role)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Выборка шла от свежих к старым — разворачиваем в хронологию.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
