package students

import "context"

type Role string

const (
	RoleStudent   Role = "student"
	RoleAssistant Role = "assistant"
)

type Status string

const (
	StatusPending Status = "pending" // заведён админом, ещё не написал
	StatusActive  Status = "active"
	StatusPaused  Status = "paused" // на паузе — не отвечаем
)

// Student — запись студента курса.
type Student struct {
	ID         string
	TelegramID int64 // 0 пока не привязан
	Username   string
	Level      string // beginner | intermediate | advanced
	Status     Status
}

// Turn — одна реплика диалога.
type Turn struct {
	Role   Role
	Text   string
	Intent string
}

// Repo — persistence студентов и истории диалогов.
type Repo interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*Student, error)
	GetByUsername(ctx context.Context, username string) (*Student, error)
	// BindTelegramID привязывает telegram_id к студенту, заведённому
	// по username, и активирует его.
	BindTelegramID(ctx context.Context, studentID string, telegramID int64) error
	Touch(ctx context.Context, studentID string) error

	AppendTurn(ctx context.Context, studentID string, turn Turn) error
	// RecentHistory — последние limit реплик в хронологическом порядке.
	RecentHistory(ctx context.Context, studentID string, limit int) ([]Turn, error)
}
