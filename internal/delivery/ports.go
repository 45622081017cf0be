package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/Vovarama1992/school-tg-bridge/internal/agent"
)

// Inbound — входящее сообщение от транспорта. После приёма не мутирует.
type Inbound struct {
	TelegramID int64
	Username   string
	Text       string
	ArrivedAt  time.Time
}

// ThrottledError — транспорт попросил остыть (flood wait).
// Восстановимая ошибка: ждём RetryAfter и повторяем ту же часть.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("transport throttled, retry after %s", e.RetryAfter)
}

// Transport — исходящая сторона чат-транспорта (sidecar).
type Transport interface {
	// Send отправляет текст. Флуд-контроль приходит как *ThrottledError,
	// всё остальное — фатально для текущей части.
	Send(ctx context.Context, telegramID int64, text string) error
	// SetComposing показывает "печатает". Best-effort: индикатор протухает,
	// при долгом наборе его нужно переиздавать.
	SetComposing(ctx context.Context, telegramID int64) error
	// Resolve находит telegram_id по username (для первого контакта).
	Resolve(ctx context.Context, username string) (int64, error)
}

// Responder — то, что умеет агент. Интерфейс ради тестов с фейком.
type Responder interface {
	Respond(ctx context.Context, in agent.Input) agent.Result
}

// sleepFunc — все паузы через неё: тесты подменяют и не ждут.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
