package delivery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/Vovarama1992/school-tg-bridge/internal/humanize"
	"github.com/Vovarama1992/school-tg-bridge/internal/ratelimit"
)

// sender — общий механизм отправки одной части: симуляция набора,
// резервирование в лимитере, сам send с повторами по флуд-контролю.
// Используется обеими полосами — основным конвейером и приветствиями.
type sender struct {
	transport Transport
	limiter   *ratelimit.Limiter
	pacer     *humanize.Scheduler

	maxSendRetries    int
	maxLimiterRetries int

	sleep sleepFunc
}

// sendUnit доставляет один кусок текста. Ошибка означает: эта часть
// не ушла, остаток последовательности надо бросить. Дубликатов не
// бывает — повтор идёт только после явной неудачи отправки.
func (s *sender) sendUnit(ctx context.Context, telegramID int64, text string) error {
	if err := s.typeOut(ctx, telegramID, text); err != nil {
		return err
	}

	if err := s.reserve(ctx); err != nil {
		return err
	}

	for attempt := 1; ; attempt++ {
		err := s.transport.Send(ctx, telegramID, text)
		if err == nil {
			return nil
		}

		var th *ThrottledError
		if errors.As(err, &th) && attempt < s.maxSendRetries {
			log.Printf("[delivery] flood wait %s (attempt %d/%d)", th.RetryAfter, attempt, s.maxSendRetries)
			if serr := s.sleep(ctx, th.RetryAfter); serr != nil {
				return serr
			}
			continue
		}
		return fmt.Errorf("send to %d: %w", telegramID, err)
	}
}

// reserve ждёт слот в лимитере, ограниченное число попыток.
// Исчерпание — не авария: часть дропается с логом, а не висит в очереди.
func (s *sender) reserve(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		r := s.limiter.TryReserve()
		if r.Allowed {
			return nil
		}
		if attempt >= s.maxLimiterRetries {
			return fmt.Errorf("rate limit: giving up after %d attempts", attempt)
		}
		log.Printf("[delivery] rate limited, waiting %s (attempt %d/%d)", r.RetryAfter, attempt, s.maxLimiterRetries)
		if err := s.sleep(ctx, r.RetryAfter); err != nil {
			return err
		}
	}
}

// typeOut симулирует набор: задержка по длине части, индикатор
// "печатает" переиздаётся каждые ~4.5s — в транспорте он протухает.
func (s *sender) typeOut(ctx context.Context, telegramID int64, text string) error {
	remaining := s.pacer.TypingDelay(utf8.RuneCountInString(text))
	refresh := s.pacer.ComposingRefresh()

	for remaining > 0 {
		if err := s.transport.SetComposing(ctx, telegramID); err != nil {
			// best-effort: без индикатора жить можно
			log.Printf("[delivery] set composing: %v", err)
		}
		chunk := remaining
		if refresh > 0 && chunk > refresh {
			chunk = refresh
		}
		if err := s.sleep(ctx, chunk); err != nil {
			return err
		}
		remaining -= chunk
	}
	return nil
}
