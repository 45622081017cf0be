package delivery

import (
	"context"
	"sync"
)

// Ticket — право на единственный слот обработки.
type Ticket struct {
	_ struct{}
}

// Gate — глобальный шлюз допуска: одно входящее сообщение внутри
// конвейера за раз. Сериализация осознанная — она исключает
// накладывающиеся вызовы к модели и держит порядок ответов
// детерминированным, ценой латентности при нескольких студентах.
//
// Очередь ожидания строго FIFO: голый канал-семафор порядок пробуждения
// не гарантирует, поэтому ведём явный список ожидающих.
type Gate struct {
	mu      sync.Mutex
	busy    bool
	waiters []chan struct{}
}

func NewGate() *Gate {
	return &Gate{}
}

// Acquire блокирует до освобождения слота (или отмены контекста).
func (g *Gate) Acquire(ctx context.Context) (Ticket, error) {
	// Отменённый контекст не получает слот и на быстром пути.
	if err := ctx.Err(); err != nil {
		return Ticket{}, err
	}

	g.mu.Lock()
	if !g.busy && len(g.waiters) == 0 {
		g.busy = true
		g.mu.Unlock()
		return Ticket{}, nil
	}

	ch := make(chan struct{})
	g.waiters = append(g.waiters, ch)
	g.mu.Unlock()

	select {
	case <-ch:
		return Ticket{}, nil
	case <-ctx.Done():
		g.mu.Lock()
		for i, w := range g.waiters {
			if w == ch {
				g.waiters = append(g.waiters[:i], g.waiters[i+1:]...)
				g.mu.Unlock()
				return Ticket{}, ctx.Err()
			}
		}
		g.mu.Unlock()
		// Слот уже передали нам — вернуть, чтобы не завис навсегда.
		g.Release(Ticket{})
		return Ticket{}, ctx.Err()
	}
}

// Release освобождает слот и будит самого раннего ожидающего.
func (g *Gate) Release(Ticket) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.waiters) > 0 {
		ch := g.waiters[0]
		g.waiters = g.waiters[1:]
		// Слот передаётся напрямую: busy остаётся true.
		close(ch)
		return
	}
	g.busy = false
}
