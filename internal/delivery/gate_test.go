package delivery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitersLen(g *Gate) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.waiters)
}

func TestGateSerializesAndKeepsFIFO(t *testing.T) {
	g := NewGate()

	first, err := g.Acquire(context.Background())
	require.NoError(t, err)

	var mu sync.Mutex
	var order []string

	enter := func(name string) chan struct{} {
		done := make(chan struct{})
		go func() {
			defer close(done)
			tk, err := g.Acquire(context.Background())
			require.NoError(t, err)
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			g.Release(tk)
		}()
		return done
	}

	// B встаёт в очередь раньше C — и обязан проснуться раньше.
	doneB := enter("B")
	require.Eventually(t, func() bool { return waitersLen(g) == 1 }, time.Second, time.Millisecond)
	doneC := enter("C")
	require.Eventually(t, func() bool { return waitersLen(g) == 2 }, time.Second, time.Millisecond)

	g.Release(first)
	<-doneB
	<-doneC

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"B", "C"}, order)
}

func TestGateSingleSlot(t *testing.T) {
	g := NewGate()

	tk, err := g.Acquire(context.Background())
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		tk2, err := g.Acquire(context.Background())
		require.NoError(t, err)
		close(acquired)
		g.Release(tk2)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while slot is held")
	case <-time.After(50 * time.Millisecond):
	}

	g.Release(tk)
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never woke up")
	}
}

func TestGateAcquireRejectsCancelledContext(t *testing.T) {
	g := NewGate()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Слот свободен, но мёртвый контекст его не получает.
	_, err := g.Acquire(ctx)
	require.ErrorIs(t, err, context.Canceled)

	tk, err := g.Acquire(context.Background())
	require.NoError(t, err)
	g.Release(tk)
}

func TestGateAcquireCancelled(t *testing.T) {
	g := NewGate()

	tk, err := g.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := g.Acquire(ctx)
		errCh <- err
	}()
	require.Eventually(t, func() bool { return waitersLen(g) == 1 }, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	assert.Equal(t, 0, waitersLen(g))

	// Отменённый ожидающий не ломает передачу слота следующим.
	g.Release(tk)
	tk3, err := g.Acquire(context.Background())
	require.NoError(t, err)
	g.Release(tk3)
}
