package delivery

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inboundClock struct {
	t time.Time
}

func (c *inboundClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
func (c *inboundClock) Now() time.Time          { return c.t }

func newTestInboundLimiter(maxPerMinute int, minGap time.Duration) (*inboundLimiter, *inboundClock) {
	clock := &inboundClock{t: time.Unix(1_700_000_000, 0)}
	l := newInboundLimiter(maxPerMinute, minGap)
	l.now = clock.Now
	return l, clock
}

func TestInboundLimiterEnforcesMinGap(t *testing.T) {
	l, clock := newTestInboundLimiter(10, 2*time.Second)

	require.True(t, l.Allow(100))
	assert.False(t, l.Allow(100))

	clock.Advance(2 * time.Second)
	assert.True(t, l.Allow(100))
}

func TestInboundLimiterPerMinuteCap(t *testing.T) {
	l, clock := newTestInboundLimiter(3, 0)

	for i := 0; i < 3; i++ {
		require.True(t, l.Allow(100), "message %d", i+1)
		clock.Advance(time.Second)
	}
	assert.False(t, l.Allow(100))

	// Другого студента чужой кап не трогает.
	assert.True(t, l.Allow(200))

	clock.Advance(time.Minute)
	assert.True(t, l.Allow(100))
}

func TestInboundLimiterDropsIdleSenders(t *testing.T) {
	l, clock := newTestInboundLimiter(10, 0)

	for id := int64(1); id <= 50; id++ {
		require.True(t, l.Allow(id))
	}

	mapLen := func() int {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.timestamps)
	}
	require.Equal(t, 50, mapLen())

	// Все замолчали: следующее обращение вычищает их записи — карта
	// не растёт с числом уникальных отправителей.
	clock.Advance(2 * time.Minute)
	require.True(t, l.Allow(9000))
	assert.Equal(t, 1, mapLen())
}

func TestInboundLimiterKeepsActiveSendersDuringSweep(t *testing.T) {
	l, clock := newTestInboundLimiter(10, 0)

	require.True(t, l.Allow(1))
	clock.Advance(90 * time.Second)
	require.True(t, l.Allow(2)) // чистка: 1 молчал дольше минуты

	clock.Advance(30 * time.Second)
	require.True(t, l.Allow(3))

	l.mu.Lock()
	defer l.mu.Unlock()
	_, hasStale := l.timestamps[1]
	assert.False(t, hasStale)
	for _, id := range []int64{2, 3} {
		_, ok := l.timestamps[id]
		assert.True(t, ok, fmt.Sprintf("sender %d should survive the sweep", id))
	}
}
