package delivery

import (
	"sync"
	"time"
)

// inboundLimiter — входящий лимит на одного студента. Щедрые рамки:
// защищает от раздувания счёта за API при спаме, живых не трогает.
type inboundLimiter struct {
	maxPerMinute int
	minGap       time.Duration

	mu         sync.Mutex
	timestamps map[int64][]time.Time
	lastSweep  time.Time
	now        func() time.Time
}

func newInboundLimiter(maxPerMinute int, minGap time.Duration) *inboundLimiter {
	return &inboundLimiter{
		maxPerMinute: maxPerMinute,
		minGap:       minGap,
		timestamps:   make(map[int64][]time.Time),
		now:          time.Now,
	}
}

func (l *inboundLimiter) Allow(senderID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	ts := l.timestamps[senderID]

	// Чистим всё старше минуты.
	kept := ts[:0]
	for _, t := range ts {
		if now.Sub(t) < time.Minute {
			kept = append(kept, t)
		}
	}
	ts = kept

	if len(ts) > 0 && now.Sub(ts[len(ts)-1]) < l.minGap {
		l.timestamps[senderID] = ts
		return false
	}
	if l.maxPerMinute > 0 && len(ts) >= l.maxPerMinute {
		l.timestamps[senderID] = ts
		return false
	}

	l.timestamps[senderID] = append(ts, now)
	return true
}

// sweep выкидывает отправителей, молчащих дольше минуты, не чаще раза
// в минуту. Без этого карта растёт с каждым новым telegram_id до конца
// жизни процесса.
func (l *inboundLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now
	for id, ts := range l.timestamps {
		if len(ts) == 0 || now.Sub(ts[len(ts)-1]) >= time.Minute {
			delete(l.timestamps, id)
		}
	}
}
