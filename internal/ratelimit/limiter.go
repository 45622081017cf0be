package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Limiter считает исходящие отправки в скользящих окнах минута/час/сутки.
// Лимиты консервативные — сильно ниже порогов, на которых Telegram
// начинает подозревать автоматизацию.
//
// Общий для обеих "полос" (основной конвейер + очередь приветствий),
// поэтому всё под одним мьютексом.
type Limiter struct {
	maxPerMinute int
	maxPerHour   int
	maxPerDay    int

	mu         sync.Mutex
	timestamps []time.Time

	// Инжектируемые часы — тесты двигают время сами.
	now func() time.Time
}

// Reservation — результат TryReserve.
type Reservation struct {
	Allowed bool
	// При отказе: минимальное время до того, как самое тесное окно
	// освободит один слот.
	RetryAfter time.Duration
}

func NewLimiter(maxPerMinute, maxPerHour, maxPerDay int) *Limiter {
	return &Limiter{
		maxPerMinute: maxPerMinute,
		maxPerHour:   maxPerHour,
		maxPerDay:    maxPerDay,
		now:          time.Now,
	}
}

// windows в порядке возрастания — prune идёт по самому широкому.
func (l *Limiter) windows() []window {
	return []window{
		{60 * time.Second, l.maxPerMinute},
		{time.Hour, l.maxPerHour},
		{24 * time.Hour, l.maxPerDay},
	}
}

type window struct {
	span time.Duration
	cap  int
}

// TryReserve атомарно проверяет все три окна и при успехе записывает
// отправку во все сразу. Отказ не фатален — вызывающий ждёт RetryAfter
// и пробует снова.
func (l *Limiter) TryReserve() Reservation {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	var worst time.Duration
	for _, w := range l.windows() {
		count, oldest := l.inWindow(now, w.span)
		if count < w.cap {
			continue
		}
		// Окно заполнено: ждать пока самый старый элемент выйдет из него.
		wait := oldest.Add(w.span).Sub(now)
		if wait <= 0 {
			wait = time.Millisecond
		}
		if wait > worst {
			worst = wait
		}
	}

	if worst > 0 {
		return Reservation{Allowed: false, RetryAfter: worst}
	}

	l.timestamps = append(l.timestamps, now)
	return Reservation{Allowed: true}
}

// prune выкидывает записи старше суток. Ленивая очистка на каждом
// обращении — фонового свипера не нужно.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-24 * time.Hour)
	i := 0
	for ; i < len(l.timestamps); i++ {
		if l.timestamps[i].After(cutoff) {
			break
		}
	}
	if i > 0 {
		l.timestamps = append(l.timestamps[:0], l.timestamps[i:]...)
	}
}

// inWindow — количество отправок в окне и самая старая из них.
func (l *Limiter) inWindow(now time.Time, span time.Duration) (int, time.Time) {
	cutoff := now.Add(-span)
	count := 0
	var oldest time.Time
	for _, t := range l.timestamps {
		if !t.After(cutoff) {
			continue
		}
		if count == 0 {
			oldest = t
		}
		count++
	}
	return count, oldest
}

// Stats — снимок счётчиков для логов и /stats.
type Stats struct {
	LastMinute int `json:"last_minute"`
	LastHour   int `json:"last_hour"`
	LastDay    int `json:"last_day"`
}

func (s Stats) String() string {
	return fmt.Sprintf("min=%d hour=%d day=%d", s.LastMinute, s.LastHour, s.LastDay)
}

func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	var s Stats
	s.LastMinute, _ = l.inWindow(now, 60*time.Second)
	s.LastHour, _ = l.inWindow(now, time.Hour)
	s.LastDay, _ = l.inWindow(now, 24*time.Hour)
	return s
}
