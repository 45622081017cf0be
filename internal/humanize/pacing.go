package humanize

import (
	"math/rand"
	"sync"
	"time"
)

// Complexity — класс сложности входящего сообщения.
type Complexity int

const (
	Simple Complexity = iota
	Normal
	Complex
)

// Range — границы случайной задержки.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Pacing — все диапазоны задержек. Конфиг, не константы:
// значения можно крутить без правки кода.
type Pacing struct {
	// Чтение входящего: зависит от длины сообщения.
	ReadShort  Range
	ReadNormal Range
	ReadLong   Range
	// Пороги длины (в рунах) для выбора диапазона чтения.
	ReadShortChars  int
	ReadNormalChars int

	// "Обдумывание" перед ответом.
	ThinkSimple  Range
	ThinkNormal  Range
	ThinkComplex Range
	// Пороги длины для класса сложности.
	SimpleChars int
	NormalChars int

	// Симуляция набора текста: на символ + базовая задержка, с потолком.
	TypingPerChar Range
	TypingBase    time.Duration
	TypingMax     time.Duration

	// Индикатор "печатает" в транспорте протухает (~5s) — освежаем чаще.
	ComposingRefresh time.Duration

	// Паузы между частями ответа по категории части.
	Connector    Range
	Continuation Range
	Afterthought Range
	Correction   Range

	// Пауза между приветствиями новым студентам.
	GreetingGap Range

	// Джиттер для вырожденных диапазонов (Min == Max): фиксированных
	// задержек быть не должно.
	Jitter float64
}

// DefaultPacing возвращает рабочие диапазоны.
func DefaultPacing() Pacing {
	return Pacing{
		ReadShort:       Range{2 * time.Second, 6 * time.Second},
		ReadNormal:      Range{3 * time.Second, 7 * time.Second},
		ReadLong:        Range{4 * time.Second, 9 * time.Second},
		ReadShortChars:  80,
		ReadNormalChars: 300,

		ThinkSimple:  Range{1 * time.Second, 2 * time.Second},
		ThinkNormal:  Range{3 * time.Second, 8 * time.Second},
		ThinkComplex: Range{8 * time.Second, 20 * time.Second},
		SimpleChars:  20,
		NormalChars:  120,

		TypingPerChar: Range{30 * time.Millisecond, 50 * time.Millisecond},
		TypingBase:    1 * time.Second,
		TypingMax:     25 * time.Second,

		ComposingRefresh: 4500 * time.Millisecond,

		Connector:    Range{1 * time.Second, 3 * time.Second},
		Continuation: Range{2 * time.Second, 5 * time.Second},
		Afterthought: Range{5 * time.Second, 15 * time.Second},
		Correction:   Range{3 * time.Second, 8 * time.Second},

		GreetingGap: Range{30 * time.Second, 120 * time.Second},

		Jitter: 0.2,
	}
}

// Scheduler выдаёт случайные задержки в пределах Pacing.
// Источник случайности инжектируется — тесты фиксируют seed.
type Scheduler struct {
	cfg Pacing

	mu  sync.Mutex
	rng *rand.Rand
}

func NewScheduler(cfg Pacing, src rand.Source) *Scheduler {
	if cfg.Jitter <= 0 {
		cfg.Jitter = 0.2
	}
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Scheduler{
		cfg: cfg,
		rng: rand.New(src),
	}
}

// between — равномерно в [Min, Max]. Вырожденный диапазон получает
// джиттер: два одинаковых вызова не должны давать одинаковую паузу.
func (s *Scheduler) between(r Range) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Max <= r.Min {
		if r.Min <= 0 {
			return 0
		}
		spread := time.Duration(float64(r.Min) * s.cfg.Jitter)
		lo := r.Min - spread
		return lo + time.Duration(s.rng.Int63n(int64(2*spread)+1))
	}
	return r.Min + time.Duration(s.rng.Int63n(int64(r.Max-r.Min)+1))
}

// ComplexityFor — класс сложности по длине сообщения (в рунах).
func (s *Scheduler) ComplexityFor(runeLen int) Complexity {
	switch {
	case runeLen < s.cfg.SimpleChars:
		return Simple
	case runeLen < s.cfg.NormalChars:
		return Normal
	default:
		return Complex
	}
}

// ReadDelay — пауза "читаю сообщение". Длинные читаются дольше.
func (s *Scheduler) ReadDelay(runeLen int) time.Duration {
	switch {
	case runeLen < s.cfg.ReadShortChars:
		return s.between(s.cfg.ReadShort)
	case runeLen < s.cfg.ReadNormalChars:
		return s.between(s.cfg.ReadNormal)
	default:
		return s.between(s.cfg.ReadLong)
	}
}

// ThinkDelay — пауза "думаю над ответом".
func (s *Scheduler) ThinkDelay(c Complexity) time.Duration {
	switch c {
	case Simple:
		return s.between(s.cfg.ThinkSimple)
	case Complex:
		return s.between(s.cfg.ThinkComplex)
	default:
		return s.between(s.cfg.ThinkNormal)
	}
}

// TypingDelay — время "набора" части ответа: база + на-символ, с потолком.
func (s *Scheduler) TypingDelay(runeLen int) time.Duration {
	perChar := s.between(s.cfg.TypingPerChar)
	d := s.cfg.TypingBase + time.Duration(runeLen)*perChar
	if s.cfg.TypingMax > 0 && d > s.cfg.TypingMax {
		return s.cfg.TypingMax
	}
	return d
}

// InterPartDelay — пауза перед следующей частью ответа.
func (s *Scheduler) InterPartDelay(cat Category) time.Duration {
	switch cat {
	case CategoryConnector:
		return s.between(s.cfg.Connector)
	case CategoryAfterthought:
		return s.between(s.cfg.Afterthought)
	case CategoryCorrection:
		return s.between(s.cfg.Correction)
	default:
		return s.between(s.cfg.Continuation)
	}
}

// GreetingGap — пауза между приветствиями из очереди.
func (s *Scheduler) GreetingGap() time.Duration {
	return s.between(s.cfg.GreetingGap)
}

// ComposingRefresh — интервал обновления индикатора "печатает".
func (s *Scheduler) ComposingRefresh() time.Duration {
	return s.cfg.ComposingRefresh
}
