package delivery

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/Vovarama1992/school-tg-bridge/internal/humanize"
	"github.com/Vovarama1992/school-tg-bridge/internal/ratelimit"
	"github.com/Vovarama1992/school-tg-bridge/internal/students"
)

// Текст первого контакта. Всегда формальный: регистра студента мы
// ещё не знаем.
const greetingText = "Здравствуйте! Я Павел, буду помогать Вам разобраться в курсе по генеративному AI)"

// GreetingJob — элемент очереди приветствий.
type GreetingJob struct {
	Username   string
	EnqueuedAt time.Time
}

// Greeter — отдельная полоса для первого контакта с новыми студентами.
// Одиночный воркер, строгий FIFO, случайная пауза перед каждым
// приветствием — со шлюзом основного конвейера не конкурирует, обычные
// диалоги остаются отзывчивыми, пока приветствия капают по одному.
type Greeter struct {
	queue chan GreetingJob
	repo  students.Repo
	pacer *humanize.Scheduler
	send  *sender
	done  chan struct{}
}

func NewGreeter(
	repo students.Repo,
	transport Transport,
	limiter *ratelimit.Limiter,
	pacer *humanize.Scheduler,
	maxSendRetries, maxLimiterRetries, queueSize int,
) *Greeter {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Greeter{
		queue: make(chan GreetingJob, queueSize),
		repo:  repo,
		pacer: pacer,
		send: &sender{
			transport:         transport,
			limiter:           limiter,
			pacer:             pacer,
			maxSendRetries:    maxSendRetries,
			maxLimiterRetries: maxLimiterRetries,
			sleep:             sleepCtx,
		},
		done: make(chan struct{}),
	}
}

// Enqueue ставит приветствие в очередь. Не блокирует: переполненная
// очередь — отказ, пусть вызывающий попробует позже.
func (g *Greeter) Enqueue(username string) error {
	job := GreetingJob{
		Username:   strings.TrimPrefix(username, "@"),
		EnqueuedAt: time.Now(),
	}
	select {
	case g.queue <- job:
		log.Printf("[greeter] queued greeting for @%s (queue: %d)", job.Username, len(g.queue))
		return nil
	default:
		return errors.New("greeter: queue is full")
	}
}

// Run — цикл воркера. Запускается одной горутиной, завершается по ctx.
func (g *Greeter) Run(ctx context.Context) {
	defer close(g.done)
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-g.queue:
			// Пауза перед контактом: пачка приветствий подряд — явный
			// паттерн автоматизации.
			gap := g.pacer.GreetingGap()
			log.Printf("[greeter] waiting %s before contacting @%s", gap.Round(time.Second), job.Username)
			if err := sleepCtx(ctx, gap); err != nil {
				return
			}
			g.greet(ctx, job)
		}
	}
}

// Wait блокирует до выхода воркера.
func (g *Greeter) Wait() {
	<-g.done
}

// greet обрабатывает одно приветствие. Фатальная ошибка — дроп с логом,
// очередь идёт дальше: бесконечных повторов тут нет.
func (g *Greeter) greet(ctx context.Context, job GreetingJob) {
	telegramID, err := g.send.transport.Resolve(ctx, job.Username)
	if err != nil {
		log.Printf("[greeter] cannot resolve @%s, dropping: %v", job.Username, err)
		return
	}

	if err := g.send.sendUnit(ctx, telegramID, greetingText); err != nil {
		log.Printf("[greeter] greeting @%s failed, dropping: %v", job.Username, err)
		return
	}
	log.Printf("[greeter] greeted @%s (id %d). Rate: %s", job.Username, telegramID, g.send.limiter.Stats())

	// Резолв прошёл — привязываем id, дальше студент идёт быстрым путём.
	student, err := g.repo.GetByUsername(ctx, job.Username)
	if err != nil || student == nil {
		log.Printf("[greeter] no student record for @%s: %v", job.Username, err)
		return
	}
	if student.TelegramID == 0 {
		if err := g.repo.BindTelegramID(ctx, student.ID, telegramID); err != nil {
			log.Printf("[greeter] bind telegram id failed for %s: %v", student.ID, err)
		}
	}
}
