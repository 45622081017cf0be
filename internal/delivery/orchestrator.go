package delivery

import (
	"context"
	"log"
	"time"
	"unicode/utf8"

	"github.com/Vovarama1992/school-tg-bridge/internal/agent"
	"github.com/Vovarama1992/school-tg-bridge/internal/humanize"
	"github.com/Vovarama1992/school-tg-bridge/internal/ratelimit"
	"github.com/Vovarama1992/school-tg-bridge/internal/students"
)

// OrchestratorOptions — настройки конвейера доставки.
type OrchestratorOptions struct {
	HistoryLimit        int
	MaxSendRetries      int
	MaxLimiterRetries   int
	InboundMaxPerMinute int
	InboundMinGap       time.Duration
}

func (o *OrchestratorOptions) defaults() {
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = 10
	}
	if o.MaxSendRetries <= 0 {
		o.MaxSendRetries = 3
	}
	if o.MaxLimiterRetries <= 0 {
		o.MaxLimiterRetries = 5
	}
	if o.InboundMaxPerMinute <= 0 {
		o.InboundMaxPerMinute = 10
	}
	if o.InboundMinGap <= 0 {
		o.InboundMinGap = 2 * time.Second
	}
}

// Orchestrator — верхний координатор: допуск → агент → нарезка →
// паузы → лимитер → транспорт. Одно обращение внутри за раз.
type Orchestrator struct {
	gate     *Gate
	agent    Responder
	repo     students.Repo
	splitter *humanize.Splitter
	pacer    *humanize.Scheduler
	inbound  *inboundLimiter
	send     *sender

	opts OrchestratorOptions
}

func NewOrchestrator(
	gate *Gate,
	responder Responder,
	repo students.Repo,
	transport Transport,
	limiter *ratelimit.Limiter,
	pacer *humanize.Scheduler,
	splitter *humanize.Splitter,
	opts OrchestratorOptions,
) *Orchestrator {
	opts.defaults()
	return &Orchestrator{
		gate:     gate,
		agent:    responder,
		repo:     repo,
		splitter: splitter,
		pacer:    pacer,
		inbound:  newInboundLimiter(opts.InboundMaxPerMinute, opts.InboundMinGap),
		send: &sender{
			transport:         transport,
			limiter:           limiter,
			pacer:             pacer,
			maxSendRetries:    opts.MaxSendRetries,
			maxLimiterRetries: opts.MaxLimiterRetries,
			sleep:             sleepCtx,
		},
		opts: opts,
	}
}

// Handle прогоняет одно входящее сообщение через весь конвейер.
// Ничего не возвращает: все исходы — отправки, запись истории, логи.
// Сбой одного обращения не задевает следующие.
func (o *Orchestrator) Handle(ctx context.Context, msg Inbound) {
	student, err := o.resolveStudent(ctx, msg)
	if err != nil {
		log.Printf("[delivery] student lookup failed for %d: %v", msg.TelegramID, err)
		return
	}
	if student == nil {
		// Неизвестный отправитель отбрасывается до шлюза: чужие не должны
		// занимать слот и получать read-receipts.
		log.Printf("[delivery] ignoring unknown sender %d (@%s)", msg.TelegramID, msg.Username)
		return
	}
	if student.Status == students.StatusPaused {
		log.Printf("[delivery] ignoring paused student %s", student.ID)
		return
	}
	if !o.inbound.Allow(msg.TelegramID) {
		log.Printf("[delivery] inbound rate limit: dropping message from %d", msg.TelegramID)
		return
	}

	ticket, err := o.gate.Acquire(ctx)
	if err != nil {
		log.Printf("[delivery] admission aborted for %s: %v", student.ID, err)
		return
	}

	question, res := o.process(ctx, student, msg)

	o.gate.Release(ticket)

	if res == nil {
		return
	}

	// История пишется ровно один раз: входящее + полный несклеенный ответ.
	o.appendHistory(student.ID, question, *res)
}

// process — критическая секция под шлюзом: паузы чтения/обдумывания,
// агент, нарезка, отправка частей по порядку.
func (o *Orchestrator) process(ctx context.Context, student *students.Student, msg Inbound) (string, *agent.Result) {
	// Маркер нарезки в сыром тексте студента — инъекция границ, вырезаем.
	question := humanize.Sanitize(msg.Text)
	qLen := utf8.RuneCountInString(question)

	log.Printf("[delivery] message from @%s (%s): %q", msg.Username, student.ID, short(question))

	if err := o.send.sleep(ctx, o.pacer.ReadDelay(qLen)); err != nil {
		return question, nil
	}
	if err := o.send.sleep(ctx, o.pacer.ThinkDelay(o.pacer.ComplexityFor(qLen))); err != nil {
		return question, nil
	}

	history, err := o.repo.RecentHistory(ctx, student.ID, o.opts.HistoryLimit)
	if err != nil {
		log.Printf("[delivery] history load failed for %s: %v", student.ID, err)
		history = nil
	}

	res := o.agent.Respond(ctx, agent.Input{
		StudentID: student.ID,
		Question:  question,
		History:   toAgentTurns(history),
		Level:     student.Level,
	})
	if res.Answer == "" {
		log.Printf("[delivery] empty answer for %s, nothing to send", student.ID)
		return question, nil
	}
	if res.NeedsHuman {
		log.Printf("[delivery] student %s flagged for human follow-up", student.ID)
	}

	units := o.splitter.Split(res.Answer)
	for i, unit := range units {
		if err := o.send.sendUnit(ctx, msg.TelegramID, unit.Text); err != nil {
			// Уже отправленные части остаются отправленными, остаток бросаем.
			log.Printf("[delivery] aborting after part %d/%d for %s: %v",
				unit.Index+1, unit.Total, student.ID, err)
			break
		}
		log.Printf("[delivery] sent part %d/%d to %s (%d chars). Rate: %s",
			unit.Index+1, unit.Total, student.ID,
			utf8.RuneCountInString(unit.Text), o.send.limiter.Stats())

		if i < len(units)-1 {
			// Пауза зависит от характера следующей части.
			if err := o.send.sleep(ctx, o.pacer.InterPartDelay(units[i+1].Category)); err != nil {
				break
			}
		}
	}

	if err := o.repo.Touch(ctx, student.ID); err != nil {
		log.Printf("[delivery] touch failed for %s: %v", student.ID, err)
	}
	return question, &res
}

// resolveStudent ищет студента по telegram_id, затем по username.
// Найденному по username привязывает telegram_id — дальше он идёт
// по быстрому пути.
func (o *Orchestrator) resolveStudent(ctx context.Context, msg Inbound) (*students.Student, error) {
	student, err := o.repo.GetByTelegramID(ctx, msg.TelegramID)
	if err != nil {
		return nil, err
	}
	if student != nil {
		return student, nil
	}
	if msg.Username == "" {
		return nil, nil
	}

	student, err = o.repo.GetByUsername(ctx, msg.Username)
	if err != nil || student == nil {
		return student, err
	}
	if student.TelegramID == 0 {
		if err := o.repo.BindTelegramID(ctx, student.ID, msg.TelegramID); err != nil {
			log.Printf("[delivery] bind telegram id failed for %s: %v", student.ID, err)
		} else {
			student.TelegramID = msg.TelegramID
		}
	}
	return student, nil
}

func (o *Orchestrator) appendHistory(studentID, question string, res agent.Result) {
	// Запись истории не должна зависеть от отменённого контекста запроса.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := o.repo.AppendTurn(ctx, studentID, students.Turn{
		Role: students.RoleStudent, Text: question, Intent: string(res.Intent),
	}); err != nil {
		log.Printf("[delivery] append student turn failed for %s: %v", studentID, err)
	}
	if err := o.repo.AppendTurn(ctx, studentID, students.Turn{
		Role: students.RoleAssistant, Text: res.Answer, Intent: string(res.Intent),
	}); err != nil {
		log.Printf("[delivery] append assistant turn failed for %s: %v", studentID, err)
	}
}

func toAgentTurns(history []students.Turn) []agent.Turn {
	out := make([]agent.Turn, 0, len(history))
	for _, t := range history {
		out = append(out, agent.Turn{Role: string(t.Role), Text: t.Text})
	}
	return out
}

func short(s string) string {
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
