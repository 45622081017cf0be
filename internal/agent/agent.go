package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Vovarama1992/school-tg-bridge/internal/ai"
	"github.com/Vovarama1992/school-tg-bridge/internal/knowledge"
)

// Agent — конечный автомат одного обращения:
//
//	classify → greeting | off_topic | escalate → конец
//	classify → retrieve → answer → (practice) → конец
//
// Каждый стейдж — один вызов модели. Ошибки стейджей наружу не
// вылетают: студент всегда получает какой-то ответ.
type Agent struct {
	llm          ai.Completer
	search       knowledge.Searcher
	historyLimit int
}

func New(llm ai.Completer, search knowledge.Searcher, historyLimit int) *Agent {
	if historyLimit <= 0 {
		historyLimit = 5
	}
	return &Agent{
		llm:          llm,
		search:       search,
		historyLimit: historyLimit,
	}
}

// Respond прогоняет сообщение через конвейер и отдаёт результат.
func (a *Agent) Respond(ctx context.Context, in Input) Result {
	st := &state{
		in:        in,
		formality: DetectFormality(in.Question, in.History),
	}

	a.classify(ctx, st)

	switch st.intent {
	case IntentGreeting:
		a.greeting(ctx, st)
	case IntentOffTopic:
		a.offTopic(ctx, st)
	case IntentStuck:
		a.escalate(ctx, st)
	default:
		a.retrieve(ctx, st)
		a.answer(ctx, st)
		if st.intent == IntentPractice && st.answer != "" && !st.needsHum {
			a.practice(ctx, st)
		}
	}

	st.answer = validateResponse(st.answer, st.formality)

	return Result{
		Intent:      st.intent,
		Answer:      st.answer,
		NeedsHuman:  st.needsHum,
		UsedContext: st.context != "" && st.context != NoMaterialMarker,
	}
}

// classify — намерение по сообщению и короткой истории.
// Ошибка вызова модели валит в generic fallback (§ обработки ошибок),
// успешный вызов с мусором внутри — это question.
func (a *Agent) classify(ctx context.Context, st *state) {
	user := fmt.Sprintf(
		"<chat_history>\n%s\n</chat_history>\n\n<student_message>\n%s\n</student_message>",
		formatHistory(st.in.History, 3),
		escapeXML(st.in.Question),
	)

	raw, err := a.llm.Complete(ctx, intentPrompt, user)
	if err != nil {
		log.Printf("[agent] classify failed for %s: %v", st.in.StudentID, err)
		st.intent = IntentQuestion
		st.answer = a.fallbackAnswer(st.formality)
		st.needsHum = true
		return
	}

	st.intent = ParseIntent(strings.ToLower(strings.TrimSpace(raw)))
	if st.intent == IntentStuck {
		st.needsHum = true
	}
	log.Printf("[agent] intent=%s needs_human=%v", st.intent, st.needsHum)
}

// retrieve — семантический поиск по материалам курса.
// Ошибка поиска = ноль результатов, конвейер не останавливается.
func (a *Agent) retrieve(ctx context.Context, st *state) {
	passages, err := a.search.Search(ctx, st.in.Question)
	if err != nil {
		log.Printf("[agent] retrieve failed for %s: %v", st.in.StudentID, err)
		passages = nil
	}
	st.context = knowledge.ContextString(passages)
	if st.context == "" {
		st.context = NoMaterialMarker
	}
}

// answer — основной обучающий ответ.
func (a *Agent) answer(ctx context.Context, st *state) {
	if st.answer != "" {
		// classify уже уронил обращение в fallback
		return
	}

	system := fmt.Sprintf(teachingPrompt,
		st.formality, styleBlock(st.formality),
		orDefault(st.in.Level, "beginner"),
		st.intent,
	)
	user := fmt.Sprintf(teachingUserPrompt,
		escapeXML(st.context),
		formatHistory(st.in.History, a.historyLimit),
		escapeXML(st.in.Question),
	)

	raw, err := a.llm.Complete(ctx, system, user)
	if err != nil || strings.TrimSpace(raw) == "" {
		log.Printf("[agent] answer failed for %s: %v", st.in.StudentID, err)
		st.answer = a.fallbackAnswer(st.formality)
		st.needsHum = true
		return
	}
	st.answer = raw
}

// practice — дополнительное задание, достижимо только при intent=practice.
// Ошибка здесь не фатальна: ответ уходит без задания.
func (a *Agent) practice(ctx context.Context, st *state) {
	system := fmt.Sprintf(practicePrompt, st.formality, orDefault(st.in.Level, "beginner"))
	user := fmt.Sprintf(
		"<student_message>\n%s\n</student_message>\n\n<course_materials>\n%s\n</course_materials>",
		escapeXML(st.in.Question),
		escapeXML(st.context),
	)

	raw, err := a.llm.Complete(ctx, system, user)
	if err != nil || strings.TrimSpace(raw) == "" {
		log.Printf("[agent] practice failed for %s: %v", st.in.StudentID, err)
		return
	}
	st.answer = st.answer + "\n" + splitMarker + "\n" + practiceBridge + "\n" + splitMarker + "\n" + raw
}

func (a *Agent) greeting(ctx context.Context, st *state) {
	system := fmt.Sprintf(greetingPrompt, st.formality, styleBlock(st.formality))
	st.answer = a.shortReply(ctx, st, system, fallbackGreetingFormal, fallbackGreetingInformal)
}

func (a *Agent) offTopic(ctx context.Context, st *state) {
	system := fmt.Sprintf(offTopicPrompt, st.formality, styleBlock(st.formality))
	st.answer = a.shortReply(ctx, st, system, fallbackOffTopicFormal, fallbackOffTopicInformal)
}

// escalate — студент застрял: эмпатия + передача живому преподавателю.
// needs_human выставлен ещё на классификации.
func (a *Agent) escalate(ctx context.Context, st *state) {
	st.needsHum = true
	system := fmt.Sprintf(escalatePrompt, st.formality, styleBlock(st.formality))
	st.answer = a.shortReply(ctx, st, system, fallbackEscalateFormal, fallbackEscalateInformal)
}

// shortReply — общий каркас коротких стейджей (greeting/off_topic/escalate):
// история + сообщение на входе, канонический fallback при ошибке.
func (a *Agent) shortReply(ctx context.Context, st *state, system, fbFormal, fbInformal string) string {
	user := fmt.Sprintf(
		"<chat_history>\n%s\n</chat_history>\n\n<student_message>\n%s\n</student_message>",
		formatHistory(st.in.History, 3),
		escapeXML(st.in.Question),
	)

	raw, err := a.llm.Complete(ctx, system, user)
	if err != nil || strings.TrimSpace(raw) == "" {
		log.Printf("[agent] %s stage failed for %s: %v", st.intent, st.in.StudentID, err)
		if st.formality == FormalityInformal {
			return fbInformal
		}
		return fbFormal
	}
	return raw
}

func (a *Agent) fallbackAnswer(f Formality) string {
	if f == FormalityInformal {
		return fallbackAnswerInformal
	}
	return fallbackAnswerFormal
}

func styleBlock(f Formality) string {
	if f == FormalityInformal {
		return informalStyle
	}
	return formalStyle
}

// splitMarker дублирует humanize.SplitMarker, чтобы agent не тянул
// пакет доставки. Значения обязаны совпадать (закреплено тестом).
const splitMarker = "---SPLIT---"
