package agent

// Intent — закрытое множество намерений студента.
type Intent string

const (
	IntentQuestion      Intent = "question"
	IntentClarification Intent = "clarification"
	IntentPractice      Intent = "practice"
	IntentStuck         Intent = "stuck"
	IntentOffTopic      Intent = "off_topic"
	IntentGreeting      Intent = "greeting"
)

var validIntents = map[Intent]bool{
	IntentQuestion:      true,
	IntentClarification: true,
	IntentPractice:      true,
	IntentStuck:         true,
	IntentOffTopic:      true,
	IntentGreeting:      true,
}

// ParseIntent — намерение из сырого ответа классификатора.
// Мусор трактуем как question: лучше ответить по делу, чем угадывать.
func ParseIntent(raw string) Intent {
	in := Intent(raw)
	if validIntents[in] {
		return in
	}
	return IntentQuestion
}

// Formality — регистр общения.
type Formality string

const (
	FormalityFormal   Formality = "formal"   // на Вы
	FormalityInformal Formality = "informal" // на ты
)

// Turn — реплика истории, как её видит агент.
type Turn struct {
	Role string // "student" | "assistant"
	Text string
}

// Input — снимок контекста одного обращения. Read-only для агента.
type Input struct {
	StudentID string
	Question  string
	History   []Turn
	Level     string // beginner | intermediate | advanced
}

// state — короткоживущая запись одного прогона конвейера.
// Мутируется стейдж за стейджем, между обращениями не живёт.
type state struct {
	in        Input
	formality Formality
	intent    Intent
	context   string
	answer    string
	needsHum  bool
}

// Result — то, что забирает оркестратор.
type Result struct {
	Intent      Intent
	Answer      string
	NeedsHuman  bool
	UsedContext bool
}
