package agent

import "strings"

// Явные просьбы перейти на "ты".
var informalTriggers = []string{
	"давай на ты", "можно на ты", "перейдём на ты", "перейдем на ты",
	"давайте на ты", "можем на ты", "на ты?", "на ты!",
	"обращайся на ты", "общайся на ты",
}

// Формы, по которым видно, что студент уже пишет на "ты".
var informalMarkers = []string{
	" ты ", " тебе ", " тебя ", " твой ", " твоя ", " твоё ", " твои ",
	"расскажи ", "объясни ", "помоги ", "покажи ", "скажи ",
	"подскажи ", "скинь ", "глянь ", "чекни ",
}

// DetectFormality выбирает регистр Вы/ты.
// Приоритет: явная просьба в текущем сообщении → неформальные формы в
// сообщении → то же в недавней истории → по умолчанию формально.
func DetectFormality(message string, history []Turn) Formality {
	if isInformal(message) {
		return FormalityInformal
	}

	// Смотрим только реплики студента: свои собственные "ты" в счёт не идут.
	start := len(history) - 6
	if start < 0 {
		start = 0
	}
	for _, t := range history[start:] {
		if t.Role != "student" {
			continue
		}
		if isInformal(t.Text) {
			return FormalityInformal
		}
	}
	return FormalityFormal
}

func isInformal(text string) bool {
	lower := " " + strings.ToLower(text) + " "
	for _, trig := range informalTriggers {
		if strings.Contains(lower, trig) {
			return true
		}
	}
	for _, m := range informalMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
