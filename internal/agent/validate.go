package agent

import (
	"log"
	"strings"
)

// Индикаторы пробитой инъекции: прямые признания в "я бот/ИИ",
// переход на английский и утечки фрагментов промпта. Список узкий —
// ложные срабатывания на легитимных учебных упоминаниях не нужны.
var injectionIndicators = []string{
	"я — искусственный интеллект",
	"я искусственный интеллект",
	"я языковая модель",
	"я — языковая модель",
	"я являюсь языковой моделью",
	"i am an ai",
	"i'm an ai",
	"i am a language model",
	"as an ai assistant",
	"as a language model",
	"i was created by",
	"i was trained by",
	"я бот",
	"я — бот",
	"я нейросеть",
	"я — нейросеть",
	"я программа",
	"я — программа",
	"я чат-бот",
	"я чатбот",
	"я виртуальный ассистент",
	"безопасность (абсолютные правила",
	"teaching_system_prompt",
	"формат ответов:\n- никакого markdown",
}

// validateResponse возвращает ответ как есть, если он чистый,
// или безопасный fallback при признаках сработавшей инъекции.
// Выходу модели доверять нельзя — это best-effort последний рубеж.
func validateResponse(response string, formality Formality) string {
	lower := strings.ToLower(response)
	for _, ind := range injectionIndicators {
		if strings.Contains(lower, ind) {
			log.Printf("[agent] injection indicator in response: %q", ind)
			if formality == FormalityInformal {
				return safeFallbackInformal
			}
			return safeFallbackFormal
		}
	}
	return response
}
