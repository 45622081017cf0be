package agent

import (
	"strings"
	"unicode/utf8"
)

// Лимиты длины реплик в промпте: длинные сообщения студента режем
// агрессивнее — ограничивает живучесть инъекций в истории.
const (
	maxStudentTurnRunes   = 500
	maxAssistantTurnRunes = 1500
)

// escapeXML закрывает спецсимволы — содержимое тегов должно остаться
// данными, а не разметкой.
func escapeXML(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}

func truncateRunes(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "…"
}

// formatHistory заворачивает последние limit реплик в XML-теги с ролью.
// Тегированная структура мешает студенту подделать "assistant:" внутри
// своего сообщения.
func formatHistory(history []Turn, limit int) string {
	if len(history) == 0 {
		return ""
	}
	start := len(history) - limit
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	for i, t := range history[start:] {
		if i > 0 {
			b.WriteByte('\n')
		}
		maxLen := maxStudentTurnRunes
		if t.Role == "assistant" {
			maxLen = maxAssistantTurnRunes
		}
		content := escapeXML(truncateRunes(t.Text, maxLen))
		b.WriteString(`<message role="` + t.Role + `">` + content + `</message>`)
	}
	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
