package knowledge

import (
	"fmt"
	"strings"
)

// ContextString собирает найденные фрагменты в контекст для промпта.
// Пустой результат — пустая строка: агент сам подставит маркер
// "материалы не найдены".
func ContextString(passages []Passage) string {
	if len(passages) == 0 {
		return ""
	}
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, fmt.Sprintf("[Релевантность: %.2f]\n%s", p.Similarity, p.Content))
	}
	return strings.Join(parts, "\n\n---\n\n")
}
