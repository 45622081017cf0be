package humanize

import (
	"strings"
	"unicode/utf8"
)

// SplitMarker — разделитель частей, который ставит LLM в ответе.
// В тексте студента он доверия не имеет и вырезается (Sanitize).
const SplitMarker = "---SPLIT---"

// Category — тип части ответа, определяет паузу перед ней.
type Category string

const (
	CategoryConnector    Category = "connector"    // короткая связка ("ну смотри")
	CategoryContinuation Category = "continuation" // обычное продолжение
	CategoryAfterthought Category = "afterthought" // "а кстати, ещё..."
	CategoryCorrection   Category = "correction"   // "точнее, ..."
)

// Unit — одна исходящая часть ответа.
type Unit struct {
	Text     string
	Index    int
	Total    int
	Category Category
}

// Префиксы "вдогонку" — человек вспомнил что-то после паузы.
var afterthoughtCues = []string{
	"а кстати", "кста", "и ещё", "и еще", "а,", "да,", "ну и", "кстати",
}

// Префиксы самоисправления.
var correctionCues = []string{
	"точнее", "вернее", "в смысле", "ой,", "*",
}

// Splitter режет сгенерированный ответ на части доставки.
type Splitter struct {
	// Потолок длины одной части (в байтах; сепараторы ASCII, так что
	// разрез всегда по границе руны).
	MaxPartLen int
	// Части короче этого (в рунах) считаются связками.
	ConnectorChars int
}

func NewSplitter() *Splitter {
	return &Splitter{
		MaxPartLen:     2000,
		ConnectorChars: 40,
	}
}

// Sanitize вырезает маркер из недоверенного текста (входящее от студента).
// Маркер честен только в тексте, который произвёл сам агент.
func Sanitize(text string) string {
	if !strings.Contains(text, SplitMarker) {
		return text
	}
	return strings.TrimSpace(strings.ReplaceAll(text, SplitMarker, " "))
}

// Split превращает ответ в упорядоченную последовательность частей.
// Основной путь — по маркеру; без маркера работают эвристики границ.
// Пустой последовательности не бывает: в худшем случае весь текст — одна часть.
func (sp *Splitter) Split(text string) []Unit {
	var segments []string
	if strings.Contains(text, SplitMarker) {
		for _, raw := range strings.Split(text, SplitMarker) {
			seg := strings.TrimSpace(raw)
			if seg == "" {
				continue
			}
			if len(seg) > sp.MaxPartLen {
				segments = append(segments, sp.splitLong(seg)...)
			} else {
				segments = append(segments, seg)
			}
		}
	} else {
		segments = sp.splitLong(strings.TrimSpace(text))
	}

	if len(segments) == 0 {
		segments = []string{strings.TrimSpace(text)}
	}

	units := make([]Unit, 0, len(segments))
	for i, seg := range segments {
		units = append(units, Unit{
			Text:     seg,
			Index:    i,
			Total:    len(segments),
			Category: sp.classify(i, seg),
		})
	}
	return units
}

// classify — эвристика категории части. Первая часть всегда обычная.
func (sp *Splitter) classify(index int, text string) Category {
	if index == 0 {
		return CategoryContinuation
	}
	lower := strings.ToLower(text)
	for _, cue := range correctionCues {
		if strings.HasPrefix(lower, cue) {
			return CategoryCorrection
		}
	}
	for _, cue := range afterthoughtCues {
		if strings.HasPrefix(lower, cue) {
			return CategoryAfterthought
		}
	}
	if utf8.RuneCountInString(text) < sp.ConnectorChars {
		return CategoryConnector
	}
	return CategoryContinuation
}

// splitLong — fallback-нарезка без маркера: сначала абзацы, потом строки,
// потом границы предложений. Посреди слова не режем никогда.
func (sp *Splitter) splitLong(text string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= sp.MaxPartLen {
		return []string{text}
	}

	separators := []string{"\n\n", "\n", ". ", "! ", "? ", " "}

	var parts []string
	remaining := text
	for len(remaining) > sp.MaxPartLen {
		window := remaining[:sp.MaxPartLen]

		splitAt := -1
		sepLen := 0
		for _, sep := range separators {
			idx := strings.LastIndex(window, sep)
			// Слишком ранний разрез даёт огрызки — ищем дальше.
			if idx > sp.MaxPartLen*3/10 {
				splitAt = idx
				sepLen = len(sep)
				break
			}
		}
		if splitAt < 0 {
			// Ни одной границы слова — оставляем как есть.
			break
		}

		part := strings.TrimSpace(remaining[:splitAt+sepLen])
		if part != "" {
			parts = append(parts, part)
		}
		remaining = strings.TrimSpace(remaining[splitAt+sepLen:])
	}
	if remaining != "" {
		parts = append(parts, remaining)
	}
	return parts
}
