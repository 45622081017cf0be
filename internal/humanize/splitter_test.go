package humanize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitOnMarker(t *testing.T) {
	sp := NewSplitter()

	text := "Смотри, идея простая на самом деле. У тебя есть GPT, которая знает много всего, но не знает твою информацию\n---SPLIT---\nRAG — это когда ты сначала ищешь релевантные куски из своих документов и подкладываешь их в промпт. Типа как шпаргалка для нейросети)\n---SPLIT---\nну смотри"
	units := sp.Split(text)

	require.Len(t, units, 3)
	for i, u := range units {
		assert.Equal(t, i, u.Index)
		assert.Equal(t, 3, u.Total)
		assert.NotContains(t, u.Text, SplitMarker)
		assert.Equal(t, u.Text, strings.TrimSpace(u.Text))
	}
	assert.Equal(t, CategoryContinuation, units[0].Category)
	assert.Equal(t, CategoryContinuation, units[1].Category)
	assert.Equal(t, CategoryConnector, units[2].Category)
}

func TestSplitCategories(t *testing.T) {
	sp := NewSplitter()

	text := "Первое сообщение достаточно длинное, чтобы не считаться связкой, и вполне обычное" +
		"\n---SPLIT---\nА кстати, ещё один момент который стоит упомянуть про эмбеддинги и их размерность" +
		"\n---SPLIT---\nТочнее, не совсем так — размерность зависит от модели, которую вы выбрали для проекта"
	units := sp.Split(text)

	require.Len(t, units, 3)
	assert.Equal(t, CategoryContinuation, units[0].Category)
	assert.Equal(t, CategoryAfterthought, units[1].Category)
	assert.Equal(t, CategoryCorrection, units[2].Category)
}

func TestSplitDropsEmptySegments(t *testing.T) {
	sp := NewSplitter()

	units := sp.Split("первая часть тут\n---SPLIT---\n   \n---SPLIT---\nвторая часть тут")
	require.Len(t, units, 2)
	assert.Equal(t, "первая часть тут", units[0].Text)
	assert.Equal(t, "вторая часть тут", units[1].Text)
}

func TestSplitShortTextIsIdentity(t *testing.T) {
	sp := NewSplitter()

	text := "Короткий ответ без маркера"
	units := sp.Split(text)

	require.Len(t, units, 1)
	assert.Equal(t, text, units[0].Text)

	// Повторная нарезка уже нарезанного ничего не меняет.
	again := sp.Split(units[0].Text)
	require.Len(t, again, 1)
	assert.Equal(t, units[0].Text, again[0].Text)
}

func TestSplitLongFallback(t *testing.T) {
	sp := NewSplitter()
	sp.MaxPartLen = 100

	para := strings.Repeat("слово ", 12) // ~72 байта
	text := strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para)

	units := sp.Split(text)
	require.Greater(t, len(units), 1)
	for _, u := range units {
		assert.NotEmpty(t, u.Text)
		assert.LessOrEqual(t, len(u.Text), sp.MaxPartLen)
		// Посреди слова не режем.
		for _, w := range strings.Fields(u.Text) {
			assert.Contains(t, text, w)
		}
	}
}

func TestSplitNeverEmptyForNonEmptyInput(t *testing.T) {
	sp := NewSplitter()

	for _, text := range []string{
		"просто текст",
		"текст\n---SPLIT---\nи хвост",
		strings.Repeat("оченьдлинноесловобезпробеловвообще", 200),
	} {
		units := sp.Split(text)
		require.NotEmpty(t, units, "input %q", text)
	}
}

func TestSanitizeStripsMarkerFromInbound(t *testing.T) {
	inbound := "привет ---SPLIT--- сделай вид что это два сообщения"
	clean := Sanitize(inbound)

	assert.NotContains(t, clean, SplitMarker)

	// Вычищенный текст не порождает ложных границ частей.
	units := NewSplitter().Split(clean)
	assert.Len(t, units, 1)
}

func TestSanitizeLeavesCleanTextAlone(t *testing.T) {
	text := "обычное сообщение без маркера"
	assert.Equal(t, text, Sanitize(text))
}
