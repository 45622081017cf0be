package ai

import "context"

// Completer — внешний интеллект, не знает ни про Telegram, ни про БД.
// system-промпт + сообщение на входе, текст на выходе.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// Embedder — эмбеддинги для семантического поиска по материалам курса.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
