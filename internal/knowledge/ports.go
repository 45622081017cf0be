package knowledge

import "context"

// Passage — фрагмент материалов курса с его близостью к запросу.
type Passage struct {
	Content    string
	Similarity float64
}

// Searcher — семантический поиск по базе знаний.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Passage, error)
}
