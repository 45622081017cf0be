package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/Vovarama1992/school-tg-bridge/internal/ai"
)

// pgSearcher — поиск по pgvector: эмбеддим запрос, сравниваем косинусом.
type pgSearcher struct {
	db        *sql.DB
	embedder  ai.Embedder
	threshold float64
	topK      int
}

func NewPgSearcher(db *sql.DB, embedder ai.Embedder, threshold float64, topK int) Searcher {
	if topK <= 0 {
		topK = 5
	}
	return &pgSearcher{
		db:        db,
		embedder:  embedder,
		threshold: threshold,
		topK:      topK,
	}
}

func (s *pgSearcher) Search(ctx context.Context, query string) ([]Passage, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT content, 1 - (embedding <=> $1::vector) AS similarity
		FROM chunks
		WHERE 1 - (embedding <=> $1::vector) > $2
		ORDER BY embedding <=> $1::vector
		LIMIT $3
	`, vectorLiteral(embedding), s.threshold, s.topK)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var out []Passage
	for rows.Next() {
		var p Passage
		if err := rows.Scan(&p.Content, &p.Similarity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Printf("[knowledge] search %q: %d passages", short(query), len(out))
	return out, nil
}

// vectorLiteral — pq не знает тип vector, передаём текстовым литералом
// с кастом на стороне запроса.
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func short(s string) string {
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
