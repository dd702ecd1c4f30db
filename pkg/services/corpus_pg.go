package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/quranlabs/tadabbur/pkg/models"
)

// Arabic function words (plus query boilerplate) stripped before the
// keyword fallback searches.
var arabicStopWords = map[string]struct{}{
	"في": {}, "من": {}, "إلى": {}, "على": {}, "عن": {}, "هل": {}, "ما": {}, "هو": {}, "هي": {},
	"التي": {}, "الذي": {}, "كان": {}, "كانت": {}, "هذا": {}, "هذه": {}, "ذلك": {}, "تلك": {},
	"القرآن": {}, "الكريم": {}, "القرآنية": {}, "قرآنية": {},
}

// PGCorpus is the Postgres-backed corpus adapter (pgvector for semantic
// search, tsvector for text search).
type PGCorpus struct {
	pool *pgxpool.Pool
}

// NewPGCorpus wraps a shared pgx pool.
func NewPGCorpus(pool *pgxpool.Pool) *PGCorpus {
	return &PGCorpus{pool: pool}
}

// SearchByVector runs cosine-similarity search over precomputed verse
// embeddings.
func (c *PGCorpus) SearchByVector(ctx context.Context, vec []float32, topK int, threshold float64) ([]models.VerseRecord, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, surah_number, verse_number,
		       text_uthmani, text_simple, COALESCE(text_clean, ''),
		       1 - (embedding <=> $1) AS similarity
		FROM verses
		WHERE embedding IS NOT NULL
		  AND 1 - (embedding <=> $1) > $2
		ORDER BY embedding <=> $1
		LIMIT $3`,
		pgvector.NewVector(vec), threshold, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()
	return scanVerses(rows)
}

// SearchByText runs the three-step text ladder: tsquery AND, tsquery OR
// over stop-word-stripped keywords, then a LIKE scan on the first keyword.
func (c *PGCorpus) SearchByText(ctx context.Context, query string, topK int) ([]models.VerseRecord, error) {
	verses, err := c.queryTS(ctx, `
		SELECT id, surah_number, verse_number,
		       text_uthmani, text_simple, COALESCE(text_clean, ''),
		       ts_rank(search_vector, plainto_tsquery('simple', $1)) AS rank
		FROM verses
		WHERE search_vector @@ plainto_tsquery('simple', $1)
		ORDER BY rank DESC
		LIMIT $2`, query, topK)
	if err != nil || len(verses) > 0 {
		return verses, err
	}

	keywords := keywordsOf(query)
	if len(keywords) == 0 {
		return nil, nil
	}

	verses, err = c.queryTS(ctx, `
		SELECT id, surah_number, verse_number,
		       text_uthmani, text_simple, COALESCE(text_clean, ''),
		       ts_rank(search_vector, to_tsquery('simple', $1)) AS rank
		FROM verses
		WHERE search_vector @@ to_tsquery('simple', $1)
		ORDER BY rank DESC
		LIMIT $2`, strings.Join(keywords, " | "), topK)
	if err != nil || len(verses) > 0 {
		return verses, err
	}

	rows, err := c.pool.Query(ctx, `
		SELECT id, surah_number, verse_number,
		       text_uthmani, text_simple, COALESCE(text_clean, ''),
		       0.5 AS similarity
		FROM verses
		WHERE text_clean LIKE '%' || $1 || '%'
		   OR text_simple LIKE '%' || $1 || '%'
		LIMIT $2`, keywords[0], topK)
	if err != nil {
		return nil, fmt.Errorf("like search: %w", err)
	}
	defer rows.Close()
	return scanVerses(rows)
}

func (c *PGCorpus) queryTS(ctx context.Context, sql, arg string, topK int) ([]models.VerseRecord, error) {
	rows, err := c.pool.Query(ctx, sql, arg, topK)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	defer rows.Close()
	return scanVerses(rows)
}

// FetchExegesisFor joins tafseers with their books, ordered by the books'
// priority so the first entry per verse is the primary reference.
func (c *PGCorpus) FetchExegesisFor(ctx context.Context, verseIDs []int) (map[int][]models.TafseerEntry, error) {
	if len(verseIDs) == 0 {
		return map[int][]models.TafseerEntry{}, nil
	}
	rows, err := c.pool.Query(ctx, `
		SELECT t.verse_id, tb.slug, tb.name_ar, tb.methodology, t.text, tb.priority_order
		FROM tafseers t
		JOIN tafseer_books tb ON t.book_id = tb.id
		WHERE t.verse_id = ANY($1)
		ORDER BY t.verse_id, tb.priority_order`, verseIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch exegesis: %w", err)
	}
	defer rows.Close()

	byVerse := make(map[int][]models.TafseerEntry)
	for rows.Next() {
		var e models.TafseerEntry
		if err := rows.Scan(&e.VerseID, &e.Slug, &e.Name, &e.Methodology, &e.Text, &e.PriorityOrder); err != nil {
			return nil, fmt.Errorf("scan tafseer: %w", err)
		}
		byVerse[e.VerseID] = append(byVerse[e.VerseID], e)
	}
	return byVerse, rows.Err()
}

func scanVerses(rows pgx.Rows) ([]models.VerseRecord, error) {
	var verses []models.VerseRecord
	for rows.Next() {
		var v models.VerseRecord
		if err := rows.Scan(&v.ID, &v.SurahNumber, &v.VerseNumber,
			&v.TextUthmani, &v.TextSimple, &v.TextClean, &v.Similarity); err != nil {
			return nil, fmt.Errorf("scan verse: %w", err)
		}
		v.VerseKey = fmt.Sprintf("%d:%d", v.SurahNumber, v.VerseNumber)
		verses = append(verses, v)
	}
	return verses, rows.Err()
}

func keywordsOf(query string) []string {
	var out []string
	for _, w := range strings.Fields(query) {
		if _, stop := arabicStopWords[w]; stop {
			continue
		}
		if len([]rune(w)) > 1 {
			out = append(out, w)
		}
	}
	return out
}
