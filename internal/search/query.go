package search

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// DefaultLimit caps unrestricted searches.
const DefaultLimit = 100

// Hit is one matching lecture.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Search returns lectures matching text, best first. When within is
// non-empty only those lecture ids are considered and all of them may be
// returned; otherwise at most DefaultLimit hits come back.
func (s *Index) Search(ctx context.Context, text string, within []string) ([]Hit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	q := buildQuery(text, within)
	size := DefaultLimit
	if len(within) > 0 {
		size = len(within)
	}
	req := bleve.NewSearchRequestOptions(q, size, 0, false)
	req.SortBy([]string{"-_score", "-uploaded_at"})

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}

// buildQuery matches text against any lecture field, with title matches
// ranked highest. Fuzzy and prefix clauses on the title catch typos and
// partial words.
func buildQuery(text string, within []string) query.Query {
	var clauses []query.Query

	titleMatch := bleve.NewMatchQuery(text)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)
	clauses = append(clauses, titleMatch)

	for field, boost := range map[string]float64{
		"lecturer":    2.0,
		"course":      1.5,
		"tags":        1.5,
		"description": 1.0,
	} {
		m := bleve.NewMatchQuery(text)
		m.SetField(field)
		m.SetBoost(boost)
		clauses = append(clauses, m)
	}

	fuzzy := bleve.NewFuzzyQuery(strings.ToLower(text))
	fuzzy.SetFuzziness(1)
	fuzzy.SetField("title")
	fuzzy.SetBoost(0.8)
	clauses = append(clauses, fuzzy)

	if utf8.RuneCountInString(text) >= 2 {
		prefix := bleve.NewPrefixQuery(strings.ToLower(text))
		prefix.SetField("title")
		prefix.SetBoost(0.5)
		clauses = append(clauses, prefix)
	}

	var q query.Query = bleve.NewDisjunctionQuery(clauses...)
	if len(within) > 0 {
		q = bleve.NewConjunctionQuery(q, bleve.NewDocIDQuery(within))
	}
	return q
}
