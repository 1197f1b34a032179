package filter

import "github.com/spiceapp/spice-server/internal/domain"

// DefaultHighlyRatedMin is the four-dimension mean a lecture needs to be
// listed as highly rated.
const DefaultHighlyRatedMin = 3.5

// Categories groups lectures for browsing.
type Categories struct {
	Recent      []domain.ScoredLecture `json:"recent"`
	HighlyRated []domain.ScoredLecture `json:"highly_rated"`
	Popular     []domain.ScoredLecture `json:"popular"`
}

// Categorize builds the browse categories. Recent and Highly Rated derive
// from view, the currently displayed (possibly filtered) set; Popular ranks
// all of working by views regardless of filters.
func Categorize(view, working []domain.ScoredLecture, highlyRatedMin float64) Categories {
	return Categories{
		Recent:      view,
		HighlyRated: HighlyRated(view, highlyRatedMin),
		Popular:     Sort(working, domain.SortPopular),
	}
}
