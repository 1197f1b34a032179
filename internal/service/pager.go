package service

import (
	"context"
	"log/slog"

	"github.com/spiceapp/spice-server/internal/domain"
	domainerrors "github.com/spiceapp/spice-server/internal/errors"
	"github.com/spiceapp/spice-server/internal/metrics"
	"github.com/spiceapp/spice-server/internal/store"
)

// Page size bounds used when none are configured.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is one page of the catalog.
type Page = store.PaginatedResult[*domain.Lecture]

// Pager reads the catalog in keyset pages, newest upload first. It keeps no
// state between calls; callers thread NextCursor themselves.
type Pager struct {
	store       store.Store
	defaultSize int
	maxSize     int
	logger      *slog.Logger
}

// NewPager creates a pager. Non-positive sizes use the package defaults.
func NewPager(s store.Store, defaultSize, maxSize int, logger *slog.Logger) *Pager {
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	if defaultSize <= 0 || defaultSize > maxSize {
		defaultSize = min(DefaultPageSize, maxSize)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pager{store: s, defaultSize: defaultSize, maxSize: maxSize, logger: logger}
}

// GetPage returns up to pageSize lectures strictly after cursor. An empty
// cursor starts at the newest lecture. pageSize is clamped to the configured
// maximum; a non-positive pageSize means the default.
//
// One extra lecture is fetched as a lookahead for HasMore. NextCursor always
// points at the last returned lecture, never the lookahead.
func (p *Pager) GetPage(ctx context.Context, pageSize int, cursor string) (*Page, error) {
	params := store.PaginationParams{Limit: pageSize, Cursor: cursor}
	params.Normalize(p.defaultSize, p.maxSize)

	after, err := store.DecodeCursor(params.Cursor)
	if err != nil {
		return nil, domainerrors.Validation("invalid cursor").WithCause(err)
	}

	items, err := p.store.ListLectures(ctx, after, params.Limit+1)
	metrics.RecordPageFetch(err)
	if err != nil {
		p.logger.Error("catalog page fetch failed", "page_size", params.Limit, "error", err)
		return nil, err
	}

	page := &Page{Items: items}
	if len(items) > params.Limit {
		page.Items = items[:params.Limit]
		page.HasMore = true
	}
	if page.Items == nil {
		page.Items = []*domain.Lecture{}
	}
	if n := len(page.Items); n > 0 {
		page.NextCursor = store.EncodeCursor(store.KeyOf(page.Items[n-1]))
	}
	return page, nil
}

// DefaultSize returns the page size used for non-positive requests.
func (p *Pager) DefaultSize() int {
	return p.defaultSize
}
