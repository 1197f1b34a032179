package store

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spiceapp/spice-server/internal/domain"
)

// PaginationParams contains pagination request parameters.
type PaginationParams struct {
	Limit  int    // Items per page
	Cursor string // Opaque cursor for the next page; empty for the first
}

// Normalize clamps Limit into [1, maxLimit], using def for non-positive values.
func (p *PaginationParams) Normalize(def, maxLimit int) {
	if p.Limit <= 0 {
		p.Limit = def
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
}

// PaginatedResult contains one page and its continuation.
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// Key is a lecture's position in catalog order.
type Key struct {
	UploadedAt time.Time
	ID         string
}

// KeyOf returns l's catalog position.
func KeyOf(l *domain.Lecture) Key {
	return Key{UploadedAt: l.UploadedAt, ID: l.ID}
}

// After reports whether l sorts strictly after k in catalog order.
func (k Key) After(l *domain.Lecture) bool {
	if !l.UploadedAt.Equal(k.UploadedAt) {
		return l.UploadedAt.Before(k.UploadedAt)
	}
	return l.ID < k.ID
}

// EncodeCursor makes an opaque cursor from k.
func EncodeCursor(k Key) string {
	raw := strconv.FormatInt(k.UploadedAt.UnixNano(), 10) + "|" + k.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a cursor. An empty cursor yields nil.
func DecodeCursor(cursor string) (*Key, error) {
	if cursor == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	ts, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return nil, fmt.Errorf("invalid cursor: malformed key")
	}
	ns, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	return &Key{UploadedAt: time.Unix(0, ns).UTC(), ID: id}, nil
}
