// Package store defines catalog persistence and provides the Badger-backed
// implementation. Alternative backends live in the sqlite and mongo
// subpackages; all of them satisfy Store and pass storetest.Run.
package store

import (
	"context"

	"github.com/spiceapp/spice-server/internal/domain"
)

// Store is the ordered document store the catalog runs on.
//
// Lectures are ordered by (UploadedAt desc, ID desc). Errors are domain
// errors: NotFound for a missing lecture, AlreadyExists for a duplicate id,
// Persistence for anything the backend itself failed at.
type Store interface {
	Close() error

	// CreateLecture stores l with zeroed view and rating statistics.
	CreateLecture(ctx context.Context, l *domain.Lecture) error
	GetLecture(ctx context.Context, id string) (*domain.Lecture, error)
	// ListLectures returns up to limit lectures strictly after the key in
	// catalog order, or from the newest when after is nil. limit <= 0 means
	// no limit.
	ListLectures(ctx context.Context, after *Key, limit int) ([]*domain.Lecture, error)
	CountLectures(ctx context.Context) (int, error)
	// IncrementViewCount adds one view and returns the new count.
	IncrementViewCount(ctx context.Context, id string) (int64, error)

	// RecordRating appends sample and, in the same atomic unit, recomputes
	// the lecture's aggregate from every stored sample. It returns the
	// updated lecture. On error nothing is applied.
	RecordRating(ctx context.Context, sample *domain.RatingSample) (*domain.Lecture, error)
	// ListRatings returns a lecture's samples, oldest first.
	ListRatings(ctx context.Context, lectureID string) ([]*domain.RatingSample, error)
	// RecentRatings returns the newest samples across all lectures.
	RecentRatings(ctx context.Context, limit int) ([]*domain.RatingSample, error)
}
