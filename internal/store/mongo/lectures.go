package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spiceapp/spice-server/internal/domain"
	"github.com/spiceapp/spice-server/internal/store"
)

// CreateLecture inserts a new lecture with zeroed statistics.
func (s *Store) CreateLecture(ctx context.Context, l *domain.Lecture) error {
	l.ResetStats()
	if _, err := s.lectures.InsertOne(ctx, toLectureDoc(l)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrLectureExists(l.ID)
		}
		return store.Wrap(err, "create lecture")
	}
	s.logger.Debug("lecture created", "id", l.ID)
	return nil
}

// GetLecture retrieves a lecture by id.
func (s *Store) GetLecture(ctx context.Context, id string) (*domain.Lecture, error) {
	var doc lectureDoc
	err := s.lectures.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrLectureNotFound(id)
	}
	if err != nil {
		return nil, store.Wrap(err, "get lecture")
	}
	return doc.toDomain(), nil
}

// ListLectures returns lectures in catalog order strictly after the key.
func (s *Store) ListLectures(ctx context.Context, after *store.Key, limit int) ([]*domain.Lecture, error) {
	opts := options.Find().SetSort(catalogSort)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.lectures.Find(ctx, afterFilter(after), opts)
	if err != nil {
		return nil, store.Wrap(err, "list lectures")
	}
	var docs []lectureDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, store.Wrap(err, "decode lectures")
	}
	out := make([]*domain.Lecture, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

// CountLectures returns the number of lectures.
func (s *Store) CountLectures(ctx context.Context) (int, error) {
	n, err := s.lectures.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, store.Wrap(err, "count lectures")
	}
	return int(n), nil
}

// IncrementViewCount adds one view and returns the new count.
func (s *Store) IncrementViewCount(ctx context.Context, id string) (int64, error) {
	var doc lectureDoc
	err := s.lectures.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "view_count", Value: 1}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, store.ErrLectureNotFound(id)
	}
	if err != nil {
		return 0, store.Wrap(err, "increment view count")
	}
	return doc.ViewCount, nil
}
