package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/spiceapp/spice-server/internal/domain"
	domainerrors "github.com/spiceapp/spice-server/internal/errors"
	"github.com/spiceapp/spice-server/internal/store"
)

// RecordRating runs one transaction that touches the lecture, inserts
// sample, totals every stored sample for the lecture and installs the
// aggregate. The first write takes the lecture's document lock, so a
// concurrent rater hits a write conflict and WithTransaction retries it
// against the committed samples. On any error nothing is committed.
func (s *Store) RecordRating(ctx context.Context, sample *domain.RatingSample) (*domain.Lecture, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, store.Wrap(err, "start session")
	}
	defer sess.EndSession(context.Background())

	res, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return s.recordRatingTxn(sc, sample)
	}, txnOptions())
	if err != nil {
		return nil, store.Wrap(err, "record rating")
	}
	updated := res.(*domain.Lecture)

	s.logger.Debug("rating recorded",
		"lecture_id", updated.ID,
		"rating_id", sample.ID,
		"total_ratings", updated.TotalRatings,
	)
	return updated, nil
}

func (s *Store) recordRatingTxn(sc mongo.SessionContext, sample *domain.RatingSample) (*domain.Lecture, error) {
	now := time.Now().UTC()
	touched, err := s.lectures.UpdateOne(sc, bson.D{{Key: "_id", Value: sample.LectureID}}, touchUpdate(now))
	if err != nil {
		return nil, err
	}
	if touched.MatchedCount == 0 {
		return nil, store.ErrLectureNotFound(sample.LectureID)
	}

	if _, err := s.ratings.InsertOne(sc, toRatingDoc(sample)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domainerrors.AlreadyExistsf("rating %s already exists", sample.ID)
		}
		return nil, err
	}

	cur, err := s.ratings.Aggregate(sc, sumsPipeline(sample.LectureID))
	if err != nil {
		return nil, err
	}
	var docs []sumsDoc
	if err := cur.All(sc, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domainerrors.Internal("rating sums empty after insert")
	}

	var doc lectureDoc
	err = s.lectures.FindOneAndUpdate(sc,
		bson.D{{Key: "_id", Value: sample.LectureID}},
		aggregateUpdate(docs[0].toDomain(), now),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func txnOptions() *options.TransactionOptions {
	return options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
}

func (s *Store) lectureExists(ctx context.Context, id string) error {
	err := s.lectures.FindOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}}),
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrLectureNotFound(id)
	}
	return store.Wrap(err, "find lecture")
}

// ListRatings returns a lecture's samples, oldest first.
func (s *Store) ListRatings(ctx context.Context, lectureID string) ([]*domain.RatingSample, error) {
	if err := s.lectureExists(ctx, lectureID); err != nil {
		return nil, err
	}
	cur, err := s.ratings.Find(ctx,
		bson.D{{Key: "lecture_id", Value: lectureID}},
		options.Find().SetSort(oldestFirst),
	)
	if err != nil {
		return nil, store.Wrap(err, "list ratings")
	}
	return decodeRatings(ctx, cur)
}

// RecentRatings returns the newest samples across all lectures.
func (s *Store) RecentRatings(ctx context.Context, limit int) ([]*domain.RatingSample, error) {
	opts := options.Find().SetSort(recentSort)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.ratings.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, store.Wrap(err, "recent ratings")
	}
	return decodeRatings(ctx, cur)
}

func decodeRatings(ctx context.Context, cur *mongo.Cursor) ([]*domain.RatingSample, error) {
	var docs []ratingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, store.Wrap(err, "decode ratings")
	}
	out := make([]*domain.RatingSample, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}
