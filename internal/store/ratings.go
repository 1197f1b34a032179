package store

import (
	"context"
	"encoding/json"

	"github.com/dgraph-io/badger/v4"

	"github.com/spiceapp/spice-server/internal/domain"
)

// RecordRating appends sample and rewrites the lecture's aggregate inside one
// Badger transaction. Concurrent submissions for the same lecture conflict on
// the lecture key, so the loser retries against the winner's samples.
func (s *Badger) RecordRating(ctx context.Context, sample *domain.RatingSample) (*domain.Lecture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated domain.Lecture
	err := s.update(func(txn *badger.Txn) error {
		if err := getLecture(txn, sample.LectureID, &updated); err != nil {
			return err
		}

		samples, err := scanRatings(txn, sample.LectureID)
		if err != nil {
			return err
		}
		samples = append(samples, sample)
		updated.Rating, updated.TotalRatings = domain.ComputeAggregate(samples)
		updated.Touch()

		key := ratingKey(sample.LectureID, sample.CreatedAt, sample.ID)
		if err := setJSON(txn, key, sample); err != nil {
			return err
		}
		if err := txn.Set(ratingCreatedKey(sample.LectureID, sample.CreatedAt, sample.ID), key); err != nil {
			return err
		}
		return setJSON(txn, lectureKey(updated.ID), &updated)
	})
	if err != nil {
		return nil, Wrap(err, "record rating")
	}

	s.logger.Debug("rating recorded",
		"lecture_id", updated.ID,
		"rating_id", sample.ID,
		"total_ratings", updated.TotalRatings,
	)
	return &updated, nil
}

// scanRatings reads every stored sample for a lecture, oldest first.
func scanRatings(txn *badger.Txn, lectureID string) ([]*domain.RatingSample, error) {
	prefix := ratingLecturePrefix(lectureID)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []*domain.RatingSample
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var r domain.RatingSample
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		}); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, nil
}

// ListRatings returns a lecture's samples, oldest first.
func (s *Badger) ListRatings(ctx context.Context, lectureID string) ([]*domain.RatingSample, error) {
	var out []*domain.RatingSample
	err := s.db.View(func(txn *badger.Txn) error {
		var l domain.Lecture
		if err := getLecture(txn, lectureID, &l); err != nil {
			return err
		}
		var err error
		out, err = scanRatings(txn, lectureID)
		if err != nil {
			return err
		}
		return ctx.Err()
	})
	if err != nil {
		return nil, Wrap(err, "list ratings")
	}
	return out, nil
}

// RecentRatings walks the creation index newest first.
func (s *Badger) RecentRatings(ctx context.Context, limit int) ([]*domain.RatingSample, error) {
	var out []*domain.RatingSample
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(ratingCreatedIdx)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(seekLast(prefix)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			primary, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var r domain.RatingSample
			if err := getJSON(txn, primary, &r); err != nil {
				return err
			}
			out = append(out, &r)
		}
		return ctx.Err()
	})
	if err != nil {
		return nil, Wrap(err, "recent ratings")
	}
	return out, nil
}
