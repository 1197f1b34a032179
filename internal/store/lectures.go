package store

import (
	"bytes"
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/spiceapp/spice-server/internal/domain"
)

// CreateLecture stores a new lecture with zeroed statistics.
func (s *Badger) CreateLecture(ctx context.Context, l *domain.Lecture) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.ResetStats()

	err := s.update(func(txn *badger.Txn) error {
		_, err := txn.Get(lectureKey(l.ID))
		switch {
		case err == nil:
			return ErrLectureExists(l.ID)
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		if err := setJSON(txn, lectureKey(l.ID), l); err != nil {
			return err
		}
		return txn.Set(lectureUploadKey(KeyOf(l)), nil)
	})
	if err != nil {
		return Wrap(err, "create lecture")
	}

	s.logger.Debug("lecture created", "id", l.ID, "uploaded_at", l.UploadedAt)
	return nil
}

// GetLecture retrieves a lecture by id.
func (s *Badger) GetLecture(ctx context.Context, id string) (*domain.Lecture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var l domain.Lecture
	err := s.db.View(func(txn *badger.Txn) error {
		return getLecture(txn, id, &l)
	})
	if err != nil {
		return nil, Wrap(err, "get lecture")
	}
	return &l, nil
}

func getLecture(txn *badger.Txn, id string, dest *domain.Lecture) error {
	err := getJSON(txn, lectureKey(id), dest)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrLectureNotFound(id)
	}
	return err
}

// ListLectures walks the upload index newest first, starting strictly after
// the given key.
func (s *Badger) ListLectures(ctx context.Context, after *Key, limit int) ([]*domain.Lecture, error) {
	var out []*domain.Lecture

	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(lectureUploadIdx)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		opts.PrefetchValues = false
		if limit > 0 {
			opts.PrefetchSize = limit + 1
		}

		it := txn.NewIterator(opts)
		defer it.Close()

		if after != nil {
			seek := lectureUploadKey(*after)
			it.Seek(seek)
			// Reverse Seek lands on the cursor itself when it still exists.
			if it.ValidForPrefix(prefix) && bytes.Equal(it.Item().Key(), seek) {
				it.Next()
			}
		} else {
			it.Seek(seekLast(prefix))
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			id := idFromUploadKey(it.Item().Key())
			var l domain.Lecture
			if err := getLecture(txn, id, &l); err != nil {
				return err
			}
			out = append(out, &l)
		}
		return nil
	})
	if err != nil {
		return nil, Wrap(err, "list lectures")
	}
	return out, nil
}

// CountLectures counts entries in the upload index.
func (s *Badger) CountLectures(ctx context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(lectureUploadIdx)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return ctx.Err()
	})
	if err != nil {
		return 0, Wrap(err, "count lectures")
	}
	return n, nil
}

// IncrementViewCount adds one view to a lecture.
func (s *Badger) IncrementViewCount(ctx context.Context, id string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var views int64
	err := s.update(func(txn *badger.Txn) error {
		var l domain.Lecture
		if err := getLecture(txn, id, &l); err != nil {
			return err
		}
		l.ViewCount++
		l.Touch()
		views = l.ViewCount
		return setJSON(txn, lectureKey(id), &l)
	})
	if err != nil {
		return 0, Wrap(err, "increment view count")
	}
	return views, nil
}
