package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/spiceapp/spice-server/internal/domain"
	"github.com/spiceapp/spice-server/internal/store"
)

const ratingColumns = `id, lecture_id, user_id, difficulty, importance, clarity, usefulness, comment, created_at`

func scanRating(scanner interface{ Scan(dest ...any) error }) (*domain.RatingSample, error) {
	var (
		r         domain.RatingSample
		comment   sql.NullString
		createdAt int64
	)
	err := scanner.Scan(
		&r.ID,
		&r.LectureID,
		&r.UserID,
		&r.Scores.Difficulty,
		&r.Scores.Importance,
		&r.Scores.Clarity,
		&r.Scores.Usefulness,
		&comment,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	r.Comment = comment.String
	r.CreatedAt = fromNanos(createdAt)
	return &r, nil
}

// RecordRating inserts sample and recomputes the lecture's aggregate in one
// transaction. The first statement writes the lecture row, so the transaction
// takes SQLite's write lock up front and concurrent raters queue on
// busy_timeout instead of failing a read-to-write upgrade.
func (s *Store) RecordRating(ctx context.Context, sample *domain.RatingSample) (*domain.Lecture, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, store.Wrap(err, "begin record rating")
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx,
		`UPDATE lectures SET updated_at = ? WHERE id = ?`,
		toNanos(time.Now().UTC()), sample.LectureID)
	if err != nil {
		return nil, store.Wrap(err, "lock lecture")
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, store.Wrap(err, "lock lecture")
	} else if n == 0 {
		return nil, store.ErrLectureNotFound(sample.LectureID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ratings (`+ratingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sample.ID,
		sample.LectureID,
		sample.UserID,
		sample.Scores.Difficulty,
		sample.Scores.Importance,
		sample.Scores.Clarity,
		sample.Scores.Usefulness,
		nullString(sample.Comment),
		toNanos(sample.CreatedAt),
	)
	if err != nil {
		return nil, store.Wrap(err, "insert rating")
	}

	var sums domain.ScoreSums
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(difficulty), 0), COALESCE(SUM(importance), 0),
			COALESCE(SUM(clarity), 0), COALESCE(SUM(usefulness), 0)
		FROM ratings WHERE lecture_id = ?`, sample.LectureID,
	).Scan(&sums.Count, &sums.Difficulty, &sums.Importance, &sums.Clarity, &sums.Usefulness)
	if err != nil {
		return nil, store.Wrap(err, "sum ratings")
	}

	agg := sums.Aggregate()
	_, err = tx.ExecContext(ctx, `
		UPDATE lectures SET
			total_ratings = ?,
			avg_difficulty = ?, avg_importance = ?, avg_clarity = ?, avg_usefulness = ?
		WHERE id = ?`,
		sums.Count, agg.Difficulty, agg.Importance, agg.Clarity, agg.Usefulness,
		sample.LectureID,
	)
	if err != nil {
		return nil, store.Wrap(err, "update aggregate")
	}

	updated, err := getLecture(ctx, tx, sample.LectureID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, store.Wrap(err, "commit record rating")
	}

	s.logger.Debug("rating recorded",
		"lecture_id", sample.LectureID,
		"rating_id", sample.ID,
		"total_ratings", updated.TotalRatings,
	)
	return updated, nil
}

// ListRatings returns a lecture's samples, oldest first.
func (s *Store) ListRatings(ctx context.Context, lectureID string) ([]*domain.RatingSample, error) {
	if _, err := getLecture(ctx, s.db, lectureID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ratingColumns+` FROM ratings
		WHERE lecture_id = ?
		ORDER BY created_at, id`, lectureID)
	if err != nil {
		return nil, store.Wrap(err, "list ratings")
	}
	return collectRatings(rows)
}

// RecentRatings returns the newest samples across all lectures.
func (s *Store) RecentRatings(ctx context.Context, limit int) ([]*domain.RatingSample, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ratingColumns+` FROM ratings
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, store.Wrap(err, "recent ratings")
	}
	return collectRatings(rows)
}

func collectRatings(rows *sql.Rows) ([]*domain.RatingSample, error) {
	defer rows.Close()
	var out []*domain.RatingSample
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, store.Wrap(err, "scan rating")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap(err, "read ratings")
	}
	return out, nil
}
