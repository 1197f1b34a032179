package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spiceapp/spice-server/internal/domain"
	"github.com/spiceapp/spice-server/internal/store"
)

// lectureColumns is the ordered list of columns selected in lecture queries.
// Must match the scan order in scanLecture.
const lectureColumns = `id, title, description, lecturer, course, tags, duration_seconds,
	uploaded_at, view_count, total_ratings,
	avg_difficulty, avg_importance, avg_clarity, avg_usefulness,
	thumbnail_url, prerequisites, created_at, updated_at`

func scanLecture(scanner interface{ Scan(dest ...any) error }) (*domain.Lecture, error) {
	var l domain.Lecture

	var (
		tagsJSON    string
		prereqsJSON string
		thumbnail   sql.NullString
		uploadedAt  int64
		createdAt   int64
		updatedAt   int64
	)

	err := scanner.Scan(
		&l.ID,
		&l.Title,
		&l.Description,
		&l.Lecturer,
		&l.Course,
		&tagsJSON,
		&l.DurationSeconds,
		&uploadedAt,
		&l.ViewCount,
		&l.TotalRatings,
		&l.Rating.Difficulty,
		&l.Rating.Importance,
		&l.Rating.Clarity,
		&l.Rating.Usefulness,
		&thumbnail,
		&prereqsJSON,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tagsJSON), &l.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if err := json.Unmarshal([]byte(prereqsJSON), &l.Prerequisites); err != nil {
		return nil, fmt.Errorf("unmarshal prerequisites: %w", err)
	}
	if len(l.Prerequisites) == 0 {
		l.Prerequisites = nil
	}
	l.ThumbnailURL = thumbnail.String
	l.UploadedAt = fromNanos(uploadedAt)
	l.CreatedAt = fromNanos(createdAt)
	l.UpdatedAt = fromNanos(updatedAt)

	return &l, nil
}

func marshalList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CreateLecture inserts a new lecture with zeroed statistics.
func (s *Store) CreateLecture(ctx context.Context, l *domain.Lecture) error {
	l.ResetStats()

	tagsJSON, err := marshalList(l.Tags)
	if err != nil {
		return store.Wrap(err, "marshal tags")
	}
	prereqsJSON, err := marshalList(l.Prerequisites)
	if err != nil {
		return store.Wrap(err, "marshal prerequisites")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO lectures (
			id, title, description, lecturer, course, tags, duration_seconds,
			uploaded_at, thumbnail_url, prerequisites, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID,
		l.Title,
		l.Description,
		l.Lecturer,
		l.Course,
		tagsJSON,
		l.DurationSeconds,
		toNanos(l.UploadedAt),
		nullString(l.ThumbnailURL),
		prereqsJSON,
		toNanos(l.CreatedAt),
		toNanos(l.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrLectureExists(l.ID)
		}
		return store.Wrap(err, "create lecture")
	}

	s.logger.Debug("lecture created", "id", l.ID)
	return nil
}

// GetLecture retrieves a lecture by id.
func (s *Store) GetLecture(ctx context.Context, id string) (*domain.Lecture, error) {
	return getLecture(ctx, s.db, id)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getLecture(ctx context.Context, q querier, id string) (*domain.Lecture, error) {
	row := q.QueryRowContext(ctx, `SELECT `+lectureColumns+` FROM lectures WHERE id = ?`, id)
	l, err := scanLecture(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrLectureNotFound(id)
	}
	if err != nil {
		return nil, store.Wrap(err, "get lecture")
	}
	return l, nil
}

// ListLectures returns lectures in catalog order strictly after the key.
func (s *Store) ListLectures(ctx context.Context, after *store.Key, limit int) ([]*domain.Lecture, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	var (
		rows *sql.Rows
		err  error
	)
	if after == nil {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+lectureColumns+` FROM lectures
			ORDER BY uploaded_at DESC, id DESC
			LIMIT ?`, limit)
	} else {
		ts := toNanos(after.UploadedAt)
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+lectureColumns+` FROM lectures
			WHERE uploaded_at < ? OR (uploaded_at = ? AND id < ?)
			ORDER BY uploaded_at DESC, id DESC
			LIMIT ?`, ts, ts, after.ID, limit)
	}
	if err != nil {
		return nil, store.Wrap(err, "list lectures")
	}
	defer rows.Close()

	var out []*domain.Lecture
	for rows.Next() {
		l, err := scanLecture(rows)
		if err != nil {
			return nil, store.Wrap(err, "scan lecture")
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap(err, "list lectures")
	}
	return out, nil
}

// CountLectures returns the number of lectures.
func (s *Store) CountLectures(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lectures`).Scan(&n); err != nil {
		return 0, store.Wrap(err, "count lectures")
	}
	return n, nil
}

// IncrementViewCount adds one view and returns the new count.
func (s *Store) IncrementViewCount(ctx context.Context, id string) (int64, error) {
	var views int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE lectures SET view_count = view_count + 1
		WHERE id = ?
		RETURNING view_count`, id).Scan(&views)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.ErrLectureNotFound(id)
	}
	if err != nil {
		return 0, store.Wrap(err, "increment view count")
	}
	return views, nil
}
