// Package domain contains the catalog's entities: lectures, rating samples
// and the values derived from them.
package domain

import (
	"slices"
	"time"
)

// Lecture is a cataloged recorded session with its rating statistics.
//
// ViewCount, TotalRatings and Rating are owned by the store: callers never
// set them directly, they change only through RecordRating and
// IncrementViewCount.
type Lecture struct {
	Record
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Lecturer        string          `json:"lecturer"`
	Course          string          `json:"course"`
	Tags            []string        `json:"tags"`
	DurationSeconds int64           `json:"duration_seconds"`
	UploadedAt      time.Time       `json:"uploaded_at"`
	ViewCount       int64           `json:"view_count"`
	TotalRatings    int64           `json:"total_ratings"`
	Rating          AggregateRating `json:"average_rating"`
	ThumbnailURL    string          `json:"thumbnail_url,omitempty"`
	Prerequisites   []string        `json:"prerequisites,omitempty"`
}

// Rated reports whether at least one sample has been recorded.
func (l *Lecture) Rated() bool {
	return l.TotalRatings > 0
}

// ResetStats zeroes the store-owned counters. Used when a lecture is created.
func (l *Lecture) ResetStats() {
	l.ViewCount = 0
	l.TotalRatings = 0
	l.Rating = AggregateRating{}
}

// Clone returns a deep copy of l.
func (l *Lecture) Clone() *Lecture {
	if l == nil {
		return nil
	}
	c := *l
	c.Tags = slices.Clone(l.Tags)
	c.Prerequisites = slices.Clone(l.Prerequisites)
	return &c
}

// Before reports whether l sorts before other in catalog order:
// newest upload first, ties broken by id descending.
func (l *Lecture) Before(other *Lecture) bool {
	if !l.UploadedAt.Equal(other.UploadedAt) {
		return l.UploadedAt.After(other.UploadedAt)
	}
	return l.ID > other.ID
}

// ScoreResult holds the derived ranking scores for a lecture.
// It is recomputed on every read and never stored.
type ScoreResult struct {
	Spice       float64 `json:"spice"`
	Recommended float64 `json:"recommended"`
	Quality     float64 `json:"quality"`
	// Rated is false when the lecture has no samples; both scores are then 0
	// and must be shown as "unrated", not as a low score.
	Rated bool `json:"rated"`
}

// ScoredLecture pairs a lecture with its scores.
type ScoredLecture struct {
	Lecture *Lecture    `json:"lecture"`
	Scores  ScoreResult `json:"scores"`
}
