package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/spiceapp/spice-server/internal/domain"
	"github.com/spiceapp/spice-server/internal/store"
)

// Timestamps are stored as int64 nanoseconds: BSON dates are millisecond
// precision and cursors compare at nanosecond precision.

type aggregateDoc struct {
	Difficulty float64 `bson:"difficulty"`
	Importance float64 `bson:"importance"`
	Clarity    float64 `bson:"clarity"`
	Usefulness float64 `bson:"usefulness"`
}

type lectureDoc struct {
	ID              string       `bson:"_id"`
	Title           string       `bson:"title"`
	Description     string       `bson:"description"`
	Lecturer        string       `bson:"lecturer"`
	Course          string       `bson:"course"`
	Tags            []string     `bson:"tags"`
	DurationSeconds int64        `bson:"duration_seconds"`
	UploadedNs      int64        `bson:"uploaded_ns"`
	ViewCount       int64        `bson:"view_count"`
	TotalRatings    int64        `bson:"total_ratings"`
	Rating          aggregateDoc `bson:"rating"`
	ThumbnailURL    string       `bson:"thumbnail_url,omitempty"`
	Prerequisites   []string     `bson:"prerequisites,omitempty"`
	CreatedNs       int64        `bson:"created_ns"`
	UpdatedNs       int64        `bson:"updated_ns"`
}

type ratingDoc struct {
	ID         string `bson:"_id"`
	LectureID  string `bson:"lecture_id"`
	UserID     string `bson:"user_id"`
	Difficulty int    `bson:"difficulty"`
	Importance int    `bson:"importance"`
	Clarity    int    `bson:"clarity"`
	Usefulness int    `bson:"usefulness"`
	Comment    string `bson:"comment,omitempty"`
	CreatedNs  int64  `bson:"created_ns"`
}

// sumsDoc is the output of sumsPipeline.
type sumsDoc struct {
	Count      int64 `bson:"count"`
	Difficulty int64 `bson:"difficulty"`
	Importance int64 `bson:"importance"`
	Clarity    int64 `bson:"clarity"`
	Usefulness int64 `bson:"usefulness"`
}

func fromNanos(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

func toLectureDoc(l *domain.Lecture) lectureDoc {
	tags := l.Tags
	if tags == nil {
		tags = []string{}
	}
	return lectureDoc{
		ID:              l.ID,
		Title:           l.Title,
		Description:     l.Description,
		Lecturer:        l.Lecturer,
		Course:          l.Course,
		Tags:            tags,
		DurationSeconds: l.DurationSeconds,
		UploadedNs:      l.UploadedAt.UnixNano(),
		ViewCount:       l.ViewCount,
		TotalRatings:    l.TotalRatings,
		Rating:          aggregateDoc(l.Rating),
		ThumbnailURL:    l.ThumbnailURL,
		Prerequisites:   l.Prerequisites,
		CreatedNs:       l.CreatedAt.UnixNano(),
		UpdatedNs:       l.UpdatedAt.UnixNano(),
	}
}

func (d lectureDoc) toDomain() *domain.Lecture {
	l := &domain.Lecture{
		Title:           d.Title,
		Description:     d.Description,
		Lecturer:        d.Lecturer,
		Course:          d.Course,
		Tags:            d.Tags,
		DurationSeconds: d.DurationSeconds,
		UploadedAt:      fromNanos(d.UploadedNs),
		ViewCount:       d.ViewCount,
		TotalRatings:    d.TotalRatings,
		Rating:          domain.AggregateRating(d.Rating),
		ThumbnailURL:    d.ThumbnailURL,
		Prerequisites:   d.Prerequisites,
	}
	l.ID = d.ID
	l.CreatedAt = fromNanos(d.CreatedNs)
	l.UpdatedAt = fromNanos(d.UpdatedNs)
	return l
}

func toRatingDoc(r *domain.RatingSample) ratingDoc {
	return ratingDoc{
		ID:         r.ID,
		LectureID:  r.LectureID,
		UserID:     r.UserID,
		Difficulty: r.Scores.Difficulty,
		Importance: r.Scores.Importance,
		Clarity:    r.Scores.Clarity,
		Usefulness: r.Scores.Usefulness,
		Comment:    r.Comment,
		CreatedNs:  r.CreatedAt.UnixNano(),
	}
}

func (d ratingDoc) toDomain() *domain.RatingSample {
	return &domain.RatingSample{
		ID:        d.ID,
		LectureID: d.LectureID,
		UserID:    d.UserID,
		Scores: domain.Scores{
			Difficulty: d.Difficulty,
			Importance: d.Importance,
			Clarity:    d.Clarity,
			Usefulness: d.Usefulness,
		},
		Comment:   d.Comment,
		CreatedAt: fromNanos(d.CreatedNs),
	}
}

func (d sumsDoc) toDomain() domain.ScoreSums {
	return domain.ScoreSums(d)
}

var (
	catalogSort = bson.D{{Key: "uploaded_ns", Value: -1}, {Key: "_id", Value: -1}}
	recentSort  = bson.D{{Key: "created_ns", Value: -1}, {Key: "_id", Value: -1}}
	oldestFirst = bson.D{{Key: "created_ns", Value: 1}, {Key: "_id", Value: 1}}
)

// afterFilter selects lectures strictly after k in catalog order.
func afterFilter(k *store.Key) bson.D {
	if k == nil {
		return bson.D{}
	}
	ts := k.UploadedAt.UnixNano()
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "uploaded_ns", Value: bson.D{{Key: "$lt", Value: ts}}}},
		bson.D{
			{Key: "uploaded_ns", Value: ts},
			{Key: "_id", Value: bson.D{{Key: "$lt", Value: k.ID}}},
		},
	}}}
}

// sumsPipeline totals a lecture's samples per dimension.
func sumsPipeline(lectureID string) bson.A {
	return bson.A{
		bson.D{{Key: "$match", Value: bson.D{{Key: "lecture_id", Value: lectureID}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "difficulty", Value: bson.D{{Key: "$sum", Value: "$difficulty"}}},
			{Key: "importance", Value: bson.D{{Key: "$sum", Value: "$importance"}}},
			{Key: "clarity", Value: bson.D{{Key: "$sum", Value: "$clarity"}}},
			{Key: "usefulness", Value: bson.D{{Key: "$sum", Value: "$usefulness"}}},
		}}},
	}
}

// touchUpdate bumps updated_ns. It is the first write of a rating
// transaction and claims the lecture document.
func touchUpdate(now time.Time) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{{Key: "updated_ns", Value: now.UnixNano()}}}}
}

// aggregateUpdate installs the aggregate computed from every stored sample.
// It is unconditional: the totals come from the same transaction snapshot.
func aggregateUpdate(sums domain.ScoreSums, now time.Time) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: "total_ratings", Value: sums.Count},
		{Key: "rating", Value: aggregateDoc(sums.Aggregate())},
		{Key: "updated_ns", Value: now.UnixNano()},
	}}}
}
