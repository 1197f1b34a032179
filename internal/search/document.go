// Package search provides full-text lecture search using Bleve. It adds
// stemming, fuzzy and prefix matching on top of the plain substring scan in
// the filter package.
package search

import (
	"github.com/spiceapp/spice-server/internal/domain"
)

// Document is the indexed form of a lecture.
type Document struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Lecturer    string   `json:"lecturer,omitempty"`
	Course      string   `json:"course,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	// Unix millis, for sorting.
	UploadedAt int64 `json:"uploaded_at"`
}

// ToMap converts the document to a map keyed by mapped field names.
// Bleve would otherwise index Go field names.
func (d *Document) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":          d.ID,
		"title":       d.Title,
		"uploaded_at": d.UploadedAt,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Lecturer != "" {
		m["lecturer"] = d.Lecturer
	}
	if d.Course != "" {
		m["course"] = d.Course
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	return m
}

// FromLecture builds the document for l.
func FromLecture(l *domain.Lecture) *Document {
	return &Document{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Lecturer:    l.Lecturer,
		Course:      l.Course,
		Tags:        l.Tags,
		UploadedAt:  l.UploadedAt.UnixMilli(),
	}
}
