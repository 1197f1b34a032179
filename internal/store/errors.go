package store

import (
	domainerrors "github.com/spiceapp/spice-server/internal/errors"
)

// ErrLectureNotFound returns the NotFound error for a lecture id.
func ErrLectureNotFound(id string) error {
	return domainerrors.NotFoundf("lecture %s not found", id)
}

// ErrLectureExists returns the AlreadyExists error for a lecture id.
func ErrLectureExists(id string) error {
	return domainerrors.AlreadyExistsf("lecture %s already exists", id)
}

// Wrap converts a backend failure into a Persistence error. Domain errors
// pass through unchanged so NotFound survives a transaction callback.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	var derr *domainerrors.Error
	if domainerrors.As(err, &derr) {
		return err
	}
	return domainerrors.Persistence(err, op)
}
