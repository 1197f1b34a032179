package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiceapp/spice-server/internal/store"
	"github.com/spiceapp/spice-server/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	require.NoError(t, err)
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	}, storetest.Options{})
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)
	t.Cleanup(func() { s.Close() })

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var fk int
	require.NoError(t, s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	for _, table := range []string{"lectures", "ratings"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestOpenClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(dbPath, nil)
	require.NoError(t, err)
	require.NoError(t, s.CreateLecture(context.Background(), storetest.Lecture("lec-1", 0)))
	require.NoError(t, s.Close())

	// Schema is idempotent and data survives a reopen.
	s2, err := Open(dbPath, nil)
	require.NoError(t, err)
	defer s2.Close()

	l, err := s2.GetLecture(context.Background(), "lec-1")
	require.NoError(t, err)
	assert.Equal(t, "Lecture lec-1", l.Title)
}

func TestRecordRating_RejectsOutOfRangeScores(t *testing.T) {
	s := newTestStore(t)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()
	require.NoError(t, s.CreateLecture(ctx, storetest.Lecture("lec-1", 0)))

	_, err := s.RecordRating(ctx, storetest.Sample("rat-1", "lec-1", storetest.Epoch, 6, 1, 1, 1))
	require.Error(t, err)

	l, err := s.GetLecture(ctx, "lec-1")
	require.NoError(t, err)
	assert.Zero(t, l.TotalRatings, "failed transaction must not touch the aggregate")
}
