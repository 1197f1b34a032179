package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spiceapp/spice-server/internal/store"
	"github.com/spiceapp/spice-server/internal/store/storetest"
)

func TestBadger(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := store.Open(t.TempDir(), nil)
		require.NoError(t, err)
		return s
	}, storetest.Options{})
}

func TestBadgerInMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := store.OpenInMemory(nil)
		require.NoError(t, err)
		return s
	}, storetest.Options{})
}
