package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/stats"
	"github.com/elliothacker33/1755-Tsunami-Sci-Viz---VC/internal/storage"
)

func TestStoreStats(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "_stats")
	s := New(dir)
	defer s.Close()
	_, err := os.Stat(dir)
	require.True(t, os.IsNotExist(err))

	r := stats.Record{Step: 4, Time: 1200, MaxEta: 3.5}
	require.NoError(t, s.StoreStats(context.Background(), storage.Run{ID: "x"}, r))

	data, err := os.ReadFile(filepath.Join(dir, "stats_step_0004.txt"))
	require.NoError(t, err)
	assert.Equal(t, stats.Format(r), string(data))

	r.MaxEta = 1
	require.NoError(t, s.StoreStats(context.Background(), storage.Run{ID: "x"}, r))
	data, err = os.ReadFile(s.Path(4))
	require.NoError(t, err)
	assert.Equal(t, stats.Format(r), string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStoreStatsCancelled(t *testing.T) {
	s := New(t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.StoreStats(ctx, storage.Run{}, stats.Record{}), context.Canceled)
}

func TestStoreStatsUnusableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	s := New(filepath.Join(file, "_stats"))

	assert.Error(t, s.StoreStats(context.Background(), storage.Run{}, stats.Record{Step: 1}))
}
