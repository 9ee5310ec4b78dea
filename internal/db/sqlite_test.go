package db

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		mode       Mode
		wantTxLock bool
	}{
		{ModeWrite, true},
		{ModeRead, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.mode), func(t *testing.T) {
			dsn := buildDSN("/tmp/graphs.sqlite", tc.mode)
			assert.True(t, strings.HasPrefix(dsn, "/tmp/graphs.sqlite?"))
			assert.Contains(t, dsn, "_journal_mode=WAL")
			assert.Contains(t, dsn, "_busy_timeout=5000")
			assert.Contains(t, dsn, "_synchronous=NORMAL")
			if tc.wantTxLock {
				assert.Contains(t, dsn, "_txlock=immediate")
			} else {
				assert.NotContains(t, dsn, "_txlock")
			}
		})
	}
}

func TestOpenSQLite_Errors(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "g.db"), Mode("bogus"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SQLite mode")

	_, err = OpenSQLite("", ModeWrite, 0)
	require.Error(t, err)

	_, err = OpenSQLite("/nonexistent/dir/g.db", ModeWrite, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping sqlite")
}

func TestOpen_PoolSizes(t *testing.T) {
	pool, err := Open(filepath.Join(t.TempDir(), "g.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })

	assert.Equal(t, 1, pool.Write.Stats().MaxOpenConnections)
	assert.Equal(t, 4, pool.Read.Stats().MaxOpenConnections)

	var journalMode string
	require.NoError(t, pool.Read.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", strings.ToLower(journalMode))
}

func TestRunMigrations(t *testing.T) {
	pool := OpenTestSQLite(t)
	ctx := context.Background()

	v, err := SchemaVersion(ctx, pool.Write)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	// Re-running is a no-op.
	require.NoError(t, RunMigrations(ctx, pool.Write))

	var n int
	require.NoError(t, pool.Read.QueryRow("SELECT count(*) FROM graphs").Scan(&n))
	assert.Zero(t, n)
}

func TestPool_ConcurrentReadsDuringWrites(t *testing.T) {
	pool := OpenTestSQLite(t)

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range 16 {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if idx%2 == 0 {
				_, errs[idx] = pool.Write.Exec(
					"INSERT INTO graphs (id, name, created_at, updated_at) VALUES (?, 'g', 0, 0)",
					"g-"+string(rune('a'+idx)))
				return
			}
			var n int
			errs[idx] = pool.Read.QueryRow("SELECT count(*) FROM graphs").Scan(&n)
		}(i)
	}
	wg.Wait()

	for i, e := range errs {
		assert.NoError(t, e, "worker %d", i)
	}
}
