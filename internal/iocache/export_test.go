package iocache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/conceptrace/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteRunsExport(t *testing.T) {
	t.Run("requires output file", func(t *testing.T) {
		err := ExecuteRunsExport(&MockRunStore{}, "")
		assert.ErrorContains(t, err, "--output-file")
	})

	t.Run("requires store", func(t *testing.T) {
		err := ExecuteRunsExport(nil, "out")
		assert.Error(t, err)
	})

	t.Run("status failure", func(t *testing.T) {
		store := &MockRunStore{}
		store.On("GetStatus").Return(schema.RunStatus{}, errors.New("boom"))
		err := ExecuteRunsExport(store, "out")
		assert.ErrorContains(t, err, "boom")
		store.AssertExpectations(t)
	})

	t.Run("no runs", func(t *testing.T) {
		store := &MockRunStore{}
		store.On("GetStatus").Return(schema.RunStatus{Backend: "sqlite", Connected: true}, nil)
		err := ExecuteRunsExport(store, "out")
		assert.ErrorContains(t, err, "no run data")
	})

	t.Run("writes parquet", func(t *testing.T) {
		store := &MockRunStore{}
		store.On("GetStatus").Return(schema.RunStatus{Backend: "sqlite", Connected: true, TotalRuns: 1}, nil)
		store.On("GetAllRuns").Return([]schema.MatchRunRecord{
			{RunID: 1, RunUUID: "abc", Project: "bank", StartTime: time.Now(), TotalMatches: 3},
		}, nil)

		base := filepath.Join(t.TempDir(), "export")
		require.NoError(t, ExecuteRunsExport(store, base))

		info, err := os.Stat(base + ".match_runs.parquet")
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
		store.AssertExpectations(t)
	})
}

func TestClearBackends(t *testing.T) {
	t.Run("sqlite removes file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "store.db")
		store, err := NewModelStore(schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearStore(schema.SQLiteBackend, dbPath, ""))
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))

		// Clearing twice is fine
		assert.NoError(t, ClearStore(schema.SQLiteBackend, dbPath, ""))
	})

	t.Run("sqlite needs a path", func(t *testing.T) {
		assert.Error(t, ClearRuns(schema.SQLiteBackend, "", ""))
	})

	t.Run("none is a no-op", func(t *testing.T) {
		assert.NoError(t, ClearStore(schema.NoneBackend, "", ""))
		assert.NoError(t, ClearRuns(schema.NoneBackend, "", ""))
	})

	t.Run("unsupported", func(t *testing.T) {
		assert.Error(t, ClearRuns(schema.DatabaseBackend("oracle"), "", ""))
	})
}

func TestStoreManager(t *testing.T) {
	model := &MockModelStore{}
	runs := &MockRunStore{}
	mgr := &StoreManagerImpl{model: model, runs: runs}

	assert.Same(t, model, mgr.GetModelStore())
	assert.Same(t, runs, mgr.GetRunStore())
}
