package iocache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/conceptrace/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStore_NoneBackend(t *testing.T) {
	store, err := NewRunStore(schema.NoneBackend, "")
	require.NoError(t, err)
	require.NotNil(t, store)

	// BeginRun should return 0 for NoneBackend
	runID, err := store.BeginRun("bank", time.Now(), map[string]any{"test": "value"})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), runID)

	assert.NoError(t, store.EndRun(1, schema.RunSummary{EndTime: time.Now()}))

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	assert.NoError(t, store.Close())
}

func TestRunStore_SQLite(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	startTime := time.Now()
	params := map[string]any{"algorithm": "cosine", "exhaustive": false}
	runID, err := store.BeginRun("bank", startTime, params)
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	err = store.EndRun(runID, schema.RunSummary{
		EndTime:       startTime.Add(250 * time.Millisecond),
		TotalMethods:  4,
		TotalConcepts: 3,
		TotalMatches:  7,
	})
	require.NoError(t, err)

	// A second run that never finished
	_, err = store.BeginRun("bank", startTime.Add(time.Minute), nil)
	require.NoError(t, err)

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)

	first := runs[0]
	assert.Equal(t, runID, first.RunID)
	assert.Equal(t, "bank", first.Project)
	_, err = uuid.Parse(first.RunUUID)
	assert.NoError(t, err)
	assert.NotEqual(t, first.RunUUID, runs[1].RunUUID)
	assert.WithinDuration(t, startTime, first.StartTime, time.Microsecond)
	require.NotNil(t, first.EndTime)
	require.NotNil(t, first.RunDurationMs)
	assert.Equal(t, int32(250), *first.RunDurationMs)
	assert.Equal(t, int32(4), first.TotalMethods)
	assert.Equal(t, int32(3), first.TotalConcepts)
	assert.Equal(t, int32(7), first.TotalMatches)
	require.NotNil(t, first.ConfigParams)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(*first.ConfigParams), &decoded))
	assert.Equal(t, "cosine", decoded["algorithm"])

	assert.Nil(t, runs[1].EndTime)
	assert.Nil(t, runs[1].RunDurationMs)
}

func TestRunStore_EndUnknownRun(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Error(t, store.EndRun(42, schema.RunSummary{EndTime: time.Now()}))
}

func TestRunStore_Status(t *testing.T) {
	store, err := NewRunStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	t.Run("empty", func(t *testing.T) {
		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.True(t, status.Connected)
		assert.Equal(t, 0, status.TotalRuns)
		assert.Equal(t, int64(0), status.TableSizes[matchRunsTable])
	})

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, matches := range []int{3, 5} {
		start := base.Add(time.Duration(i) * time.Hour)
		id, err := store.BeginRun("bank", start, nil)
		require.NoError(t, err)
		require.NoError(t, store.EndRun(id, schema.RunSummary{EndTime: start.Add(time.Second), TotalMatches: matches}))
	}

	t.Run("populated", func(t *testing.T) {
		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", status.Backend)
		assert.Equal(t, 2, status.TotalRuns)
		assert.Equal(t, int64(2), status.LastRunID)
		assert.True(t, base.Add(time.Hour).Equal(status.LastRunTime))
		assert.True(t, base.Equal(status.OldestRunTime))
		assert.Equal(t, int64(8), status.TotalMatches)
		assert.Equal(t, int64(2), status.TableSizes[matchRunsTable])
	})
}
