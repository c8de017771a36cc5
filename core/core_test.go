package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/huangsam/conceptrace/internal/iocache"
	"github.com/huangsam/conceptrace/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig() *contract.Config {
	return &contract.Config{
		Project:       "bank",
		ResultLimit:   50,
		Workers:       2,
		Precision:     3,
		Output:        schema.JSONOut,
		Algorithm:     schema.CosineAlgorithm,
		Stemmer:       schema.NoStemmer,
		FullWeight:    1.0,
		TrimHungarian: true,
		Segments:      2,
		StoreBackend:  schema.SQLiteBackend,
	}
}

// mockStores wires a model store and an optional run store into a manager.
func mockStores(runs contract.RunStore) (*iocache.MockStoreManager, *iocache.MockModelStore) {
	store := &iocache.MockModelStore{}
	mgr := &iocache.MockStoreManager{}
	mgr.On("GetModelStore").Return(store)
	mgr.On("GetRunStore").Return(runs)
	return mgr, store
}

func TestComputeMatches(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	model, ontology := bankModel()

	t.Run("stores and enriches matches", func(t *testing.T) {
		mgr, store := mockStores(nil)
		store.On("GetSourceModel", "bank").Return(model, nil)
		store.On("GetOntology", "bank").Return(ontology, nil)
		store.On("ReplaceMatches", "bank", mock.MatchedBy(func(records []schema.MatchRecord) bool {
			return len(records) > 0
		})).Return(nil)

		results, err := ComputeMatches(ctx, testConfig(), mgr, nil)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		for _, r := range results {
			assert.NotEmpty(t, r.ClassName)
			assert.NotEmpty(t, r.ConceptName)
		}
		store.AssertExpectations(t)
	})

	t.Run("tracks the run", func(t *testing.T) {
		runs := &iocache.MockRunStore{}
		runs.On("BeginRun", "bank", mock.Anything, mock.MatchedBy(func(params map[string]any) bool {
			return params["algorithm"] == "cosine"
		})).Return(int64(7), nil)
		runs.On("EndRun", int64(7), mock.MatchedBy(func(s schema.RunSummary) bool {
			return s.TotalMethods == 3 && s.TotalConcepts == 3 && s.TotalMatches > 0
		})).Return(nil)

		mgr, store := mockStores(runs)
		store.On("GetSourceModel", "bank").Return(model, nil)
		store.On("GetOntology", "bank").Return(ontology, nil)
		store.On("ReplaceMatches", "bank", mock.Anything).Return(nil)

		_, err := ComputeMatches(ctx, testConfig(), mgr, nil)
		require.NoError(t, err)
		runs.AssertExpectations(t)
	})

	t.Run("run tracking failure is not fatal", func(t *testing.T) {
		runs := &iocache.MockRunStore{}
		runs.On("BeginRun", "bank", mock.Anything, mock.Anything).Return(int64(0), errors.New("locked"))

		mgr, store := mockStores(runs)
		store.On("GetSourceModel", "bank").Return(model, nil)
		store.On("GetOntology", "bank").Return(ontology, nil)
		store.On("ReplaceMatches", "bank", mock.Anything).Return(nil)

		_, err := ComputeMatches(ctx, testConfig(), mgr, nil)
		require.NoError(t, err)
		runs.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		mgr, store := mockStores(nil)
		store.On("GetSourceModel", "bank").Return(schema.SourceModel{}, contract.ErrStoreUnavailable)
		store.On("GetOntology", "bank").Return(ontology, nil)

		_, err := ComputeMatches(ctx, testConfig(), mgr, nil)
		assert.ErrorIs(t, err, contract.ErrStoreUnavailable)
	})

	t.Run("no model store", func(t *testing.T) {
		mgr := &iocache.MockStoreManager{}
		mgr.On("GetModelStore").Return(nil)
		_, err := ComputeMatches(ctx, testConfig(), mgr, nil)
		assert.ErrorIs(t, err, ErrNoModelStore)
	})
}

func TestGetMatchResults(t *testing.T) {
	ctx := context.Background()
	model, ontology := bankModel()

	mgr, store := mockStores(nil)
	store.On("GetSourceModel", "bank").Return(model, nil)
	store.On("GetOntology", "bank").Return(ontology, nil)
	store.On("GetMatches", "bank").Return([]schema.MatchRecord{
		{MethodID: 11, ConceptID: 101, Weight: 0.5},
		{MethodID: 10, ConceptID: 100, Weight: 1},
		{MethodID: 99, ConceptID: 100, Weight: 0.9}, // dangling method
	}, nil)

	cfg := testConfig()
	results, err := GetMatchResults(ctx, cfg, mgr)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(10), results[0].MethodID)
	assert.Equal(t, "OpenAccount", results[0].ConceptName)

	t.Run("limit", func(t *testing.T) {
		cfg.ResultLimit = 1
		results, err := GetMatchResults(ctx, cfg, mgr)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})
}

func TestGetTimeSeries(t *testing.T) {
	ctx := context.Background()
	model, ontology := bankModel()

	mgr, store := mockStores(nil)
	store.On("GetSourceModel", "bank").Return(model, nil)
	store.On("GetOntology", "bank").Return(ontology, nil)
	store.On("GetMatches", "bank").Return([]schema.MatchRecord{
		{MethodID: 10, ConceptID: 100, Weight: 1},
		{MethodID: 11, ConceptID: 101, Weight: 0.5},
	}, nil)
	store.On("GetTraces", "bank", "open").Return([]schema.Trace{
		{SequenceNumber: 1, Entering: true, MethodID: 10},
		{SequenceNumber: 2, Entering: false, MethodID: 10},
		{SequenceNumber: 3, Entering: true, MethodID: 11},
		{SequenceNumber: 4, Entering: true, MethodID: 20},
	}, nil)

	cfg := testConfig()
	cfg.Scenario = "open"

	series, err := GetTimeSeries(ctx, cfg, mgr)
	require.NoError(t, err)
	assert.Equal(t, "open", series.Scenario)
	assert.Equal(t, []schema.ConceptRef{{ID: 100, Name: "OpenAccount"}, {ID: 101, Name: "Account"}}, series.Concepts)
	assert.Equal(t, 2, series.Total())

	t.Run("concept filter skips unknown names", func(t *testing.T) {
		cfg := testConfig()
		cfg.Scenario = "open"
		cfg.Concepts = []string{"Account", "Nope"}
		series, err := GetTimeSeries(ctx, cfg, mgr)
		require.NoError(t, err)
		assert.Equal(t, []schema.ConceptRef{{ID: 101, Name: "Account"}}, series.Concepts)
		assert.Equal(t, 1, series.Total())
	})

	t.Run("invalid segment count", func(t *testing.T) {
		cfg := testConfig()
		cfg.Scenario = "open"
		cfg.Segments = 0
		_, err := GetTimeSeries(ctx, cfg, mgr)
		assert.Error(t, err)
	})
}

func TestGetTokenResults(t *testing.T) {
	cfg := testConfig()
	results := GetTokenResults(cfg, []string{"m_strOwnerName", "___"})
	require.Len(t, results, 2)
	assert.Equal(t, []string{"owner", "name"}, results[0].Terms)
	assert.Equal(t, []string{}, results[1].Terms)
}

func TestExecuteImport(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	doc := filepath.Join(dir, "bank.yaml")
	require.NoError(t, os.WriteFile(doc, []byte(`project: bank
classes:
  - name: Account
    methods:
      - name: deposit
concepts:
  - name: Deposit
`), 0o600))

	t.Run("model", func(t *testing.T) {
		mgr, store := mockStores(nil)
		store.On("ImportProject", "bank", mock.Anything, mock.Anything).Return(nil)
		cfg := testConfig()
		cfg.Project = ""
		require.NoError(t, ExecuteImportModel(ctx, cfg, mgr, doc))
		store.AssertExpectations(t)
	})

	traces := filepath.Join(dir, "open.csv")
	require.NoError(t, os.WriteFile(traces, []byte("sequence_number,entering,method_id\n2,false,1\n1,true,1\n"), 0o600))

	t.Run("traces", func(t *testing.T) {
		mgr, store := mockStores(nil)
		store.On("ReplaceTraces", "bank", "open", mock.MatchedBy(func(ts []schema.Trace) bool {
			return len(ts) == 2 && ts[0].SequenceNumber == 1
		})).Return(nil)
		cfg := testConfig()
		cfg.Scenario = "open"
		require.NoError(t, ExecuteImportTraces(ctx, cfg, mgr, traces))
		store.AssertExpectations(t)
	})

	t.Run("traces need a scenario", func(t *testing.T) {
		mgr, _ := mockStores(nil)
		assert.Error(t, ExecuteImportTraces(ctx, testConfig(), mgr, traces))
	})
}
