package core

import (
	"testing"

	"github.com/huangsam/conceptrace/core/algo"
	"github.com/huangsam/conceptrace/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bankModel is a small source model used across engine tests.
func bankModel() (schema.SourceModel, schema.Ontology) {
	model := schema.SourceModel{Classes: []schema.SourceClass{
		{ID: 1, Name: "AccountService", Methods: []schema.SourceMethod{
			{ID: 10, Name: "openAccount", Signature: "openAccount()"},
			{ID: 11, Name: "closeAccount", Signature: "closeAccount(long)", Parameters: []schema.SourceParameter{{Name: "accountId", Type: "long"}}},
		}},
		{ID: 2, Name: "Printer", Methods: []schema.SourceMethod{
			{ID: 20, Name: "flushQueue", Signature: "flushQueue()"},
		}},
	}}
	ontology := schema.Ontology{Concepts: []schema.Concept{
		{ID: 100, Name: "OpenAccount"},
		{ID: 101, Name: "Account", Attributes: []schema.ConceptAttribute{{Name: "balance"}}},
		{ID: 102, Name: "Customer"},
	}}
	return model, ontology
}

func TestEngineMatch(t *testing.T) {
	model, ontology := bankModel()
	engine := NewEngine(EngineOptions{Workers: 2})

	records, err := engine.Match(model, ontology)
	require.NoError(t, err)

	byPair := map[[2]int64]schema.MatchRecord{}
	for _, r := range records {
		byPair[[2]int64{r.MethodID, r.ConceptID}] = r
		assert.Greater(t, r.Weight, 0.0)
		assert.LessOrEqual(t, r.Weight, 1.0)
	}

	t.Run("identical surfaces score one", func(t *testing.T) {
		r, ok := byPair[[2]int64{10, 100}]
		require.True(t, ok)
		assert.InDelta(t, 1.0, r.Weight, 1e-12)
		assert.Equal(t, []string{"account", "open", "openaccount"}, r.Terms)
	})

	t.Run("disjoint surfaces are omitted", func(t *testing.T) {
		_, ok := byPair[[2]int64{20, 101}]
		assert.False(t, ok)
		_, ok = byPair[[2]int64{10, 102}]
		assert.False(t, ok)
	})

	t.Run("partial overlap scores in between", func(t *testing.T) {
		r, ok := byPair[[2]int64{11, 101}]
		require.True(t, ok)
		assert.Greater(t, r.Weight, 0.0)
		assert.Less(t, r.Weight, 1.0)
	})
}

func TestEngineIdentityWithHungarianTrim(t *testing.T) {
	engine := NewEngine(EngineOptions{
		Stems:   StemOptions{FullWeight: 1, TrimHungarian: true},
		Workers: 2,
	})

	for _, name := range []string{"addItem", "isValid", "dataValue", "showPanel", "getBalance", "m_strOwnerName", "CAccount"} {
		t.Run(name, func(t *testing.T) {
			model := schema.SourceModel{Classes: []schema.SourceClass{
				{ID: 1, Name: "Widget", Methods: []schema.SourceMethod{{ID: 10, Name: name, Signature: name + "()"}}},
			}}
			ontology := schema.Ontology{Concepts: []schema.Concept{{ID: 100, Name: name}}}

			records, err := engine.Match(model, ontology)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.InDelta(t, 1.0, records[0].Weight, 1e-12)
		})
	}

	t.Run("plain camel case keeps its first word", func(t *testing.T) {
		methods, _ := engine.BuildTrees(schema.SourceModel{Classes: []schema.SourceClass{
			{ID: 1, Name: "Cart", Methods: []schema.SourceMethod{{ID: 10, Name: "addItem"}}},
		}}, schema.Ontology{})
		require.Len(t, methods, 1)
		root := methods[0].Roots()[0]
		assert.Equal(t, "additem", methods[0].Nodes[root].Term)
	})
}

func TestEngineAlgorithms(t *testing.T) {
	model, ontology := bankModel()

	score := func(t *testing.T, alg schema.Algorithm) map[[2]int64]float64 {
		records, err := NewEngine(EngineOptions{Score: algo.ScoreOptions{Algorithm: alg}, Workers: 2}).Match(model, ontology)
		require.NoError(t, err)
		out := map[[2]int64]float64{}
		for _, r := range records {
			assert.Greater(t, r.Weight, 0.0)
			assert.LessOrEqual(t, r.Weight, 1.0)
			out[[2]int64{r.MethodID, r.ConceptID}] = r.Weight
		}
		return out
	}

	for _, alg := range []schema.Algorithm{schema.TFIDFAlgorithm, schema.WeightedTFIDFAlgorithm} {
		t.Run(string(alg), func(t *testing.T) {
			byPair := score(t, alg)
			assert.InDelta(t, 1.0, byPair[[2]int64{10, 100}], 1e-12)
			_, ok := byPair[[2]int64{20, 101}]
			assert.False(t, ok)
		})
	}

	t.Run("levenshtein", func(t *testing.T) {
		byPair := score(t, schema.LevenshteinAlgorithm)
		assert.Greater(t, byPair[[2]int64{10, 100}], byPair[[2]int64{10, 102}])
		assert.Greater(t, byPair[[2]int64{11, 101}], byPair[[2]int64{20, 101}])
	})
}

func TestEngineMatchExhaustive(t *testing.T) {
	model, ontology := bankModel()
	engine := NewEngine(EngineOptions{Score: algo.ScoreOptions{Exhaustive: true}})

	records, err := engine.Match(model, ontology)
	require.NoError(t, err)
	assert.Len(t, records, 3*3)
	for _, r := range records {
		if r.MethodID == 20 {
			assert.Zero(t, r.Weight)
			assert.Empty(t, r.Terms)
		}
	}
}

func TestEngineDeterminism(t *testing.T) {
	model, ontology := bankModel()
	cache, err := NewStemCache(16)
	require.NoError(t, err)

	baseline, err := NewEngine(EngineOptions{Workers: 1}).Match(model, ontology)
	require.NoError(t, err)

	for _, opts := range []EngineOptions{
		{Workers: 8},
		{Workers: 3, Cache: cache},
		{Workers: 3, Cache: cache}, // second run is served from the cache
	} {
		records, err := NewEngine(opts).Match(model, ontology)
		require.NoError(t, err)
		assert.Equal(t, baseline, records)
	}
	assert.Equal(t, 6, cache.Len())
}

func TestEngineUnknownAlgorithm(t *testing.T) {
	model, ontology := bankModel()
	_, err := NewEngine(EngineOptions{Score: algo.ScoreOptions{Algorithm: "jaccard"}}).Match(model, ontology)
	assert.ErrorIs(t, err, algo.ErrUnknownAlgorithm)
}

func TestEngineEmptyProject(t *testing.T) {
	records, err := NewEngine(EngineOptions{}).Match(schema.SourceModel{}, schema.Ontology{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestEnrichMatches(t *testing.T) {
	model, ontology := bankModel()
	records := []schema.MatchRecord{
		{MethodID: 10, ConceptID: 100, Weight: 1},
		{MethodID: 99, ConceptID: 100, Weight: 0.5}, // unknown method
		{MethodID: 11, ConceptID: 999, Weight: 0.5}, // unknown concept
		{MethodID: 20, ConceptID: 102, Weight: 0.1},
	}

	results := EnrichMatches(records, model, ontology)
	require.Len(t, results, 2)
	assert.Equal(t, schema.MatchResult{
		MethodID:        10,
		ClassID:         1,
		ClassName:       "AccountService",
		MethodSignature: "openAccount()",
		ConceptID:       100,
		ConceptName:     "OpenAccount",
		Weight:          1,
	}, results[0])
	assert.Equal(t, "Printer", results[1].ClassName)
	assert.Equal(t, "Customer", results[1].ConceptName)
}
