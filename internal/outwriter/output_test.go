package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/huangsam/conceptrace/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMatches() []schema.MatchResult {
	return []schema.MatchResult{
		{MethodID: 20, ClassID: 2, ClassName: "Account", MethodSignature: "deposit(amount: Money)",
			ConceptID: 5, ConceptName: "Deposit", Weight: 0.8, Terms: []string{"amount", "deposit"}},
		{MethodID: 21, ClassID: 2, ClassName: "Account", MethodSignature: "close()",
			ConceptID: 6, ConceptName: "Account", Weight: 0.3},
	}
}

func sampleSeries() schema.TimeSeries {
	return schema.TimeSeries{
		Scenario:     "deposit",
		Concepts:     []schema.ConceptRef{{ID: 5, Name: "Deposit"}, {ID: 6, Name: "Account"}},
		SegmentCount: 2,
		Segments:     []schema.Segment{{Index: 0, StartSeq: 1, EndSeq: 2}, {Index: 1, StartSeq: 3, EndSeq: 4}},
		Matrix:       [][]int{{2, 0}, {1, 1}},
		Weights:      []float64{0.8, 0.3},
	}
}

func sampleTree() schema.StemTree {
	return schema.StemTree{
		Owner: schema.MethodOwner, OwnerID: 20, Name: "deposit(amount: Money)",
		Nodes: []schema.StemNode{
			{Term: "deposit", Kind: schema.MethodFull, Weight: 1, Parent: schema.NoParent},
			{Term: "deposit", Kind: schema.MethodPart, Weight: 1, Parent: 0},
			{Term: "balance", Kind: schema.ReferenceNameFull, Weight: 1, Parent: schema.NoParent, Origin: schema.FieldOrigin},
		},
	}
}

// fileOutput writes through the given function and returns what landed in the file.
func fileOutput(t *testing.T, output schema.OutputMode, write func(cfg *contract.Config) error) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out")
	cfg := &contract.Config{Output: output, OutputFile: path, Precision: 2, Width: 120, Workers: 2, StoreBackend: schema.SQLiteBackend}
	require.NoError(t, write(cfg))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteMatchResults(t *testing.T) {
	t.Run("json carries rank and label", func(t *testing.T) {
		data := fileOutput(t, schema.JSONOut, func(cfg *contract.Config) error {
			return WriteMatchResults(sampleMatches(), cfg, time.Second)
		})
		var got []schema.EnrichedMatchResult
		require.NoError(t, json.Unmarshal(data, &got))
		require.Len(t, got, 2)
		assert.Equal(t, 1, got[0].Rank)
		assert.Equal(t, schema.StrongValue, got[0].Label)
		assert.Equal(t, []string{"amount", "deposit"}, got[0].Terms)
	})

	t.Run("csv", func(t *testing.T) {
		data := fileOutput(t, schema.CSVOut, func(cfg *contract.Config) error {
			return WriteMatchResults(sampleMatches(), cfg, time.Second)
		})
		records := readCSV(t, data)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"rank", "class", "method", "concept", "weight", "label", "method_id", "concept_id", "terms"}, records[0])
		assert.Equal(t, []string{"1", "Account", "deposit(amount: Money)", "Deposit", "0.80", schema.StrongValue, "20", "5", "amount|deposit"}, records[1])
		assert.Equal(t, "", records[2][8])
	})

	t.Run("table with detail", func(t *testing.T) {
		data := fileOutput(t, schema.TextOut, func(cfg *contract.Config) error {
			cfg.Detail = true
			return WriteMatchResults(sampleMatches(), cfg, time.Second)
		})
		out := string(data)
		assert.Contains(t, out, "deposit(amount: Money)")
		assert.Contains(t, out, "amount deposit")
		assert.Contains(t, out, "Showing top 2 matches")
		assert.Contains(t, out, "Store backend: sqlite")
	})

	t.Run("parquet", func(t *testing.T) {
		data := fileOutput(t, schema.ParquetOut, func(cfg *contract.Config) error {
			return WriteMatchResults(sampleMatches(), cfg, time.Second)
		})
		assert.Equal(t, "PAR1", string(data[:4]))
	})

	t.Run("parquet without file", func(t *testing.T) {
		cfg := &contract.Config{Output: schema.ParquetOut}
		assert.ErrorIs(t, WriteMatchResults(sampleMatches(), cfg, 0), errParquetNeedsFile)
	})
}

func TestWriteTimeSeries(t *testing.T) {
	t.Run("csv long form", func(t *testing.T) {
		data := fileOutput(t, schema.CSVOut, func(cfg *contract.Config) error {
			return WriteTimeSeries(sampleSeries(), cfg, time.Second)
		})
		records := readCSV(t, data)
		require.Len(t, records, 5)
		assert.Equal(t, []string{"segment", "start_seq", "end_seq", "concept_id", "concept", "count"}, records[0])
		assert.Equal(t, []string{"0", "1", "2", "5", "Deposit", "2"}, records[1])
		assert.Equal(t, []string{"1", "3", "4", "6", "Account", "1"}, records[4])
	})

	t.Run("json", func(t *testing.T) {
		data := fileOutput(t, schema.JSONOut, func(cfg *contract.Config) error {
			return WriteTimeSeries(sampleSeries(), cfg, time.Second)
		})
		var got schema.TimeSeries
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, sampleSeries(), got)
	})

	t.Run("table", func(t *testing.T) {
		data := fileOutput(t, schema.TextOut, func(cfg *contract.Config) error {
			return WriteTimeSeries(sampleSeries(), cfg, time.Second)
		})
		out := string(data)
		assert.Contains(t, out, "1-2")
		assert.Contains(t, out, "3-4")
		assert.Contains(t, out, "Projected 4 events into 2 segments")
	})

	t.Run("parquet", func(t *testing.T) {
		data := fileOutput(t, schema.ParquetOut, func(cfg *contract.Config) error {
			return WriteTimeSeries(sampleSeries(), cfg, time.Second)
		})
		assert.Equal(t, "PAR1", string(data[:4]))
	})
}

func TestWriteStemTrees(t *testing.T) {
	t.Run("csv lists every node", func(t *testing.T) {
		data := fileOutput(t, schema.CSVOut, func(cfg *contract.Config) error {
			return WriteStemTrees([]schema.StemTree{sampleTree()}, cfg, time.Second)
		})
		records := readCSV(t, data)
		require.Len(t, records, 4)
		assert.Equal(t, []string{"method", "20", "deposit(amount: Money)", "1", "0", "deposit", "method-part", "1.00", ""}, records[2])
		assert.Equal(t, "field", records[3][8])
	})

	t.Run("table", func(t *testing.T) {
		data := fileOutput(t, schema.TextOut, func(cfg *contract.Config) error {
			return WriteStemTrees([]schema.StemTree{sampleTree()}, cfg, time.Second)
		})
		out := string(data)
		assert.Contains(t, out, "└ deposit")
		assert.Contains(t, out, "balance")
		assert.Contains(t, out, "Built 1 stem trees (3 stems)")
	})

	t.Run("parquet is rejected", func(t *testing.T) {
		cfg := &contract.Config{Output: schema.ParquetOut, OutputFile: filepath.Join(t.TempDir(), "x")}
		assert.Error(t, WriteStemTrees(nil, cfg, 0))
	})
}

func TestWriteTokenResults(t *testing.T) {
	results := []schema.TokenResult{
		{Identifier: "m_accountBalance", Tokens: []string{"m", "account", "Balance"}, Terms: []string{"account", "balance"}},
		{Identifier: "__", Tokens: []string{}, Terms: []string{}},
	}

	t.Run("csv", func(t *testing.T) {
		data := fileOutput(t, schema.CSVOut, func(cfg *contract.Config) error {
			return WriteTokenResults(results, cfg, time.Second)
		})
		records := readCSV(t, data)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"m_accountBalance", "m|account|Balance", "account|balance"}, records[1])
	})

	t.Run("table marks empty terms", func(t *testing.T) {
		data := fileOutput(t, schema.TextOut, func(cfg *contract.Config) error {
			return WriteTokenResults(results, cfg, time.Second)
		})
		out := string(data)
		assert.Contains(t, out, "account balance")
		assert.Contains(t, out, "Tokenized 2 identifiers")
	})
}

func TestHeaderWriter(t *testing.T) {
	assert.Equal(t, io.Writer(os.Stdout), headerWriter(&contract.Config{Output: schema.TextOut}))
	assert.Equal(t, io.Writer(os.Stderr), headerWriter(&contract.Config{Output: schema.JSONOut}))
}
