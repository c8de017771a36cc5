package outwriter

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFormatter(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{"precision 2", 2, 0.14159, "0.14"},
		{"precision 1", 1, 0.75, "0.8"},
		{"precision 4", 4, 0.5, "0.5000"},
		{"zero", 3, 0, "0.000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, createFormatter(tt.precision)(tt.value))
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]any{"name": "deposit", "weight": 1}))
	assert.Equal(t, "{\n  \"name\": \"deposit\",\n  \"weight\": 1\n}\n", buf.String())

	t.Run("unsupported value", func(t *testing.T) {
		err := writeJSON(&bytes.Buffer{}, make(chan int))
		assert.Error(t, err)
	})
}

func TestWriteCSVWithHeader(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"a", "b"}, func(cw *csv.Writer) error {
		return cw.Write([]string{"1", "x,y"})
	})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,\"x,y\"\n", buf.String())

	t.Run("row error is returned", func(t *testing.T) {
		err := writeCSVWithHeader(&bytes.Buffer{}, []string{"a"}, func(*csv.Writer) error {
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, []string{"Term", "Weight"}, [][]string{{"deposit", "1.0"}}))
	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "TERM")
	assert.Contains(t, out, "deposit")
}

func TestWriteWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	err := writeWithFile(path, func(w io.Writer) error {
		_, err := w.Write([]byte("hello"))
		return err
	}, "Wrote test")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	t.Run("writer error", func(t *testing.T) {
		err := writeWithFile(filepath.Join(t.TempDir(), "x"), func(io.Writer) error {
			return assert.AnError
		}, "Wrote test")
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestGetMaxTableTextWidth(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		fixed    int
		expected int
	}{
		{"wide terminal is capped", 300, 40, 70},
		{"narrow terminal has a floor", 60, 40, 15},
		{"in between", 120, 40, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &contract.Config{Width: tt.width}
			assert.Equal(t, tt.expected, GetMaxTableTextWidth(cfg, tt.fixed))
		})
	}
}
