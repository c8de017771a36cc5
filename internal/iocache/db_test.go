package iocache

import (
	"testing"
	"time"

	"github.com/huangsam/conceptrace/schema"
	"github.com/stretchr/testify/assert"
)

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		wantErr bool
	}{
		{"plain", "conceptrace_matches", false},
		{"leading underscore", "_tmp", false},
		{"empty", "", true},
		{"leading digit", "1table", true},
		{"injection", "t; DROP TABLE x", true},
		{"quoted", `"t"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.table)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`runs`", quoteTableName("runs", schema.MySQLBackend))
	assert.Equal(t, `"runs"`, quoteTableName("runs", schema.PostgreSQLBackend))
	assert.Equal(t, `"runs"`, quoteTableName("runs", schema.SQLiteBackend))
}

func TestRebind(t *testing.T) {
	query := "UPDATE t SET a = ?, b = ? WHERE c = ?"
	assert.Equal(t, query, rebind(query, schema.SQLiteBackend))
	assert.Equal(t, query, rebind(query, schema.MySQLBackend))
	assert.Equal(t, "UPDATE t SET a = $1, b = $2 WHERE c = $3", rebind(query, schema.PostgreSQLBackend))
}

func TestColumnTypes(t *testing.T) {
	template := "project {key} NOT NULL, weight {real}, n {bigint}, body {text}, PRIMARY KEY (project)"
	assert.Equal(t, "project VARCHAR(255) NOT NULL, weight DOUBLE, n BIGINT, body TEXT, PRIMARY KEY (project)", columnTypes(template, schema.MySQLBackend))
	assert.Equal(t, "project TEXT NOT NULL, weight DOUBLE PRECISION, n BIGINT, body TEXT, PRIMARY KEY (project)", columnTypes(template, schema.PostgreSQLBackend))
	assert.Equal(t, "project TEXT NOT NULL, weight REAL, n INTEGER, body TEXT, PRIMARY KEY (project)", columnTypes(template, schema.SQLiteBackend))
}

func TestScanTime(t *testing.T) {
	ts := time.Date(2026, 2, 3, 4, 5, 6, 7, time.UTC)

	t.Run("sqlite text", func(t *testing.T) {
		st := scanTime{backend: schema.SQLiteBackend}
		st.text.String, st.text.Valid = formatTime(ts, schema.SQLiteBackend).(string), true
		got, err := st.value()
		assert.NoError(t, err)
		assert.True(t, ts.Equal(*got))
	})

	t.Run("sqlite null", func(t *testing.T) {
		st := scanTime{backend: schema.SQLiteBackend}
		got, err := st.value()
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("sqlite garbage", func(t *testing.T) {
		st := scanTime{backend: schema.SQLiteBackend}
		st.text.String, st.text.Valid = "yesterday", true
		_, err := st.value()
		assert.Error(t, err)
	})

	t.Run("native", func(t *testing.T) {
		st := scanTime{backend: schema.PostgreSQLBackend}
		st.native.Time, st.native.Valid = ts, true
		got, err := st.value()
		assert.NoError(t, err)
		assert.Equal(t, ts, *got)
		assert.Equal(t, ts, formatTime(ts, schema.PostgreSQLBackend))
	})
}
