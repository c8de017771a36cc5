package modelio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/conceptrace/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTraces(t *testing.T) {
	input := "method_id,sequence_number,entering,timestamp\n" +
		"10,3,yes,2024-05-01T10:00:00Z\n" +
		"11,1,true,1714557600000\n" +
		"10,2,0,\n"

	traces, err := ReadTraces(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, traces, 3)

	assert.Equal(t, []int64{1, 2, 3}, []int64{traces[0].SequenceNumber, traces[1].SequenceNumber, traces[2].SequenceNumber})
	assert.Equal(t, schema.Trace{SequenceNumber: 1, Entering: true, MethodID: 11, Timestamp: time.UnixMilli(1714557600000).UTC()}, traces[0])
	assert.False(t, traces[1].Entering)
	assert.True(t, traces[1].Timestamp.IsZero())
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), traces[2].Timestamp)
}

func TestReadTracesWithoutTimestamp(t *testing.T) {
	traces, err := ReadTraces(strings.NewReader("sequence_number,entering,method_id\n1,yes,4\n"))
	require.NoError(t, err)
	require.Len(t, traces, 1)
	assert.Equal(t, int64(4), traces[0].MethodID)
}

func TestReadTracesErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty", "", "header required"},
		{"missing columns", "sequence_number,method_id\n1,2\n", "missing columns: entering"},
		{"bad sequence", "sequence_number,entering,method_id\nx,yes,1\n", "line 2: invalid sequence_number"},
		{"bad boolean", "sequence_number,entering,method_id\n1,maybe,1\n", "invalid entering"},
		{"bad timestamp", "sequence_number,entering,method_id,timestamp\n1,yes,1,yesterday\n", "invalid timestamp"},
		{"duplicate sequence", "sequence_number,entering,method_id\n1,yes,1\n1,no,1\n", "duplicate sequence number: 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTraces(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteTracesReadsBack(t *testing.T) {
	want := []schema.Trace{
		{SequenceNumber: 1, Entering: true, MethodID: 7, Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{SequenceNumber: 2, Entering: false, MethodID: 7},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTraces(&buf, want))

	got, err := ReadTraces(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
