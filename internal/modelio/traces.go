package modelio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/huangsam/conceptrace/schema"
)

// Trace file columns. The timestamp column is optional.
const (
	sequenceColumn  = "sequence_number"
	enteringColumn  = "entering"
	methodColumn    = "method_id"
	timestampColumn = "timestamp"
)

// ErrDuplicateSequence is returned when two traces share a sequence number.
var ErrDuplicateSequence = errors.New("duplicate sequence number")

// LoadTraceFile reads and decodes a trace CSV file from disk.
func LoadTraceFile(path string) ([]schema.Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer func() { _ = f.Close() }()

	traces, err := ReadTraces(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return traces, nil
}

// ReadTraces decodes trace records from CSV with a header row. Columns are
// located by name. The result is ordered by sequence number.
func ReadTraces(r io.Reader) ([]schema.Trace, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("trace file is empty (header required)")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read trace header: %w", err)
	}
	cols, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	var traces []schema.Trace
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read trace record: %w", err)
		}
		line, _ := reader.FieldPos(0)
		trace, err := parseTrace(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		traces = append(traces, trace)
	}

	slices.SortStableFunc(traces, func(a, b schema.Trace) int {
		switch {
		case a.SequenceNumber < b.SequenceNumber:
			return -1
		case a.SequenceNumber > b.SequenceNumber:
			return 1
		}
		return 0
	})
	for i := 1; i < len(traces); i++ {
		if traces[i].SequenceNumber == traces[i-1].SequenceNumber {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateSequence, traces[i].SequenceNumber)
		}
	}
	return traces, nil
}

// WriteTraces encodes traces as CSV with a header row.
func WriteTraces(w io.Writer, traces []schema.Trace) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{sequenceColumn, enteringColumn, methodColumn, timestampColumn}); err != nil {
		return err
	}
	for _, t := range traces {
		ts := ""
		if !t.Timestamp.IsZero() {
			ts = t.Timestamp.Format(time.RFC3339Nano)
		}
		if err := writer.Write([]string{
			strconv.FormatInt(t.SequenceNumber, 10),
			strconv.FormatBool(t.Entering),
			strconv.FormatInt(t.MethodID, 10),
			ts,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// traceColumns holds the field index of every known column; -1 when absent.
type traceColumns struct {
	sequence, entering, method, timestamp int
}

func locateColumns(header []string) (traceColumns, error) {
	cols := traceColumns{sequence: -1, entering: -1, method: -1, timestamp: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case sequenceColumn:
			cols.sequence = i
		case enteringColumn:
			cols.entering = i
		case methodColumn:
			cols.method = i
		case timestampColumn:
			cols.timestamp = i
		}
	}
	var missing []string
	if cols.sequence < 0 {
		missing = append(missing, sequenceColumn)
	}
	if cols.entering < 0 {
		missing = append(missing, enteringColumn)
	}
	if cols.method < 0 {
		missing = append(missing, methodColumn)
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("trace header is missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseTrace(record []string, cols traceColumns) (schema.Trace, error) {
	var t schema.Trace
	var err error

	if t.SequenceNumber, err = strconv.ParseInt(strings.TrimSpace(record[cols.sequence]), 10, 64); err != nil {
		return t, fmt.Errorf("invalid %s: %w", sequenceColumn, err)
	}
	if t.Entering, err = contract.ParseBoolString(record[cols.entering]); err != nil {
		return t, fmt.Errorf("invalid %s: %w", enteringColumn, err)
	}
	if t.MethodID, err = strconv.ParseInt(strings.TrimSpace(record[cols.method]), 10, 64); err != nil {
		return t, fmt.Errorf("invalid %s: %w", methodColumn, err)
	}
	if cols.timestamp >= 0 {
		if t.Timestamp, err = parseTimestamp(record[cols.timestamp]); err != nil {
			return t, fmt.Errorf("invalid %s: %w", timestampColumn, err)
		}
	}
	return t, nil
}

// parseTimestamp accepts RFC 3339 or integer epoch milliseconds. Blank means unknown.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
