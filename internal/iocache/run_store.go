package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/huangsam/conceptrace/schema"
)

// matchRunsTable is the name of the table for run tracking.
const matchRunsTable = "conceptrace_match_runs"

var runTables = []tableDef{{matchRunsTable, getCreateMatchRunsQuery}}

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &RunStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetRunsDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createTables(db, runTables, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}

	return &RunStoreImpl{db: db, backend: backend}, nil
}

// getCreateMatchRunsQuery returns the CREATE TABLE query for conceptrace_match_runs.
func getCreateMatchRunsQuery(backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return `
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid VARCHAR(36) NOT NULL,
				project VARCHAR(255) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_methods INT NOT NULL DEFAULT 0,
				total_concepts INT NOT NULL DEFAULT 0,
				total_matches INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`

	case schema.PostgreSQLBackend:
		return `
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_uuid TEXT NOT NULL,
				project TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_methods INT NOT NULL DEFAULT 0,
				total_concepts INT NOT NULL DEFAULT 0,
				total_matches INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`

	default: // SQLite
		return `
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL,
				project TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_methods INTEGER NOT NULL DEFAULT 0,
				total_concepts INTEGER NOT NULL DEFAULT 0,
				total_matches INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`
	}
}

// BeginRun creates a new match run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(project string, startTime time.Time, configParams map[string]any) (int64, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(matchRunsTable, rs.backend)
	runUUID := uuid.NewString()

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, project, start_time, config_params) VALUES ($1, $2, $3, $4) RETURNING run_id`, quotedTableName)
		err = rs.db.QueryRow(query, runUUID, project, startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, project, start_time, config_params) VALUES (?, ?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = rs.db.Exec(query, runUUID, project, formatTime(startTime, rs.backend), string(configJSON))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}

	if err != nil {
		return 0, unavailable("insert match run", err)
	}

	return runID, nil
}

// EndRun updates the match run with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, summary schema.RunSummary) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(matchRunsTable, rs.backend)

	start := scanTime{backend: rs.backend}
	query := rebind(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, quotedTableName), rs.backend)
	if err := rs.db.QueryRow(query, runID).Scan(start.dest()); err != nil {
		return unavailable(fmt.Sprintf("get start_time for run %d", runID), err)
	}
	startTime, err := start.value()
	if err != nil {
		return err
	}

	var durationMs int64
	if startTime != nil {
		durationMs = summary.EndTime.Sub(*startTime).Milliseconds()
	}

	updateQuery := rebind(fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_methods = ?, total_concepts = ?, total_matches = ? WHERE run_id = ?`, quotedTableName), rs.backend)
	_, err = rs.db.Exec(updateQuery,
		formatTime(summary.EndTime, rs.backend), durationMs,
		summary.TotalMethods, summary.TotalConcepts, summary.TotalMatches, runID)
	if err != nil {
		return unavailable("update match run", err)
	}

	return nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}

	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	quotedTableName := quoteTableName(matchRunsTable, rs.backend)

	row := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTableName))
	if err := row.Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		last := scanTime{backend: rs.backend}
		row = rs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quotedTableName))
		if err := row.Scan(&status.LastRunID, last.dest()); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		if t, err := last.value(); err != nil {
			return status, err
		} else if t != nil {
			status.LastRunTime = *t
		}

		oldest := scanTime{backend: rs.backend}
		row = rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quotedTableName))
		if err := row.Scan(oldest.dest()); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		if t, err := oldest.value(); err != nil {
			return status, err
		} else if t != nil {
			status.OldestRunTime = *t
		}

		row = rs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_matches), 0) FROM %s", quotedTableName))
		if err := row.Scan(&status.TotalMatches); err != nil {
			return status, fmt.Errorf("failed to get total matches: %w", err)
		}
	}

	if err := countRows(rs.db, runTables, rs.backend, status.TableSizes); err != nil {
		return status, err
	}

	return status, nil
}

// GetAllRuns retrieves all match runs from the store.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.MatchRunRecord, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	quotedTableName := quoteTableName(matchRunsTable, rs.backend)
	query := fmt.Sprintf(`SELECT run_id, run_uuid, project, start_time, end_time, run_duration_ms,
		total_methods, total_concepts, total_matches, config_params FROM %s ORDER BY run_id`, quotedTableName)

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, unavailable("query match runs", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.MatchRunRecord
	for rows.Next() {
		var record schema.MatchRunRecord
		start := scanTime{backend: rs.backend}
		end := scanTime{backend: rs.backend}
		var duration sql.NullInt32
		var params sql.NullString

		if err := rows.Scan(&record.RunID, &record.RunUUID, &record.Project, start.dest(), end.dest(), &duration,
			&record.TotalMethods, &record.TotalConcepts, &record.TotalMatches, &params); err != nil {
			return nil, fmt.Errorf("failed to scan match run: %w", err)
		}

		startTime, err := start.value()
		if err != nil {
			return nil, err
		}
		if startTime != nil {
			record.StartTime = *startTime
		}
		if record.EndTime, err = end.value(); err != nil {
			return nil, err
		}
		if duration.Valid {
			record.RunDurationMs = &duration.Int32
		}
		if params.Valid {
			record.ConfigParams = &params.String
		}

		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match runs: %w", err)
	}

	return results, nil
}
