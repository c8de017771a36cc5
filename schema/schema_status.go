package schema

import "time"

// StoreStatus represents the status of the model store.
type StoreStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalProjects int              `json:"total_projects"`
	TableRows     map[string]int64 `json:"table_rows"`
}

// RunStatus represents the status of the run store.
type RunStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalMatches  int64            `json:"total_matches"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}
