// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"errors"
	"time"

	"github.com/huangsam/conceptrace/schema"
)

// ErrStoreUnavailable marks failures of the persistence layer, as opposed to
// legitimately empty results.
var ErrStoreUnavailable = errors.New("store unavailable")

// SourceRepository reads and replaces the source-code model of a project.
type SourceRepository interface {
	GetSourceModel(project string) (schema.SourceModel, error)
	ReplaceSourceModel(project string, model schema.SourceModel) error
}

// OntologyRepository reads and replaces the domain ontology of a project.
type OntologyRepository interface {
	GetOntology(project string) (schema.Ontology, error)
	ReplaceOntology(project string, ontology schema.Ontology) error
}

// TraceRepository reads and replaces the recorded scenarios of a project.
type TraceRepository interface {
	// GetTraces returns the traces of a scenario ordered by sequence number.
	GetTraces(project, scenario string) ([]schema.Trace, error)
	ReplaceTraces(project, scenario string, traces []schema.Trace) error
	ListScenarios(project string) ([]string, error)
}

// MatchRepository reads and replaces the computed matches of a project.
type MatchRepository interface {
	GetMatches(project string) ([]schema.MatchRecord, error)

	// ReplaceMatches deletes every match of the project and inserts the new
	// set in a single transaction.
	ReplaceMatches(project string, matches []schema.MatchRecord) error
}

// ModelStore is the persistent home of projects and everything derived from them.
type ModelStore interface {
	SourceRepository
	OntologyRepository
	TraceRepository
	MatchRepository

	// ImportProject replaces the source model and ontology of a project and
	// drops its matches, all in one transaction.
	ImportProject(project string, model schema.SourceModel, ontology schema.Ontology) error

	// GetStatus returns status information about the model store
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection
	Close() error
}

// RunStore defines the interface for tracking match runs.
type RunStore interface {
	// BeginRun creates a new match run and returns its unique ID
	BeginRun(project string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the match run with completion data
	EndRun(runID int64, summary schema.RunSummary) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns returns every tracked run ordered by ID
	GetAllRuns() ([]schema.MatchRunRecord, error)

	// Close closes the underlying connection
	Close() error
}

// StoreManager defines the interface for managing the stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetModelStore() ModelStore
	GetRunStore() RunStore
}
