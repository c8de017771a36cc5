package iocache

import (
	"time"

	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/huangsam/conceptrace/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetModelStore implements the StoreManager interface.
func (m *MockStoreManager) GetModelStore() contract.ModelStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.ModelStore)
	return store
}

// GetRunStore implements the StoreManager interface.
func (m *MockStoreManager) GetRunStore() contract.RunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunStore)
	return store
}

// MockModelStore is a mock implementation of ModelStore for testing.
type MockModelStore struct {
	mock.Mock
}

var _ contract.ModelStore = &MockModelStore{} // Compile-time check

// GetSourceModel implements the ModelStore interface.
func (m *MockModelStore) GetSourceModel(project string) (schema.SourceModel, error) {
	args := m.Called(project)
	model, _ := args.Get(0).(schema.SourceModel)
	return model, args.Error(1)
}

// ReplaceSourceModel implements the ModelStore interface.
func (m *MockModelStore) ReplaceSourceModel(project string, model schema.SourceModel) error {
	return m.Called(project, model).Error(0)
}

// GetOntology implements the ModelStore interface.
func (m *MockModelStore) GetOntology(project string) (schema.Ontology, error) {
	args := m.Called(project)
	ontology, _ := args.Get(0).(schema.Ontology)
	return ontology, args.Error(1)
}

// ReplaceOntology implements the ModelStore interface.
func (m *MockModelStore) ReplaceOntology(project string, ontology schema.Ontology) error {
	return m.Called(project, ontology).Error(0)
}

// GetTraces implements the ModelStore interface.
func (m *MockModelStore) GetTraces(project, scenario string) ([]schema.Trace, error) {
	args := m.Called(project, scenario)
	traces, _ := args.Get(0).([]schema.Trace)
	return traces, args.Error(1)
}

// ReplaceTraces implements the ModelStore interface.
func (m *MockModelStore) ReplaceTraces(project, scenario string, traces []schema.Trace) error {
	return m.Called(project, scenario, traces).Error(0)
}

// ListScenarios implements the ModelStore interface.
func (m *MockModelStore) ListScenarios(project string) ([]string, error) {
	args := m.Called(project)
	scenarios, _ := args.Get(0).([]string)
	return scenarios, args.Error(1)
}

// GetMatches implements the ModelStore interface.
func (m *MockModelStore) GetMatches(project string) ([]schema.MatchRecord, error) {
	args := m.Called(project)
	records, _ := args.Get(0).([]schema.MatchRecord)
	return records, args.Error(1)
}

// ReplaceMatches implements the ModelStore interface.
func (m *MockModelStore) ReplaceMatches(project string, matches []schema.MatchRecord) error {
	return m.Called(project, matches).Error(0)
}

// ImportProject implements the ModelStore interface.
func (m *MockModelStore) ImportProject(project string, model schema.SourceModel, ontology schema.Ontology) error {
	return m.Called(project, model, ontology).Error(0)
}

// GetStatus implements the ModelStore interface.
func (m *MockModelStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	status, _ := args.Get(0).(schema.StoreStatus)
	return status, args.Error(1)
}

// Close implements the ModelStore interface.
func (m *MockModelStore) Close() error {
	return m.Called().Error(0)
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ contract.RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(project string, startTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(project, startTime, configParams)
	id, _ := args.Get(0).(int64)
	return id, args.Error(1)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(runID int64, summary schema.RunSummary) error {
	return m.Called(runID, summary).Error(0)
}

// GetStatus implements the RunStore interface.
func (m *MockRunStore) GetStatus() (schema.RunStatus, error) {
	args := m.Called()
	status, _ := args.Get(0).(schema.RunStatus)
	return status, args.Error(1)
}

// GetAllRuns implements the RunStore interface.
func (m *MockRunStore) GetAllRuns() ([]schema.MatchRunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.MatchRunRecord)
	return runs, args.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	return m.Called().Error(0)
}
