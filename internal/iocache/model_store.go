package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/huangsam/conceptrace/schema"
)

// Table names for the model store.
const (
	projectsTable          = "conceptrace_projects"
	classesTable           = "conceptrace_classes"
	methodsTable           = "conceptrace_methods"
	methodParametersTable  = "conceptrace_method_parameters"
	methodReferencesTable  = "conceptrace_method_references"
	conceptsTable          = "conceptrace_concepts"
	conceptAttributesTable = "conceptrace_concept_attributes"
	conceptClassesTable    = "conceptrace_concept_classes"
	conceptLinksTable      = "conceptrace_concept_links"
	tracesTable            = "conceptrace_traces"
	matchesTable           = "conceptrace_matches"
)

func templateDDL(template string) func(schema.DatabaseBackend) string {
	return func(backend schema.DatabaseBackend) string {
		return columnTypes(template, backend)
	}
}

// modelTables lists the model store tables in creation order.
var modelTables = []tableDef{
	{projectsTable, templateDDL(`CREATE TABLE IF NOT EXISTS %s (
		project {key} NOT NULL PRIMARY KEY,
		imported_at {bigint} NOT NULL
	)`)},
	{classesTable, templateDDL(`CREATE TABLE IF NOT EXISTS %s (
		project {key} NOT NULL,
		class_id {bigint} NOT NULL,
		ord {bigint} NOT NULL,
		name {text} NOT NULL,
		PRIMARY KEY (project, class_id)
	)`)},
	{methodsTable, templateDDL(`CREATE TABLE IF NOT EXISTS %s (
		project {key} NOT NULL,
		method_id {bigint} NOT NULL,
		class_id {bigint} NOT NULL,
		ord {bigint} NOT NULL,
		name {text} NOT NULL,
		signature {text} NOT NULL,
		PRIMARY KEY (project, method_id)
	)`)},
	{methodParametersTable, templateDDL(`CREATE TABLE IF NOT EXISTS %s (
		project {key} NOT NULL,
		method_id {bigint} NOT NULL,
		ord {bigint} NOT NULL,
		name {text} NOT NULL,
		param_type {text} NOT NULL,
		PRIMARY KEY (project, method_id, ord)
	)`)},
	{methodReferencesTable, templateDDL(`CREATE TABLE IF NOT EXISTS %s (
		project {key} NOT NULL,
		method_id {bigint} NOT NULL,
		ord {bigint} NOT NULL,
		name {text} NOT NULL,
		ref_type {text} NOT NULL,
		origin {text} NOT NULL,
		PRIMARY KEY (project, method_id, ord)
	)`)},
	{conceptsTable, templateDDL(`CREATE TABLE IF NOT EXISTS %s (
		project {key} NOT NULL,
		concept_id {bigint} NOT NULL,
		ord {bigint} NOT NULL,
		name {text} NOT NULL,
		PRIMARY KEY (project, concept_id)
	)`)},
	{conceptAttributesTable, templateDDL(`CREATE TABLE IF NOT EXISTS %s (
		project {key} NOT NULL,
		concept_id {bigint} NOT NULL,
		ord {bigint} NOT NULL,
		name {text} NOT NULL,
		identifier {text} NOT NULL,
		PRIMARY KEY (project, concept_id, ord)
	)`)},
	{conceptClassesTable, templateDDL(`CREATE TABLE IF NOT EXISTS %s (
		project {key} NOT NULL,
		concept_id {bigint} NOT NULL,
		ord {bigint} NOT NULL,
		name {text} NOT NULL,
		identifier {text} NOT NULL,
		PRIMARY KEY (project, concept_id, ord)
	)`)},
	{conceptLinksTable, templateDDL(`CREATE TABLE IF NOT EXISTS %s (
		project {key} NOT NULL,
		concept_id {bigint} NOT NULL,
		ord {bigint} NOT NULL,
		target_id {bigint} NOT NULL,
		qualifier {text} NOT NULL,
		PRIMARY KEY (project, concept_id, ord)
	)`)},
	{tracesTable, templateDDL(`CREATE TABLE IF NOT EXISTS %s (
		project {key} NOT NULL,
		scenario {key} NOT NULL,
		seq {bigint} NOT NULL,
		entering {bigint} NOT NULL,
		method_id {bigint} NOT NULL,
		ts_nanos {bigint},
		PRIMARY KEY (project, scenario, seq)
	)`)},
	{matchesTable, templateDDL(`CREATE TABLE IF NOT EXISTS %s (
		project {key} NOT NULL,
		method_id {bigint} NOT NULL,
		concept_id {bigint} NOT NULL,
		weight {real} NOT NULL,
		terms {text} NOT NULL,
		PRIMARY KEY (project, method_id, concept_id)
	)`)},
}

// Groups of tables that are replaced together.
var (
	sourceTables   = []string{classesTable, methodsTable, methodParametersTable, methodReferencesTable}
	ontologyTables = []string{conceptsTable, conceptAttributesTable, conceptClassesTable, conceptLinksTable}
)

// ModelStoreImpl persists projects, traces and matches in a SQL database.
type ModelStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.ModelStore = &ModelStoreImpl{} // Compile-time check

// NewModelStore opens the model store for the backend and creates its tables.
func NewModelStore(backend schema.DatabaseBackend, connStr string) (contract.ModelStore, error) {
	if backend == schema.NoneBackend {
		return &ModelStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetStoreDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createTables(db, modelTables, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create model tables: %w", err)
	}

	return &ModelStoreImpl{db: db, backend: backend}, nil
}

func (ms *ModelStoreImpl) disabled() bool {
	return ms.backend == schema.NoneBackend || ms.db == nil
}

// q quotes the table name and rebinds placeholders for the backend.
func (ms *ModelStoreImpl) q(format string, table string) string {
	return rebind(fmt.Sprintf(format, quoteTableName(table, ms.backend)), ms.backend)
}

func unavailable(action string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", contract.ErrStoreUnavailable, action, err)
}

// GetSourceModel loads the source model of a project. Unknown projects yield an
// empty model.
func (ms *ModelStoreImpl) GetSourceModel(project string) (schema.SourceModel, error) {
	if ms.disabled() {
		return schema.SourceModel{}, nil
	}

	var model schema.SourceModel
	classIndex := map[int64]int{}
	err := ms.queryEach(ms.q("SELECT class_id, name FROM %s WHERE project = ? ORDER BY ord", classesTable), []any{project}, func(rows *sql.Rows) error {
		var class schema.SourceClass
		if err := rows.Scan(&class.ID, &class.Name); err != nil {
			return err
		}
		classIndex[class.ID] = len(model.Classes)
		model.Classes = append(model.Classes, class)
		return nil
	})
	if err != nil {
		return schema.SourceModel{}, unavailable("load classes", err)
	}

	params := map[int64][]schema.SourceParameter{}
	err = ms.queryEach(ms.q("SELECT method_id, name, param_type FROM %s WHERE project = ? ORDER BY method_id, ord", methodParametersTable), []any{project}, func(rows *sql.Rows) error {
		var methodID int64
		var p schema.SourceParameter
		if err := rows.Scan(&methodID, &p.Name, &p.Type); err != nil {
			return err
		}
		params[methodID] = append(params[methodID], p)
		return nil
	})
	if err != nil {
		return schema.SourceModel{}, unavailable("load parameters", err)
	}

	refs := map[int64][]schema.SourceReference{}
	err = ms.queryEach(ms.q("SELECT method_id, name, ref_type, origin FROM %s WHERE project = ? ORDER BY method_id, ord", methodReferencesTable), []any{project}, func(rows *sql.Rows) error {
		var methodID int64
		var r schema.SourceReference
		var origin string
		if err := rows.Scan(&methodID, &r.Name, &r.Type, &origin); err != nil {
			return err
		}
		r.Origin = schema.ReferenceOrigin(origin)
		refs[methodID] = append(refs[methodID], r)
		return nil
	})
	if err != nil {
		return schema.SourceModel{}, unavailable("load references", err)
	}

	err = ms.queryEach(ms.q("SELECT method_id, class_id, name, signature FROM %s WHERE project = ? ORDER BY ord", methodsTable), []any{project}, func(rows *sql.Rows) error {
		var m schema.SourceMethod
		if err := rows.Scan(&m.ID, &m.ClassID, &m.Name, &m.Signature); err != nil {
			return err
		}
		idx, ok := classIndex[m.ClassID]
		if !ok {
			contract.LogWarn("skipping method", fmt.Errorf("method %d of project %s references missing class %d", m.ID, project, m.ClassID))
			return nil
		}
		m.Parameters = params[m.ID]
		m.References = refs[m.ID]
		model.Classes[idx].Methods = append(model.Classes[idx].Methods, m)
		return nil
	})
	if err != nil {
		return schema.SourceModel{}, unavailable("load methods", err)
	}

	return model, nil
}

// ReplaceSourceModel replaces the source model of a project.
func (ms *ModelStoreImpl) ReplaceSourceModel(project string, model schema.SourceModel) error {
	if ms.disabled() {
		return nil
	}
	return ms.inTx("replace source model", func(tx *sql.Tx) error {
		if err := ms.touchProject(tx, project); err != nil {
			return err
		}
		if err := ms.deleteProjectRows(tx, project, sourceTables...); err != nil {
			return err
		}
		return ms.writeSourceModel(tx, project, model)
	})
}

// GetOntology loads the ontology of a project. Unknown projects yield an empty
// ontology.
func (ms *ModelStoreImpl) GetOntology(project string) (schema.Ontology, error) {
	if ms.disabled() {
		return schema.Ontology{}, nil
	}

	var ontology schema.Ontology
	conceptIndex := map[int64]int{}
	err := ms.queryEach(ms.q("SELECT concept_id, name FROM %s WHERE project = ? ORDER BY ord", conceptsTable), []any{project}, func(rows *sql.Rows) error {
		var c schema.Concept
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return err
		}
		conceptIndex[c.ID] = len(ontology.Concepts)
		ontology.Concepts = append(ontology.Concepts, c)
		return nil
	})
	if err != nil {
		return schema.Ontology{}, unavailable("load concepts", err)
	}

	// attach resolves the owning concept of a child row.
	attach := func(conceptID int64) (*schema.Concept, error) {
		idx, ok := conceptIndex[conceptID]
		if !ok {
			return nil, fmt.Errorf("row references missing concept %d", conceptID)
		}
		return &ontology.Concepts[idx], nil
	}

	err = ms.queryEach(ms.q("SELECT concept_id, name, identifier FROM %s WHERE project = ? ORDER BY concept_id, ord", conceptAttributesTable), []any{project}, func(rows *sql.Rows) error {
		var conceptID int64
		var a schema.ConceptAttribute
		if err := rows.Scan(&conceptID, &a.Name, &a.Identifier); err != nil {
			return err
		}
		c, err := attach(conceptID)
		if err != nil {
			return err
		}
		c.Attributes = append(c.Attributes, a)
		return nil
	})
	if err != nil {
		return schema.Ontology{}, unavailable("load concept attributes", err)
	}

	err = ms.queryEach(ms.q("SELECT concept_id, name, identifier FROM %s WHERE project = ? ORDER BY concept_id, ord", conceptClassesTable), []any{project}, func(rows *sql.Rows) error {
		var conceptID int64
		var cc schema.ConceptClass
		if err := rows.Scan(&conceptID, &cc.Name, &cc.Identifier); err != nil {
			return err
		}
		c, err := attach(conceptID)
		if err != nil {
			return err
		}
		c.Classes = append(c.Classes, cc)
		return nil
	})
	if err != nil {
		return schema.Ontology{}, unavailable("load concept classes", err)
	}

	err = ms.queryEach(ms.q("SELECT concept_id, target_id, qualifier FROM %s WHERE project = ? ORDER BY concept_id, ord", conceptLinksTable), []any{project}, func(rows *sql.Rows) error {
		var conceptID int64
		var l schema.ConceptLink
		if err := rows.Scan(&conceptID, &l.TargetID, &l.Qualifier); err != nil {
			return err
		}
		c, err := attach(conceptID)
		if err != nil {
			return err
		}
		c.Links = append(c.Links, l)
		return nil
	})
	if err != nil {
		return schema.Ontology{}, unavailable("load concept links", err)
	}

	return ontology, nil
}

// ReplaceOntology replaces the ontology of a project.
func (ms *ModelStoreImpl) ReplaceOntology(project string, ontology schema.Ontology) error {
	if ms.disabled() {
		return nil
	}
	return ms.inTx("replace ontology", func(tx *sql.Tx) error {
		if err := ms.touchProject(tx, project); err != nil {
			return err
		}
		if err := ms.deleteProjectRows(tx, project, ontologyTables...); err != nil {
			return err
		}
		return ms.writeOntology(tx, project, ontology)
	})
}

// ImportProject replaces model and ontology and drops stale matches atomically.
func (ms *ModelStoreImpl) ImportProject(project string, model schema.SourceModel, ontology schema.Ontology) error {
	if ms.disabled() {
		return nil
	}
	return ms.inTx("import project", func(tx *sql.Tx) error {
		if err := ms.touchProject(tx, project); err != nil {
			return err
		}
		tables := append(append([]string{matchesTable}, sourceTables...), ontologyTables...)
		if err := ms.deleteProjectRows(tx, project, tables...); err != nil {
			return err
		}
		if err := ms.writeSourceModel(tx, project, model); err != nil {
			return err
		}
		return ms.writeOntology(tx, project, ontology)
	})
}

// GetTraces returns the traces of a scenario ordered by sequence number.
func (ms *ModelStoreImpl) GetTraces(project, scenario string) ([]schema.Trace, error) {
	if ms.disabled() {
		return nil, nil
	}

	var traces []schema.Trace
	query := ms.q("SELECT seq, entering, method_id, ts_nanos FROM %s WHERE project = ? AND scenario = ? ORDER BY seq", tracesTable)
	err := ms.queryEach(query, []any{project, scenario}, func(rows *sql.Rows) error {
		var t schema.Trace
		var entering int64
		var ts sql.NullInt64
		if err := rows.Scan(&t.SequenceNumber, &entering, &t.MethodID, &ts); err != nil {
			return err
		}
		t.Entering = entering != 0
		if ts.Valid {
			t.Timestamp = time.Unix(0, ts.Int64).UTC()
		}
		traces = append(traces, t)
		return nil
	})
	if err != nil {
		return nil, unavailable("load traces", err)
	}
	return traces, nil
}

// ReplaceTraces replaces every trace of one scenario.
func (ms *ModelStoreImpl) ReplaceTraces(project, scenario string, traces []schema.Trace) error {
	if ms.disabled() {
		return nil
	}
	return ms.inTx("replace traces", func(tx *sql.Tx) error {
		if _, err := tx.Exec(ms.q("DELETE FROM %s WHERE project = ? AND scenario = ?", tracesTable), project, scenario); err != nil {
			return err
		}
		return ms.insertRows(tx, tracesTable, "project, scenario, seq, entering, method_id, ts_nanos", len(traces), func(i int) []any {
			t := traces[i]
			var ts any
			if !t.Timestamp.IsZero() {
				ts = t.Timestamp.UnixNano()
			}
			entering := 0
			if t.Entering {
				entering = 1
			}
			return []any{project, scenario, t.SequenceNumber, entering, t.MethodID, ts}
		})
	})
}

// ListScenarios returns the scenario names of a project in lexical order.
func (ms *ModelStoreImpl) ListScenarios(project string) ([]string, error) {
	if ms.disabled() {
		return nil, nil
	}

	var scenarios []string
	err := ms.queryEach(ms.q("SELECT DISTINCT scenario FROM %s WHERE project = ? ORDER BY scenario", tracesTable), []any{project}, func(rows *sql.Rows) error {
		var s string
		if err := rows.Scan(&s); err != nil {
			return err
		}
		scenarios = append(scenarios, s)
		return nil
	})
	if err != nil {
		return nil, unavailable("list scenarios", err)
	}
	return scenarios, nil
}

// GetMatches returns the stored matches of a project ordered by method then concept.
func (ms *ModelStoreImpl) GetMatches(project string) ([]schema.MatchRecord, error) {
	if ms.disabled() {
		return nil, nil
	}

	var records []schema.MatchRecord
	query := ms.q("SELECT method_id, concept_id, weight, terms FROM %s WHERE project = ? ORDER BY method_id, concept_id", matchesTable)
	err := ms.queryEach(query, []any{project}, func(rows *sql.Rows) error {
		var r schema.MatchRecord
		var terms string
		if err := rows.Scan(&r.MethodID, &r.ConceptID, &r.Weight, &terms); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(terms), &r.Terms); err != nil {
			return fmt.Errorf("failed to decode terms of match (%d, %d): %w", r.MethodID, r.ConceptID, err)
		}
		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, unavailable("load matches", err)
	}
	return records, nil
}

// ReplaceMatches swaps the match set of a project in one transaction.
func (ms *ModelStoreImpl) ReplaceMatches(project string, matches []schema.MatchRecord) error {
	if ms.disabled() {
		return nil
	}

	encoded := make([]string, len(matches))
	for i, m := range matches {
		terms := m.Terms
		if terms == nil {
			terms = []string{}
		}
		b, err := json.Marshal(terms)
		if err != nil {
			return fmt.Errorf("failed to encode terms: %w", err)
		}
		encoded[i] = string(b)
	}

	return ms.inTx("replace matches", func(tx *sql.Tx) error {
		if err := ms.deleteProjectRows(tx, project, matchesTable); err != nil {
			return err
		}
		return ms.insertRows(tx, matchesTable, "project, method_id, concept_id, weight, terms", len(matches), func(i int) []any {
			m := matches[i]
			return []any{project, m.MethodID, m.ConceptID, m.Weight, encoded[i]}
		})
	})
}

// GetStatus returns status information about the model store.
func (ms *ModelStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   string(ms.backend),
		Connected: ms.db != nil,
		TableRows: make(map[string]int64),
	}

	if ms.disabled() {
		return status, nil
	}

	if err := countRows(ms.db, modelTables, ms.backend, status.TableRows); err != nil {
		return status, unavailable("count rows", err)
	}
	status.TotalProjects = int(status.TableRows[projectsTable])

	return status, nil
}

// Close closes the underlying connection.
func (ms *ModelStoreImpl) Close() error {
	if ms.db != nil {
		return ms.db.Close()
	}
	return nil
}

// queryEach runs a query and hands every row to fn. Rows are closed before it
// returns so that single-connection backends can run the next query.
func (ms *ModelStoreImpl) queryEach(query string, args []any, fn func(*sql.Rows) error) error {
	rows, err := ms.db.Query(query, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// inTx runs fn in a transaction and commits when it succeeds.
func (ms *ModelStoreImpl) inTx(action string, fn func(tx *sql.Tx) error) error {
	tx, err := ms.db.Begin()
	if err != nil {
		return unavailable(action, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return unavailable(action, err)
	}
	if err := tx.Commit(); err != nil {
		return unavailable(action, err)
	}
	return nil
}

// touchProject records the project with the current import time.
func (ms *ModelStoreImpl) touchProject(tx *sql.Tx, project string) error {
	if _, err := tx.Exec(ms.q("DELETE FROM %s WHERE project = ?", projectsTable), project); err != nil {
		return err
	}
	_, err := tx.Exec(ms.q("INSERT INTO %s (project, imported_at) VALUES (?, ?)", projectsTable), project, time.Now().Unix())
	return err
}

func (ms *ModelStoreImpl) deleteProjectRows(tx *sql.Tx, project string, tables ...string) error {
	for _, table := range tables {
		if _, err := tx.Exec(ms.q("DELETE FROM %s WHERE project = ?", table), project); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// insertRows inserts n rows through one prepared statement.
func (ms *ModelStoreImpl) insertRows(tx *sql.Tx, table, columns string, n int, row func(i int) []any) error {
	if n == 0 {
		return nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(row(0))), ", ")
	stmt, err := tx.Prepare(rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteTableName(table, ms.backend), columns, marks), ms.backend))
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range n {
		if _, err := stmt.Exec(row(i)...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return nil
}

func (ms *ModelStoreImpl) writeSourceModel(tx *sql.Tx, project string, model schema.SourceModel) error {
	classes := model.Classes
	if err := ms.insertRows(tx, classesTable, "project, class_id, ord, name", len(classes), func(i int) []any {
		return []any{project, classes[i].ID, i, classes[i].Name}
	}); err != nil {
		return err
	}

	methods := model.Methods()
	if err := ms.insertRows(tx, methodsTable, "project, method_id, class_id, ord, name, signature", len(methods), func(i int) []any {
		m := methods[i]
		return []any{project, m.ID, m.ClassID, i, m.Name, m.Signature}
	}); err != nil {
		return err
	}

	for _, m := range methods {
		if err := ms.insertRows(tx, methodParametersTable, "project, method_id, ord, name, param_type", len(m.Parameters), func(i int) []any {
			return []any{project, m.ID, i, m.Parameters[i].Name, m.Parameters[i].Type}
		}); err != nil {
			return err
		}
		if err := ms.insertRows(tx, methodReferencesTable, "project, method_id, ord, name, ref_type, origin", len(m.References), func(i int) []any {
			r := m.References[i]
			return []any{project, m.ID, i, r.Name, r.Type, string(r.Origin)}
		}); err != nil {
			return err
		}
	}
	return nil
}

func (ms *ModelStoreImpl) writeOntology(tx *sql.Tx, project string, ontology schema.Ontology) error {
	concepts := ontology.Concepts
	if err := ms.insertRows(tx, conceptsTable, "project, concept_id, ord, name", len(concepts), func(i int) []any {
		return []any{project, concepts[i].ID, i, concepts[i].Name}
	}); err != nil {
		return err
	}

	for _, c := range concepts {
		if err := ms.insertRows(tx, conceptAttributesTable, "project, concept_id, ord, name, identifier", len(c.Attributes), func(i int) []any {
			return []any{project, c.ID, i, c.Attributes[i].Name, c.Attributes[i].Identifier}
		}); err != nil {
			return err
		}
		if err := ms.insertRows(tx, conceptClassesTable, "project, concept_id, ord, name, identifier", len(c.Classes), func(i int) []any {
			return []any{project, c.ID, i, c.Classes[i].Name, c.Classes[i].Identifier}
		}); err != nil {
			return err
		}
		if err := ms.insertRows(tx, conceptLinksTable, "project, concept_id, ord, target_id, qualifier", len(c.Links), func(i int) []any {
			return []any{project, c.ID, i, c.Links[i].TargetID, c.Links[i].Qualifier}
		}); err != nil {
			return err
		}
	}
	return nil
}
