// Package core has the matching engine and the entry points of every command.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/conceptrace/core/agg"
	"github.com/huangsam/conceptrace/core/algo"
	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/huangsam/conceptrace/internal/modelio"
	"github.com/huangsam/conceptrace/internal/outwriter"
	"github.com/huangsam/conceptrace/schema"
	"golang.org/x/sync/errgroup"
)

// ErrNoModelStore is returned when a command needs the model store but none was initialized.
var ErrNoModelStore = errors.New("model store is not initialized")

// ExecutorFunc defines the function signature for executing project commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// ExecuteTokenize shows how each identifier splits into tokens and terms.
// It needs neither a project nor a store.
func ExecuteTokenize(_ context.Context, cfg *contract.Config, identifiers []string) error {
	start := time.Now()
	results := GetTokenResults(cfg, identifiers)
	return outwriter.WriteTokenResults(results, cfg, time.Since(start))
}

// ExecuteStems prints the stem trees of a stored project.
func ExecuteStems(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	store, err := modelStore(mgr)
	if err != nil {
		return err
	}
	model, ontology, err := loadProject(ctx, store, cfg.Project)
	if err != nil {
		return err
	}
	cache, err := NewStemCache(cfg.CacheSize)
	if err != nil {
		return err
	}
	methods, concepts := NewEngine(engineOptions(cfg, cache)).BuildTrees(model, ontology)

	var trees []schema.StemTree
	if cfg.StemOwner == "" || cfg.StemOwner == schema.MethodOwner {
		trees = append(trees, methods...)
	}
	if cfg.StemOwner == "" || cfg.StemOwner == schema.ConceptOwner {
		trees = append(trees, concepts...)
	}
	return outwriter.WriteStemTrees(trees, cfg, time.Since(start))
}

// ExecuteMatch recomputes the matches of a project, replaces the stored set
// and prints the top of the ranking.
func ExecuteMatch(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	cache, err := NewStemCache(cfg.CacheSize)
	if err != nil {
		return err
	}
	results, err := ComputeMatches(ctx, cfg, mgr, cache)
	if err != nil {
		return err
	}
	ranked := algo.RankMatches(results, cfg.ResultLimit)
	return outwriter.WriteMatchResults(ranked, cfg, time.Since(start))
}

// ExecuteMatches prints the stored matches of a project without recomputing them.
func ExecuteMatches(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	if !shouldSuppressHeader(ctx) {
		outwriter.LogMatchHeader(cfg)
	}
	ranked, err := GetMatchResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteMatchResults(ranked, cfg, time.Since(start))
}

// ExecuteTimeseries projects a recorded scenario onto the concepts of a project.
func ExecuteTimeseries(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	if !shouldSuppressHeader(ctx) {
		outwriter.LogTimeseriesHeader(cfg)
	}
	series, err := GetTimeSeries(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteTimeSeries(series, cfg, time.Since(start))
}

// ExecuteImportModel loads a project document and replaces the stored source
// model and ontology. Stored matches of the project are dropped.
func ExecuteImportModel(_ context.Context, cfg *contract.Config, mgr contract.StoreManager, path string) error {
	store, err := modelStore(mgr)
	if err != nil {
		return err
	}
	doc, err := modelio.LoadProjectFile(path)
	if err != nil {
		return err
	}
	project := cfg.Project
	if project == "" {
		project = doc.Project
	}
	if project == "" {
		return errors.New("project name is required (set --project or the document's project field)")
	}
	model, ontology := doc.SourceModel(), doc.Ontology()
	if err := store.ImportProject(project, model, ontology); err != nil {
		return fmt.Errorf("failed to import project %s: %w", project, err)
	}
	fmt.Printf("Imported project %s: %d classes, %d methods, %d concepts\n",
		project, len(model.Classes), len(model.Methods()), len(ontology.Concepts))
	return nil
}

// ExecuteImportTraces loads a trace file and replaces one scenario of a project.
func ExecuteImportTraces(_ context.Context, cfg *contract.Config, mgr contract.StoreManager, path string) error {
	store, err := modelStore(mgr)
	if err != nil {
		return err
	}
	if cfg.Scenario == "" {
		return errors.New("--scenario is required")
	}
	traces, err := modelio.LoadTraceFile(path)
	if err != nil {
		return err
	}
	if err := store.ReplaceTraces(cfg.Project, cfg.Scenario, traces); err != nil {
		return fmt.Errorf("failed to import scenario %s: %w", cfg.Scenario, err)
	}
	fmt.Printf("Imported scenario %s of project %s: %d traces\n", cfg.Scenario, cfg.Project, len(traces))
	return nil
}

// GetTokenResults decomposes identifiers with the source-side normalizer settings.
func GetTokenResults(cfg *contract.Config, identifiers []string) []schema.TokenResult {
	n := NewNormalizer(cfg.Stemmer, cfg.RejectedWords, cfg.TrimHungarian)
	results := make([]schema.TokenResult, 0, len(identifiers))
	for _, ident := range identifiers {
		terms := n.Terms(ident)
		if terms == nil {
			terms = []string{}
		}
		results = append(results, schema.TokenResult{
			Identifier: ident,
			Tokens:     Tokenize(ident),
			Terms:      terms,
		})
	}
	return results
}

// ComputeMatches recomputes every match of a project and replaces the stored
// set. The returned matches are enriched but not ranked.
func ComputeMatches(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, cache *StemCache) ([]schema.MatchResult, error) {
	if !shouldSuppressHeader(ctx) {
		outwriter.LogMatchHeader(cfg)
	}
	store, err := modelStore(mgr)
	if err != nil {
		return nil, err
	}
	model, ontology, err := loadProject(ctx, store, cfg.Project)
	if err != nil {
		return nil, err
	}

	ctx = beginRun(ctx, cfg, mgr.GetRunStore())

	records, err := NewEngine(engineOptions(cfg, cache)).Match(model, ontology)
	if err != nil {
		return nil, err
	}
	if err := store.ReplaceMatches(cfg.Project, records); err != nil {
		return nil, fmt.Errorf("failed to store matches: %w", err)
	}

	endRun(ctx, mgr.GetRunStore(), schema.RunSummary{
		EndTime:       time.Now(),
		TotalMethods:  len(model.Methods()),
		TotalConcepts: len(ontology.Concepts),
		TotalMatches:  len(records),
	})

	return EnrichMatches(records, model, ontology), nil
}

// GetMatchResults returns the stored matches of a project, ranked and limited.
func GetMatchResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) ([]schema.MatchResult, error) {
	store, err := modelStore(mgr)
	if err != nil {
		return nil, err
	}

	var (
		model    schema.SourceModel
		ontology schema.Ontology
		records  []schema.MatchRecord
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		model, err = store.GetSourceModel(cfg.Project)
		return err
	})
	g.Go(func() (err error) {
		ontology, err = store.GetOntology(cfg.Project)
		return err
	})
	g.Go(func() (err error) {
		records, err = store.GetMatches(cfg.Project)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load matches of %s: %w", cfg.Project, err)
	}

	return algo.RankMatches(EnrichMatches(records, model, ontology), cfg.ResultLimit), nil
}

// GetTimeSeries projects the stored traces of a scenario through the stored matches.
func GetTimeSeries(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.TimeSeries, error) {
	store, err := modelStore(mgr)
	if err != nil {
		return schema.TimeSeries{}, err
	}

	var (
		model    schema.SourceModel
		ontology schema.Ontology
		records  []schema.MatchRecord
		traces   []schema.Trace
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		model, err = store.GetSourceModel(cfg.Project)
		return err
	})
	g.Go(func() (err error) {
		ontology, err = store.GetOntology(cfg.Project)
		return err
	})
	g.Go(func() (err error) {
		records, err = store.GetMatches(cfg.Project)
		return err
	})
	g.Go(func() (err error) {
		traces, err = store.GetTraces(cfg.Project, cfg.Scenario)
		return err
	})
	if err := g.Wait(); err != nil {
		return schema.TimeSeries{}, fmt.Errorf("failed to load scenario %s: %w", cfg.Scenario, err)
	}

	series, err := agg.Project(traces, EnrichMatches(records, model, ontology), agg.ProjectionOptions{
		SegmentCount:  cfg.Segments,
		Threshold:     cfg.Threshold,
		ConceptFilter: resolveConcepts(cfg.Concepts, ontology),
	})
	if err != nil {
		return schema.TimeSeries{}, err
	}
	series.Scenario = cfg.Scenario
	return series, nil
}

// resolveConcepts maps concept names to references, keeping the given order.
// Unknown names are skipped with a warning.
func resolveConcepts(names []string, ontology schema.Ontology) []schema.ConceptRef {
	if len(names) == 0 {
		return nil
	}
	byName := make(map[string]schema.ConceptRef, len(ontology.Concepts))
	for _, c := range ontology.Concepts {
		if _, ok := byName[c.Name]; !ok {
			byName[c.Name] = schema.ConceptRef{ID: c.ID, Name: c.Name}
		}
	}
	refs := make([]schema.ConceptRef, 0, len(names))
	for _, name := range names {
		ref, ok := byName[name]
		if !ok {
			contract.LogWarn("Skipping concept filter", fmt.Errorf("no concept named %q", name))
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

// loadProject reads the source model and the ontology of a project concurrently.
func loadProject(ctx context.Context, store contract.ModelStore, project string) (schema.SourceModel, schema.Ontology, error) {
	var (
		model    schema.SourceModel
		ontology schema.Ontology
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		model, err = store.GetSourceModel(project)
		return err
	})
	g.Go(func() (err error) {
		ontology, err = store.GetOntology(project)
		return err
	})
	if err := g.Wait(); err != nil {
		return schema.SourceModel{}, schema.Ontology{}, fmt.Errorf("failed to load project %s: %w", project, err)
	}
	return model, ontology, nil
}

// modelStore returns the model store of the manager.
func modelStore(mgr contract.StoreManager) (contract.ModelStore, error) {
	if mgr == nil || mgr.GetModelStore() == nil {
		return nil, ErrNoModelStore
	}
	return mgr.GetModelStore(), nil
}

// engineOptions maps the validated config onto engine settings.
func engineOptions(cfg *contract.Config, cache *StemCache) EngineOptions {
	return EngineOptions{
		Stems: StemOptions{
			Stemmer:       cfg.Stemmer,
			RejectedWords: cfg.RejectedWords,
			FullWeight:    cfg.FullWeight,
			TrimHungarian: cfg.TrimHungarian,
		},
		Score: algo.ScoreOptions{
			Algorithm:  cfg.Algorithm,
			Exhaustive: cfg.Exhaustive,
			Workers:    cfg.Workers,
		},
		Workers: cfg.Workers,
		Cache:   cache,
	}
}

// beginRun starts run tracking when a run store is configured. Tracking
// failures are warnings.
func beginRun(ctx context.Context, cfg *contract.Config, runs contract.RunStore) context.Context {
	if runs == nil {
		return ctx
	}
	configParams := map[string]any{
		"algorithm":      string(cfg.Algorithm),
		"exhaustive":     cfg.Exhaustive,
		"full_weight":    cfg.FullWeight,
		"stemmer":        string(cfg.Stemmer),
		"rejected_words": cfg.RejectedWords,
		"hungarian":      cfg.TrimHungarian,
		"workers":        cfg.Workers,
	}
	runID, err := runs.BeginRun(cfg.Project, time.Now(), configParams)
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return ctx
	}
	return withRunID(ctx, runID)
}

// endRun finalizes the tracked run of the context, if any.
func endRun(ctx context.Context, runs contract.RunStore, summary schema.RunSummary) {
	runID, ok := getRunID(ctx)
	if runs == nil || !ok || runID <= 0 {
		return
	}
	if err := runs.EndRun(runID, summary); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}
