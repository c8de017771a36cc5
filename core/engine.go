package core

import (
	"sync"

	"github.com/huangsam/conceptrace/core/algo"
	"github.com/huangsam/conceptrace/schema"
)

// EngineOptions configures an Engine.
type EngineOptions struct {
	Stems   StemOptions
	Score   algo.ScoreOptions
	Workers int
	Cache   *StemCache // optional
}

// Engine runs the matching pipeline: stems, vector space, scores.
type Engine struct {
	builder *StemBuilder
	score   algo.ScoreOptions
	workers int
	cache   *StemCache
}

// NewEngine creates an Engine.
func NewEngine(opts EngineOptions) *Engine {
	score := opts.Score
	if score.Workers <= 0 {
		score.Workers = max(opts.Workers, 1)
	}
	return &Engine{
		builder: NewStemBuilder(opts.Stems),
		score:   score,
		workers: max(opts.Workers, 1),
		cache:   opts.Cache,
	}
}

// BuildTrees builds the stem tree of every method and every concept.
// Trees come back in model order.
func (e *Engine) BuildTrees(model schema.SourceModel, ontology schema.Ontology) (methods, concepts []schema.StemTree) {
	signature := e.builder.Signature()
	sourceMethods := model.Methods()

	methods = make([]schema.StemTree, len(sourceMethods))
	concepts = make([]schema.StemTree, len(ontology.Concepts))

	jobs := make(chan func(), len(methods)+len(concepts))
	for i, m := range sourceMethods {
		jobs <- func() {
			key := generateCacheKey(schema.MethodOwner, m, signature)
			methods[i] = e.cache.getOrBuild(key, func() schema.StemTree { return e.builder.BuildMethodStems(m) })
		}
	}
	for i, c := range ontology.Concepts {
		jobs <- func() {
			key := generateCacheKey(schema.ConceptOwner, c, signature)
			concepts[i] = e.cache.getOrBuild(key, func() schema.StemTree { return e.builder.BuildConceptStems(c) })
		}
	}
	close(jobs)

	var wg sync.WaitGroup
	for range e.workers {
		wg.Go(func() {
			for job := range jobs {
				job()
			}
		})
	}
	wg.Wait()

	return methods, concepts
}

// Index builds the shared vector space of a project, weighted for the
// configured algorithm.
func (e *Engine) Index(model schema.SourceModel, ontology schema.Ontology) *algo.Index {
	methods, concepts := e.BuildTrees(model, ontology)
	return algo.BuildIndexFor(methods, concepts, e.score.Algorithm)
}

// Match computes the complete replacement set of matches of a project.
func (e *Engine) Match(model schema.SourceModel, ontology schema.Ontology) ([]schema.MatchRecord, error) {
	return algo.Score(e.Index(model, ontology), e.score)
}

// EnrichMatches resolves match records against the model and ontology.
// Records naming an unknown method or concept are skipped.
func EnrichMatches(records []schema.MatchRecord, model schema.SourceModel, ontology schema.Ontology) []schema.MatchResult {
	type methodInfo struct {
		classID   int64
		className string
		signature string
	}
	methods := make(map[int64]methodInfo)
	for _, c := range model.Classes {
		for _, m := range c.Methods {
			sig := m.Signature
			if sig == "" {
				sig = m.Name
			}
			methods[m.ID] = methodInfo{classID: c.ID, className: c.Name, signature: sig}
		}
	}
	concepts := make(map[int64]string, len(ontology.Concepts))
	for _, c := range ontology.Concepts {
		concepts[c.ID] = c.Name
	}

	out := make([]schema.MatchResult, 0, len(records))
	for _, r := range records {
		m, ok := methods[r.MethodID]
		if !ok {
			continue
		}
		name, ok := concepts[r.ConceptID]
		if !ok {
			continue
		}
		out = append(out, schema.MatchResult{
			MethodID:        r.MethodID,
			ClassID:         m.classID,
			ClassName:       m.className,
			MethodSignature: m.signature,
			ConceptID:       r.ConceptID,
			ConceptName:     name,
			Weight:          r.Weight,
			Terms:           r.Terms,
		})
	}
	return out
}
