package schema

import "time"

// MatchRecord is the similarity weight of one (method, concept) pair.
type MatchRecord struct {
	MethodID  int64    `json:"method_id"`
	ConceptID int64    `json:"concept_id"`
	Weight    float64  `json:"weight"`
	Terms     []string `json:"terms,omitempty"`
}

// MatchResult is a MatchRecord resolved against the source model and ontology.
type MatchResult struct {
	MethodID        int64    `json:"method_id"`
	ClassID         int64    `json:"class_id"`
	ClassName       string   `json:"class"`
	MethodSignature string   `json:"method"`
	ConceptID       int64    `json:"concept_id"`
	ConceptName     string   `json:"concept"`
	Weight          float64  `json:"weight"`
	Terms           []string `json:"terms,omitempty"`
}

// EnrichedMatchResult adds presentation data to a MatchResult.
type EnrichedMatchResult struct {
	Rank  int    `json:"rank"`
	Label string `json:"label"`
	MatchResult
}

// MatchRunRecord represents a row from the conceptrace_match_runs table.
type MatchRunRecord struct {
	RunID         int64
	RunUUID       string
	Project       string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalMethods  int32
	TotalConcepts int32
	TotalMatches  int32
	ConfigParams  *string
}

// RunSummary carries the completion data of a match run.
type RunSummary struct {
	EndTime       time.Time
	TotalMethods  int
	TotalConcepts int
	TotalMatches  int
}
