package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for persistence.
	DatabaseBackend string

	// Algorithm represents the similarity function used to score pairs.
	Algorithm string

	// StemmerMode represents the optional stemming applied to terms.
	StemmerMode string

	// OwnerKind tells whether a stem tree belongs to a method or a concept.
	OwnerKind string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All similarity algorithms supported.
const (
	CosineAlgorithm        Algorithm = "cosine" // default
	DiceAlgorithm          Algorithm = "dice"
	TFIDFAlgorithm         Algorithm = "tfidf"
	WeightedTFIDFAlgorithm Algorithm = "wtfidf"
	LevenshteinAlgorithm   Algorithm = "levenshtein"
)

// All stemmer modes supported.
const (
	NoStemmer      StemmerMode = "none" // default
	EnglishStemmer StemmerMode = "english"
)

// Owners of stem trees.
const (
	MethodOwner  OwnerKind = "method"
	ConceptOwner OwnerKind = "concept"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidAlgorithms lists all valid similarity algorithms.
var ValidAlgorithms = map[Algorithm]struct{}{
	CosineAlgorithm:        {},
	DiceAlgorithm:          {},
	TFIDFAlgorithm:         {},
	WeightedTFIDFAlgorithm: {},
	LevenshteinAlgorithm:   {},
}

// ValidStemmerModes lists all valid stemmer modes.
var ValidStemmerModes = map[StemmerMode]struct{}{
	NoStemmer:      {},
	EnglishStemmer: {},
}
