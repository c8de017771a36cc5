package contract

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/huangsam/conceptrace/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit = 50
	MaxResultLimit     = 10000
	DefaultPrecision   = 3
	MaxPrecision       = 4
	DefaultSegments    = 10
	DefaultCacheSize   = 4096
	DefaultFullWeight  = 1.0
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for every command.
// This struct remains the "final, validated" config.
type Config struct {
	Project     string
	ResultLimit int
	Workers     int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)
	Detail      bool
	UseColors   bool

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext

	// Matching parameters
	Algorithm     schema.Algorithm
	Exhaustive    bool
	FullWeight    float64
	Stemmer       schema.StemmerMode
	RejectedWords []string
	CacheSize     int
	TrimHungarian bool // strip scope/type decoration from identifiers

	// Projection parameters
	Scenario  string
	Segments  int
	Threshold float64
	Concepts  []string

	// Inspection parameters
	StemOwner schema.OwnerKind // empty means both
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Project       string `mapstructure:"project"`
	OutputFile    string `mapstructure:"output-file"`
	Limit         int    `mapstructure:"limit"`
	Workers       int    `mapstructure:"workers"`
	Precision     int    `mapstructure:"precision"`
	Output        string `mapstructure:"output"`
	Detail        bool   `mapstructure:"detail"`
	Width         int    `mapstructure:"width"`
	StoreBackend  string `mapstructure:"store-backend"`
	StoreConnect  string `mapstructure:"store-db-connect"`
	RunsBackend   string `mapstructure:"runs-backend"`
	RunsDBConnect string `mapstructure:"runs-db-connect"`
	Color         string `mapstructure:"color"`

	// --- Matching fields ---
	Algorithm         string  `mapstructure:"algorithm"`
	Exhaustive        bool    `mapstructure:"exhaustive"`
	FullWeight        float64 `mapstructure:"full-weight"`
	Stemmer           string  `mapstructure:"stemmer"`
	RejectedWords     string  `mapstructure:"rejected-words"`
	RejectedWordsFile string  `mapstructure:"rejected-words-file"`
	CacheSize         int     `mapstructure:"cache-size"`
	Hungarian         string  `mapstructure:"hungarian"`

	// --- Fields from timeseriesCmd.Flags() ---
	Scenario  string  `mapstructure:"scenario"`
	Segments  int     `mapstructure:"segments"`
	Threshold float64 `mapstructure:"threshold"`
	Concepts  string  `mapstructure:"concepts"`

	// --- Fields from stemsCmd.Flags() ---
	Kind string `mapstructure:"kind"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.RejectedWords = slices.Clone(c.RejectedWords)
	clone.Concepts = slices.Clone(c.Concepts)
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processMatchingInputs(cfg, input); err != nil {
		return err
	}
	return processProjectionInputs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates store and run backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Store Backend Validation ---
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	// --- Runs Backend Validation ---
	cfg.RunsBackend = schema.DatabaseBackend(strings.ToLower(input.RunsBackend))
	if cfg.RunsBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RunsBackend]; !ok {
		return fmt.Errorf("invalid runs backend '%s'. must be sqlite, mysql, postgresql, none", input.RunsBackend)
	}
	cfg.RunsDBConnect = input.RunsDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return err
	}

	// For SQLite, resolve to actual file paths to catch default path conflicts
	if cfg.StoreBackend == schema.SQLiteBackend && cfg.RunsBackend == schema.SQLiteBackend {
		storePath := cfg.StoreDBConnect
		if storePath == "" {
			storePath = GetStoreDBFilePath()
		}
		runsPath := cfg.RunsDBConnect
		if runsPath == "" {
			runsPath = GetRunsDBFilePath()
		}
		if storePath == runsPath {
			return fmt.Errorf("store and runs must use different SQLite database files. Both resolve to %q", storePath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the presentation fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Project = strings.TrimSpace(input.Project)
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Width = input.Width

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	switch kind := schema.OwnerKind(strings.ToLower(input.Kind)); kind {
	case "", schema.MethodOwner, schema.ConceptOwner:
		cfg.StemOwner = kind
	default:
		return fmt.Errorf("invalid kind '%s'. must be method or concept", input.Kind)
	}

	return nil
}

// processMatchingInputs handles the parameters of stem extraction and scoring.
func processMatchingInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Algorithm = schema.Algorithm(strings.ToLower(input.Algorithm))
	if _, ok := schema.ValidAlgorithms[cfg.Algorithm]; !ok {
		return fmt.Errorf("invalid algorithm '%s'. must be cosine, dice, tfidf, wtfidf, levenshtein", input.Algorithm)
	}
	cfg.Exhaustive = input.Exhaustive

	if input.FullWeight <= 0 {
		return fmt.Errorf("full-weight must be greater than 0 (received %g)", input.FullWeight)
	}
	cfg.FullWeight = input.FullWeight

	cfg.Stemmer = schema.StemmerMode(strings.ToLower(input.Stemmer))
	if _, ok := schema.ValidStemmerModes[cfg.Stemmer]; !ok {
		return fmt.Errorf("invalid stemmer '%s'. must be none, english", input.Stemmer)
	}

	if input.CacheSize < 0 {
		return fmt.Errorf("cache-size cannot be negative (received %d)", input.CacheSize)
	}
	cfg.CacheSize = input.CacheSize

	trim, err := ParseBoolString(input.Hungarian)
	if err != nil {
		return fmt.Errorf("invalid --hungarian value: %w", err)
	}
	cfg.TrimHungarian = trim

	words := SplitList(input.RejectedWords)
	if input.RejectedWordsFile != "" {
		fromFile, err := readWordList(input.RejectedWordsFile)
		if err != nil {
			return fmt.Errorf("invalid rejected-words-file: %w", err)
		}
		words = append(words, fromFile...)
	}
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	cfg.RejectedWords = words

	return nil
}

// processProjectionInputs handles the time series parameters.
func processProjectionInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Scenario = strings.TrimSpace(input.Scenario)

	if input.Segments <= 0 {
		return fmt.Errorf("--segments must be at least 1 (received %d)", input.Segments)
	}
	cfg.Segments = input.Segments

	if math.IsNaN(input.Threshold) || input.Threshold < 0 || input.Threshold > 1 {
		return fmt.Errorf("--threshold must be between 0.0 and 1.0 (received %g)", input.Threshold)
	}
	cfg.Threshold = input.Threshold

	cfg.Concepts = SplitList(input.Concepts)
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// readWordList reads one word per line, skipping blanks and '#' comments.
func readWordList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words, scanner.Err()
}

// RevalidateMatching applies per-request matching overrides to a cloned config.
// Empty values keep the current setting.
func RevalidateMatching(cfg *Config, algorithm, stemmer string) error {
	if algorithm != "" {
		alg := schema.Algorithm(strings.ToLower(algorithm))
		if _, ok := schema.ValidAlgorithms[alg]; !ok {
			return fmt.Errorf("invalid algorithm '%s'. must be cosine, dice, tfidf, wtfidf, levenshtein", algorithm)
		}
		cfg.Algorithm = alg
	}
	if stemmer != "" {
		mode := schema.StemmerMode(strings.ToLower(stemmer))
		if _, ok := schema.ValidStemmerModes[mode]; !ok {
			return fmt.Errorf("invalid stemmer '%s'. must be none, english", stemmer)
		}
		cfg.Stemmer = mode
	}
	return nil
}

// RevalidateTimeseries applies per-request projection parameters to a cloned config.
func RevalidateTimeseries(cfg *Config, scenario string, segments int, threshold float64, concepts string) error {
	cfg.Scenario = strings.TrimSpace(scenario)
	if cfg.Scenario == "" {
		return fmt.Errorf("--scenario is required")
	}
	if segments <= 0 {
		return fmt.Errorf("--segments must be at least 1 (received %d)", segments)
	}
	cfg.Segments = segments
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return fmt.Errorf("--threshold must be between 0.0 and 1.0 (received %g)", threshold)
	}
	cfg.Threshold = threshold
	cfg.Concepts = SplitList(concepts)
	return nil
}
