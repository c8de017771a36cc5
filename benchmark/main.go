// Package main provides a performance benchmarking tool for the conceptrace CLI.
// It generates synthetic projects of increasing size, imports them into a
// SQLite store and times every command multiple times, treating the first
// successful run as cold and averaging the rest as warm. Results are written
// to a timestamped CSV file for performance analysis and documentation.
//
// Prerequisites:
// - conceptrace binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for generated projects and stores (default: a temp dir)
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/conceptrace/internal/modelio"
	"github.com/huangsam/conceptrace/schema"
	"gopkg.in/yaml.v3"
)

// BenchmarkResult holds the result of a benchmark run (cold run and average of warm runs).
type BenchmarkResult struct {
	Project  string
	Command  string
	ColdTime string
	WarmTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir  string
	Timeout  time.Duration
	Workers  int
	Runs     int
	Projects []ProjectSize
}

// ProjectSize describes one synthetic project.
type ProjectSize struct {
	Name           string
	Classes        int
	MethodsPerCls  int
	Concepts       int
	TraceEvents    int
	TimeseriesSegs int
}

var vocabulary = []string{
	"account", "balance", "deposit", "withdraw", "transfer", "customer", "order",
	"invoice", "payment", "ledger", "report", "queue", "printer", "session",
	"token", "user", "profile", "address", "shipment", "product", "catalog",
	"price", "discount", "tax", "currency", "audit", "event", "schedule",
}

var verbs = []string{"open", "close", "get", "set", "compute", "validate", "load", "save", "find", "update"}

func main() {
	workDir := ""
	if len(os.Args) > 1 {
		workDir = os.Args[1]
	}
	if workDir == "" {
		dir, err := os.MkdirTemp("", "conceptrace-bench-")
		if err != nil {
			fmt.Printf("Failed to create work dir: %v\n", err)
			os.Exit(1)
		}
		workDir = dir
	}

	config := BenchmarkConfig{
		WorkDir: workDir,
		Timeout: 5 * time.Minute,
		Workers: 14,
		Runs:    4,
		Projects: []ProjectSize{
			{Name: "small", Classes: 20, MethodsPerCls: 10, Concepts: 30, TraceEvents: 2_000, TimeseriesSegs: 10},
			{Name: "medium", Classes: 200, MethodsPerCls: 15, Concepts: 150, TraceEvents: 50_000, TimeseriesSegs: 25},
			{Name: "large", Classes: 1_000, MethodsPerCls: 20, Concepts: 500, TraceEvents: 500_000, TimeseriesSegs: 50},
		},
	}

	if err := checkPrerequisites(); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the conceptrace binary exists
func checkPrerequisites() error {
	if _, err := exec.LookPath("conceptrace"); err != nil {
		return fmt.Errorf("conceptrace binary not found in PATH")
	}
	return nil
}

// runBenchmarks generates every configured project and benchmarks it
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d projects, %v timeout, %d workers, %d runs\n",
		len(config.Projects), config.Timeout, config.Workers, config.Runs)

	for _, size := range config.Projects {
		fmt.Printf("Benchmarking %s\n", size.Name)

		dir := filepath.Join(config.WorkDir, size.Name)
		modelPath, tracesPath, err := generateProject(dir, size)
		if err != nil {
			fmt.Printf("  Failed to generate project: %v\n", err)
			continue
		}

		env := []string{
			"CONCEPTRACE_STORE_BACKEND=sqlite",
			"CONCEPTRACE_STORE_DB_CONNECT=" + filepath.Join(dir, "store.db"),
			"CONCEPTRACE_RUNS_BACKEND=sqlite",
			"CONCEPTRACE_RUNS_DB_CONNECT=" + filepath.Join(dir, "runs.db"),
		}
		project := []string{"--project", size.Name}
		workers := []string{"--workers", fmt.Sprint(config.Workers)}

		suites := []struct {
			command string
			args    []string
		}{
			{"import-model", []string{"import", "model", modelPath}},
			{"import-traces", append([]string{"import", "traces", tracesPath, "--scenario", "load"}, project...)},
			{"match", append(append([]string{"match", "--output", "json"}, project...), workers...)},
			{"match-exhaustive", append(append([]string{"match", "--exhaustive", "--output", "json"}, project...), workers...)},
			{"matches", append([]string{"matches", "--limit", "1000", "--output", "json"}, project...)},
			{"timeseries", append([]string{"timeseries", "--scenario", "load", "--segments", fmt.Sprint(size.TimeseriesSegs), "--output", "json"}, project...)},
		}
		for _, suite := range suites {
			results = append(results, runBenchmarkSuite(config, dir, env, size.Name, suite.command, suite.args))
		}
	}

	return results
}

// runBenchmarkSuite runs one command several times and summarizes its timings
func runBenchmarkSuite(config BenchmarkConfig, dir string, env []string, project, command string, args []string) BenchmarkResult {
	fmt.Printf("Running %s on %s (%d runs)\n", command, project, config.Runs)

	coldTime, warmTimes := runBenchmark(config, dir, env, args)

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}
	warmAvg := "TIMEOUT"
	if len(warmTimes) > 0 {
		var sum float64
		for _, t := range warmTimes {
			sum += t
		}
		warmAvg = fmt.Sprintf("%.3fs", sum/float64(len(warmTimes)))
	}

	fmt.Printf("  Cold time: %s, Warm average: %s\n", coldTimeStr, warmAvg)

	return BenchmarkResult{
		Project:  project,
		Command:  command,
		ColdTime: coldTimeStr,
		WarmTime: warmAvg,
	}
}

// runBenchmark executes a conceptrace command multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, dir string, env, args []string) (coldTime float64, warmTimes []float64) {
	var times []float64
	for run := 1; run <= config.Runs; run++ {
		start := time.Now()

		cmd := exec.Command("conceptrace", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), env...)

		done := make(chan bool, 1)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil {
				times = append(times, time.Since(start).Seconds())
			} else {
				fmt.Printf("  Run %d failed: %v\n%s\n", run, cmdErr, strings.TrimSpace(string(output)))
			}
		case <-time.After(config.Timeout):
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// generateProject writes a synthetic project document and a trace file into dir.
// The generator is seeded by the project name so that runs are repeatable.
func generateProject(dir string, size ProjectSize) (modelPath, tracesPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	seed := uint64(len(size.Name))*7919 + uint64(size.Classes)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	doc := modelio.ProjectDocument{Project: size.Name}
	var methodIDs []int64
	nextID := int64(1)
	for c := range size.Classes {
		class := schema.SourceClass{ID: nextID, Name: fmt.Sprintf("%s%sService%d", pascal(pick(rng, vocabulary)), pascal(pick(rng, vocabulary)), c)}
		nextID++
		for range size.MethodsPerCls {
			method := schema.SourceMethod{
				ID:   nextID,
				Name: pick(rng, verbs) + pascal(pick(rng, vocabulary)) + pascal(pick(rng, vocabulary)),
				Parameters: []schema.SourceParameter{
					{Name: pick(rng, vocabulary) + "Id", Type: "long"},
				},
				References: []schema.SourceReference{
					{Name: "m_" + pick(rng, vocabulary), Type: pascal(pick(rng, vocabulary)), Origin: schema.FieldOrigin},
				},
			}
			methodIDs = append(methodIDs, method.ID)
			class.Methods = append(class.Methods, method)
			nextID++
		}
		doc.Classes = append(doc.Classes, class)
	}

	conceptBase := nextID
	for i := range size.Concepts {
		concept := schema.Concept{
			ID:   conceptBase + int64(i),
			Name: pascal(pick(rng, vocabulary)) + pascal(pick(rng, vocabulary)),
			Attributes: []schema.ConceptAttribute{
				{Name: pick(rng, vocabulary)},
			},
		}
		if i > 0 {
			concept.Links = []schema.ConceptLink{{TargetID: conceptBase + int64(rng.IntN(i)), Qualifier: pick(rng, verbs)}}
		}
		doc.Concepts = append(doc.Concepts, concept)
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return "", "", err
	}
	modelPath = filepath.Join(dir, size.Name+".yaml")
	if err := os.WriteFile(modelPath, data, 0o644); err != nil {
		return "", "", err
	}

	tracesPath = filepath.Join(dir, size.Name+"_traces.csv")
	if err := writeTraces(tracesPath, methodIDs, size.TraceEvents, rng); err != nil {
		return "", "", err
	}
	return modelPath, tracesPath, nil
}

// writeTraces writes balanced enter/exit pairs for random methods
func writeTraces(path string, methodIDs []int64, events int, rng *rand.Rand) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"sequence_number", "entering", "method_id", "timestamp"}); err != nil {
		return err
	}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for seq := 1; seq+1 <= events; seq += 2 {
		id := fmt.Sprint(methodIDs[rng.IntN(len(methodIDs))])
		enter := start.Add(time.Duration(seq) * time.Millisecond)
		exit := enter.Add(time.Millisecond)
		if err := writer.Write([]string{fmt.Sprint(seq), "true", id, enter.Format(time.RFC3339Nano)}); err != nil {
			return err
		}
		if err := writer.Write([]string{fmt.Sprint(seq + 1), "false", id, exit.Format(time.RFC3339Nano)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func pick(rng *rand.Rand, words []string) string {
	return words[rng.IntN(len(words))]
}

func pascal(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("conceptrace_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"project", "cmd", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.Project, result.Command, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	seen := map[string]bool{}
	for _, result := range results {
		if seen[result.Command] {
			continue
		}
		seen[result.Command] = true
		printCommandSummary(results, result.Command)
	}
}

// printCommandSummary displays results for a specific command
func printCommandSummary(results []BenchmarkResult, command string) {
	fmt.Printf("%s:\n", command)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-8s: Cold: %s, Warm: %s\n", result.Project, result.ColdTime, result.WarmTime)
		}
	}
}
