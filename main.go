// Package main is the entry point of the conceptrace CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/conceptrace/cmd"
	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/huangsam/conceptrace/internal/iocache"
)

func main() {
	os.Exit(run())
}

// run executes the CLI and returns the process exit code. Stores are closed
// before the process exits.
func run() int {
	defer iocache.CloseStores()

	cmd.SetStoreManager(iocache.Manager)
	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
