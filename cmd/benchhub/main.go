// Package main is the entry point for the benchhub CLI.
//
// BenchHub can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary
// approach.
//
// Usage:
//
//	benchhub serve -c config.yaml    # Start the hub
//	benchhub validate -c config.yaml # Validate configuration
//	benchhub version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "benchhub",
	Short: "A session-scoped telemetry and notes hub",
	Long: `BenchHub is a session-scoped data and event hub for hardware test benches.

It stores telemetry samples, annotated notes, and transcription tasks per
test session, and pushes change events to websocket subscribers in real
time. All state is in-memory and lost on restart.

Quick start:
  1. Create a config file (benchhub.yaml), or rely on defaults
  2. Run: benchhub serve -c benchhub.yaml
  3. Create a session: POST http://localhost:8080/api/sessions
  4. Subscribe: ws://localhost:8080/ws/sessions/{sid}

Example config:
  port: 8080
  log_level: info
  allowed_origins:
    - http://localhost:5173
  sweep_interval: 30s`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this benchhub binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("benchhub %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
