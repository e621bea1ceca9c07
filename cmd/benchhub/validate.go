package main

import (
	"fmt"

	"github.com/mfreitag/benchhub/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a BenchHub configuration file without starting the server.

This command parses the YAML and validates all fields. It's useful for
CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  benchhub validate -c config.yaml
  benchhub validate --config /etc/benchhub/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	sweep := "disabled"
	if cfg.SweepInterval > 0 {
		sweep = cfg.SweepInterval.Duration().String()
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:            %d\n", cfg.Port)
	fmt.Printf("  Log level:       %s\n", cfg.LogLevel)
	fmt.Printf("  Allowed origins: %d\n", len(cfg.AllowedOrigins))
	fmt.Printf("  Liveness sweep:  %s\n", sweep)

	return nil
}
