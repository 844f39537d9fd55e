package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	BundlePath   string
	LogLevel     string
	LogFormat    string
	FetchTimeout time.Duration
	Retries      int
	ShowVersion  bool
	ShowHelp     bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	// Define flags with environment variable fallback
	flag.StringVar(&cfg.BundlePath, "bundle",
		getEnv("SEMVOCAB_BUNDLE", ""),
		"Path to optional vocabulary bundle file (env: SEMVOCAB_BUNDLE)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("SEMVOCAB_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: SEMVOCAB_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("SEMVOCAB_LOG_FORMAT", "text"),
		"Log format: json, text (env: SEMVOCAB_LOG_FORMAT)")

	flag.DurationVar(&cfg.FetchTimeout, "fetch-timeout",
		getEnvDuration("SEMVOCAB_FETCH_TIMEOUT", 10*time.Second),
		"Per-request fetch timeout (env: SEMVOCAB_FETCH_TIMEOUT)")

	flag.IntVar(&cfg.Retries, "retries",
		getEnvInt("SEMVOCAB_RETRIES", 0),
		"Fetch retry attempts, 0 disables retry (env: SEMVOCAB_RETRIES)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")

	flag.Usage = printDetailedHelp

	flag.Parse()

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.FetchTimeout <= 0 {
		return fmt.Errorf("invalid fetch timeout: %s", cfg.FetchTimeout)
	}

	if cfg.Retries < 0 {
		return fmt.Errorf("invalid retries: %d", cfg.Retries)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Vocabulary registry and collision resolver

Usage:
  %s [flags] <command> [args]

Commands:
  list                 List registered vocabulary prefixes
  show <identifier>    Show a vocabulary entry by prefix or alias URI
  context <prefix>     Print a vocabulary's @context payload and content hash
  resolve <a> <b>      Decide the merge strategy for two vocabularies

Flags:
`, appName, appName)
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  %s list
  %s show https://schema.org/
  %s context bioschemas
  %s resolve schema bioschemas
`, appName, appName, appName, appName)
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var parsed int
	if _, err := fmt.Sscanf(value, "%d", &parsed); err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
