package main

import (
	"flag"
	"fmt"
	"os"
)

const appName = "anamnesis"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath   string
	LogLevel     string
	LogFormat    string
	Format       string
	WorkerBinary string
	Validate     bool
	ShowHelp     bool
	Files        []string
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	// Define flags with environment variable fallback
	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("ANAMNESIS_CONFIG", ""),
		"Path to YAML configuration file (env: ANAMNESIS_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("ANAMNESIS_LOG_LEVEL", ""),
		"Log level: debug, info, warn, error (env: ANAMNESIS_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("ANAMNESIS_LOG_FORMAT", ""),
		"Log format: json, text (env: ANAMNESIS_LOG_FORMAT)")

	flag.StringVar(&cfg.Format, "format", "",
		"Explicit export format: anthropic, openai, generic (default: detect)")

	flag.StringVar(&cfg.WorkerBinary, "worker",
		getEnv("ANAMNESIS_WORKER_BINARY", ""),
		"Path to the worker binary (env: ANAMNESIS_WORKER_BINARY)")

	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")

	flag.Usage = printDetailedHelp
	flag.Parse()

	cfg.Files = flag.Args()
	return cfg
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - chat transcript knowledge extraction

Usage: %s [options] <export-file>...

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Ingest exports with format detection
  %s --config=/etc/anamnesis/config.yaml exports/*.json

  # Ingest a known-format export with text logs
  %s --format=anthropic --log-format=text export.json

  # Validate configuration only
  %s --config=/etc/anamnesis/config.yaml --validate
`, os.Args[0], os.Args[0], os.Args[0])
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
