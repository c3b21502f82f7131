// Command anamnesis-worker is the external worker process for the
// ingestion pipeline. It speaks the framed call protocol on stdin/stdout,
// executing parse, reason, generate and ping actions, and shuts down
// cleanly when stdin reaches EOF.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/hyperpolymath/anamnesis/ingest"
	"github.com/hyperpolymath/anamnesis/worker"
)

func main() {
	var (
		kind         = flag.String("kind", "", "Worker kind label for logging (parse, reason, generate)")
		logLevel     = flag.String("log-level", getEnv("ANAMNESIS_LOG_LEVEL", "info"), "Log level (env: ANAMNESIS_LOG_LEVEL)")
		maxFrameSize = flag.Int("max-frame-size", 4<<20, "Maximum frame size in bytes; must match the parent's channel configuration")
	)
	flag.Parse()

	logger := setupLogger(*logLevel)
	if *kind != "" {
		logger = logger.With("kind", *kind)
	}
	slog.SetDefault(logger)

	// Stdout carries frames; everything else goes to stderr.
	logger.Info("worker started", "pid", os.Getpid())

	handler := ingest.NewHandler()
	if err := worker.Serve(os.Stdin, os.Stdout, *maxFrameSize, handler.Handle); err != nil {
		logger.Error("worker stream failed", "error", err)
		os.Exit(1)
	}
	logger.Info("worker shutting down on stdin EOF")
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler).With("app", "anamnesis-worker")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
