// Command anamnesis ingests chat transcript exports into a SPARQL
// triplestore: parse, validate, reason, generate RDF, store. Stage work
// runs in pooled external worker processes.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/hyperpolymath/anamnesis/config"
	"github.com/hyperpolymath/anamnesis/ingest"
	"github.com/hyperpolymath/anamnesis/metric"
	"github.com/hyperpolymath/anamnesis/store"
	"github.com/hyperpolymath/anamnesis/worker"
)

func main() {
	cliConfig := parseFlags()
	if cliConfig.ShowHelp {
		printDetailedHelp()
		os.Exit(0)
	}

	if err := run(cliConfig); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func run(cliConfig *CLIConfig) error {
	cfg, err := config.Load(cliConfig.ConfigPath)
	if err != nil {
		return err
	}

	// Command line wins over file and environment.
	if cliConfig.LogLevel != "" {
		cfg.Logging.Level = cliConfig.LogLevel
	}
	if cliConfig.LogFormat != "" {
		cfg.Logging.Format = cliConfig.LogFormat
	}
	if cliConfig.WorkerBinary != "" {
		cfg.WorkerBinary = cliConfig.WorkerBinary
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cliConfig.Validate {
		fmt.Println("configuration valid")
		return nil
	}

	if len(cliConfig.Files) == 0 {
		return fmt.Errorf("no export files given, see --help")
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := metric.NewRegistry()

	storeClient, err := store.NewClient(cfg.Store, store.WithLogger(logger))
	if err != nil {
		return err
	}

	pools, err := buildPools(ctx, cfg, logger, registry)
	defer closePools(pools, logger)
	if err != nil {
		return err
	}

	coordinator, err := ingest.NewCoordinator(pools, storeClient, cfg.Ingest,
		ingest.WithLogger(logger),
		ingest.WithMetricsRegistry(registry))
	if err != nil {
		return err
	}

	group, ctx := errgroup.WithContext(ctx)
	for _, path := range cliConfig.Files {
		path := path
		group.Go(func() error {
			result, err := coordinator.IngestFile(ctx, path, cliConfig.Format)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Printf("%s\t%s\t%d triples\n", path, result.ConversationID, result.Triples)
			return nil
		})
	}
	return group.Wait()
}

func buildPools(ctx context.Context, cfg config.Config, logger *slog.Logger, registry *metric.Registry) (ingest.Pools, error) {
	newPool := func(poolConfig worker.PoolConfig, action string) (*worker.Pool, error) {
		spawner := &worker.ProcessSpawner{
			Path:   cfg.WorkerBinary,
			Args:   []string{"--kind", action},
			Logger: logger,
		}
		return worker.NewPool(ctx, spawner, poolConfig,
			worker.WithPoolLogger(logger),
			worker.WithMetricsRegistry(registry))
	}

	var pools ingest.Pools
	var err error
	if pools.Parse, err = newPool(cfg.Pools.Parse, "parse"); err != nil {
		return pools, err
	}
	if pools.Reason, err = newPool(cfg.Pools.Reason, "reason"); err != nil {
		return pools, err
	}
	if pools.Generate, err = newPool(cfg.Pools.Generate, "generate"); err != nil {
		return pools, err
	}
	return pools, nil
}

func closePools(pools ingest.Pools, logger *slog.Logger) {
	for _, pool := range []*worker.Pool{pools.Parse, pools.Reason, pools.Generate} {
		if pool == nil {
			continue
		}
		if err := pool.Close(); err != nil {
			logger.Warn("pool close", "error", err)
		}
	}
}
