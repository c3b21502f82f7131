package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hyperpolymath/anamnesis/errors"
	"github.com/hyperpolymath/anamnesis/message"
	"github.com/hyperpolymath/anamnesis/metric"
	"github.com/hyperpolymath/anamnesis/store"
	"github.com/hyperpolymath/anamnesis/worker"
)

// Pipeline stage names, used for failure attribution and metric labels.
const (
	StageRead     = "read"
	StageParse    = "parse"
	StageValidate = "validate"
	StageReason   = "reasoning"
	StageGenerate = "generate"
	StageStore    = "store"
)

// Config bounds one ingestion run.
type Config struct {
	// Timeout caps a whole ingestion, all stages included.
	Timeout time.Duration `yaml:"timeout" env:"ANAMNESIS_INGEST_TIMEOUT"`
}

// DefaultConfig returns production coordinator defaults.
func DefaultConfig() Config {
	return Config{Timeout: 2 * time.Minute}
}

// Validate checks the coordinator configuration.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: ingest timeout must be positive, got %v", errors.ErrInvalidConfig, c.Timeout),
			"IngestConfig", "Validate", "timeout check")
	}
	return nil
}

// Pools groups one worker pool per pipeline stage kind.
type Pools struct {
	Parse    *worker.Pool
	Reason   *worker.Pool
	Generate *worker.Pool
}

// Coordinator runs the fixed sequential pipeline: read, parse, validate,
// reason, generate, store. It holds no shared mutable state beyond the
// pools and store client it was given, so any number of ingestions may run
// concurrently, each holding one checked-out channel per worker kind for
// its duration. A stage failure aborts the run with the stage's name
// wrapping the cause; nothing is handed downstream of a failed stage and
// nothing is retried here.
type Coordinator struct {
	config  Config
	pools   Pools
	store   *store.Client
	logger  *slog.Logger
	metrics *metric.Registry
}

// Option configures a Coordinator at construction.
type Option func(*Coordinator)

// WithLogger sets the coordinator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetricsRegistry wires ingestion outcome and stage duration metrics.
func WithMetricsRegistry(registry *metric.Registry) Option {
	return func(c *Coordinator) {
		c.metrics = registry
	}
}

// NewCoordinator validates the configuration and dependencies.
func NewCoordinator(pools Pools, storeClient *store.Client, config Config, opts ...Option) (*Coordinator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if pools.Parse == nil || pools.Reason == nil || pools.Generate == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: parse, reason and generate pools are all required", errors.ErrMissingConfig),
			"Coordinator", "NewCoordinator", "pool check")
	}
	if storeClient == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: store client is required", errors.ErrMissingConfig),
			"Coordinator", "NewCoordinator", "store check")
	}

	c := &Coordinator{
		config: config,
		pools:  pools,
		store:  storeClient,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Result summarizes one successful ingestion.
type Result struct {
	RunID          string `json:"run_id"`
	ConversationID string `json:"conversation_id"`
	Format         string `json:"format"`
	Triples        int    `json:"triples"`
}

// IngestFile reads a file and ingests its content. Format is an optional
// explicit hint; empty means detect.
func (c *Coordinator) IngestFile(ctx context.Context, path, format string) (*Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		err = errors.AtStage(StageRead, errors.WrapInvalid(err, "Coordinator", "IngestFile", "content read"))
		c.recordOutcome(err)
		return nil, err
	}
	return c.IngestContent(ctx, raw, format)
}

// IngestContent runs the pipeline over raw export content. Format is an
// optional explicit hint; empty means detect.
func (c *Coordinator) IngestContent(ctx context.Context, content []byte, format string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	runID := uuid.NewString()
	logger := c.logger.With("run_id", runID)

	result, err := c.run(ctx, runID, logger, content, format)
	c.recordOutcome(err)
	if err != nil {
		logger.Error("ingestion failed", "stage", errors.FailedStage(err), "error", err)
		return nil, err
	}

	logger.Info("ingestion complete",
		"conversation_id", result.ConversationID,
		"format", result.Format,
		"triples", result.Triples)
	return result, nil
}

func (c *Coordinator) run(ctx context.Context, runID string, logger *slog.Logger, content []byte, format string) (*Result, error) {
	parseCh, err := c.pools.Parse.Checkout(ctx)
	if err != nil {
		return nil, errors.AtStage(StageParse, err)
	}
	defer c.pools.Parse.Checkin(parseCh)

	reasonCh, err := c.pools.Reason.Checkout(ctx)
	if err != nil {
		return nil, errors.AtStage(StageReason, err)
	}
	defer c.pools.Reason.Checkin(reasonCh)

	generateCh, err := c.pools.Generate.Checkout(ctx)
	if err != nil {
		return nil, errors.AtStage(StageGenerate, err)
	}
	defer c.pools.Generate.Checkin(generateCh)

	// Parse.
	var parsed worker.ParseResult
	err = c.timeStage(StageParse, func() error {
		return c.callWorker(ctx, parseCh, worker.ActionParse,
			worker.ParseRequest{Content: content, Format: format}, &parsed)
	})
	if err != nil {
		return nil, err
	}
	conv := parsed.Conversation
	if conv == nil {
		return nil, errors.AtStage(StageParse,
			fmt.Errorf("parse worker returned no conversation"))
	}
	logger.Debug("parsed", "format", parsed.Format, "messages", len(conv.Messages), "artifacts", len(conv.Artifacts))

	// Validate, in-process: a pure data check over the parsed model.
	err = c.timeStage(StageValidate, func() error {
		violations := conv.Validate()
		if len(violations) == 0 {
			return nil
		}
		return errors.WrapInvalid(
			fmt.Errorf("%w: %d violations, first: %v",
				errors.ErrReferentialIntegrity, len(violations), violations[0]),
			"Coordinator", "run", "model validation")
	})
	if err != nil {
		return nil, err
	}

	// Reason.
	var reasoned worker.ReasonResult
	err = c.timeStage(StageReason, func() error {
		return c.callWorker(ctx, reasonCh, worker.ActionReason, worker.ReasonRequest{
			Conversation: conv,
			Histories:    artifactHistories(conv),
		}, &reasoned)
	})
	if err != nil {
		return nil, err
	}

	// Generate.
	var generated worker.GenerateResult
	err = c.timeStage(StageGenerate, func() error {
		return c.callWorker(ctx, generateCh, worker.ActionGenerate, worker.GenerateRequest{
			Conversation: conv,
			Inferences:   reasoned.Inferences,
		}, &generated)
	})
	if err != nil {
		return nil, err
	}

	// Store.
	err = c.timeStage(StageStore, func() error {
		return c.store.Insert(ctx, generated.NTriples)
	})
	if err != nil {
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.Core.TriplesEmitted.Add(float64(generated.Count))
	}

	return &Result{
		RunID:          runID,
		ConversationID: conv.ID,
		Format:         parsed.Format,
		Triples:        generated.Count,
	}, nil
}

// callWorker marshals a request, submits it, and decodes the result.
// Transport failures and worker-reported failures surface the same way; the
// stage tag added by the caller attributes them.
func (c *Coordinator) callWorker(ctx context.Context, ch *worker.Channel, action worker.Action, req, out any) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	call, err := worker.NewCall(action, payload)
	if err != nil {
		return err
	}

	resp, err := ch.Submit(ctx, call)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if out != nil && len(resp.Result) > 0 {
		return json.Unmarshal(resp.Result, out)
	}
	return nil
}

// timeStage runs one stage, observes its duration, and tags its failure.
func (c *Coordinator) timeStage(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	if c.metrics != nil {
		c.metrics.Core.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return errors.AtStage(stage, err)
	}
	return nil
}

// recordOutcome counts the run under "ok" or its failed stage.
func (c *Coordinator) recordOutcome(err error) {
	if c.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = errors.FailedStage(err)
		if outcome == "" {
			outcome = "unknown"
		}
	}
	c.metrics.Core.IngestionsTotal.WithLabelValues(outcome).Inc()
}

// artifactHistories derives per-artifact state event sequences from the
// messages that created and modified them. The declared final state is
// emitted by the RDF generator as a lifecycle edge; it carries no message
// timestamp, so it contributes no derived event here.
func artifactHistories(conv *message.Conversation) map[string][]message.StateEvent {
	timestamps := make(map[string]int64, len(conv.Messages))
	for _, m := range conv.Messages {
		timestamps[m.ID] = m.Timestamp
	}

	histories := make(map[string][]message.StateEvent, len(conv.Artifacts))
	for _, a := range conv.Artifacts {
		events := []message.StateEvent{
			{State: message.StateCreated, Timestamp: timestamps[a.CreatedIn]},
		}
		mods := make([]int64, 0, len(a.ModifiedIn))
		for _, id := range a.ModifiedIn {
			if ts, ok := timestamps[id]; ok {
				mods = append(mods, ts)
			}
		}
		sort.Slice(mods, func(i, j int) bool { return mods[i] < mods[j] })
		for _, ts := range mods {
			events = append(events, message.StateEvent{State: message.StateModified, Timestamp: ts})
		}
		histories[a.ID] = events
	}
	return histories
}
