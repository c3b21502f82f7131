package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hyperpolymath/anamnesis/errors"
	"github.com/hyperpolymath/anamnesis/metric"
	"github.com/hyperpolymath/anamnesis/pkg/retry"
)

// Spawner produces the duplex connection to one new worker process.
// ProcessSpawner is the production implementation; tests substitute
// in-memory pipes.
type Spawner interface {
	Spawn(ctx context.Context) (Conn, error)
}

// Pool holds a fixed number of channels of one worker kind. Checkout blocks
// the requesting caller until a channel is free; crashed channels are
// replaced asynchronously subject to a bounded respawn count within a
// sliding window. Past the ceiling the pool stops respawning and every
// checkout fails with ErrPoolExhausted until Reset.
type Pool struct {
	config  PoolConfig
	spawner Spawner
	logger  *slog.Logger
	free    chan *Channel

	lifecycleMu  sync.Mutex
	closed       bool
	exhausted    bool
	respawnTimes []time.Time
	live         map[*Channel]struct{}

	// Statistics (atomic)
	checkouts   int64
	exhaustions int64
	respawns    int64

	metrics         *poolMetrics
	metricsRegistry *metric.Registry
}

type poolMetrics struct {
	checkouts   prometheus.Counter
	exhaustions prometheus.Counter
	respawns    prometheus.Counter
	liveGauge   prometheus.Gauge
}

// PoolOption configures a Pool at construction.
type PoolOption func(*Pool)

// WithPoolLogger sets the pool's logger.
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetricsRegistry registers the pool's counters with the given registry
// under the pool's kind.
func WithMetricsRegistry(registry *metric.Registry) PoolOption {
	return func(p *Pool) {
		p.metricsRegistry = registry
	}
}

// NewPool validates the configuration, spawns the initial channels, and
// starts crash watchers for each.
func NewPool(ctx context.Context, spawner Spawner, config PoolConfig, opts ...PoolOption) (*Pool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if spawner == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: spawner is required", errors.ErrMissingConfig),
			"Pool", "NewPool", "spawner check")
	}

	p := &Pool{
		config:  config,
		spawner: spawner,
		logger:  slog.Default(),
		free:    make(chan *Channel, config.Size),
		live:    make(map[*Channel]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("pool", config.Kind)

	if p.metricsRegistry != nil {
		if err := p.initializeMetrics(); err != nil {
			return nil, err
		}
	}

	for i := 0; i < config.Size; i++ {
		ch, err := p.spawnChannel(ctx)
		if err != nil {
			_ = p.Close()
			return nil, errors.Wrap(err, "Pool", "NewPool", "initial spawn")
		}
		p.register(ch)
	}
	return p, nil
}

func (p *Pool) initializeMetrics() error {
	kind := p.config.Kind
	m := &poolMetrics{
		checkouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("anamnesis_pool_%s_checkouts_total", kind),
			Help: "Channels checked out of the pool",
		}),
		exhaustions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("anamnesis_pool_%s_exhaustions_total", kind),
			Help: "Checkouts failed because the pool was exhausted",
		}),
		respawns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: fmt.Sprintf("anamnesis_pool_%s_respawns_total", kind),
			Help: "Worker processes replaced after a crash",
		}),
		liveGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("anamnesis_pool_%s_live_channels", kind),
			Help: "Channels currently alive in the pool",
		}),
	}

	component := "worker_pool_" + kind
	for name, collector := range map[string]prometheus.Collector{
		"checkouts":     m.checkouts,
		"exhaustions":   m.exhaustions,
		"respawns":      m.respawns,
		"live_channels": m.liveGauge,
	} {
		if err := p.metricsRegistry.Register(component, name, collector); err != nil {
			return err
		}
	}
	p.metrics = m
	return nil
}

// register adds a live channel to the free set and starts its crash
// watcher.
func (p *Pool) register(ch *Channel) {
	p.lifecycleMu.Lock()
	if p.closed {
		p.lifecycleMu.Unlock()
		_ = ch.Close()
		return
	}
	p.live[ch] = struct{}{}
	liveCount := len(p.live)
	p.lifecycleMu.Unlock()

	if p.metrics != nil {
		p.metrics.liveGauge.Set(float64(liveCount))
	}

	p.free <- ch
	go p.watch(ch)
}

// Checkout blocks the caller until a channel is free, the context is
// cancelled, or the checkout timeout elapses. An exhausted pool fails
// immediately.
func (p *Pool) Checkout(ctx context.Context) (*Channel, error) {
	timeout := p.config.CheckoutTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		p.lifecycleMu.Lock()
		if p.closed {
			p.lifecycleMu.Unlock()
			return nil, errors.Wrap(errors.ErrPoolClosed, "Pool", "Checkout", "pool state check")
		}
		if p.exhausted {
			p.lifecycleMu.Unlock()
			p.noteExhaustion()
			return nil, errors.WrapTransient(
				fmt.Errorf("%w: respawn ceiling reached for kind %q", errors.ErrPoolExhausted, p.config.Kind),
				"Pool", "Checkout", "pool state check")
		}
		p.lifecycleMu.Unlock()

		select {
		case ch := <-p.free:
			if ch.IsClosed() {
				// Crashed while idle; the watcher replaces it.
				continue
			}
			atomic.AddInt64(&p.checkouts, 1)
			if p.metrics != nil {
				p.metrics.checkouts.Inc()
			}
			return ch, nil
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "Pool", "Checkout", "free channel wait")
		case <-timer.C:
			p.noteExhaustion()
			return nil, errors.WrapTransient(
				fmt.Errorf("%w: no free channel within %v", errors.ErrPoolExhausted, timeout),
				"Pool", "Checkout", "free channel wait")
		}
	}
}

// Checkin returns a channel to the free set. Channels that died while
// checked out are dropped here; their watcher handles replacement.
func (p *Pool) Checkin(ch *Channel) {
	if ch == nil || ch.IsClosed() {
		return
	}

	p.lifecycleMu.Lock()
	if p.closed {
		p.lifecycleMu.Unlock()
		_ = ch.Close()
		return
	}
	if _, known := p.live[ch]; !known {
		p.lifecycleMu.Unlock()
		return
	}
	p.lifecycleMu.Unlock()

	select {
	case p.free <- ch:
	default:
		// Double checkin; drop rather than corrupt the free set.
		p.logger.Warn("checkin on a channel already in the free set")
	}
}

// Reset clears the exhaustion state and respawn history, then respawns
// channels up to the configured size. Manual operation after the crash
// cause is fixed.
func (p *Pool) Reset(ctx context.Context) error {
	p.lifecycleMu.Lock()
	if p.closed {
		p.lifecycleMu.Unlock()
		return errors.Wrap(errors.ErrPoolClosed, "Pool", "Reset", "pool state check")
	}
	p.exhausted = false
	p.respawnTimes = nil
	missing := p.config.Size - len(p.live)
	p.lifecycleMu.Unlock()

	for i := 0; i < missing; i++ {
		ch, err := p.spawnChannel(ctx)
		if err != nil {
			return errors.Wrap(err, "Pool", "Reset", "respawn")
		}
		p.register(ch)
	}
	return nil
}

// Close shuts the pool down, closing every live channel. Checkouts after
// Close fail with ErrPoolClosed.
func (p *Pool) Close() error {
	p.lifecycleMu.Lock()
	if p.closed {
		p.lifecycleMu.Unlock()
		return nil
	}
	p.closed = true
	channels := make([]*Channel, 0, len(p.live))
	for ch := range p.live {
		channels = append(channels, ch)
	}
	p.live = make(map[*Channel]struct{})
	p.lifecycleMu.Unlock()

	for _, ch := range channels {
		_ = ch.Close()
	}
	return nil
}

// Stats returns a snapshot of pool activity.
func (p *Pool) Stats() PoolStats {
	p.lifecycleMu.Lock()
	liveCount := len(p.live)
	exhausted := p.exhausted
	p.lifecycleMu.Unlock()

	return PoolStats{
		Kind:        p.config.Kind,
		Size:        p.config.Size,
		Live:        liveCount,
		Exhausted:   exhausted,
		Checkouts:   atomic.LoadInt64(&p.checkouts),
		Exhaustions: atomic.LoadInt64(&p.exhaustions),
		Respawns:    atomic.LoadInt64(&p.respawns),
	}
}

// PoolStats is a point-in-time view of pool state.
type PoolStats struct {
	Kind        string `json:"kind"`
	Size        int    `json:"size"`
	Live        int    `json:"live"`
	Exhausted   bool   `json:"exhausted"`
	Checkouts   int64  `json:"checkouts"`
	Exhaustions int64  `json:"exhaustions"`
	Respawns    int64  `json:"respawns"`
}

func (p *Pool) noteExhaustion() {
	atomic.AddInt64(&p.exhaustions, 1)
	if p.metrics != nil {
		p.metrics.exhaustions.Inc()
	}
}

// spawnChannel launches one worker process with backoff pacing and wraps
// its connection in a channel.
func (p *Pool) spawnChannel(ctx context.Context) (*Channel, error) {
	return retry.DoWithResult(ctx, retry.Spawn(), func() (*Channel, error) {
		conn, err := p.spawner.Spawn(ctx)
		if err != nil {
			return nil, err
		}
		return NewChannel(conn, p.config.Channel, WithChannelLogger(p.logger)), nil
	})
}

// watch waits for one channel to die, removes it, and attempts an
// asynchronous replacement subject to the sliding-window respawn ceiling.
func (p *Pool) watch(ch *Channel) {
	<-ch.Done()

	p.lifecycleMu.Lock()
	if p.closed {
		p.lifecycleMu.Unlock()
		return
	}
	if _, known := p.live[ch]; !known {
		p.lifecycleMu.Unlock()
		return
	}
	delete(p.live, ch)
	liveCount := len(p.live)
	p.lifecycleMu.Unlock()

	// Drop the dead channel from the free buffer so its slot is available
	// for the replacement. Checkout also skips dead channels, so missing
	// it here under concurrent traffic is harmless.
	for i, n := 0, len(p.free); i < n; i++ {
		select {
		case c := <-p.free:
			if c == ch {
				continue
			}
			p.free <- c
		default:
		}
	}

	p.lifecycleMu.Lock()
	if p.closed {
		p.lifecycleMu.Unlock()
		return
	}
	now := time.Now()
	cutoff := now.Add(-p.config.RestartWindow)
	kept := p.respawnTimes[:0]
	for _, t := range p.respawnTimes {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	p.respawnTimes = kept

	if len(p.respawnTimes) >= p.config.RestartCeiling {
		p.exhausted = true
		p.lifecycleMu.Unlock()
		p.logger.Error("respawn ceiling reached, pool exhausted",
			"ceiling", p.config.RestartCeiling, "window", p.config.RestartWindow)
		return
	}
	p.respawnTimes = append(p.respawnTimes, now)
	p.lifecycleMu.Unlock()

	if p.metrics != nil {
		p.metrics.liveGauge.Set(float64(liveCount))
	}
	atomic.AddInt64(&p.respawns, 1)
	if p.metrics != nil {
		p.metrics.respawns.Inc()
	}
	if p.metricsRegistry != nil {
		p.metricsRegistry.Core.WorkerRespawns.Inc()
	}

	p.logger.Info("replacing crashed worker channel")
	replacement, err := p.spawnChannel(context.Background())
	if err != nil {
		p.lifecycleMu.Lock()
		p.exhausted = true
		p.lifecycleMu.Unlock()
		p.logger.Error("respawn failed, pool exhausted", "error", err)
		return
	}
	p.register(replacement)
}
