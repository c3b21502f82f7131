package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyperpolymath/anamnesis/errors"
)

// Channel multiplexes concurrent calls over one framed duplex connection to
// a single worker process. One read loop dispatches responses to waiting
// callers by correlation ID; the only shared mutable state is the pending
// table under c.mu.
type Channel struct {
	config ChannelConfig
	conn   io.ReadWriteCloser
	logger *slog.Logger

	mu         sync.Mutex
	pending    map[uint64]chan Response
	tombstones map[uint64]struct{}
	nextID     uint64
	closed     bool

	writeMu sync.Mutex
	done    chan struct{}

	// Statistics (atomic)
	submitted int64
	timedOut  int64
	unmatched int64
}

// ChannelOption configures a Channel at construction.
type ChannelOption func(*Channel)

// WithChannelLogger sets the channel's logger.
func WithChannelLogger(logger *slog.Logger) ChannelOption {
	return func(c *Channel) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChannel wraps a duplex connection and starts its read loop. The caller
// keeps ownership of nothing: Close tears down the connection.
func NewChannel(conn io.ReadWriteCloser, config ChannelConfig, opts ...ChannelOption) *Channel {
	c := &Channel{
		config:     config,
		conn:       conn,
		logger:     slog.Default(),
		pending:    make(map[uint64]chan Response),
		tombstones: make(map[uint64]struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.readLoop()
	return c
}

// Done is closed when the channel transitions to Closed, whether by Close
// or by a fatal wire error. Pools watch it for crash detection.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// IsClosed reports whether the channel has transitioned to Closed.
func (c *Channel) IsClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Submit sends one call and blocks the caller until its specific response
// arrives, the timeout elapses, or the channel closes. The correlation ID
// is fresh and never reused for the channel's lifetime; on timeout it stays
// tombstoned until any late response for it is observed and discarded.
func (c *Channel) Submit(ctx context.Context, call Call) (Response, error) {
	if !call.Action.IsValid() {
		return Response{}, errors.WrapInvalid(
			fmt.Errorf("unknown action %q", call.Action),
			"Channel", "Submit", "action validation")
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Response{}, errors.Wrap(errors.ErrChannelClosed, "Channel", "Submit", "call registration")
	}
	c.nextID++
	id := c.nextID
	call.ID = id
	waiter := make(chan Response, 1)
	c.pending[id] = waiter
	c.mu.Unlock()

	atomic.AddInt64(&c.submitted, 1)

	raw, err := json.Marshal(call)
	if err != nil {
		c.forget(id)
		return Response{}, errors.WrapInvalid(err, "Channel", "Submit", "envelope encode")
	}

	c.writeMu.Lock()
	err = WriteFrame(c.conn, raw, c.config.MaxFrameSize)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		if errors.Is(err, errors.ErrFrameTooLarge) {
			return Response{}, err
		}
		// A write failure means the worker side is gone.
		c.fail(err)
		return Response{}, errors.Wrap(errors.ErrChannelClosed, "Channel", "Submit", "frame write")
	}

	timeout := c.config.SubmitTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-waiter:
		return resp, nil
	case <-c.done:
		return Response{}, errors.Wrap(errors.ErrChannelClosed, "Channel", "Submit", "response wait")
	case <-ctx.Done():
		c.tombstone(id, waiter)
		return Response{}, errors.Wrap(ctx.Err(), "Channel", "Submit", "response wait")
	case <-timer.C:
		if resp, ok := c.tombstone(id, waiter); ok {
			// The response raced the timer and is already buffered.
			return resp, nil
		}
		atomic.AddInt64(&c.timedOut, 1)
		return Response{}, errors.WrapTransient(
			fmt.Errorf("%w: call %d after %v", errors.ErrCallTimeout, id, timeout),
			"Channel", "Submit", "response wait")
	}
}

// Ping sends a health probe and reports whether the worker answered it.
func (c *Channel) Ping(ctx context.Context) error {
	call, err := NewCall(ActionPing, nil)
	if err != nil {
		return err
	}
	resp, err := c.Submit(ctx, call)
	if err != nil {
		return err
	}
	return resp.Err()
}

// Close fails all pending calls with ErrChannelClosed, rejects further
// submissions, and tears down the connection. Safe to call more than once.
func (c *Channel) Close() error {
	c.fail(errors.ErrChannelClosed)
	return nil
}

// Stats returns a snapshot of the channel's call counters.
func (c *Channel) Stats() ChannelStats {
	return ChannelStats{
		Submitted: atomic.LoadInt64(&c.submitted),
		TimedOut:  atomic.LoadInt64(&c.timedOut),
		Unmatched: atomic.LoadInt64(&c.unmatched),
	}
}

// ChannelStats is a point-in-time view of channel activity.
type ChannelStats struct {
	Submitted int64 `json:"submitted"`
	TimedOut  int64 `json:"timed_out"`
	Unmatched int64 `json:"unmatched"`
}

// forget drops a pending entry without tombstoning, for calls that never
// made it onto the wire.
func (c *Channel) forget(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// tombstone retires a timed-out call's ID so a late response is discarded
// instead of misattributed. If the response already raced into the waiter
// buffer, it is returned instead.
func (c *Channel) tombstone(id uint64, waiter chan Response) (Response, bool) {
	c.mu.Lock()
	if _, ok := c.pending[id]; ok {
		delete(c.pending, id)
		c.tombstones[id] = struct{}{}
		c.mu.Unlock()
		return Response{}, false
	}
	c.mu.Unlock()

	// Entry already removed: either the read loop delivered just before
	// the deadline, or the channel failed and cleared the table.
	select {
	case resp := <-waiter:
		return resp, true
	default:
		return Response{}, false
	}
}

// fail transitions the channel to Closed exactly once, failing every
// pending call and closing the underlying connection.
func (c *Channel) fail(cause error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.pending = make(map[uint64]chan Response)
	c.tombstones = make(map[uint64]struct{})
	c.mu.Unlock()

	if cause != nil && !errors.Is(cause, errors.ErrChannelClosed) && !errors.Is(cause, io.EOF) {
		c.logger.Error("worker channel failed", "error", cause)
	}

	// Pending waiters observe the closed done channel and fail with
	// ErrChannelClosed; no per-waiter signalling needed.
	close(c.done)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug("connection close after channel failure", "error", err)
	}
}

// readLoop decodes frames until the stream ends, dispatching each response
// to the caller holding its correlation ID. Unmatched responses are dropped
// and logged, never delivered.
func (c *Channel) readLoop() {
	for {
		payload, err := ReadFrame(c.conn, c.config.MaxFrameSize)
		if err != nil {
			c.fail(err)
			return
		}

		var resp Response
		if err := json.Unmarshal(payload, &resp); err != nil {
			c.logger.Warn("dropping undecodable response frame", "error", err)
			continue
		}

		c.mu.Lock()
		if waiter, ok := c.pending[resp.ID]; ok {
			delete(c.pending, resp.ID)
			c.mu.Unlock()
			waiter <- resp
			continue
		}
		if _, ok := c.tombstones[resp.ID]; ok {
			delete(c.tombstones, resp.ID)
			c.mu.Unlock()
			c.logger.Debug("discarding late response for timed-out call", "id", resp.ID)
			continue
		}
		c.mu.Unlock()

		atomic.AddInt64(&c.unmatched, 1)
		c.logger.Warn("dropping response with unmatched correlation id", "id", resp.ID)
	}
}
