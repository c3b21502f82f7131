package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperpolymath/anamnesis/errors"
)

// serveEcho runs a worker on the far end of a pipe: every call is answered
// with its own payload as the result, after an optional per-call delay.
func serveEcho(conn net.Conn, delay func() time.Duration) {
	var writeMu sync.Mutex
	for {
		payload, err := ReadFrame(conn, 1<<20)
		if err != nil {
			_ = conn.Close()
			return
		}
		var call Call
		if err := json.Unmarshal(payload, &call); err != nil {
			continue
		}
		go func() {
			if delay != nil {
				time.Sleep(delay())
			}
			raw, _ := json.Marshal(Response{ID: call.ID, Result: call.Payload})
			writeMu.Lock()
			_ = WriteFrame(conn, raw, 1<<20)
			writeMu.Unlock()
		}()
	}
}

func newEchoChannel(t *testing.T, config ChannelConfig, delay func() time.Duration) *Channel {
	t.Helper()
	client, server := net.Pipe()
	go serveEcho(server, delay)
	ch := NewChannel(client, config)
	t.Cleanup(func() { _ = ch.Close() })
	return ch
}

func TestSubmitEcho(t *testing.T) {
	ch := newEchoChannel(t, DefaultChannelConfig(), nil)

	call, err := NewCall(ActionPing, json.RawMessage(`"hello"`))
	require.NoError(t, err)

	resp, err := ch.Submit(context.Background(), call)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`"hello"`), resp.Result)
	assert.NoError(t, resp.Err())
}

func TestSubmitConcurrentNoCrossDelivery(t *testing.T) {
	const callers = 100

	ch := newEchoChannel(t, DefaultChannelConfig(), func() time.Duration {
		return time.Duration(rand.Intn(20)) * time.Millisecond
	})

	var wg sync.WaitGroup
	failures := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			payload := json.RawMessage(fmt.Sprintf(`{"caller":%d}`, n))
			call, err := NewCall(ActionParse, payload)
			if err != nil {
				failures <- err
				return
			}
			resp, err := ch.Submit(context.Background(), call)
			if err != nil {
				failures <- err
				return
			}
			if string(resp.Result) != string(payload) {
				failures <- fmt.Errorf("caller %d got %s", n, resp.Result)
			}
		}(i)
	}
	wg.Wait()
	close(failures)

	for err := range failures {
		t.Error(err)
	}
	assert.Equal(t, int64(callers), ch.Stats().Submitted)
	assert.Zero(t, ch.Stats().Unmatched)
}

func TestSubmitTimeoutTombstonesLateResponse(t *testing.T) {
	config := DefaultChannelConfig()
	config.SubmitTimeout = 50 * time.Millisecond

	ch := newEchoChannel(t, config, func() time.Duration {
		return 200 * time.Millisecond
	})

	call, err := NewCall(ActionReason, json.RawMessage(`{}`))
	require.NoError(t, err)

	_, err = ch.Submit(context.Background(), call)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCallTimeout)
	assert.True(t, errors.IsTransient(err))

	// The late echo arrives against a tombstoned id and is discarded, not
	// misattributed to a later call and not counted as unmatched.
	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, ch.Stats().Unmatched)
	assert.False(t, ch.IsClosed())
}

func TestSubmitContextCancellation(t *testing.T) {
	ch := newEchoChannel(t, DefaultChannelConfig(), func() time.Duration {
		return time.Second
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	call, err := NewCall(ActionPing, nil)
	require.NoError(t, err)

	_, err = ch.Submit(ctx, call)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCloseFailsPendingAndRejectsSubmissions(t *testing.T) {
	ch := newEchoChannel(t, DefaultChannelConfig(), func() time.Duration {
		return time.Hour
	})

	call, err := NewCall(ActionGenerate, json.RawMessage(`{}`))
	require.NoError(t, err)

	result := make(chan error, 1)
	go func() {
		_, err := ch.Submit(context.Background(), call)
		result <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, ch.Close())

	select {
	case err := <-result:
		assert.ErrorIs(t, err, errors.ErrChannelClosed)
	case <-time.After(time.Second):
		t.Fatal("pending call did not fail on close")
	}

	_, err = ch.Submit(context.Background(), call)
	assert.ErrorIs(t, err, errors.ErrChannelClosed)
}

func TestChannelClosesOnPeerDisconnect(t *testing.T) {
	client, server := net.Pipe()
	ch := NewChannel(client, DefaultChannelConfig())

	_ = server.Close()

	select {
	case <-ch.Done():
	case <-time.After(time.Second):
		t.Fatal("channel did not observe peer disconnect")
	}
	assert.True(t, ch.IsClosed())
}

func TestSubmitRejectsUnknownAction(t *testing.T) {
	_, err := NewCall(Action("transmogrify"), nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	ch := newEchoChannel(t, DefaultChannelConfig(), nil)
	_, err = ch.Submit(context.Background(), Call{Action: "transmogrify"})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestPing(t *testing.T) {
	ch := newEchoChannel(t, DefaultChannelConfig(), nil)
	assert.NoError(t, ch.Ping(context.Background()))
}

func TestUnmatchedResponseDropped(t *testing.T) {
	client, server := net.Pipe()
	ch := NewChannel(client, DefaultChannelConfig())
	t.Cleanup(func() { _ = ch.Close() })

	raw, err := json.Marshal(Response{ID: 999, Result: json.RawMessage(`1`)})
	require.NoError(t, err)
	require.NoError(t, WriteFrame(server, raw, 1<<20))

	require.Eventually(t, func() bool {
		return ch.Stats().Unmatched == 1
	}, time.Second, 10*time.Millisecond)
	assert.False(t, ch.IsClosed())
}
