package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil error", nil, ErrorTransient},
		{"call timeout", ErrCallTimeout, ErrorTransient},
		{"pool exhausted", ErrPoolExhausted, ErrorTransient},
		{"store unavailable", fmt.Errorf("insert: %w", ErrStoreUnavailable), ErrorTransient},
		{"deadline exceeded", context.DeadlineExceeded, ErrorTransient},
		{"channel closed", ErrChannelClosed, ErrorFatal},
		{"frame too large", ErrFrameTooLarge, ErrorFatal},
		{"frame truncated", fmt.Errorf("read: %w", ErrFrameTruncated), ErrorFatal},
		{"invalid config", ErrInvalidConfig, ErrorFatal},
		{"detection failed", ErrDetectionFailed, ErrorInvalid},
		{"schema violation", ErrSchemaViolation, ErrorInvalid},
		{"referential integrity", ErrReferentialIntegrity, ErrorInvalid},
		{"illegal transition", ErrIllegalTransition, ErrorInvalid},
		{"unknown error", stderrors.New("something else"), ErrorTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	base := stderrors.New("boom")
	wrapped := Wrap(base, "Channel", "Submit", "write frame")

	require.Error(t, wrapped)
	assert.Equal(t, "Channel.Submit: write frame failed: boom", wrapped.Error())
	assert.True(t, stderrors.Is(wrapped, base))

	assert.Nil(t, Wrap(nil, "Channel", "Submit", "write frame"))
}

func TestWrapClassified(t *testing.T) {
	base := stderrors.New("boom")

	transient := WrapTransient(base, "Store", "Insert", "post")
	assert.True(t, IsTransient(transient))
	assert.False(t, IsFatal(transient))

	fatal := WrapFatal(base, "Channel", "readLoop", "decode frame")
	assert.True(t, IsFatal(fatal))
	assert.False(t, IsTransient(fatal))

	invalid := WrapInvalid(base, "Parser", "Parse", "decode export")
	assert.True(t, IsInvalid(invalid))

	var ce *ClassifiedError
	require.True(t, stderrors.As(invalid, &ce))
	assert.Equal(t, "Parser", ce.Component)
	assert.Equal(t, "Parse", ce.Operation)
	assert.True(t, stderrors.Is(invalid, base))
}

func TestStageError(t *testing.T) {
	base := fmt.Errorf("reason: %w", ErrIllegalTransition)
	tagged := AtStage("reasoning", base)

	assert.Equal(t, "reasoning", FailedStage(tagged))
	assert.True(t, stderrors.Is(tagged, ErrIllegalTransition))
	assert.Contains(t, tagged.Error(), "stage reasoning")

	// Stage tags survive further wrapping.
	outer := fmt.Errorf("ingest run abc: %w", tagged)
	assert.Equal(t, "reasoning", FailedStage(outer))

	assert.Empty(t, FailedStage(base))
	assert.Nil(t, AtStage("parse", nil))
}

func TestRetryConfigShouldRetry(t *testing.T) {
	rc := DefaultRetryConfig()

	assert.True(t, rc.ShouldRetry(ErrStoreUnavailable, 0))
	assert.False(t, rc.ShouldRetry(ErrStoreUnavailable, rc.MaxRetries))
	assert.False(t, rc.ShouldRetry(ErrSchemaViolation, 0))
	assert.False(t, rc.ShouldRetry(nil, 0))

	rc.RetryableErrors = []error{ErrCallTimeout}
	assert.True(t, rc.ShouldRetry(ErrCallTimeout, 0))
	assert.False(t, rc.ShouldRetry(ErrStoreUnavailable, 0))
}

func TestToRetryConfig(t *testing.T) {
	rc := DefaultRetryConfig()
	cfg := rc.ToRetryConfig()

	assert.Equal(t, rc.MaxRetries+1, cfg.MaxAttempts)
	assert.Equal(t, rc.InitialDelay, cfg.InitialDelay)
	assert.True(t, cfg.AddJitter)
}
