package worker

import (
	"fmt"
	"time"

	"github.com/hyperpolymath/anamnesis/errors"
)

// ChannelConfig bounds one channel's wire protocol and call latency.
type ChannelConfig struct {
	// MaxFrameSize caps both read and written frame payloads in bytes.
	MaxFrameSize int `yaml:"max_frame_size" env:"ANAMNESIS_CHANNEL_MAX_FRAME_SIZE"`

	// SubmitTimeout bounds how long one call waits for its response when
	// the caller's context carries no earlier deadline.
	SubmitTimeout time.Duration `yaml:"submit_timeout" env:"ANAMNESIS_CHANNEL_SUBMIT_TIMEOUT"`
}

// DefaultChannelConfig returns production channel defaults.
func DefaultChannelConfig() ChannelConfig {
	return ChannelConfig{
		MaxFrameSize:  4 << 20,
		SubmitTimeout: 30 * time.Second,
	}
}

// Validate checks channel configuration bounds.
func (c ChannelConfig) Validate() error {
	if c.MaxFrameSize <= frameHeaderSize {
		return errors.WrapInvalid(
			fmt.Errorf("%w: max_frame_size must exceed %d bytes, got %d",
				errors.ErrInvalidConfig, frameHeaderSize, c.MaxFrameSize),
			"ChannelConfig", "Validate", "frame size check")
	}
	if c.SubmitTimeout <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: submit_timeout must be positive, got %v",
				errors.ErrInvalidConfig, c.SubmitTimeout),
			"ChannelConfig", "Validate", "timeout check")
	}
	return nil
}

// PoolConfig sizes one pool of a single worker kind and bounds its respawn
// behaviour.
type PoolConfig struct {
	// Kind names the worker kind this pool manages, used in logs and
	// metric labels.
	Kind string `yaml:"kind"`

	// Size is the number of channels the pool keeps live.
	Size int `yaml:"size" env:"ANAMNESIS_POOL_SIZE"`

	// CheckoutTimeout bounds how long a checkout blocks for a free
	// channel when the caller's context carries no earlier deadline.
	CheckoutTimeout time.Duration `yaml:"checkout_timeout" env:"ANAMNESIS_POOL_CHECKOUT_TIMEOUT"`

	// RestartCeiling is the number of respawns allowed inside
	// RestartWindow before the pool declares itself exhausted.
	RestartCeiling int `yaml:"restart_ceiling" env:"ANAMNESIS_POOL_RESTART_CEILING"`

	// RestartWindow is the sliding window the ceiling is measured over.
	RestartWindow time.Duration `yaml:"restart_window" env:"ANAMNESIS_POOL_RESTART_WINDOW"`

	// Channel configures every channel the pool spawns.
	Channel ChannelConfig `yaml:"channel"`
}

// DefaultPoolConfig returns production pool defaults for a worker kind.
func DefaultPoolConfig(kind string) PoolConfig {
	return PoolConfig{
		Kind:            kind,
		Size:            4,
		CheckoutTimeout: 10 * time.Second,
		RestartCeiling:  5,
		RestartWindow:   time.Minute,
		Channel:         DefaultChannelConfig(),
	}
}

// Validate checks pool configuration bounds.
func (c PoolConfig) Validate() error {
	if c.Kind == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: pool kind is required", errors.ErrMissingConfig),
			"PoolConfig", "Validate", "kind check")
	}
	if c.Size <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: pool size must be positive, got %d", errors.ErrInvalidConfig, c.Size),
			"PoolConfig", "Validate", "size check")
	}
	if c.CheckoutTimeout <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: checkout_timeout must be positive, got %v",
				errors.ErrInvalidConfig, c.CheckoutTimeout),
			"PoolConfig", "Validate", "timeout check")
	}
	if c.RestartCeiling < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: restart_ceiling cannot be negative, got %d",
				errors.ErrInvalidConfig, c.RestartCeiling),
			"PoolConfig", "Validate", "ceiling check")
	}
	if c.RestartWindow <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: restart_window must be positive, got %v",
				errors.ErrInvalidConfig, c.RestartWindow),
			"PoolConfig", "Validate", "window check")
	}
	return c.Channel.Validate()
}
