package engine

import (
	"context"
	"time"

	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/key"
	"github.com/spf13/viper"
)

// Policy bounds one kind of request: per-attempt timeout, retries and the initial backoff.
type Policy struct {
	Timeout    time.Duration
	MaxRetry   int
	RetryDelay time.Duration
}

// maxRetryDelay caps the exponential backoff.
const maxRetryDelay = 64 * time.Second

// Tuning holds every engine knob exposed through configuration.
type Tuning struct {
	Manifest Policy
	Level    Policy
	Fragment Policy

	MaxBufferLength time.Duration
	MaxBufferSize   int
	LiveSyncCount   int

	StartLevel      int
	DefaultEstimate float64
	BandwidthFactor float64
	RecoverMaxRetry int

	UserAgent string
}

// DefaultTuning mirrors the configuration defaults.
func DefaultTuning() Tuning {
	return Tuning{
		Manifest:        Policy{Timeout: 10 * time.Second, MaxRetry: 3, RetryDelay: time.Second},
		Level:           Policy{Timeout: 10 * time.Second, MaxRetry: 4, RetryDelay: time.Second},
		Fragment:        Policy{Timeout: 20 * time.Second, MaxRetry: 6, RetryDelay: time.Second},
		MaxBufferLength: 30 * time.Second,
		MaxBufferSize:   60 * 1000 * 1000,
		LiveSyncCount:   3,
		StartLevel:      Auto,
		DefaultEstimate: 500000,
		BandwidthFactor: 0.95,
		RecoverMaxRetry: 3,
		UserAgent:       constant.UserAgent,
	}
}

// TuningFromConfig reads the engine knobs from the active configuration.
func TuningFromConfig() Tuning {
	ms := func(k string) time.Duration {
		return time.Duration(viper.GetInt(k)) * time.Millisecond
	}

	return Tuning{
		Manifest: Policy{
			Timeout:    ms(key.ManifestTimeout),
			MaxRetry:   viper.GetInt(key.ManifestMaxRetry),
			RetryDelay: ms(key.ManifestRetryDelay),
		},
		Level: Policy{
			Timeout:    ms(key.LevelTimeout),
			MaxRetry:   viper.GetInt(key.LevelMaxRetry),
			RetryDelay: ms(key.LevelRetryDelay),
		},
		Fragment: Policy{
			Timeout:    ms(key.FragmentTimeout),
			MaxRetry:   viper.GetInt(key.FragmentMaxRetry),
			RetryDelay: ms(key.FragmentRetryDelay),
		},
		MaxBufferLength: time.Duration(viper.GetInt(key.BufferMaxLength)) * time.Second,
		MaxBufferSize:   viper.GetInt(key.BufferMaxSize),
		LiveSyncCount:   viper.GetInt(key.BufferLiveSyncCount),
		StartLevel:      viper.GetInt(key.EngineStartLevel),
		DefaultEstimate: viper.GetFloat64(key.ABRDefaultEstimate),
		BandwidthFactor: viper.GetFloat64(key.ABRBandwidthFactor),
		RecoverMaxRetry: viper.GetInt(key.MediaRecoverRetry),
		UserAgent:       viper.GetString(key.EngineUserAgent),
	}
}

// Retry runs op until it succeeds, the policy's retries are spent, or ctx ends.
// Each attempt gets its own timeout and the delay doubles after every failure.
func Retry[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
		delay   = p.RetryDelay
	)

	for attempt := 0; attempt <= p.MaxRetry; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
			delay = min(delay*2, maxRetryDelay)
		}

		result, err := attemptOnce(ctx, p.Timeout, op)
		if err == nil {
			return result, nil
		}

		// the caller gave up, not the server
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		lastErr = err
	}

	return zero, lastErr
}

func attemptOnce[T any](ctx context.Context, timeout time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return op(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(ctx)
}
