// Package retry retries operations against the node with linear or capped exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/bsv-blockchain/blkmaker/ulogger"
)

type settings struct {
	retryCount          int
	backoffMultiplier   int
	backoffDurationType time.Duration
	exponential         bool
	backoffFactor       float64
	maxBackoff          time.Duration
	message             string
	retryIf             func(error) bool
}

type Options func(*settings)

// WithRetryCount sets the total number of attempts, at least one is always made.
func WithRetryCount(retryCount int) Options {
	return func(s *settings) {
		s.retryCount = retryCount
	}
}

func WithBackoffMultiplier(multiplier int) Options {
	return func(s *settings) {
		s.backoffMultiplier = multiplier
	}
}

// WithBackoffDurationType sets the unit of the linear backoff, and the initial exponential backoff.
func WithBackoffDurationType(durationType time.Duration) Options {
	return func(s *settings) {
		s.backoffDurationType = durationType
	}
}

func WithExponentialBackoff() Options {
	return func(s *settings) {
		s.exponential = true
	}
}

func WithBackoffFactor(factor float64) Options {
	return func(s *settings) {
		s.backoffFactor = factor
	}
}

func WithMaxBackoff(maxBackoff time.Duration) Options {
	return func(s *settings) {
		s.maxBackoff = maxBackoff
	}
}

// WithMessage sets the message logged before each retry.
func WithMessage(message string) Options {
	return func(s *settings) {
		s.message = message
	}
}

// WithRetryIf stops retrying as soon as f reports an error as permanent.
func WithRetryIf(f func(error) bool) Options {
	return func(s *settings) {
		s.retryIf = f
	}
}

// Retry calls f until it succeeds, the attempts run out, the error is not retryable or ctx is done.
// The last error of f is returned, or the context error if ctx ended the retries.
func Retry[T any](ctx context.Context, logger ulogger.Logger, f func() (T, error), opts ...Options) (T, error) {
	s := &settings{
		retryCount:          3,
		backoffMultiplier:   2,
		backoffDurationType: time.Second,
		backoffFactor:       2.0,
		maxBackoff:          30 * time.Second,
		message:             "retrying",
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.retryCount < 1 {
		s.retryCount = 1
	}

	var (
		result T
		err    error
	)

	backoff := s.backoffDurationType

	for i := 0; i < s.retryCount; i++ {
		if result, err = f(); err == nil {
			return result, nil
		}

		if s.retryIf != nil && !s.retryIf(err) {
			return result, err
		}

		if i == s.retryCount-1 {
			break
		}

		logger.Warnf("%s (attempt %d of %d): %v", s.message, i+1, s.retryCount, err)

		if s.exponential {
			if sleepErr := sleepFunc(ctx, backoff); sleepErr != nil {
				return result, sleepErr
			}

			backoff = CappedExponentialBackoff(backoff, s.backoffFactor, s.maxBackoff)

			continue
		}

		if sleepErr := BackoffAndSleep(ctx, i, s.backoffMultiplier, s.backoffDurationType); sleepErr != nil {
			return result, sleepErr
		}
	}

	return result, err
}
