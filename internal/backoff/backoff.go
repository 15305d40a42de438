// Package backoff computes the pause between attempts when a producer's
// write into a full queue times out and is retried.
package backoff

import (
	"math/rand/v2"
	"time"
)

// Kind selects the delay algorithm.
type Kind int

const (
	// Exponential doubles the delay on every attempt (default).
	Exponential Kind = iota
	// Jittered is Exponential scaled by a random factor in [1-j, 1+j] so
	// producers that time out together do not retry together.
	Jittered
)

const maxShift = 62 // 1<<63 overflows time.Duration

// Strategy returns the delay to wait before retry number attempt
// (0 = first retry).
type Strategy interface {
	NextDelay(attempt int) time.Duration
}

// New builds a Strategy. jitter is clamped to [0, 1] and only used by Jittered.
func New(kind Kind, initial, maxDelay time.Duration, jitter float64) Strategy {
	if maxDelay < initial {
		maxDelay = initial
	}

	switch kind {
	case Jittered:
		return &jittered{initial: initial, max: maxDelay, factor: clamp(jitter, 0, 1)}
	default:
		return &exponential{initial: initial, max: maxDelay}
	}
}

type exponential struct {
	initial, max time.Duration
}

func (e *exponential) NextDelay(attempt int) time.Duration {
	return expDelay(attempt, e.initial, e.max)
}

type jittered struct {
	initial, max time.Duration
	factor       float64
}

func (j *jittered) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		return 0
	}
	base := expDelay(attempt, j.initial, j.max)
	scale := 1.0 + (rand.Float64()*2-1)*j.factor // #nosec G404 -- jitter does not need crypto rand
	return clamp(time.Duration(float64(base)*scale), 0, j.max)
}

func expDelay(attempt int, initial, maxDelay time.Duration) time.Duration {
	if attempt < 0 {
		return 0
	}
	if attempt >= maxShift {
		return maxDelay
	}

	delay := initial << uint(attempt)
	if delay > maxDelay || delay < 0 {
		return maxDelay
	}
	return delay
}

func clamp[T ~int64 | ~float64](v, lo, hi T) T {
	return max(lo, min(v, hi))
}
