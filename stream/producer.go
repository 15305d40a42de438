package stream

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/utkarsh5026/streamsim/internal/backoff"
)

// FrameSource returns frame number seq of producer id.
type FrameSource func(producer int, seq uint64) Frame

// RandomFrames is the default FrameSource: uniformly random bytes.
func RandomFrames(int, uint64) Frame {
	return Frame{Data: uint8(rand.IntN(256))}
}

// producer simulates one network thread. It pushes a frame through input
// every tick until its run duration elapses or ctx is cancelled.
type producer struct {
	id       int
	input    InputHandler[Frame]
	source   FrameSource
	limiter  *rate.Limiter
	duration time.Duration
	attempts int
	backoff  backoff.Strategy
	obs      Observer
	log      *zap.Logger

	produced *atomic.Uint64
	dropped  *atomic.Uint64
}

func (p *producer) run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.duration)
	defer cancel()

	var seq uint64
	for {
		// Wait also fails when the next tick would land past the deadline.
		if err := p.limiter.Wait(ctx); err != nil {
			p.log.Debug("producer finished", zap.Int("producer", p.id), zap.Uint64("frames", seq))
			return nil
		}
		p.deliver(ctx, p.source(p.id, seq))
		seq++
	}
}

// deliver offers f to the input handler, backing off between attempts.
func (p *producer) deliver(ctx context.Context, f Frame) {
	for attempt := range p.attempts {
		if attempt > 0 && !p.pause(ctx, attempt-1) {
			break
		}
		if p.input.OnInputData(f) {
			p.produced.Add(1)
			p.obs.FrameProduced()
			return
		}
	}

	p.dropped.Add(1)
	p.obs.FrameDropped(StageInput)
	p.log.Warn("input frame dropped", zap.Int("producer", p.id))
}

func (p *producer) pause(ctx context.Context, retry int) bool {
	timer := time.NewTimer(p.backoff.NextDelay(retry))
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
