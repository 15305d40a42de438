package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(strategy Strategy) Config {
	cfg := DefaultConfig()
	cfg.Strategy = strategy
	cfg.RunDuration = 100 * time.Millisecond
	cfg.DecodeLatency = 0
	cfg.QueueCapacity = 64
	cfg.WaitTimeout = 50 * time.Millisecond
	return cfg
}

func TestService_RunAndShutdown(t *testing.T) {
	for _, strategy := range []Strategy{StrategyPolling, StrategyPool} {
		t.Run(string(strategy), func(t *testing.T) {
			obs := newCountingObserver()
			sink := &recordingSink[Frame]{}
			svc, err := NewService(testConfig(strategy),
				WithSink(sink),
				WithObserver(obs),
				WithFrameSource(func(_ int, seq uint64) Frame { return Frame{Data: uint8(seq)} }),
			)
			require.NoError(t, err)
			assert.Equal(t, StateCreated, svc.State())

			require.NoError(t, svc.Run(context.Background()))
			assert.Equal(t, StateRunning, svc.State())
			svc.Shutdown()
			assert.Equal(t, StateStopped, svc.State())

			assert.Zero(t, svc.DecodableLen())
			assert.Zero(t, svc.DecodedLen())

			st := svc.Stats()
			assert.Positive(t, st.Produced)
			assert.Equal(t, st.Produced, st.Decoded+st.DecodeDropped, "every accepted frame was decoded or dropped")
			assert.Equal(t, st.Decoded, st.Rendered)
			assert.Equal(t, int(st.Rendered), len(sink.Items()))
			assert.Equal(t, st.Produced, obs.produced.Load())
			assert.Equal(t, st.Rendered, obs.rendered.Load())
			assert.GreaterOrEqual(t, st.Elapsed, 50*time.Millisecond)
		})
	}
}

func TestService_DecodesWhatProducersSend(t *testing.T) {
	cfg := testConfig(StrategyPolling)
	cfg.Producers = 1
	cfg.DecodeWorkers = 1
	cfg.RunDuration = 30 * time.Millisecond

	sink := &recordingSink[Frame]{}
	svc, err := NewService(cfg,
		WithSink(sink),
		WithFrameSource(func(_ int, seq uint64) Frame { return Frame{Data: uint8(2*(seq%4) + 4)} }),
	)
	require.NoError(t, err)
	require.NoError(t, svc.Run(context.Background()))
	svc.Shutdown()

	items := sink.Items()
	require.GreaterOrEqual(t, len(items), 4)
	assert.Equal(t, frames(2, 3, 4, 5), items[:4])
}

func TestService_ShutdownWithoutRun(t *testing.T) {
	svc, err := NewService(testConfig(StrategyPool))
	require.NoError(t, err)

	svc.Shutdown()
	assert.Equal(t, StateCreated, svc.State())

	require.NoError(t, svc.Run(context.Background()))
	svc.Shutdown()
	assert.Equal(t, StateStopped, svc.State())
}

func TestService_IdempotentShutdown(t *testing.T) {
	svc, err := NewService(testConfig(StrategyPolling))
	require.NoError(t, err)
	require.NoError(t, svc.Run(context.Background()))

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Shutdown()
		}()
	}
	wg.Wait()
	svc.Shutdown()

	assert.Equal(t, StateStopped, svc.State())
	assert.Zero(t, svc.DecodableLen())
	assert.Zero(t, svc.DecodedLen())
}

func TestService_RunErrors(t *testing.T) {
	svc, err := NewService(testConfig(StrategyPolling))
	require.NoError(t, err)

	require.NoError(t, svc.Run(context.Background()))
	assert.ErrorIs(t, svc.Run(context.Background()), ErrAlreadyRunning)

	svc.Shutdown()
	assert.ErrorIs(t, svc.Run(context.Background()), ErrStopped)
}

func TestService_CancelTruncatesInput(t *testing.T) {
	cfg := testConfig(StrategyPool)
	cfg.RunDuration = time.Hour

	svc, err := NewService(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Run(ctx))
	time.Sleep(20 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		svc.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown waited for the full run duration after cancel")
	}
	assert.Zero(t, svc.DecodableLen())
	assert.Zero(t, svc.DecodedLen())
}

func TestService_IDIsUnique(t *testing.T) {
	a, err := NewService(testConfig(StrategyPolling))
	require.NoError(t, err)
	b, err := NewService(testConfig(StrategyPolling))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
}

func TestNewService_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no producers", func(c *Config) { c.Producers = 0 }},
		{"zero duration", func(c *Config) { c.RunDuration = 0 }},
		{"zero interval", func(c *Config) { c.ProduceInterval = 0 }},
		{"zero input attempts", func(c *Config) { c.InputAttempts = 0 }},
		{"negative backoff", func(c *Config) { c.RetryBackoff = -time.Second }},
		{"no workers", func(c *Config) { c.DecodeWorkers = 0 }},
		{"negative latency", func(c *Config) { c.DecodeLatency = -1 }},
		{"negative pool capacity", func(c *Config) { c.PoolQueueCapacity = -1 }},
		{"zero write attempts", func(c *Config) { c.WriteAttempts = 0 }},
		{"zero queue capacity", func(c *Config) { c.QueueCapacity = 0 }},
		{"negative timeout", func(c *Config) { c.WaitTimeout = -1 }},
		{"unknown strategy", func(c *Config) { c.Strategy = "spin" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			_, err := NewService(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNewService_NilCollaboratorPanics(t *testing.T) {
	assert.Panics(t, func() { _, _ = NewService(DefaultConfig(), WithSink(nil)) })
	assert.Panics(t, func() { _, _ = NewService(DefaultConfig(), WithDecoder(nil)) })
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("pool")
	require.NoError(t, err)
	assert.Equal(t, StrategyPool, s)

	_, err = ParseStrategy("threads")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestWithStageOptions_DoesNotShareBackingArray(t *testing.T) {
	base := make([]StageOption, 0, 4)
	base = append(base, WithWorkers(2))

	decode := withStageOptions(base, WithWriteAttempts(5))
	render := withStageOptions(base, WithWriteAttempts(7))

	assert.Len(t, base, 1)
	assert.Equal(t, 5, newStageConfig(decode).writeAttempts)
	assert.Equal(t, 7, newStageConfig(render).writeAttempts)
	assert.Equal(t, 2, newStageConfig(render).workers)
}
