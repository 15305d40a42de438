package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utkarsh5026/streamsim/stream"
)

func init() {
	color.NoColor = true
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in))
	}
}

func TestResult_Throughput(t *testing.T) {
	r := Result{Stats: stream.Stats{Rendered: 500, Elapsed: 2 * time.Second}}
	assert.InDelta(t, 250.0, r.Throughput(), 0.001)
	assert.Zero(t, Result{}.Throughput())
}

func TestPrintSummary(t *testing.T) {
	results := []Result{
		{Strategy: stream.StrategyPolling, Stats: stream.Stats{
			Produced: 1000, Decoded: 1000, Rendered: 1000, Elapsed: 2 * time.Second,
		}},
		{Strategy: stream.StrategyPool, Stats: stream.Stats{
			Produced: 1000, Decoded: 998, Rendered: 998, DecodeDropped: 2, Elapsed: time.Second,
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, PrintSummary(&buf, "DECODE STRATEGIES", results))
	out := buf.String()

	assert.Contains(t, out, "DECODE STRATEGIES")
	assert.Contains(t, out, "1,000")
	assert.Contains(t, out, "baseline")
	assert.Contains(t, out, "2.00x")
	assert.Contains(t, out, "Frames dropped by: pool")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("pool")), bytes.Index(buf.Bytes(), []byte("polling")),
		"fastest strategy is listed first")
}

func TestPrintSummary_NoDrops(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintSummary(&buf, "RUN", []Result{
		{Strategy: stream.StrategyPolling, Stats: stream.Stats{Produced: 10, Rendered: 10, Elapsed: time.Second}},
	}))
	assert.Contains(t, buf.String(), "No frames dropped across 1 run(s)")
}

func TestProgress_Follow(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "running", 150*time.Millisecond)
	p.interval = 10 * time.Millisecond

	done := make(chan struct{})
	go func() {
		p.Follow(context.Background(), func() stream.Stats { return stream.Stats{Produced: 42} })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Follow did not return after the run duration")
	}
	assert.NotEmpty(t, buf.String())
}

func TestProgress_FollowCancelled(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "running", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Follow(ctx, func() stream.Stats { return stream.Stats{} })
}
