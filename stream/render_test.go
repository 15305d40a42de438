package stream

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utkarsh5026/streamsim/queue"
)

func TestRenderStage_ForwardsInOrder(t *testing.T) {
	var buf bytes.Buffer
	q := queue.New[Frame](8)
	stage := NewRenderStage[Frame](q, NewWriterSink(&buf, func(f Frame) string {
		return string(rune(f.Data))
	}))

	require.NoError(t, stage.Run())
	for _, c := range "abcd" {
		require.True(t, q.WriteBlocking(Frame{Data: uint8(c)}))
	}
	stage.Shutdown()

	assert.Equal(t, "a\nb\nc\nd\n", buf.String())
	assert.True(t, q.IsEmpty())
	assert.Equal(t, StageStats{Processed: 4}, stage.Stats())
}

func TestRenderStage_SurvivesReadTimeouts(t *testing.T) {
	obs := newCountingObserver()
	sink := &recordingSink[int]{}
	q := queue.New[int](2, queue.WithWaitTimeout(5*time.Millisecond))
	stage := NewRenderStage[int](q, sink, WithStageObserver(obs))

	require.NoError(t, stage.Run())
	time.Sleep(30 * time.Millisecond) // several empty reads time out
	require.True(t, q.WriteBlocking(7))

	require.Eventually(t, func() bool { return len(sink.Items()) == 1 },
		time.Second, 5*time.Millisecond)
	stage.Shutdown()

	assert.Equal(t, []int{7}, sink.Items())
	assert.Equal(t, uint64(1), obs.rendered.Load())
}

func TestRenderStage_Lifecycle(t *testing.T) {
	q := queue.New[int](2)
	stage := NewRenderStage[int](q, SinkFunc[int](func(int) {}))

	stage.Shutdown()
	require.NoError(t, stage.Run())
	assert.ErrorIs(t, stage.Run(), ErrAlreadyRunning)
	stage.Shutdown()
	stage.Shutdown()

	require.NoError(t, stage.Run(), "a stopped stage can run again")
	stage.Shutdown()
}

func TestRenderStage_NilCollaboratorsPanic(t *testing.T) {
	assert.Panics(t, func() { NewRenderStage[int](nil, SinkFunc[int](func(int) {})) })
	assert.Panics(t, func() { NewRenderStage[int](queue.New[int](1), nil) })
}
