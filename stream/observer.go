package stream

import "time"

// Stage names reported to an Observer.
const (
	StageInput  = "input"
	StageDecode = "decode"
	StageRender = "render"
)

// Observer receives per-frame events from producers and stages. Calls come
// from many goroutines at once.
type Observer interface {
	FrameProduced()
	FrameDropped(stage string)
	FrameDecoded(latency time.Duration)
	FrameRendered()
}

type nopObserver struct{}

func (nopObserver) FrameProduced()             {}
func (nopObserver) FrameDropped(string)        {}
func (nopObserver) FrameDecoded(time.Duration) {}
func (nopObserver) FrameRendered()             {}
