package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/utkarsh5026/streamsim/stream"
)

// StatsFunc samples a running service.
type StatsFunc func() stream.Stats

// Progress draws a bar that fills over a run's duration and shows frame
// counts as it goes.
type Progress struct {
	bar      *progressbar.ProgressBar
	duration time.Duration
	interval time.Duration
}

// NewProgress creates a bar for a run lasting d, drawn on w.
func NewProgress(w io.Writer, description string, d time.Duration) *Progress {
	bar := progressbar.NewOptions64(d.Milliseconds(),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionThrottle(50*time.Millisecond),
	)
	return &Progress{bar: bar, duration: d, interval: 100 * time.Millisecond}
}

// Follow refreshes the bar from stats until the run duration has passed or
// ctx is done, then completes it.
func (p *Progress) Follow(ctx context.Context, stats StatsFunc) {
	start := time.Now()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.bar.Finish()
			return
		case <-ticker.C:
			elapsed := time.Since(start)
			st := stats()
			p.bar.Describe(fmt.Sprintf("produced %s, rendered %s",
				FormatNumber(st.Produced), FormatNumber(st.Rendered)))
			if elapsed >= p.duration {
				_ = p.bar.Finish()
				return
			}
			_ = p.bar.Set64(elapsed.Milliseconds())
		}
	}
}
