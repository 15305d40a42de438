// Package report prints run summaries and progress for the CLI.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/utkarsh5026/streamsim/stream"
)

var (
	Bold   = color.New(color.Bold)
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
)

// Result is the outcome of one service run.
type Result struct {
	Strategy stream.Strategy
	Stats    stream.Stats
}

// Throughput is rendered frames per second of wall time.
func (r Result) Throughput() float64 {
	if r.Stats.Elapsed <= 0 {
		return 0
	}
	return float64(r.Stats.Rendered) / r.Stats.Elapsed.Seconds()
}

// Dropped is the number of frames lost anywhere in the pipeline.
func (r Result) Dropped() uint64 {
	return r.Stats.InputDropped + r.Stats.DecodeDropped
}

// PrintSummary writes one table row per result, fastest first.
func PrintSummary(w io.Writer, title string, results []Result) error {
	sorted := append([]Result(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Throughput() > sorted[j].Throughput()
	})

	printSectionHeader(w, title)

	table := tablewriter.NewWriter(w)
	table.Header("Rank", "Strategy", "Produced", "Decoded", "Rendered", "Dropped", "Elapsed", "Frames/sec", "vs Fastest")

	var fastest float64
	if len(sorted) > 0 {
		fastest = sorted[0].Throughput()
	}

	for i, r := range sorted {
		_ = table.Append(
			fmt.Sprintf("%d", i+1),
			string(r.Strategy),
			FormatNumber(r.Stats.Produced),
			FormatNumber(r.Stats.Decoded),
			FormatNumber(r.Stats.Rendered),
			FormatNumber(r.Dropped()),
			r.Stats.Elapsed.Round(time.Millisecond).String(),
			fmt.Sprintf("%.0f", r.Throughput()),
			vsFastest(r.Throughput(), fastest, i),
		)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	printFooter(w, sorted)
	return nil
}

func vsFastest(throughput, fastest float64, rank int) string {
	if rank == 0 {
		return "baseline"
	}
	if throughput == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2fx", fastest/throughput)
}

func printSectionHeader(w io.Writer, title string) {
	rule := strings.Repeat("═", 59)
	_, _ = fmt.Fprintln(w)
	_, _ = Bold.Fprintln(w, rule)
	_, _ = Bold.Fprintln(w, title)
	_, _ = Bold.Fprintln(w, rule)
	_, _ = fmt.Fprintln(w)
}

func printFooter(w io.Writer, results []Result) {
	var lossy []string
	for _, r := range results {
		if r.Dropped() > 0 {
			lossy = append(lossy, string(r.Strategy))
		}
	}

	_, _ = fmt.Fprintln(w)
	if len(lossy) > 0 {
		_, _ = Yellow.Fprintf(w, "⚠ Frames dropped by: %s\n", strings.Join(lossy, ", "))
		return
	}
	_, _ = Green.Fprintf(w, "✅ No frames dropped across %d run(s)\n", len(results))
}

// FormatNumber renders n with thousands separators.
func FormatNumber(n uint64) string {
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			_, _ = b.WriteString(",")
		}
		_, _ = b.WriteRune(c)
	}
	return b.String()
}
