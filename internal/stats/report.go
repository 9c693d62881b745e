package stats

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const rule = "--------------------------------------------------------------------------------\n"

// Output is limited to this many samples, evenly spread over the run.
const maxSamples = 100

func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "walkgraph run report\n\n")
	fmt.Fprintf(&sb, "  Start:     %s\n", r.StartTime.Format(time.RFC3339))
	fmt.Fprintf(&sb, "  End:       %s\n", r.EndTime.Format(time.RFC3339))
	fmt.Fprintf(&sb, "  Duration:  %s\n\n", r.TotalElapsed.Round(time.Millisecond))

	if len(r.Stages) > 0 {
		sb.WriteString("STAGES\n" + rule)
		for _, s := range r.Stages {
			fmt.Fprintf(&sb, "  %-28s %12s  %10s allocated\n", s.Name, s.Duration.Round(time.Millisecond), humanize.IBytes(s.Allocated))
		}
		sb.WriteString("\n")
	}

	if len(r.Counters) > 0 {
		sb.WriteString("COUNTERS\n" + rule)
		for _, c := range r.Counters {
			fmt.Fprintf(&sb, "  %-28s %12s\n", c.Name, humanize.Comma(c.Value))
		}
		sb.WriteString("\n")
	}

	s := r.Summary
	sb.WriteString("RESOURCES\n" + rule)
	fmt.Fprintf(&sb, "  Samples:           %d every %s\n", s.SampleCount, s.SampleInterval)
	fmt.Fprintf(&sb, "  Peak heap:         %s\n", humanize.IBytes(s.PeakHeapAlloc))
	fmt.Fprintf(&sb, "  Peak sys:          %s\n", humanize.IBytes(s.PeakSys))
	fmt.Fprintf(&sb, "  Peak RSS:          %s\n", humanize.IBytes(s.PeakProcessRSS))
	fmt.Fprintf(&sb, "  Peak CPU:          %.2f%%\n", s.PeakCPUPercent)
	fmt.Fprintf(&sb, "  Average CPU:       %.2f%%\n", s.AvgCPUPercent)
	fmt.Fprintf(&sb, "  Peak goroutines:   %d\n", s.PeakGoroutines)
	fmt.Fprintf(&sb, "  GC cycles:         %d\n\n", s.TotalGCCycles)

	samples := r.Samples
	if len(samples) > maxSamples {
		samples = make([]Sample, 0, maxSamples)
		step := float64(len(r.Samples)-1) / float64(maxSamples-1)
		for i := range maxSamples {
			samples = append(samples, r.Samples[int(float64(i)*step)])
		}
	}

	sb.WriteString("SAMPLES\n" + rule)
	fmt.Fprintf(&sb, "%-12s %-14s %-14s %-10s %-10s\n", "Elapsed", "Heap", "RSS", "CPU %", "Goroutines")
	for _, p := range samples {
		fmt.Fprintf(&sb, "%-12s %-14s %-14s %-10.1f %-10d\n",
			p.Elapsed.Round(100*time.Millisecond),
			humanize.IBytes(p.HeapAlloc),
			humanize.IBytes(p.ProcessRSSBytes),
			p.CPUPercent,
			p.NumGoroutine)
	}

	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

func (r *Report) SaveToFile(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create stats file: %w", err)
	}
	if _, err := r.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	return f.Close()
}
