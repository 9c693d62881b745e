package main

import (
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/cheggaaa/pb/v3/termutil"
	"github.com/striide/walkgraph/associate"
)

const plainTemplate = `{{with string . "prefix"}}{{.}} {{end}}{{counters . }} {{bar . }} {{percent . }} {{rtime . "ETA %s"}}` + "\n"

type bar struct {
	pb *pb.ProgressBar
}

func (b bar) Increment() { b.pb.Increment() }
func (b bar) Finish()    { b.pb.Finish() }

// progressBars renders each associate stage as a progress bar on stderr.
func progressBars(name string, total int) associate.Progress {
	b := pb.New(total)
	b.Set("prefix", name)
	b.SetRefreshRate(time.Second)
	if w, err := termutil.TerminalWidth(); w == 0 || err != nil {
		b.SetTemplateString(plainTemplate)
	}
	return bar{b.Start()}
}
