package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/gubarz/cmtscan/internal/scan"
)

// ProgressReporter draws a progress bar for a workspace scan
type ProgressReporter struct {
	quiet bool
	out   io.Writer

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

var _ scan.ProgressReporter = (*ProgressReporter)(nil)

// NewProgressReporter creates a reporter writing to stderr. A quiet
// reporter draws nothing.
func NewProgressReporter(quiet bool) *ProgressReporter {
	return &ProgressReporter{quiet: quiet, out: os.Stderr}
}

// WithWriter redirects the bar (useful for testing)
func (p *ProgressReporter) WithWriter(w io.Writer) *ProgressReporter {
	p.out = w
	return p
}

func (p *ProgressReporter) OnScanStart(totalFiles int) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	out := p.out
	p.bar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("Scanning files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
	)
}

func (p *ProgressReporter) OnFileScanned(outcome scan.Outcome) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *ProgressReporter) OnScanComplete(stats scan.Stats) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}
