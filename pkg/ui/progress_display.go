package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"tgbulkdl/pkg/logger"
)

const redrawInterval = 100 * time.Millisecond

// ProgressDisplay draws a single progress line for the file being
// downloaded and keeps session totals
type ProgressDisplay struct {
	mu       sync.Mutex
	out      io.Writer
	enabled  bool
	name     string
	done     int64
	total    int64
	lastDraw time.Time
	stats    *StatusTracker
}

// NewProgressDisplay writes to out. A disabled display only counts.
func NewProgressDisplay(out io.Writer, enabled bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:     out,
		enabled: enabled,
		stats:   NewStatusTracker(),
	}
}

// Stats returns the session totals
func (p *ProgressDisplay) Stats() *StatusTracker {
	return p.stats
}

// Start begins a new file
func (p *ProgressDisplay) Start(name string, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.name = name
	p.done = 0
	p.total = total
	p.lastDraw = time.Time{}
	p.draw(false)
}

// Update records bytes received for the current file
func (p *ProgressDisplay) Update(downloaded, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = downloaded
	if total > 0 {
		p.total = total
	}
	p.draw(downloaded >= p.total && p.total > 0)
}

// Finish ends the current file
func (p *ProgressDisplay) Finish(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.stats.RecordFailure()
		if p.enabled {
			fmt.Fprintf(p.out, "\r%s\r%s %s: %v\n", strings.Repeat(" ", 100), Red("✗"), p.name, err)
		}
		return
	}

	p.stats.RecordFile(p.done)
	p.draw(true)
	if p.enabled {
		fmt.Fprintln(p.out)
	}
}

// Complete prints the session summary
func (p *ProgressDisplay) Complete(title string) {
	if !p.enabled {
		return
	}
	fmt.Fprintf(p.out, "\n%s %s\n  %s %s\n", Green("✓"), title, Dim("•"), p.stats.Summary())
}

func (p *ProgressDisplay) draw(force bool) {
	if !p.enabled {
		return
	}
	now := time.Now()
	if !force && now.Sub(p.lastDraw) < redrawInterval {
		return
	}
	p.lastDraw = now

	line := fmt.Sprintf("%s [%s] %s • %s / %s",
		Cyan(p.name),
		bar(p.done, p.total, 20),
		logger.Percent(p.done, p.total),
		humanize.Bytes(uint64(p.done)),
		humanize.Bytes(uint64(p.total)),
	)
	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 100), line)
}
