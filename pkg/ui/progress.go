package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker counts what a session has downloaded
type StatusTracker struct {
	mu        sync.Mutex
	files     int
	failed    int
	bytes     int64
	startTime time.Time
	now       func() time.Time
}

// NewStatusTracker creates a new status tracker
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		startTime: time.Now(),
		now:       time.Now,
	}
}

// RecordFile counts a completed file of size bytes
func (st *StatusTracker) RecordFile(size int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.files++
	st.bytes += size
}

// RecordFailure counts a skipped file
func (st *StatusTracker) RecordFailure() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.failed++
}

// Files returns the number of completed files
func (st *StatusTracker) Files() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.files
}

// Failed returns the number of skipped files
func (st *StatusTracker) Failed() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.failed
}

// Bytes returns the total size of completed files
func (st *StatusTracker) Bytes() int64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.bytes
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return st.now().Sub(st.startTime)
}

// GetDownloadRate returns the average download rate (files per minute)
func (st *StatusTracker) GetDownloadRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed <= 0 {
		return 0
	}
	return float64(st.Files()) / elapsed
}

// Summary describes the session in one line
func (st *StatusTracker) Summary() string {
	files, failed, bytes := st.Files(), st.Failed(), st.Bytes()

	line := fmt.Sprintf("%d files • %s in %s (%.1f files/min)",
		files,
		humanize.Bytes(uint64(bytes)),
		formatDuration(st.GetElapsedTime()),
		st.GetDownloadRate(),
	)
	if failed > 0 {
		line += fmt.Sprintf(" • %d skipped", failed)
	}
	return line
}

// bar renders a fixed width bar for done out of total
func bar(done, total int64, width int) string {
	filled := 0
	if total > 0 {
		filled = int(float64(done) / float64(total) * float64(width))
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, width-filled)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
