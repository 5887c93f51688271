// Package wirelog provides the daemon's structured logger plus a
// daily-rotated CSV packet trace.
package wirelog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

// NewLogger returns the process-wide structured logger, prefixed for
// the given subsystem.
func NewLogger(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
}

// dailyNamePattern is a strftime pattern, not Go's reference-time
// layout; one trace file per UTC day.
const dailyNamePattern = "%Y-%m-%d-packets.csv"

var csvHeader = []string{
	"utime", "isotime", "speaker_id", "sequence", "late", "recovered", "concealed",
}

// PacketTrace appends one row per popped jitter-buffer packet to a
// daily CSV file, opening (and writing a header for) a new file when
// the UTC date rolls over.
type PacketTrace struct {
	dir     string
	mu      sync.Mutex
	file    *os.File
	writer  *csv.Writer
	openDay string
	pattern *strftime.Strftime
}

// NewPacketTrace returns a PacketTrace writing daily files under dir.
// An empty dir disables the trace entirely; Write becomes a no-op.
func NewPacketTrace(dir string) (*PacketTrace, error) {
	if dir == "" {
		return &PacketTrace{}, nil
	}
	pattern, err := strftime.New(dailyNamePattern)
	if err != nil {
		return nil, fmt.Errorf("wirelog: compile name pattern: %w", err)
	}
	if stat, err := os.Stat(dir); err != nil {
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			return nil, fmt.Errorf("wirelog: create trace dir %q: %w", dir, mkErr)
		}
	} else if !stat.IsDir() {
		return nil, fmt.Errorf("wirelog: %q is not a directory", dir)
	}
	return &PacketTrace{dir: dir, pattern: pattern}, nil
}

// Row is one packet trace entry.
type Row struct {
	Time      time.Time
	SpeakerID string
	Sequence  uint16
	Late      bool
	Recovered bool
	Concealed bool
}

// Write appends one row, rotating to a new daily file if the UTC date
// has changed since the file was opened.
func (t *PacketTrace) Write(r Row) error {
	if t.dir == "" {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := r.Time.UTC()
	name := t.pattern.FormatString(now)
	if t.file != nil && name != t.openDay {
		t.closeLocked()
	}
	if t.file == nil {
		if err := t.openLocked(name); err != nil {
			return err
		}
	}

	record := []string{
		fmt.Sprintf("%d", now.Unix()),
		now.Format(time.RFC3339),
		r.SpeakerID,
		fmt.Sprintf("%d", r.Sequence),
		fmt.Sprintf("%t", r.Late),
		fmt.Sprintf("%t", r.Recovered),
		fmt.Sprintf("%t", r.Concealed),
	}
	if err := t.writer.Write(record); err != nil {
		return fmt.Errorf("wirelog: write row: %w", err)
	}
	t.writer.Flush()
	return t.writer.Error()
}

func (t *PacketTrace) openLocked(name string) error {
	full := filepath.Join(t.dir, name)
	_, statErr := os.Stat(full)
	existed := statErr == nil

	f, err := os.OpenFile(full, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("wirelog: open %q: %w", full, err)
	}
	t.file = f
	t.writer = csv.NewWriter(f)
	t.openDay = name

	if !existed {
		if err := t.writer.Write(csvHeader); err != nil {
			return fmt.Errorf("wirelog: write header: %w", err)
		}
		t.writer.Flush()
	}
	return nil
}

func (t *PacketTrace) closeLocked() {
	if t.writer != nil {
		t.writer.Flush()
	}
	if t.file != nil {
		t.file.Close()
	}
	t.file = nil
	t.writer = nil
	t.openDay = ""
}

// Close flushes and closes the currently open trace file, if any.
func (t *PacketTrace) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeLocked()
	return nil
}
