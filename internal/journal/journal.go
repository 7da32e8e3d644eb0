// Package journal keeps a plain-text record of what happened during a
// session. Every record is timestamped and stripped of terminal escapes, and
// can be mirrored to the session renderer as it is written.
package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/afero"

	"sessionshell/internal/logger"
	"sessionshell/internal/render"
)

// Record levels. Any other level string is accepted as well.
const (
	LevelDebug   = "DEBUG"
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
	levelSummary = "SUMMARY"
)

const (
	timestampFormat = "2006-01-02 15:04:05"
	rule            = "=================================================="
)

// ErrClosed is returned when recording to a closed journal.
var ErrClosed = errors.New("journal is closed")

// Journal appends session records to a file.
type Journal struct {
	mu sync.Mutex

	path      string
	fs        afero.Fs
	file      afero.File
	out       *render.Renderer
	mirror    bool
	clock     func() time.Time
	sessionID string
	started   time.Time
	counts    map[string]int
	closed    bool
}

// Option is a functional option for configuring a Journal.
type Option func(*Journal)

// WithMirror echoes every record to the renderer as "[LEVEL] message".
func WithMirror() Option {
	return func(j *Journal) {
		j.mirror = true
	}
}

// WithClock replaces time.Now for timestamps and durations.
func WithClock(clock func() time.Time) Option {
	return func(j *Journal) {
		if clock != nil {
			j.clock = clock
		}
	}
}

// WithSessionID writes the session id into the journal header.
func WithSessionID(id string) Option {
	return func(j *Journal) {
		j.sessionID = id
	}
}

// WithFs sets the filesystem the journal is written to.
func WithFs(fs afero.Fs) Option {
	return func(j *Journal) {
		if fs != nil {
			j.fs = fs
		}
	}
}

// Open creates or appends to the journal file and writes a header.
// An empty path creates session_<timestamp>.log in the working directory.
func Open(path string, r *render.Renderer, opts ...Option) (*Journal, error) {
	j := &Journal{
		fs:     afero.NewOsFs(),
		out:    r,
		clock:  time.Now,
		counts: make(map[string]int),
	}
	for _, opt := range opts {
		opt(j)
	}

	j.started = j.clock()
	if path == "" {
		path = fmt.Sprintf("session_%s.log", j.started.Format("20060102_150405"))
	}
	j.path = path

	if dir := filepath.Dir(path); dir != "." {
		if err := j.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory %s: %w", dir, err)
		}
	}

	file, err := j.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}
	j.file = file

	if err := j.writeHeader(); err != nil {
		_ = file.Close()
		return nil, err
	}

	logger.Debug("Journal opened", "path", path, "session", j.sessionID)
	return j, nil
}

func (j *Journal) writeHeader() error {
	lines := []string{
		"",
		"=== Session Journal ===",
		"Started: " + j.started.Format(timestampFormat),
	}
	if j.sessionID != "" {
		lines = append(lines, "Session: "+j.sessionID)
	}
	lines = append(lines, "Journal: "+j.Path(), rule, "")

	if _, err := j.file.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		return fmt.Errorf("failed to write journal header: %w", err)
	}
	return nil
}

// Path returns the absolute path of the journal file.
func (j *Journal) Path() string {
	abs, err := filepath.Abs(j.path)
	if err != nil {
		return j.path
	}
	return abs
}

// Record writes one message at the given level.
func (j *Journal) Record(level, message string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.write(level, message); err != nil {
		return err
	}
	j.counts[level]++

	if j.mirror && j.out != nil {
		j.out.Line(0, levelColor(level), fmt.Sprintf("[%s] %s", level, message))
	}
	return nil
}

// Info records an INFO message.
func (j *Journal) Info(message string) error {
	return j.Record(LevelInfo, message)
}

// Warn records a WARNING message.
func (j *Journal) Warn(message string) error {
	return j.Record(LevelWarning, message)
}

// Error records an ERROR message.
func (j *Journal) Error(message string) error {
	return j.Record(LevelError, message)
}

// Counts returns how many records were written per level.
func (j *Journal) Counts() map[string]int {
	j.mu.Lock()
	defer j.mu.Unlock()
	counts := make(map[string]int, len(j.counts))
	for level, n := range j.counts {
		counts[level] = n
	}
	return counts
}

// Summary writes a footer with record counts per level and the session
// duration. With mirroring on, the summary is also rendered.
func (j *Journal) Summary() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	levels := make([]string, 0, len(j.counts))
	total := 0
	for level, n := range j.counts {
		levels = append(levels, level)
		total += n
	}
	sort.Strings(levels)

	now := j.clock()
	duration := now.Sub(j.started).Round(time.Second)

	lines := []string{rule, "SESSION SUMMARY", rule, fmt.Sprintf("Records: %d", total)}
	for _, level := range levels {
		lines = append(lines, fmt.Sprintf("  %s: %d", level, j.counts[level]))
	}
	lines = append(lines,
		fmt.Sprintf("Duration: %s", duration),
		"Completed: "+now.Format(timestampFormat),
		rule,
	)
	for _, line := range lines {
		if err := j.write(levelSummary, line); err != nil {
			return err
		}
	}

	if j.mirror && j.out != nil {
		j.out.Line(0, render.Red, "Session summary:")
		j.out.Line(1, render.Cyan, fmt.Sprintf("Records: %d", total))
		j.out.Line(1, render.Cyan, fmt.Sprintf("Duration: %s", duration))
		j.out.Line(1, render.Green, "Journal saved to: "+j.Path())
	}
	return nil
}

// Close closes the journal file. Closing twice is a no-op.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	logger.Debug("Journal closed", "path", j.path)
	return j.file.Close()
}

func (j *Journal) write(level, message string) error {
	if j.closed {
		return ErrClosed
	}
	entry := fmt.Sprintf("[%s] [%s] %s\n", j.clock().Format(timestampFormat), level, ansi.Strip(message))
	if _, err := j.file.WriteString(entry); err != nil {
		return fmt.Errorf("failed to write journal record: %w", err)
	}
	return nil
}

func levelColor(level string) render.ColorTag {
	switch level {
	case LevelInfo:
		return render.Green
	case LevelWarning:
		return render.Yellow
	case LevelError:
		return render.Red
	default:
		return render.Cyan
	}
}
