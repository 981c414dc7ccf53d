package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	filePrefix         = "medhub-"
	defaultMaxFileSize = 100 * 1024 * 1024
	cleanupInterval    = 24 * time.Hour
)

var numberedFileRegex = regexp.MustCompile(`^medhub-\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingLogger is an io.Writer that writes to one file per ISO week,
// splitting into numbered files once maxFileSize is reached
type RotatingLogger struct {
	logDir      string
	retention   time.Duration
	maxFileSize int64

	mu          sync.Mutex
	currentFile *os.File
	currentWeek string
	currentSize atomic.Int64

	stop        chan struct{}
	stopOnce    sync.Once
	cleanupDone chan struct{}
	cleanupRuns atomic.Bool
}

// NewRotatingLogger creates a rotating logger with the default size limit
func NewRotatingLogger(logDir string, retentionWeeks int) *RotatingLogger {
	return NewRotatingLoggerWithSizeLimit(logDir, retentionWeeks, defaultMaxFileSize)
}

// NewRotatingLoggerWithSizeLimit creates a rotating logger. A maxFileSize of 0
// disables size based rotation.
func NewRotatingLoggerWithSizeLimit(logDir string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	return &RotatingLogger{
		logDir:      logDir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		stop:        make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// getWeekKey returns the ISO week as YYYY-Www
func getWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func weekFileName(week string) string {
	return filePrefix + week + ".log"
}

// doRotate opens the file for targetWeek. Caller must hold mu.
func (rl *RotatingLogger) doRotate(targetWeek string) error {
	if rl.currentFile != nil {
		if err := rl.currentFile.Close(); err != nil {
			slog.Warn("Failed to close log file during rotation", "error", err)
		}
		rl.currentFile = nil
	}

	full := rl.maxFileSize > 0 && rl.currentSize.Load() >= rl.maxFileSize
	fileName, fresh := rl.pickFile(targetWeek, full)

	logPath := filepath.Join(rl.logDir, fileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	rl.currentFile = file
	rl.currentWeek = targetWeek

	if fresh {
		rl.currentSize.Store(0)
	} else if info, err := os.Stat(logPath); err == nil {
		rl.currentSize.Store(info.Size())
	} else {
		rl.currentSize.Store(0)
	}
	return nil
}

// pickFile returns the file name to append to for the week and whether it is
// a new numbered file
func (rl *RotatingLogger) pickFile(week string, full bool) (string, bool) {
	base := weekFileName(week)

	if !full {
		info, err := os.Stat(filepath.Join(rl.logDir, base))
		if err != nil || rl.maxFileSize == 0 || info.Size() < rl.maxFileSize {
			return base, false
		}
	}

	num, lastPath, lastSize := rl.lastNumberedFile(week)
	if lastPath != "" && lastSize < rl.maxFileSize {
		return filepath.Base(lastPath), false
	}
	return fmt.Sprintf("%s%s_%02d.log", filePrefix, week, num+1), true
}

// lastNumberedFile finds the highest numbered split of the week
func (rl *RotatingLogger) lastNumberedFile(week string) (int, string, int64) {
	matches, _ := filepath.Glob(filepath.Join(rl.logDir, filePrefix+week+"_??.log"))

	highest := 0
	var lastPath string
	var lastSize int64
	for _, match := range matches {
		m := numberedFileRegex.FindStringSubmatch(filepath.Base(match))
		if len(m) < 2 {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		if num <= highest {
			continue
		}
		highest = num
		lastPath = match
		lastSize = 0
		if info, err := os.Stat(match); err == nil {
			lastSize = info.Size()
		}
	}
	return highest, lastPath, lastSize
}

// Write implements io.Writer
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := getWeekKey(time.Now())
	rotate := rl.currentFile == nil || rl.currentWeek != week
	if !rotate && rl.maxFileSize > 0 {
		size := rl.currentSize.Load()
		if size+int64(len(p)) > rl.maxFileSize && size > 0 {
			rotate = true
			rl.currentSize.Store(rl.maxFileSize)
		}
	}

	if rotate {
		if err := rl.doRotate(week); err != nil {
			return 0, err
		}
	}

	n, err := rl.currentFile.Write(p)
	rl.currentSize.Add(int64(n))
	return n, err
}

// cleanupOldLogs removes our log files last modified before the retention window
func (rl *RotatingLogger) cleanupOldLogs() error {
	entries, err := os.ReadDir(rl.logDir)
	if err != nil {
		return fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := time.Now().Add(-rl.retention)
	deleted := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(rl.logDir, name)); err == nil {
			deleted++
		}
	}

	if deleted > 0 {
		// stdout, the logger may be writing to us
		fmt.Printf("Cleaned up %d old log files\n", deleted)
	}
	return nil
}

// startCleanup runs cleanupOldLogs daily until Close
func (rl *RotatingLogger) startCleanup() {
	rl.cleanupRuns.Store(true)
	go func() {
		defer close(rl.cleanupDone)
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-rl.stop:
				return
			case <-ticker.C:
				if err := rl.cleanupOldLogs(); err != nil {
					fmt.Printf("Failed to cleanup old logs: %v\n", err)
				}
			}
		}
	}()
}

// Close stops the cleanup goroutine and closes the current file
func (rl *RotatingLogger) Close() error {
	rl.stopOnce.Do(func() {
		close(rl.stop)
		if !rl.cleanupRuns.Load() {
			return
		}
		select {
		case <-rl.cleanupDone:
		case <-time.After(time.Second):
		}
	})

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.currentFile == nil {
		return nil
	}
	err := rl.currentFile.Close()
	rl.currentFile = nil
	return err
}

// SetupLoggerWithOptions builds a logger writing text to the console and JSON
// to the rotating file. When the log directory is unusable it falls back to
// console only and the returned RotatingLogger is nil.
func SetupLoggerWithOptions(opts Options) (*slog.Logger, *RotatingLogger) {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(opts.Env, opts.Level, opts.Verbose),
	})

	if opts.Dir == "" {
		return slog.New(consoleHandler), nil
	}

	consoleOnly := slog.New(consoleHandler)
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		consoleOnly.Error("Failed to create logs directory", "dir", opts.Dir, "error", err)
		return consoleOnly, nil
	}

	retention := opts.RetentionWeeks
	if retention <= 0 {
		retention = 4
	}
	maxSize := opts.MaxFileSize
	if maxSize < 0 {
		maxSize = defaultMaxFileSize
	}

	rotating := NewRotatingLoggerWithSizeLimit(opts.Dir, retention, maxSize)
	rotating.mu.Lock()
	err := rotating.doRotate(getWeekKey(time.Now()))
	rotating.mu.Unlock()
	if err != nil {
		consoleOnly.Error("Failed to initialize rotating logger", "error", err)
		return consoleOnly, nil
	}
	rotating.startCleanup()

	fileHandler := slog.NewJSONHandler(rotating, &slog.HandlerOptions{
		Level: GetFileLogLevel(),
	})

	return slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}), rotating
}

// multiHandler fans a record out to every handler that enables its level
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
