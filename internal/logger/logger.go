package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

const sessionHeader = "=== STARTING NEW SESSION ===\n"

type implLogger struct {
	logger *log.Logger
	level  string

	mu   sync.Mutex
	file io.WriteCloser
	now  func() time.Time
}

// New creates a new Logger instance
func New(level string) Logger {
	return newImpl(os.Stdout, level)
}

// NewWithFile creates a Logger that also mirrors every line into a session
// log file. The file is truncated and starts with a session header.
func NewWithFile(level, path string) (Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	if _, err := io.WriteString(f, sessionHeader); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("write log header: %w", err)
	}

	l := newImpl(os.Stdout, level)
	l.file = f
	return l, l, nil
}

func newImpl(out io.Writer, level string) *implLogger {
	return &implLogger{
		logger: log.New(out, "", log.LstdFlags),
		level:  strings.ToLower(level),
		now:    time.Now,
	}
}

func (l *implLogger) shouldLog(level string) bool {
	levels := map[string]int{
		"debug": 0,
		"info":  1,
		"warn":  2,
		"error": 3,
	}

	currentLevel, ok := levels[l.level]
	if !ok {
		currentLevel = 1 // default to info
	}

	targetLevel, ok := levels[level]
	if !ok {
		return true
	}

	return targetLevel >= currentLevel
}

func (l *implLogger) emit(tag, msg string, args ...interface{}) {
	line := fmt.Sprintf("["+tag+"] "+msg, args...)
	l.logger.Print(line)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	fmt.Fprintf(l.file, "[%s] %s\n", l.now().Format("2006-01-02 15:04:05"), line)
}

func (l *implLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("debug") {
		l.emit("DEBUG", msg, args...)
	}
}

func (l *implLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("info") {
		l.emit("INFO", msg, args...)
	}
}

func (l *implLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("warn") {
		l.emit("WARN", msg, args...)
	}
}

func (l *implLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("error") {
		l.emit("ERROR", msg, args...)
	}
}

// Close releases the session log file, if any.
func (l *implLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Nop returns a Logger that discards everything. Handy in tests.
func Nop() Logger {
	return newImpl(io.Discard, "error")
}
