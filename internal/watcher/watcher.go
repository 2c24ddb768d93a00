package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/events"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/logger"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/timecode"
)

type implMonitor struct {
	observer Observer
	runID    string
	logger   logger.Logger
	bus      *events.Bus

	mu      sync.Mutex
	ctx     context.Context
	session Session
}

// Start begins observing dir. Files already present are counted into the
// session. Calling it again while a session is active does nothing.
func (m *implMonitor) Start(ctx context.Context, dir string, expected time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.Active {
		m.logger.Debug(ctx, "Already monitoring %s", m.session.Dir)
		return nil
	}

	if err := m.observer.Start(dir, m.handle); err != nil {
		return fmt.Errorf("start observer: %w", err)
	}

	m.ctx = ctx
	m.session = Session{Dir: dir, Expected: expected, Files: countFiles(dir), Active: true}
	m.logger.Info(ctx, "Monitoring directory: %s (%d files)", dir, m.session.Files)
	return nil
}

func countFiles(dir string) int {
	n := 0
	filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}

// Stop halts observation. Stopping an inactive monitor is a no-op.
func (m *implMonitor) Stop() error {
	m.mu.Lock()
	if !m.session.Active {
		m.mu.Unlock()
		return nil
	}
	m.session.Active = false
	ctx := m.ctx
	m.mu.Unlock()

	if err := m.observer.Stop(); err != nil {
		m.logger.Warn(ctx, "Stopping monitor: %v", err)
		return err
	}
	m.logger.Info(ctx, "Monitoring stopped")
	return nil
}

// Session returns a snapshot of the current watch.
func (m *implMonitor) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// WaitAndMonitor checks for dir every delay, up to retries times.
func (m *implMonitor) WaitAndMonitor(ctx context.Context, dir string, expected time.Duration, retries int, delay time.Duration) error {
	for attempt := 1; attempt <= retries; attempt++ {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return m.Start(ctx, dir, expected)
		}
		m.logger.Debug(ctx, "Waiting for %s (%d/%d)", dir, attempt, retries)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	m.logger.Error(ctx, "Directory %s was not created after %d attempts", dir, retries)
	m.bus.Error(m.runID, fmt.Sprintf("Directory %s was not created", dir))
	return fmt.Errorf("%s: %w", dir, ErrDirectoryNeverAppeared)
}

func (m *implMonitor) handle(path string, isDir bool) {
	if isDir {
		return
	}

	m.mu.Lock()
	if !m.session.Active {
		m.mu.Unlock()
		return
	}
	m.session.Files++
	files := m.session.Files
	expected := m.session.Expected
	ctx := m.ctx
	m.mu.Unlock()

	name := filepath.Base(path)
	m.logger.Info(ctx, "%s: %s", filepath.Base(filepath.Dir(path)), name)

	ts, err := timecode.FindTimestamp(name)
	if err != nil {
		m.logger.Debug(ctx, "No timestamp in %s", name)
		return
	}
	if expected <= 0 {
		return
	}

	remaining, pct := Estimate(ts.Duration(), expected)
	m.bus.Percent(m.runID, pct, fmt.Sprintf("Extracting: %.1f%%", pct))
	m.bus.Status(m.runID, fmt.Sprintf("Remaining: %s | Total: %s | Images: %d",
		timecode.FormatClock(remaining), timecode.FormatClock(expected), files))
}

// Estimate reports how much of expected remains after elapsed and the
// percentage done, clamped to [0, 100].
func Estimate(elapsed, expected time.Duration) (time.Duration, float64) {
	if expected <= 0 {
		return 0, 0
	}
	remaining := expected - elapsed
	if remaining < 0 {
		remaining = 0
	}
	pct := float64(elapsed) / float64(expected) * 100
	switch {
	case pct < 0:
		pct = 0
	case pct > 100:
		pct = 100
	}
	return remaining, pct
}
