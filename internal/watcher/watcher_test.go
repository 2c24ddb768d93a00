package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/events"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/logger"
)

type fakeObserver struct {
	mu      sync.Mutex
	starts  int
	stops   int
	handler Handler
}

func (f *fakeObserver) Start(dir string, h Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.handler = h
	return nil
}

func (f *fakeObserver) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func TestEstimate(t *testing.T) {
	tests := []struct {
		name          string
		elapsed       time.Duration
		expected      time.Duration
		wantRemaining time.Duration
		wantPct       float64
	}{
		{"halfway", 30 * time.Second, time.Minute, 30 * time.Second, 50},
		{"complete", time.Minute, time.Minute, 0, 100},
		{"overshoot", 2 * time.Minute, time.Minute, 0, 100},
		{"unknown total", time.Minute, 0, 0, 0},
		{"start", 0, time.Minute, time.Minute, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remaining, pct := Estimate(tt.elapsed, tt.expected)
			if remaining != tt.wantRemaining || pct != tt.wantPct {
				t.Errorf("Estimate() = %v, %v; want %v, %v", remaining, pct, tt.wantRemaining, tt.wantPct)
			}
		})
	}
}

func TestStartIsIdempotent(t *testing.T) {
	obs := &fakeObserver{}
	m := New(obs, "run", logger.Nop(), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := m.Start(ctx, t.TempDir(), time.Minute); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	}
	if obs.starts != 1 {
		t.Errorf("observer starts = %d, want 1", obs.starts)
	}

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
	if obs.stops != 1 {
		t.Errorf("observer stops = %d, want 1", obs.stops)
	}
	if m.Session().Active {
		t.Error("session still active after Stop")
	}
}

func TestHandlerPublishesProgress(t *testing.T) {
	obs := &fakeObserver{}
	bus := events.NewBus(16)
	m := New(obs, "run", logger.Nop(), bus)

	if err := m.Start(context.Background(), "/frames", 2*time.Minute); err != nil {
		t.Fatal(err)
	}
	obs.handler("/frames/sub", true)
	obs.handler("/frames/0_01_00_000__0_01_02_000.jpeg", false)
	obs.handler("/frames/cover.jpeg", false)
	bus.Close()

	var got []events.Event
	for e := range bus.Events() {
		got = append(got, e)
	}
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2 (percent + status)", len(got))
	}
	if got[0].Percent != 50 {
		t.Errorf("Percent = %v, want 50", got[0].Percent)
	}
	want := "Remaining: 00:01:00 | Total: 00:02:00 | Images: 1"
	if got[1].Message != want {
		t.Errorf("status = %q, want %q", got[1].Message, want)
	}
	if n := m.Session().Files; n != 2 {
		t.Errorf("Files = %d, want 2", n)
	}
}

func TestStartCountsExistingFrames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jpeg", "b.jpeg", filepath.Join("sub", "c.jpeg")} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	obs := &fakeObserver{}
	m := New(obs, "run", logger.Nop(), nil)
	if err := m.Start(context.Background(), dir, 0); err != nil {
		t.Fatal(err)
	}
	obs.handler(filepath.Join(dir, "d.jpeg"), false)

	if n := m.Session().Files; n != 4 {
		t.Errorf("Files = %d, want 4", n)
	}
}

func TestWaitAndMonitorGivesUp(t *testing.T) {
	obs := &fakeObserver{}
	m := New(obs, "run", logger.Nop(), nil)

	missing := filepath.Join(t.TempDir(), "RGBImages")
	err := m.WaitAndMonitor(context.Background(), missing, time.Minute, 3, time.Millisecond)
	if !errors.Is(err, ErrDirectoryNeverAppeared) {
		t.Fatalf("WaitAndMonitor() error = %v, want ErrDirectoryNeverAppeared", err)
	}
	if obs.starts != 0 {
		t.Errorf("observer started for a missing directory")
	}
}

func TestWaitAndMonitorFindsLateDirectory(t *testing.T) {
	obs := &fakeObserver{}
	m := New(obs, "run", logger.Nop(), nil)

	dir := filepath.Join(t.TempDir(), "RGBImages")
	go func() {
		time.Sleep(20 * time.Millisecond)
		os.MkdirAll(dir, 0755)
	}()

	if err := m.WaitAndMonitor(context.Background(), dir, time.Minute, 50, 10*time.Millisecond); err != nil {
		t.Fatalf("WaitAndMonitor() error = %v", err)
	}
	if s := m.Session(); !s.Active || s.Dir != dir {
		t.Errorf("Session() = %+v", s)
	}
}

func TestFSObserverDeliversCreates(t *testing.T) {
	dir := t.TempDir()
	got := make(chan string, 8)
	obs := NewFSObserver(nil)
	if err := obs.Start(dir, func(path string, isDir bool) {
		if !isDir {
			got <- filepath.Base(path)
		}
	}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer obs.Stop()

	if err := os.WriteFile(filepath.Join(dir, "0_00_01_000__0_00_02_000.jpeg"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case name := <-got:
		if name != "0_00_01_000__0_00_02_000.jpeg" {
			t.Errorf("handler got %s", name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no create event delivered")
	}
}

func TestFSObserverStopIsBounded(t *testing.T) {
	dir := t.TempDir()
	block := make(chan struct{})
	defer close(block)
	entered := make(chan struct{}, 1)

	obs := &fsObserver{stopTimeout: 50 * time.Millisecond}
	if err := obs.Start(dir, func(string, bool) {
		entered <- struct{}{}
		<-block
	}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.jpeg"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("handler never called")
	}

	start := time.Now()
	err := obs.Stop()
	if !errors.Is(err, ErrStopTimeout) {
		t.Errorf("Stop() error = %v, want ErrStopTimeout", err)
	}
	if d := time.Since(start); d > time.Second {
		t.Errorf("Stop() took %v", d)
	}
}
