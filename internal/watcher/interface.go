package watcher

import (
	"context"
	"time"
)

// Handler receives every entry created under an observed directory.
type Handler func(path string, isDir bool)

// Observer is a platform filesystem watch facility. Start begins delivering
// creation events for dir to handler; Stop halts delivery and waits, bounded,
// for the delivery goroutine to exit.
type Observer interface {
	Start(dir string, handler Handler) error
	Stop() error
}

// Monitor follows the frames an extraction writes and turns them into
// progress events.
type Monitor interface {
	// Start is a no-op while a session is already active.
	Start(ctx context.Context, dir string, expected time.Duration) error
	Stop() error
	// WaitAndMonitor polls for dir to exist and starts monitoring once it does.
	WaitAndMonitor(ctx context.Context, dir string, expected time.Duration, retries int, delay time.Duration) error
	Session() Session
}

// Session describes the current watch.
type Session struct {
	Dir      string
	Expected time.Duration
	Files    int
	Active   bool
}
