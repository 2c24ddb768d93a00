package watcher

import (
	"errors"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/events"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/logger"
)

var (
	// ErrDirectoryNeverAppeared is returned when the watched directory does not
	// show up within the polling budget.
	ErrDirectoryNeverAppeared = errors.New("directory never appeared")
	// ErrStopTimeout is returned when the delivery goroutine does not exit in time.
	ErrStopTimeout = errors.New("watcher did not stop in time")
)

// New creates a Monitor for one run. A nil bus disables progress events.
func New(observer Observer, runID string, log logger.Logger, bus *events.Bus) Monitor {
	return &implMonitor{
		observer: observer,
		runID:    runID,
		logger:   log,
		bus:      bus,
	}
}
