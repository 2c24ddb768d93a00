package extractor

import (
	"errors"
	"time"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/events"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/logger"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/watcher"
	"github.com/nguyentantai21042004/subtitle-ocr/pkg/executor"
)

var (
	// ErrBinaryNotFound is returned when the extractor executable cannot be launched.
	ErrBinaryNotFound = errors.New("extractor binary not found")
	// ErrOutputMissing is returned when the extractor exits without creating its images directory.
	ErrOutputMissing = errors.New("extractor output directory missing")
)

const (
	defaultSettleDelay  = 3 * time.Second
	defaultWatchRetries = 10
	defaultWatchDelay   = time.Second
)

// Config holds the supervisor timings.
type Config struct {
	SettleDelay  time.Duration
	WatchRetries int
	WatchDelay   time.Duration
}

type implSupervisor struct {
	streamer executor.Streamer
	monitor  watcher.Monitor
	runID    string
	logger   logger.Logger
	bus      *events.Bus
	cfg      Config
}

// New creates a Supervisor for one run.
func New(streamer executor.Streamer, monitor watcher.Monitor, cfg Config, runID string, log logger.Logger, bus *events.Bus) Supervisor {
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = defaultSettleDelay
	}
	if cfg.WatchRetries <= 0 {
		cfg.WatchRetries = defaultWatchRetries
	}
	if cfg.WatchDelay <= 0 {
		cfg.WatchDelay = defaultWatchDelay
	}

	return &implSupervisor{
		streamer: streamer,
		monitor:  monitor,
		runID:    runID,
		logger:   log,
		bus:      bus,
		cfg:      cfg,
	}
}
