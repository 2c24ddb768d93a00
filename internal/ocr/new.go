package ocr

import (
	"time"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/events"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/logger"
)

const (
	defaultMaxAttempts = 5
	defaultRetryDelay  = time.Second
	cleanupTimeout     = 30 * time.Second
)

// Options configures a Recognizer.
type Options struct {
	Threads     int
	MaxAttempts int
	RetryDelay  time.Duration
}

type implRecognizer struct {
	backend     Backend
	logger      logger.Logger
	bus         *events.Bus
	threads     int
	maxAttempts int
	retryDelay  time.Duration
}

// New creates a Recognizer. A nil bus disables progress events.
func New(backend Backend, opts Options, log logger.Logger, bus *events.Bus) Recognizer {
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}

	return &implRecognizer{
		backend:     backend,
		logger:      log,
		bus:         bus,
		threads:     opts.Threads,
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
	}
}
