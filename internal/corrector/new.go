package corrector

import (
	"context"
	"time"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/logger"
)

const (
	defaultModel     = "gemini-2.5-flash"
	defaultBatchSize = 100
	batchAttempts    = 3
	batchRetryDelay  = 2 * time.Second
)

// Options configures a Corrector.
type Options struct {
	APIKeys   []string
	Model     string
	BatchSize int
}

// generateFunc sends one prompt with one API key and returns the reply text.
type generateFunc func(ctx context.Context, apiKey, model, prompt string) (string, error)

type implCorrector struct {
	apiKeys    []string
	currentKey int
	logger     logger.Logger
	model      string
	batchSize  int
	retryDelay time.Duration
	generate   generateFunc
}

// New creates a Corrector that rotates through the supplied Gemini API keys.
func New(opts Options, log logger.Logger) Corrector {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}

	return &implCorrector{
		apiKeys:    opts.APIKeys,
		logger:     log,
		model:      opts.Model,
		batchSize:  opts.BatchSize,
		retryDelay: batchRetryDelay,
		generate:   generateGemini,
	}
}
