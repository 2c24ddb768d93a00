package processor

import (
	"context"
	"sync/atomic"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/config"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/corrector"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/events"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/logger"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/ocr"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/watcher"
	"github.com/nguyentantai21042004/subtitle-ocr/pkg/executor"
)

type implProcessor struct {
	cfg       *config.Config
	executor  executor.Executor
	backend   ocr.Backend
	corrector corrector.Corrector
	logger    logger.Logger
	bus       *events.Bus

	newObserver func() watcher.Observer
	running     atomic.Bool
}

// Dependencies are the collaborators a Processor needs. Backend may be nil
// for extraction only; Corrector may be nil when correction is disabled.
type Dependencies struct {
	Executor  executor.Executor
	Backend   ocr.Backend
	Corrector corrector.Corrector
	Logger    logger.Logger
	Bus       *events.Bus
}

// New creates a new Processor instance
func New(cfg *config.Config, deps Dependencies) Processor {
	p := &implProcessor{
		cfg:       cfg,
		executor:  deps.Executor,
		backend:   deps.Backend,
		corrector: deps.Corrector,
		logger:    deps.Logger,
		bus:       deps.Bus,
	}
	p.newObserver = func() watcher.Observer {
		return watcher.NewFSObserver(func(err error) {
			p.logger.Warn(context.Background(), "Watcher error: %v", err)
		})
	}
	return p
}
