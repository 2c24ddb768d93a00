package extractor

import (
	"context"
	"time"
)

// Supervisor runs the external frame extractor and hands its output
// directory to a watcher once it exits.
type Supervisor interface {
	Run(ctx context.Context, opts Options, expected time.Duration) (Outcome, error)
}

// Outcome describes a finished extraction.
type Outcome struct {
	ExitCode  int
	ImagesDir string
	Files     int
}
