package executor

import "context"

// Executor defines the interface for executing external commands
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
	Streamer
}

// Streamer runs a long-lived command and hands each stdout line to onLine
// while the process is alive.
type Streamer interface {
	Stream(ctx context.Context, name string, args []string, onLine func(string)) (Result, error)
}

// Result is the outcome of a streamed command that ran to exit.
type Result struct {
	ExitCode int
	Stderr   string
}
