package executor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

const maxLineBytes = 1024 * 1024

// waitDelay bounds how long Stream waits on pipes held open by orphaned
// descendants once the process has exited or ctx is done.
var waitDelay = 5 * time.Second

type implExecutor struct{}

// New creates a new Executor instance
func New() Executor {
	return &implExecutor{}
}

// Execute runs an external command with the given arguments
func (e *implExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Include stderr in error message for debugging
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr != "" {
			return "", fmt.Errorf("command '%s' failed: %w\nstderr: %s", name, err, stderrStr)
		}
		return "", fmt.Errorf("command '%s' failed: %w", name, err)
	}

	return stdout.String(), nil
}

// Stream starts the command, forwards stdout line by line and collects stderr.
// A non-zero exit is reported through Result, not as an error; errors are
// reserved for failures to launch or to read the output.
func (e *implExecutor) Stream(ctx context.Context, name string, args []string, onLine func(string)) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start '%s': %w", name, err)
	}

	// A grandchild can keep stdout open after the child is killed.
	readDone := make(chan struct{})
	go func() {
		select {
		case <-readDone:
		case <-ctx.Done():
			select {
			case <-readDone:
			case <-time.After(waitDelay):
				stdout.Close()
			}
		}
	}()

	// All reads from the pipe must finish before Wait closes it.
	readErr := readLines(stdout, onLine)
	if readErr != nil {
		io.Copy(io.Discard, stdout)
	}
	close(readDone)

	waitErr := cmd.Wait()
	result := Result{Stderr: strings.TrimSpace(stderr.String())}
	if ctx.Err() != nil {
		result.ExitCode = -1
		return result, ctx.Err()
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return result, fmt.Errorf("wait '%s': %w", name, waitErr)
		}
		result.ExitCode = exitErr.ExitCode()
	}
	if readErr != nil {
		return result, fmt.Errorf("read '%s' output: %w", name, readErr)
	}
	return result, nil
}

// readLines hands each non-blank line to onLine. Lines longer than
// maxLineBytes are truncated and the remainder is discarded.
func readLines(r io.Reader, onLine func(string)) error {
	br := bufio.NewReaderSize(r, 64*1024)
	var line []byte
	for {
		chunk, isPrefix, err := br.ReadLine()
		if room := maxLineBytes - len(line); room > 0 {
			if len(chunk) > room {
				chunk = chunk[:room]
			}
			line = append(line, chunk...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if isPrefix {
			continue
		}
		if text := strings.TrimSpace(string(line)); text != "" && onLine != nil {
			onLine(text)
		}
		line = line[:0]
	}
}
