package extractor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var rePercent = regexp.MustCompile(`%(\d+)`)

// Run launches the extractor and blocks until it exits. The RGB frames
// directory is watched in parallel from the start. A zero and a non-zero
// exit both mean the extractor finished; they differ only in the message.
// A ready event is published however Run ends.
func (s *implSupervisor) Run(ctx context.Context, opts Options, expected time.Duration) (Outcome, error) {
	defer s.bus.Ready(s.runID)

	args := BuildArgs(opts)
	s.logger.Info(ctx, "Running extractor: %s %s", opts.Binary, strings.Join(args, " "))

	rgbDir := opts.RGBImagesDir()
	s.logger.Info(ctx, "Watching for frames in %s", rgbDir)

	watchCtx, cancelWatch := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := s.monitor.WaitAndMonitor(watchCtx, rgbDir, expected, s.cfg.WatchRetries, s.cfg.WatchDelay)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn(ctx, "Frame watcher: %v", err)
		}
	}()
	stopWaiting := func() {
		cancelWatch()
		wg.Wait()
	}

	res, err := s.streamer.Stream(ctx, opts.Binary, args, func(line string) {
		s.logger.Info(ctx, "%s", line)
		if m := rePercent.FindStringSubmatch(line); m != nil {
			pct, convErr := strconv.Atoi(m[1])
			if convErr != nil {
				s.logger.Warn(ctx, "Invalid percentage in %q", line)
				return
			}
			s.bus.Percent(s.runID, float64(pct), "Extracting")
		}
	})
	stopWaiting()

	if err != nil {
		return Outcome{}, s.launchFailed(ctx, opts.Binary, err)
	}

	if res.Stderr != "" {
		s.logger.Error(ctx, "Extractor error: %s", res.Stderr)
		s.bus.Error(s.runID, "Video processing failed: "+res.Stderr)
	}

	out := Outcome{ExitCode: res.ExitCode, ImagesDir: opts.ImagesDir()}
	if res.ExitCode != 0 {
		s.logger.Info(ctx, "Extractor finished processing images from video (exit code %d)", res.ExitCode)
		s.bus.Info(s.runID, "Extractor finished processing images from video")
		s.bus.Status(s.runID, fmt.Sprintf("Video processed | Images: %d", s.monitor.Session().Files))
	} else {
		s.logger.Info(ctx, "Video processing completed")
		s.bus.Status(s.runID, "Completed")
	}

	if info, statErr := os.Stat(out.ImagesDir); statErr != nil || !info.IsDir() {
		s.logger.Error(ctx, "Images directory %s does not exist", out.ImagesDir)
		s.bus.Error(s.runID, fmt.Sprintf("Images directory %s does not exist", out.ImagesDir))
		return out, fmt.Errorf("%s: %w", out.ImagesDir, ErrOutputMissing)
	}

	t := time.NewTimer(s.cfg.SettleDelay)
	select {
	case <-ctx.Done():
		t.Stop()
		return out, ctx.Err()
	case <-t.C:
	}

	// Hand the frames directory to the monitor. This is the first Start when
	// the extractor exited before the directory was found.
	if err := s.monitor.Start(ctx, rgbDir, expected); err != nil {
		s.logger.Warn(ctx, "Start frame monitor: %v", err)
	}
	out.Files = s.monitor.Session().Files
	s.logger.Info(ctx, "Frames handed to monitor: %d", out.Files)
	return out, nil
}

func (s *implSupervisor) launchFailed(ctx context.Context, binary string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.logger.Info(ctx, "Extraction cancelled")
		return ctxErr
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		s.logger.Error(ctx, "Extractor not found: %s", binary)
		s.bus.Error(s.runID, fmt.Sprintf("Extractor not found at: %s", binary))
		return fmt.Errorf("%s: %w", binary, ErrBinaryNotFound)
	}
	s.logger.Error(ctx, "Cannot execute extractor: %v", err)
	s.bus.Error(s.runID, fmt.Sprintf("Cannot execute command: %v", err))
	return fmt.Errorf("run extractor: %w", err)
}
