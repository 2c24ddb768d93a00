package processor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ProbeDuration reads the container duration of a video with ffprobe.
func (p *implProcessor) ProbeDuration(ctx context.Context, videoPath string) (time.Duration, error) {
	// -v error: only print errors
	// -show_entries format=duration: only the container duration
	// -of default=noprint_wrappers=1:nokey=1: bare value
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	}

	out, err := p.executor.Execute(ctx, p.cfg.FFprobe.BinaryPath, args...)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}

	secs, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("ffprobe duration: unexpected output %q", strings.TrimSpace(out))
	}

	d := time.Duration(secs * float64(time.Second))
	p.logger.Debug(ctx, "Video duration of %s: %s", videoPath, d)
	return d, nil
}
