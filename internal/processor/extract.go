package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/extractor"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/timecode"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/watcher"
)

// Extract runs the frame extractor over req.Video. The frames directory is
// watched for the duration of the call to report progress.
func (p *implProcessor) Extract(ctx context.Context, req ExtractRequest) (extractor.Outcome, error) {
	runID := uuid.NewString()

	profile := req.Profile
	if profile == "" {
		profile = p.cfg.Extractor.DefaultProfile
	}
	crop, ok := p.cfg.Profile(profile)
	if !ok {
		p.bus.Ready(runID)
		return extractor.Outcome{}, fmt.Errorf("unknown crop profile %q", profile)
	}

	expected := p.expectedDuration(ctx, req)
	if expected > 0 {
		p.logger.Info(ctx, "Video duration: %s", timecode.FormatClock(expected))
	}

	mon := watcher.New(p.newObserver(), runID, p.logger, p.bus)
	defer mon.Stop()

	sup := extractor.New(p.executor, mon, extractor.Config{
		SettleDelay:  p.cfg.Extractor.SettleDelay,
		WatchRetries: p.cfg.Extractor.WatchRetries,
		WatchDelay:   p.cfg.Extractor.WatchDelay,
	}, runID, p.logger, p.bus)

	return sup.Run(ctx, extractor.Options{
		Binary:          p.cfg.Extractor.BinaryPath,
		Video:           req.Video,
		OutputBase:      req.OutputBase,
		Crop:            crop,
		CreateTXTImages: p.cfg.Extractor.CreateTXTImages,
	}, expected)
}

// expectedDuration prefers an explicit HH:MM:SS value and falls back to
// probing the file. Zero disables percentage estimates.
func (p *implProcessor) expectedDuration(ctx context.Context, req ExtractRequest) time.Duration {
	if req.Duration != "" {
		d, err := timecode.ParseClock(req.Duration)
		if err == nil {
			return d
		}
		p.logger.Warn(ctx, "Ignoring duration %q: %v", req.Duration, err)
	}

	d, err := p.ProbeDuration(ctx, req.Video)
	if err != nil {
		p.logger.Warn(ctx, "Could not determine video duration: %v", err)
		return 0
	}
	return d
}
