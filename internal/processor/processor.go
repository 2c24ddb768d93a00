package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/events"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/ocr"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/runlock"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/timecode"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/transcript"
)

// Process recognizes every image under req.ImagesDir and writes the
// subtitle file. A cancelled run writes nothing and returns ctx.Err().
func (p *implProcessor) Process(ctx context.Context, req Request) (Report, error) {
	if !p.running.CompareAndSwap(false, true) {
		return Report{}, ocr.ErrRunActive
	}
	defer p.running.Store(false)

	startTime := time.Now()
	report := Report{RunID: uuid.NewString()}
	defer p.bus.Ready(report.RunID)

	if p.backend == nil {
		return report, errors.New("no OCR backend configured")
	}
	if info, err := os.Stat(req.ImagesDir); err != nil || !info.IsDir() {
		p.logger.Error(ctx, "Images directory %s does not exist", req.ImagesDir)
		p.bus.Error(report.RunID, fmt.Sprintf("Images directory '%s' does not exist", req.ImagesDir))
		return report, fmt.Errorf("images directory %s: %w", req.ImagesDir, os.ErrNotExist)
	}

	workDir := req.WorkDir
	if workDir == "" {
		workDir = "."
	}
	lock, err := runlock.Acquire(workDir)
	if err != nil {
		return report, err
	}
	defer lock.Release()

	rawDir := resolve(workDir, p.cfg.OCR.RawTextsDir)
	textsDir := resolve(workDir, p.cfg.OCR.TextsDir)

	tasks, err := ocr.Scan(req.ImagesDir, rawDir, textsDir)
	if err != nil {
		return report, err
	}

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Starting OCR run %s", report.RunID)
	p.logger.Info(ctx, "Worker threads: %d", p.cfg.OCR.Threads)
	p.logger.Info(ctx, "Images found in '%s': %d", req.ImagesDir, len(tasks))
	p.logger.Info(ctx, "========================================")

	if len(tasks) == 0 {
		p.logger.Error(ctx, "Directory '%s' contains no valid images", req.ImagesDir)
		p.bus.Error(report.RunID, fmt.Sprintf("Directory '%s' contains no valid images (JPEG, PNG, BMP, GIF)", req.ImagesDir))
		return report, ocr.ErrNoImages
	}

	state := ocr.NewRunState(report.RunID)
	recognizer := ocr.New(p.backend, ocr.Options{
		Threads:     p.cfg.OCR.Threads,
		MaxAttempts: p.cfg.OCR.MaxAttempts,
		RetryDelay:  p.cfg.OCR.RetryDelay,
	}, p.logger, p.bus)

	p.bus.Status(report.RunID, fmt.Sprintf("OCR 0/%d", len(tasks)))
	result, err := recognizer.Run(ctx, state, tasks)
	report.Total, report.Completed, report.Skipped = result.Total, result.Completed, result.Skipped
	if err != nil {
		if ctx.Err() != nil {
			p.logger.Info(ctx, "OCR stopped by user after %d/%d images", result.Completed, result.Total)
			p.bus.Status(report.RunID, "Stopped")
		}
		return report, err
	}

	entries := result.Entries
	if req.Correct && p.corrector != nil && len(entries) > 0 {
		corrected, err := p.corrector.Correct(ctx, entries)
		switch {
		case err == nil:
			entries = corrected
		case ctx.Err() != nil:
			return report, ctx.Err()
		default:
			p.logger.Warn(ctx, "Correction skipped: %v", err)
		}
	}
	report.Entries = len(entries)

	report.SubtitlePath = transcript.SubtitlePath(req.OutputPath)
	if err := transcript.WriteFile(report.SubtitlePath, transcript.Format(entries)); err != nil {
		p.bus.Error(report.RunID, err.Error())
		return report, err
	}
	p.logger.Info(ctx, "Subtitle written: %s", report.SubtitlePath)

	if req.Docx {
		docxPath := strings.TrimSuffix(report.SubtitlePath, filepath.Ext(report.SubtitlePath)) + ".docx"
		title := strings.TrimSuffix(filepath.Base(report.SubtitlePath), filepath.Ext(report.SubtitlePath))
		if err := transcript.WriteDocx(title, entries, docxPath); err != nil {
			p.logger.Warn(ctx, "Failed to write %s: %v", docxPath, err)
		} else {
			report.DocxPath = docxPath
			p.logger.Info(ctx, "Transcript document written: %s", docxPath)
		}
	}

	report.ArchivePath, report.Cleanup = p.finalize(ctx, report.RunID, report.SubtitlePath, rawDir, textsDir)

	report.Elapsed = time.Since(startTime)
	summary := fmt.Sprintf("OCR completed for %d images. Total time: %s", report.Total, timecode.FormatClock(report.Elapsed))
	p.logger.Info(ctx, "%s", summary)
	p.bus.Publish(events.Event{RunID: report.RunID, Kind: events.KindDone, Completed: report.Completed, Total: report.Total, Message: summary})
	return report, nil
}

func resolve(base, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}
