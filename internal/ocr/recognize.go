package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/timecode"
	"golang.org/x/text/unicode/norm"
)

const previewLen = 55

// recognize runs upload, export and delete for one image with a fixed retry
// delay. A nil result with a nil error means the task produced nothing: the
// run was cancelled or the filename carries no timestamps.
func (r *implRecognizer) recognize(ctx context.Context, task Task) (*Result, error) {
	name := filepath.Base(task.Path)

	var raw []byte
	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return nil, nil
		}

		body, err := r.convert(ctx, task.Path)
		if err == nil {
			raw = body
			break
		}
		if ctx.Err() != nil {
			return nil, nil
		}
		if attempt >= r.maxAttempts {
			r.logger.Error(ctx, "OCR failed after %d attempts: %s: %v", attempt, name, err)
			return nil, fmt.Errorf("ocr %s: %d attempts: %w", name, attempt, err)
		}
		r.logger.Warn(ctx, "OCR attempt %d/%d failed for %s: %v", attempt, r.maxAttempts, name, err)

		if !sleep(ctx, r.retryDelay) {
			return nil, nil
		}
	}

	text := stripHeader(string(raw))
	if ctx.Err() != nil {
		return nil, nil
	}

	if err := writeArtifact(task.RawPath, raw); err != nil {
		return nil, err
	}
	if err := writeArtifact(task.TextPath, []byte(text)); err != nil {
		return nil, err
	}
	r.logger.Info(ctx, "OCR: %s", preview(text))

	start, end, err := timecode.ParseFilename(name)
	if err != nil {
		r.logger.Error(ctx, "Error processing %s: filename does not carry start__end timestamps", name)
		return nil, nil
	}

	return &Result{Index: task.Index, Start: start, End: end, Text: text}, nil
}

// convert performs one upload/export/delete round. The remote copy is always
// deleted before the round can succeed, even when ctx is already cancelled.
func (r *implRecognizer) convert(ctx context.Context, imagePath string) ([]byte, error) {
	id, err := r.backend.Upload(ctx, imagePath)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	body, exportErr := r.backend.Export(ctx, id)

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	deleteErr := r.backend.Delete(cleanupCtx, id)

	if exportErr != nil {
		if deleteErr != nil {
			r.logger.Warn(ctx, "Failed to delete converted document %s: %v", id, deleteErr)
		}
		return nil, fmt.Errorf("export: %w", exportErr)
	}
	if deleteErr != nil {
		return nil, fmt.Errorf("delete: %w", deleteErr)
	}
	return body, nil
}

// stripHeader drops the two-line header of the document text export and
// normalizes what is left into trimmed, non-empty NFC lines.
func stripHeader(raw string) string {
	raw = strings.TrimPrefix(raw, "\ufeff")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	lines := strings.Split(raw, "\n")
	if len(lines) <= 2 {
		return ""
	}

	var kept []string
	for _, line := range lines[2:] {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return norm.NFC.String(strings.Join(kept, "\n"))
}

func writeArtifact(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func preview(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	r := []rune(text)
	if len(r) > previewLen {
		return string(r[:previewLen]) + "..."
	}
	return text
}

// sleep waits d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// recognizeSafe turns a panicking task into an ordinary task failure.
func (r *implRecognizer) recognizeSafe(ctx context.Context, task Task) (res *Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, fmt.Errorf("ocr %s: panic: %v", filepath.Base(task.Path), p)
		}
	}()
	return r.recognize(ctx, task)
}
