package processor

import (
	"context"
	"time"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/extractor"
)

// Processor drives the two halves of the pipeline: frame extraction from a
// video and OCR of the extracted frames into a subtitle file.
type Processor interface {
	Process(ctx context.Context, req Request) (Report, error)
	Extract(ctx context.Context, req ExtractRequest) (extractor.Outcome, error)
	ProbeDuration(ctx context.Context, videoPath string) (time.Duration, error)
}

// Request describes one OCR run.
type Request struct {
	ImagesDir  string
	OutputPath string
	// WorkDir holds the raw_texts and texts directories and the run lock.
	// Defaults to the current directory.
	WorkDir string
	Correct bool
	Docx    bool
}

// Report summarizes a finished OCR run.
type Report struct {
	RunID        string
	SubtitlePath string
	DocxPath     string
	ArchivePath  string
	Total        int
	Completed    int
	Skipped      int
	Entries      int
	Elapsed      time.Duration
	// Cleanup holds post-processing failures. The subtitle file is
	// already written when it is set.
	Cleanup error
}

// ExtractRequest describes one extraction.
type ExtractRequest struct {
	Video      string
	OutputBase string
	Profile    string
	// Duration is the expected video length as HH:MM:SS. Empty means probe it.
	Duration string
}
