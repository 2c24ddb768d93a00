package corrector

import (
	"context"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/transcript"
)

// Corrector fixes OCR spelling mistakes in subtitle texts. It never changes
// the number, order or timing of entries.
type Corrector interface {
	Correct(ctx context.Context, entries []transcript.Entry) ([]transcript.Entry, error)
}
