package ocr

import "context"

// Backend is the remote conversion service. Upload imports an image as a
// text document, Export downloads it as plain text and Delete removes the
// converted copy.
type Backend interface {
	Upload(ctx context.Context, imagePath string) (string, error)
	Export(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

// Recognizer fans a batch of image tasks out over a bounded pool and
// assembles the recognized text into an ordered transcript.
type Recognizer interface {
	Run(ctx context.Context, state *RunState, tasks []Task) (Transcript, error)
}
