package ocr

import (
	"errors"
	"sync"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/timecode"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/transcript"
)

var (
	// ErrNoImages is returned before any work starts when a batch is empty.
	ErrNoImages = errors.New("no images to process")
	// ErrRunActive is returned when a second run is started before the first ends.
	ErrRunActive = errors.New("an OCR run is already active")
)

// Task is one image to recognize. Index is the 1-based sequence index
// assigned in scan order.
type Task struct {
	Path     string
	Index    int
	RawPath  string
	TextPath string
}

// Result is the recognized text of one task.
type Result struct {
	Index int
	Start timecode.Timestamp
	End   timecode.Timestamp
	Text  string
}

// Entry converts the result into a subtitle entry.
func (r Result) Entry() transcript.Entry {
	return transcript.Entry{Index: r.Index, Start: r.Start, End: r.End, Text: r.Text}
}

// Transcript is what a run hands back to its caller.
type Transcript struct {
	Entries   []transcript.Entry
	Text      string
	Total     int
	Completed int
	Skipped   int
}

// RunState holds the counters and results of exactly one run. Workers never
// touch it directly; the coordinator mutates it as completions arrive.
type RunState struct {
	ID string

	mu        sync.Mutex
	total     int
	completed int
	results   map[int]transcript.Entry
}

// NewRunState creates an empty state for the run identified by id.
func NewRunState(id string) *RunState {
	return &RunState{ID: id, results: make(map[int]transcript.Entry)}
}

// reset clears the state at the start of a run.
func (s *RunState) reset(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = total
	s.completed = 0
	s.results = make(map[int]transcript.Entry)
}

// complete counts one finished task and records its result if it has one.
// The lock is held only for the increment and insert.
func (s *RunState) complete(res *Result) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed < s.total {
		s.completed++
	}
	if res != nil {
		s.results[res.Index] = res.Entry()
	}
	return s.completed
}

// Progress reports completed and total task counts.
func (s *RunState) Progress() (completed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed, s.total
}

// Results returns a copy of the recorded results keyed by sequence index.
func (s *RunState) Results() map[int]transcript.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]transcript.Entry, len(s.results))
	for k, v := range s.results {
		out[k] = v
	}
	return out
}
