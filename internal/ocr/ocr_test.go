package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/logger"
)

// fakeBackend answers every export with a two-line header followed by the
// image stem, so the recognized text is predictable.
type fakeBackend struct {
	mu       sync.Mutex
	delay    func(path string) time.Duration
	failures map[string]int
	uploads  map[string]int
	deleted  int
	onUpload func(path string)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{failures: map[string]int{}, uploads: map[string]int{}}
}

func (f *fakeBackend) Upload(ctx context.Context, path string) (string, error) {
	f.mu.Lock()
	f.uploads[path]++
	n := f.uploads[path]
	fail := n <= f.failures[path]
	hook := f.onUpload
	f.mu.Unlock()

	if hook != nil {
		hook(path)
	}
	if f.delay != nil {
		time.Sleep(f.delay(path))
	}
	if fail {
		return "", fmt.Errorf("upload %d rejected", n)
	}
	return path, nil
}

func (f *fakeBackend) Export(ctx context.Context, id string) ([]byte, error) {
	stem := strings.TrimSuffix(filepath.Base(id), filepath.Ext(id))
	return []byte("\ufeffheader\r\n\r\n  text of " + stem + "  \r\n\r\n"), nil
}

func (f *fakeBackend) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	f.deleted++
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) uploadCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads[path]
}

func (f *fakeBackend) totalUploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.uploads {
		n += v
	}
	return n
}

func makeTasks(t *testing.T, names ...string) []Task {
	t.Helper()
	dir := t.TempDir()
	images := filepath.Join(dir, "images")
	if err := os.MkdirAll(images, 0755); err != nil {
		t.Fatal(err)
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(images, n), []byte("img"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	tasks, err := Scan(images, filepath.Join(dir, "raw_texts"), filepath.Join(dir, "texts"))
	if err != nil {
		t.Fatal(err)
	}
	return tasks
}

func newTestRecognizer(b Backend, threads int) Recognizer {
	return New(b, Options{Threads: threads, MaxAttempts: 5, RetryDelay: time.Millisecond}, logger.Nop(), nil)
}

func frame(i int) string {
	return fmt.Sprintf("0_00_%02d_000__0_00_%02d_500_%d.jpg", i, i, i)
}

func TestRunOrdersBySequenceIndex(t *testing.T) {
	tasks := makeTasks(t, frame(1), frame(2), frame(3), frame(4))

	b := newFakeBackend()
	// Later images finish first.
	b.delay = func(path string) time.Duration {
		for _, tk := range tasks {
			if tk.Path == path {
				return time.Duration(len(tasks)-tk.Index) * 20 * time.Millisecond
			}
		}
		return 0
	}

	state := NewRunState("run")
	got, err := newTestRecognizer(b, 4).Run(context.Background(), state, tasks)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got.Entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(got.Entries))
	}
	for i, e := range got.Entries {
		if e.Index != i+1 {
			t.Errorf("entry %d index = %d", i, e.Index)
		}
	}
	want := "1\n00:00:01,000 --> 00:00:01,500\ntext of " + strings.TrimSuffix(frame(1), ".jpg") + "\n\n"
	if !strings.HasPrefix(got.Text, want) {
		t.Errorf("Text = %q, want prefix %q", got.Text, want)
	}
	if got.Completed != 4 || got.Total != 4 {
		t.Errorf("Completed/Total = %d/%d", got.Completed, got.Total)
	}
	if b.deleted != 4 {
		t.Errorf("deleted = %d, want 4", b.deleted)
	}
}

func TestRunRetries(t *testing.T) {
	tasks := makeTasks(t, frame(1), frame(2))

	b := newFakeBackend()
	b.failures[tasks[0].Path] = 4
	b.failures[tasks[1].Path] = 5

	got, err := newTestRecognizer(b, 2).Run(context.Background(), NewRunState("run"), tasks)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if n := b.uploadCount(tasks[0].Path); n != 5 {
		t.Errorf("uploads for recovering task = %d, want 5", n)
	}
	if n := b.uploadCount(tasks[1].Path); n != 5 {
		t.Errorf("uploads for failing task = %d, want 5", n)
	}
	if len(got.Entries) != 1 || got.Entries[0].Index != 1 {
		t.Fatalf("entries = %+v, want only index 1", got.Entries)
	}
	if got.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", got.Skipped)
	}
	if got.Completed != 1 {
		t.Errorf("Completed = %d, want 1", got.Completed)
	}
}

func TestRunCancellation(t *testing.T) {
	names := make([]string, 10)
	for i := range names {
		names[i] = frame(i + 1)
	}
	tasks := makeTasks(t, names...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := newFakeBackend()
	var started atomic.Int32
	b.onUpload = func(string) {
		if started.Add(1) == 3 {
			cancel()
		}
	}

	state := NewRunState("run")
	got, err := newTestRecognizer(b, 1).Run(ctx, state, tasks)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if got.Completed > 2 {
		t.Errorf("Completed = %d, want at most 2", got.Completed)
	}
	if got.Text != "" {
		t.Errorf("Text = %q, want empty", got.Text)
	}

	// Give any straggling dispatch a chance to show up.
	time.Sleep(50 * time.Millisecond)
	if n := b.totalUploads(); n > 3 {
		t.Errorf("uploads = %d after cancel, want at most 3", n)
	}
}

func TestRunSkipsUndecodableFilenames(t *testing.T) {
	tasks := makeTasks(t, frame(1), "cover.png")

	b := newFakeBackend()
	got, err := newTestRecognizer(b, 2).Run(context.Background(), NewRunState("run"), tasks)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(got.Entries))
	}
	if got.Completed != 2 {
		t.Errorf("Completed = %d, want 2", got.Completed)
	}

	// Text artifacts are kept even when the filename carries no timing.
	for _, tk := range tasks {
		if _, err := os.Stat(tk.TextPath); err != nil {
			t.Errorf("missing text artifact for %s: %v", filepath.Base(tk.Path), err)
		}
	}
}

func TestRunNoImages(t *testing.T) {
	_, err := newTestRecognizer(newFakeBackend(), 2).Run(context.Background(), NewRunState("run"), nil)
	if !errors.Is(err, ErrNoImages) {
		t.Errorf("Run() error = %v, want ErrNoImages", err)
	}
}

func TestRunPersistsArtifacts(t *testing.T) {
	tasks := makeTasks(t, "12_30_05_100__12_30_07_250_1.jpg")

	got, err := newTestRecognizer(newFakeBackend(), 1).Run(context.Background(), NewRunState("run"), tasks)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := "1\n12:30:05,100 --> 12:30:07,250\ntext of 12_30_05_100__12_30_07_250_1\n\n"
	if got.Text != want {
		t.Errorf("Text = %q, want %q", got.Text, want)
	}

	raw, err := os.ReadFile(tasks[0].RawPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(raw), "\ufeffheader") {
		t.Errorf("raw artifact = %q", raw)
	}
	clean, err := os.ReadFile(tasks[0].TextPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(clean) != "text of 12_30_05_100__12_30_07_250_1" {
		t.Errorf("clean artifact = %q", clean)
	}
}

func TestStripHeader(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"header only", "title\n\n", ""},
		{"single line", "title", ""},
		{"exactly two lines", "title\r\nsubtitle", ""},
		{"crlf and bom", "\ufefftitle\r\n\r\nHello\r\n  world  \r\n", "Hello\nworld"},
		{"blank lines dropped", "a\nb\n\nline one\n\n\nline two\n", "line one\nline two"},
		{"composed", "a\nb\nXin chào Vie\u0302\u0323t Nam", "Xin chào Việt Nam"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripHeader(tt.in); got != tt.want {
				t.Errorf("stripHeader() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	images := filepath.Join(dir, "TXTImages")
	nested := filepath.Join(images, "nested")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{
		filepath.Join(images, "b.PNG"),
		filepath.Join(images, "a.jpg"),
		filepath.Join(images, "notes.txt"),
		filepath.Join(nested, "c.gif"),
	} {
		if err := os.WriteFile(p, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	tasks, err := Scan(images, filepath.Join(dir, "raw"), filepath.Join(dir, "texts"))
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	var got []string
	for i, tk := range tasks {
		if tk.Index != i+1 {
			t.Errorf("task %d index = %d", i, tk.Index)
		}
		got = append(got, filepath.Base(tk.Path))
	}
	if strings.Join(got, ",") != "a.jpg,b.PNG,c.gif" {
		t.Errorf("scan order = %v", got)
	}
	if tasks[0].TextPath != filepath.Join(dir, "texts", "a.txt") {
		t.Errorf("TextPath = %s", tasks[0].TextPath)
	}
}

func TestRunStateCapsAtTotal(t *testing.T) {
	s := NewRunState("run")
	s.reset(2)
	for i := 0; i < 5; i++ {
		s.complete(nil)
	}
	if c, total := s.Progress(); c != 2 || total != 2 {
		t.Errorf("Progress() = %d/%d, want 2/2", c, total)
	}
}
