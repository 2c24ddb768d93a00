package transcript

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/timecode"
)

func ts(t *testing.T, s string) timecode.Timestamp {
	t.Helper()
	v, err := timecode.ParseSRT(s)
	if err != nil {
		t.Fatalf("ParseSRT(%q): %v", s, err)
	}
	return v
}

func TestAssembleOrdersBySequenceIndex(t *testing.T) {
	results := map[int]Entry{
		3: {Start: ts(t, "00:00:05,000"), End: ts(t, "00:00:06,000"), Text: "third"},
		1: {Start: ts(t, "00:00:01,000"), End: ts(t, "00:00:02,000"), Text: "first"},
		7: {Start: ts(t, "00:00:09,000"), End: ts(t, "00:00:10,000"), Text: "seventh"},
	}

	entries := Assemble(results)
	var got []int
	for _, e := range entries {
		got = append(got, e.Index)
	}
	if want := []int{1, 3, 7}; !reflect.DeepEqual(got, want) {
		t.Fatalf("indices = %v, want %v", got, want)
	}

	want := "1\n00:00:01,000 --> 00:00:02,000\nfirst\n\n" +
		"3\n00:00:05,000 --> 00:00:06,000\nthird\n\n" +
		"7\n00:00:09,000 --> 00:00:10,000\nseventh\n\n"
	if got := Format(entries); got != want {
		t.Errorf("Format() =\n%q\nwant\n%q", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	results := map[int]Entry{
		1: {Start: ts(t, "00:00:01,000"), End: ts(t, "00:00:02,000"), Text: "hello"},
		// An export holding only its header lines yields an empty body.
		2: {Start: ts(t, "00:00:02,500"), End: ts(t, "00:00:03,000"), Text: ""},
		3: {Start: ts(t, "00:00:03,500"), End: ts(t, "00:00:04,250"), Text: "two\nlines"},
	}
	entries := Assemble(results)

	path := filepath.Join(t.TempDir(), "out", "movie.srt")
	if err := WriteFile(path, Format(entries)); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := Parse(string(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(parsed) != 3 || parsed[1].Text != "" || parsed[2].Index != 3 {
		t.Errorf("empty entry not preserved: %+v", parsed)
	}
	if !reflect.DeepEqual(parsed, entries) {
		t.Errorf("Parse() = %+v, want %+v", parsed, entries)
	}
}

func TestParseTolerance(t *testing.T) {
	content := "\ufeff1\r\n00:00:01,000 --> 00:00:02,000\r\n\r\n\r\n\r\n2\r\n00:00:03,000 --> 00:00:04,000\r\nbye\r\n"
	entries, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].Text != "" || entries[1].Text != "bye" {
		t.Errorf("texts = %q, %q", entries[0].Text, entries[1].Text)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad index", "one\n00:00:01,000 --> 00:00:02,000\nx\n"},
		{"missing timing", "1\n"},
		{"bad timing", "1\n00:00:01 -> 00:00:02\nx\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.content); err == nil {
				t.Error("Parse() should fail")
			}
		})
	}
}

func TestSubtitlePath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"movie.srt", "movie.srt"},
		{"movie.SRT", "movie.SRT"},
		{"movie.txt", "movie.srt"},
		{"movie", "movie.srt"},
	}
	for _, tt := range tests {
		if got := SubtitlePath(tt.in); got != tt.want {
			t.Errorf("SubtitlePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteDocx(t *testing.T) {
	entries := []Entry{{Index: 1, Text: "hello"}, {Index: 2, Text: "hello"}, {Index: 3, Text: "world"}}
	path := filepath.Join(t.TempDir(), "movie.docx")
	if err := WriteDocx("movie", entries, path); err != nil {
		t.Fatalf("WriteDocx() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("docx is empty")
	}
}
