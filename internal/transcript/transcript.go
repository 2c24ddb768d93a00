package transcript

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/timecode"
)

// Entry is one subtitle block.
type Entry struct {
	Index int
	Start timecode.Timestamp
	End   timecode.Timestamp
	Text  string
}

// Block renders the entry in the sequential subtitle block format.
func (e Entry) Block() string {
	return fmt.Sprintf("%d\n%s --> %s\n%s\n\n", e.Index, e.Start, e.End, e.Text)
}

// Assemble orders results by sequence index. Arrival order is irrelevant.
func Assemble(results map[int]Entry) []Entry {
	keys := make([]int, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		e := results[k]
		e.Index = k
		entries = append(entries, e)
	}
	return entries
}

// Format concatenates the blocks of already ordered entries.
func Format(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Block())
	}
	return b.String()
}

// Parse reads subtitle text back into entries. Blank lines between blocks
// are tolerated in any amount.
func Parse(content string) ([]Entry, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var entries []Entry
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	next := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		lineNo++
		return scanner.Text(), true
	}

	for {
		line, ok := next()
		if !ok {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		index, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid index %q", lineNo, line)
		}

		timing, ok := next()
		if !ok {
			return nil, fmt.Errorf("line %d: missing timing for entry %d", lineNo, index)
		}
		start, end, err := parseTiming(timing)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		var text []string
		for {
			l, ok := next()
			if !ok || strings.TrimSpace(l) == "" {
				break
			}
			text = append(text, l)
		}

		entries = append(entries, Entry{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.Join(text, "\n"),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript: %w", err)
	}
	return entries, nil
}

func parseTiming(line string) (timecode.Timestamp, timecode.Timestamp, error) {
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return timecode.Timestamp{}, timecode.Timestamp{}, fmt.Errorf("invalid timing %q", line)
	}
	start, err := timecode.ParseSRT(parts[0])
	if err != nil {
		return timecode.Timestamp{}, timecode.Timestamp{}, err
	}
	end, err := timecode.ParseSRT(parts[1])
	if err != nil {
		return timecode.Timestamp{}, timecode.Timestamp{}, err
	}
	return start, end, nil
}

// WriteFile writes the transcript as UTF-8 text, creating parent directories.
func WriteFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create transcript dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// SubtitlePath forces the .srt extension onto a user supplied output name.
func SubtitlePath(path string) string {
	ext := filepath.Ext(path)
	if strings.EqualFold(ext, ".srt") {
		return path
	}
	return strings.TrimSuffix(path, ext) + ".srt"
}
