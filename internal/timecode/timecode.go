package timecode

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNoTimestamp is returned when a filename does not carry the HH_MM_SS_fff pattern.
var ErrNoTimestamp = errors.New("timestamp pattern not found")

var (
	reStamp = regexp.MustCompile(`(\d+)_(\d+)_(\d+)_(\d+)`)
	reRange = regexp.MustCompile(`^(\d+)_(\d+)_(\d+)_(\d+)__(\d+)_(\d+)_(\d+)_(\d+)`)
	reSRT   = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})[,.](\d{1,3})$`)
)

// Timestamp is a wall-clock offset into a video with millisecond precision.
type Timestamp struct {
	Hours        int
	Minutes      int
	Seconds      int
	Milliseconds int
}

// String renders the subtitle form HH:MM:SS,mmm.
func (t Timestamp) String() string {
	return fmt.Sprintf("%02d:%02d:%02d,%03d", t.Hours, t.Minutes, t.Seconds, t.Milliseconds)
}

// Duration converts the timestamp into an offset from zero.
func (t Timestamp) Duration() time.Duration {
	return time.Duration(t.Hours)*time.Hour +
		time.Duration(t.Minutes)*time.Minute +
		time.Duration(t.Seconds)*time.Second +
		time.Duration(t.Milliseconds)*time.Millisecond
}

// ParseFilename decodes the start and end timestamps embedded in an OCR input
// image name such as 12_30_05_100__12_30_07_250_1.jpg.
func ParseFilename(name string) (Timestamp, Timestamp, error) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	m := reRange.FindStringSubmatch(base)
	if m == nil {
		return Timestamp{}, Timestamp{}, fmt.Errorf("%s: %w", name, ErrNoTimestamp)
	}

	start, err := fromGroups(m[1:5])
	if err != nil {
		return Timestamp{}, Timestamp{}, fmt.Errorf("%s: start: %w", name, err)
	}
	end, err := fromGroups(m[5:9])
	if err != nil {
		return Timestamp{}, Timestamp{}, fmt.Errorf("%s: end: %w", name, err)
	}
	return start, end, nil
}

// FindTimestamp extracts the first HH_MM_SS_fraction group from any filename.
// The extractor names every frame this way, which lets a watcher infer how far
// into the video it has progressed.
func FindTimestamp(name string) (Timestamp, error) {
	m := reStamp.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return Timestamp{}, fmt.Errorf("%s: %w", name, ErrNoTimestamp)
	}
	return fromGroups(m[1:5])
}

// ParseSRT parses the HH:MM:SS,mmm form produced by Timestamp.String.
func ParseSRT(s string) (Timestamp, error) {
	m := reSRT.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Timestamp{}, fmt.Errorf("invalid subtitle timestamp %q", s)
	}
	return fromGroups(m[1:5])
}

// ParseClock parses a HH:MM:SS duration such as a video length.
func ParseClock(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock %q: want HH:MM:SS", s)
	}
	var vals [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid clock %q", s)
		}
		vals[i] = v
	}
	return time.Duration(vals[0])*time.Hour +
		time.Duration(vals[1])*time.Minute +
		time.Duration(vals[2])*time.Second, nil
}

// FormatClock renders a duration as HH:MM:SS, dropping sub-second precision.
func FormatClock(d time.Duration) string {
	neg := d < 0
	if neg {
		d = -d
	}
	total := int(d / time.Second)
	s := fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	if neg {
		return "-" + s
	}
	return s
}

func fromGroups(g []string) (Timestamp, error) {
	var ts Timestamp
	var err error
	if ts.Hours, err = strconv.Atoi(g[0]); err != nil {
		return Timestamp{}, err
	}
	if ts.Minutes, err = strconv.Atoi(g[1]); err != nil {
		return Timestamp{}, err
	}
	if ts.Seconds, err = strconv.Atoi(g[2]); err != nil {
		return Timestamp{}, err
	}
	ts.Milliseconds, err = fraction(g[3])
	if err != nil {
		return Timestamp{}, err
	}
	return ts, nil
}

// fraction reads the last group as a decimal fraction of a second, so "1"
// is 100ms and "1234" is 123ms.
func fraction(s string) (int, error) {
	if len(s) > 3 {
		s = s[:3]
	}
	for len(s) < 3 {
		s += "0"
	}
	return strconv.Atoi(s)
}
