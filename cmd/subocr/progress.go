package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/events"
)

// consumeEvents is the only reader of the bus. It owns everything printed
// about progress and returns once the bus is closed and drained. On a
// terminal the progress bar is redrawn in place; elsewhere each update gets
// its own line.
func consumeEvents(bus *events.Bus, out io.Writer) <-chan struct{} {
	tty := isTerminal(out)
	done := make(chan struct{})
	go func() {
		defer close(done)
		inline := false
		newline := func() {
			if inline {
				fmt.Fprintln(out)
				inline = false
			}
		}

		for e := range bus.Events() {
			switch e.Kind {
			case events.KindProgress:
				if !tty {
					fmt.Fprintln(out, progressLine(e))
					continue
				}
				fmt.Fprintf(out, "\r%s", progressLine(e))
				inline = true
			case events.KindStatus:
				newline()
				fmt.Fprintf(out, "  %s\n", e.Message)
			case events.KindInfo:
				newline()
				fmt.Fprintf(out, "INFO: %s\n", e.Message)
			case events.KindError:
				newline()
				fmt.Fprintf(out, "ERROR: %s\n", e.Message)
			case events.KindDone:
				newline()
				fmt.Fprintf(out, "%s\n", e.Message)
			case events.KindReady:
				newline()
			}
		}
		newline()
	}()
	return done
}

const barWidth = 30

func progressLine(e events.Event) string {
	pct := e.Percent
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * barWidth)
	bar := strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled)

	line := fmt.Sprintf("[%s] %5.1f%%", bar, pct)
	if e.Total > 0 {
		line += fmt.Sprintf(" %d/%d", e.Completed, e.Total)
	}
	if e.Label != "" {
		line += " " + e.Label
	}
	return line
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
