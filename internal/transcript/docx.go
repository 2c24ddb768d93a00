package transcript

import (
	"strings"

	"github.com/gomutex/godocx"
)

const (
	fontName = "Times New Roman"
	fontSize = 13
)

// WriteDocx saves a reading copy of the transcript: a bold title followed by
// one paragraph per subtitle, consecutive duplicates collapsed.
func WriteDocx(title string, entries []Entry, outputPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return err
	}

	doc.AddParagraph("").AddText(title).Font(fontName).Size(16).Color("000000").Bold(true)
	doc.AddParagraph("")

	var last string
	for _, e := range entries {
		text := strings.TrimSpace(strings.ReplaceAll(e.Text, "\n", " "))
		if text == "" || text == last {
			continue
		}
		last = text
		doc.AddParagraph("").AddText(text).Font(fontName).Size(fontSize).Color("000000")
	}

	return doc.SaveTo(outputPath)
}
