package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/processor"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/timecode"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func renderReport(r processor.Report) string {
	rows := [][]string{
		{"Run", r.RunID},
		{"Images", strconv.Itoa(r.Total)},
		{"Recognized", strconv.Itoa(r.Completed)},
		{"Skipped", strconv.Itoa(r.Skipped)},
		{"Subtitles", strconv.Itoa(r.Entries)},
		{"Elapsed", timecode.FormatClock(r.Elapsed)},
		{"Subtitle file", r.SubtitlePath},
	}
	if r.DocxPath != "" {
		rows = append(rows, []string{"Document", r.DocxPath})
	}
	if r.ArchivePath != "" {
		rows = append(rows, []string{"Raw text archive", r.ArchivePath})
	}
	return renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft})
}
