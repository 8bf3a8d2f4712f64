package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"inkwell/internal/lineage"
	"inkwell/internal/textutil"
	"inkwell/internal/versionstore"
)

// Cell text is excerpted so one verbose chapter cannot blow out the layout.
const tableExcerptLimit = 60

type tableColumn struct {
	name    string
	numeric bool
}

func chapterTable(chapters []*lineage.Chapter) string {
	columns := []tableColumn{
		{name: "Chapter"},
		{name: "Title"},
		{name: "Status"},
		{name: "Updated"},
		{name: "Detail"},
	}
	rows := make([][]string, 0, len(chapters))
	for _, chapter := range chapters {
		detail := ""
		if chapter.Status == lineage.StatusFailed {
			detail = textutil.Excerpt(chapter.ErrorMessage, tableExcerptLimit)
		}
		rows = append(rows, []string{
			chapter.ChapterID,
			chapter.Title,
			string(chapter.Status),
			formatTimestamp(chapter.UpdatedAt),
			detail,
		})
	}
	return renderTable(columns, rows)
}

func versionTable(versions []*lineage.Version) string {
	columns := []tableColumn{
		{name: "Seq", numeric: true},
		{name: "Stage"},
		{name: "Created"},
		{name: "Model"},
		{name: "Text"},
	}
	rows := make([][]string, 0, len(versions))
	for _, version := range versions {
		rows = append(rows, []string{
			strconv.Itoa(version.Sequence),
			string(version.Stage),
			formatTimestamp(version.CreatedAt),
			version.Metadata[lineage.MetaModel],
			textutil.Excerpt(version.Text, tableExcerptLimit),
		})
	}
	return renderTable(columns, rows)
}

func matchTable(matches []versionstore.Match) string {
	columns := []tableColumn{
		{name: "Score", numeric: true},
		{name: "Chapter"},
		{name: "Seq", numeric: true},
		{name: "Stage"},
		{name: "Text"},
	}
	rows := make([][]string, 0, len(matches))
	for _, match := range matches {
		rows = append(rows, []string{
			fmt.Sprintf("%.3f", match.Similarity),
			match.Version.ChapterID,
			strconv.Itoa(match.Version.Sequence),
			string(match.Version.Stage),
			textutil.Excerpt(match.Version.Text, tableExcerptLimit),
		})
	}
	return renderTable(columns, rows)
}

func renderTable(columns []tableColumn, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	for i, column := range columns {
		header[i] = column.name
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, column := range columns {
		align := text.AlignLeft
		if column.numeric {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func formatTimestamp(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02 15:04")
}
