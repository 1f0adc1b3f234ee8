package main

import (
	"strconv"
	"time"

	"clip_service/internal/trending/domain"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
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
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func renderScores(scores []domain.TrendingScore) string {
	rows := make([][]string, 0, len(scores))
	for _, s := range scores {
		rows = append(rows, []string{
			strconv.Itoa(s.Rank),
			s.ItemID,
			strconv.FormatFloat(s.Score, 'f', 4, 64),
			s.ComputedAt.Local().Format(time.RFC3339),
		})
	}
	return renderTable([]string{"Rank", "Item", "Score", "Computed"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft})
}

func renderReports(reports []domain.RunReport) string {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.StartedAt.Local().Format(time.RFC3339),
			string(r.Trigger),
			status(r),
			strconv.Itoa(r.ItemCount),
			strconv.FormatInt(r.DurationMs, 10),
			r.Error,
		})
	}
	return renderTable([]string{"Started", "Trigger", "Status", "Items", "ms", "Error"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft})
}

func status(r domain.RunReport) string {
	switch {
	case r.Skipped:
		return "skipped"
	case r.Success:
		return "success"
	default:
		return "failed"
	}
}
