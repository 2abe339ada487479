package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// column describes how one table column is laid out.
type column struct {
	title string
	right bool
	// max caps the cell width; longer cells end in "~". Zero means no cap.
	max int
}

// formatTable lays rows out under cols. The header is followed by a rule
// as wide as the table.
func formatTable(cols []column, rows [][]string) []string {
	if len(cols) == 0 {
		return nil
	}
	cells := make([][]string, len(rows))
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = runewidth.StringWidth(c.title)
	}
	for r, row := range rows {
		cells[r] = make([]string, len(cols))
		for i, c := range cols {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if c.max > 0 && runewidth.StringWidth(cell) > c.max {
				cell = runewidth.Truncate(cell, c.max, "~")
			}
			cells[r][i] = cell
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	titles := make([]string, len(cols))
	total := len(cols) - 1
	for i, c := range cols {
		titles[i] = c.title
		total += widths[i]
	}
	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, formatRow(cols, titles, widths), strings.Repeat("-", total))
	for _, row := range cells {
		lines = append(lines, formatRow(cols, row, widths))
	}
	return lines
}

func formatRow(cols []column, row []string, widths []int) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		if c.right {
			out[i] = runewidth.FillLeft(row[i], widths[i])
		} else {
			out[i] = runewidth.FillRight(row[i], widths[i])
		}
	}
	return strings.TrimRight(strings.Join(out, " "), " ")
}
