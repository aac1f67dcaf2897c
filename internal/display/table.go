package display

import (
	"fmt"
	"strings"
)

// Style selects how a data row is drawn.
type Style int

const (
	StylePlain Style = iota
	// StyleToday highlights rows belonging to the current day.
	StyleToday
	// StyleNext accents the next upcoming adhan. It wins over StyleToday.
	StyleNext
)

// line is one entry of the table body: a data row, a section heading or a
// separator rule.
type line struct {
	cells   []string
	style   Style
	heading string
	rule    bool
}

// Table renders an aligned text table. Besides data rows it can carry
// section headings, drawn above the rows that follow, and separator rules.
type Table struct {
	headers []string
	lines   []line
}

// NewTable creates a new table with the given column headers.
func NewTable(headers []string) *Table {
	return &Table{headers: headers}
}

// AddRow appends a data row. Missing cells render empty.
func (t *Table) AddRow(values []string, style Style) {
	if values == nil {
		values = []string{}
	}
	t.lines = append(t.lines, line{cells: values, style: style})
}

// AddHeading appends a section heading line.
func (t *Table) AddHeading(text string) {
	t.lines = append(t.lines, line{heading: text})
}

// AddRule appends a separator spanning the table width.
func (t *Table) AddRule() {
	t.lines = append(t.lines, line{rule: true})
}

// Rows reports how many data rows were added.
func (t *Table) Rows() int {
	n := 0
	for _, l := range t.lines {
		if l.cells != nil {
			n++
		}
	}
	return n
}

// Render produces the formatted table with a two-space indent.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, l := range t.lines {
		for i, cell := range l.cells {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var sb strings.Builder

	sb.WriteString("  " + Bold(formatRow(t.headers, widths)) + "\n")
	sb.WriteString(Dim(ruleLine(widths)) + "\n")

	for _, l := range t.lines {
		switch {
		case l.rule:
			sb.WriteString(Gray(ruleLine(widths)) + "\n")
		case l.cells == nil:
			sb.WriteString("  " + Heading(l.heading) + "\n")
		default:
			row := formatRow(l.cells, widths)
			switch l.style {
			case StyleNext:
				row = Accent(row)
			case StyleToday:
				row = Yellow(row)
			}
			sb.WriteString("  " + row + "\n")
		}
	}

	return sb.String()
}

func ruleLine(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w)
	}
	return "  " + strings.Join(parts, "  ")
}

// formatRow formats a row of cells using the given column widths.
func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = fmt.Sprintf("%-*s", w, cell)
	}
	return strings.Join(parts, "  ")
}
