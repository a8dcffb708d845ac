package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/papapumpkin/parallax/internal/catalog"
	"github.com/papapumpkin/parallax/internal/journal"
)

// Semantic color palette.
var (
	colorPrimary    = lipgloss.Color("#00BFFF") // headers
	colorMuted      = lipgloss.Color("#636363") // zero counts and rules
	colorMutedLight = lipgloss.Color("#8C8C8C") // Unknown row
	colorWhite      = lipgloss.Color("#EEEEEE") // values
	colorAccent     = lipgloss.Color("#FFD700") // totals
)

var (
	styleHeader  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleLabel   = lipgloss.NewStyle().Foreground(colorWhite)
	styleUnknown = lipgloss.NewStyle().Foreground(colorMutedLight).Italic(true)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleZero    = lipgloss.NewStyle().Foreground(colorMuted)
	styleTotal   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleRule    = lipgloss.NewStyle().Foreground(colorMuted)
)

// Column headers, in display order after the star type column.
var categoryHeaders = map[journal.Category]string{
	journal.EarthlikeBody: "Earth-like",
	journal.AmmoniaWorld:  "Ammonia",
	journal.WaterWorld:    "Water",
}

const columnGap = "  "

// RenderTable draws the classification table: one row per star type (Unknown
// last), one column per tracked category, and a totals row. Rows whose
// counts are all zero are kept so every star type seen is listed.
func RenderTable(t catalog.Table) string {
	labels := t.Labels()
	if len(labels) == 0 {
		return styleZero.Render("no stars catalogued yet") + "\n"
	}

	headers := []string{"Star type"}
	for _, c := range journal.Categories {
		headers = append(headers, categoryHeaders[c])
	}
	headers = append(headers, "Total")

	rows := make([][]string, 0, len(labels)+1)
	for _, l := range labels {
		rows = append(rows, rowCells(l, t[l]))
	}
	totals := rowCells("Total", t.Totals())

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, r := range append(rows, totals) {
		for i, cell := range r {
			widths[i] = max(widths[i], len(cell))
		}
	}

	var b strings.Builder
	writeRow(&b, headers, widths, func(int, string) lipgloss.Style { return styleHeader })
	b.WriteString(rule(widths))
	for i, r := range rows {
		unknown := labels[i] == catalog.UnknownLabel
		writeRow(&b, r, widths, func(col int, cell string) lipgloss.Style {
			switch {
			case col == 0 && unknown:
				return styleUnknown
			case col == 0:
				return styleLabel
			case cell == "0":
				return styleZero
			default:
				return styleValue
			}
		})
	}
	b.WriteString(rule(widths))
	writeRow(&b, totals, widths, func(int, string) lipgloss.Style { return styleTotal })
	return b.String()
}

func rowCells(label string, c catalog.Counts) []string {
	cells := []string{label}
	for _, cat := range journal.Categories {
		cells = append(cells, humanize.Comma(int64(c.Get(cat))))
	}
	return append(cells, humanize.Comma(int64(c.Total())))
}

// writeRow left-aligns the label column and right-aligns the counts.
func writeRow(b *strings.Builder, cells []string, widths []int, style func(int, string) lipgloss.Style) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(columnGap)
		}
		s := style(i, cell).Width(widths[i])
		if i > 0 {
			s = s.Align(lipgloss.Right)
		}
		b.WriteString(s.Render(cell))
	}
	b.WriteByte('\n')
}

func rule(widths []int) string {
	n := len(columnGap) * (len(widths) - 1)
	for _, w := range widths {
		n += w
	}
	return styleRule.Render(strings.Repeat("─", n)) + "\n"
}
