package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hyperjump/aether/internal/models"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	userStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))

	statusColors = map[models.Status]lipgloss.Color{
		models.StatusCritical:   lipgloss.Color("#FF5F5F"),
		models.StatusStable:     lipgloss.Color("#5FAFFF"),
		models.StatusRecovering: lipgloss.Color("#5FD75F"),
		models.StatusDischarged: lipgloss.Color("#8A8A8A"),
	}
)

func statusLabel(s models.Status) string {
	c, ok := statusColors[s]
	if !ok {
		return string(s)
	}
	return lipgloss.NewStyle().Foreground(c).Render(string(s))
}

// table renders rows under headers with padded, aligned columns.
type table struct {
	headers []string
	rows    [][]string
}

func (t *table) add(row ...string) { t.rows = append(t.rows, row) }

func (t *table) render() string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	sep := mutedStyle.Render("|")

	line := func(cells []string, style lipgloss.Style) string {
		out := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			// Padding counts toward Width.
			out[i] = style.Width(widths[i] + 2).Render(cell)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, joinWith(out, sep)...)
	}

	lines := []string{line(t.headers, headerStyle)}
	total := 0
	for _, w := range widths {
		total += w + 3
	}
	lines = append(lines, mutedStyle.Render(strings.Repeat("-", max(total-1, 0))))
	for _, row := range t.rows {
		lines = append(lines, line(row, cellStyle))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func joinWith(cells []string, sep string) []string {
	out := make([]string, 0, len(cells)*2)
	for i, c := range cells {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, c)
	}
	return out
}
