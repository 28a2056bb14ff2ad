package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/warp/allocation-engine/generic"
	"github.com/warp/allocation-engine/matrix"
	"github.com/warp/allocation-engine/reports"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorDim    = lipgloss.Color("#928374")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
)

// Formatter renders engine results as terminal tables. With Color off no
// escape sequences are written.
type Formatter struct {
	Color bool
}

func (f Formatter) paint(style lipgloss.Style, s string) string {
	if !f.Color {
		return s
	}
	return style.Render(s)
}

// RenderTable renders an aligned table with a header separator line.
// Columns are padded to the widest visible cell.
func (f Formatter) RenderTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	cols := len(headers)

	widths := make([]int, cols)
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < cols && i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	const colGap = 2
	var b strings.Builder
	writeRow := func(cells []string, style *lipgloss.Style) {
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := widths[i] - lipgloss.Width(cell)
			if style != nil {
				cell = f.paint(*style, cell)
			}
			b.WriteString(cell)
			if i < cols-1 {
				b.WriteString(strings.Repeat(" ", max(pad, 0)+colGap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, &StyleHeader)
	for i, w := range widths {
		b.WriteString(f.paint(StyleDim, strings.Repeat("─", w)))
		if i < cols-1 {
			b.WriteString(strings.Repeat(" ", colGap))
		}
	}
	b.WriteString("\n")
	for _, row := range rows {
		writeRow(row, nil)
	}
	return b.String()
}

// days prints a person-day figure with two decimals.
func days(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// load colors a figure against capacity: red above, yellow at 80% or more.
func (f Formatter) load(allocated, capacity decimal.Decimal) string {
	s := days(allocated)
	switch {
	case capacity.IsPositive() && allocated.GreaterThan(capacity):
		return f.paint(StyleRed, s)
	case capacity.IsPositive() && allocated.GreaterThanOrEqual(capacity.Mul(decimal.RequireFromString("0.8"))):
		return f.paint(StyleYellow, s)
	case allocated.IsZero():
		return f.paint(StyleDim, s)
	}
	return f.paint(StyleGreen, s)
}

// =============================================================================
// RESULT FORMATTERS
// =============================================================================

// FormatMatrix prints one row per resource and one column per week. Week
// headers show month/day of the Monday.
func (f Formatter) FormatMatrix(m *matrix.Matrix, capacity decimal.Decimal) string {
	headers := []string{"RESOURCE"}
	var weeks []generic.TimePoint
	for w := m.TimeWindow.StartWeek; !w.After(m.TimeWindow.EndWeek); w = w.AddWeeks(1) {
		weeks = append(weeks, w)
		headers = append(headers, w.Time.Format("01/02"))
	}

	rows := make([][]string, 0, len(m.Resources))
	for _, r := range m.Resources {
		row := []string{r.Name}
		for _, fig := range r.Weeks {
			row = append(row, f.load(fig.Days, capacity))
		}
		rows = append(rows, row)
	}
	title := fmt.Sprintf("Weeks %s to %s (%d)\n", m.TimeWindow.StartWeek, m.TimeWindow.EndWeek, m.TimeWindow.TotalWeeks)
	return title + f.RenderTable(headers, rows)
}

func (f Formatter) FormatConflicts(rep *reports.ConflictReport) string {
	if len(rep.Resources) == 0 {
		return "No over-allocated weeks.\n"
	}
	var rows [][]string
	for _, rc := range rep.Resources {
		for _, c := range rc.Conflicts {
			rows = append(rows, []string{
				rc.Name, c.WeekStart.String(), days(c.AllocatedDays), days(c.Capacity),
				f.paint(StyleRed, "+"+days(c.OverAllocation)),
			})
		}
	}
	return f.RenderTable([]string{"RESOURCE", "WEEK", "ALLOCATED", "CAPACITY", "OVER"}, rows)
}

func (f Formatter) FormatUtilization(rep *reports.UtilizationReport) string {
	if len(rep.Rows) == 0 {
		return fmt.Sprintf("No allocations between %s and %s.\n", rep.Window.Start, rep.Window.End)
	}
	rows := make([][]string, len(rep.Rows))
	for i, r := range rep.Rows {
		rows[i] = []string{
			r.Name, r.WeekStart.String(), f.load(r.AllocatedDays, r.Capacity), days(r.Capacity),
			r.UtilizationPercent.StringFixed(2) + "%",
		}
	}
	return f.RenderTable([]string{"RESOURCE", "WEEK", "ALLOCATED", "CAPACITY", "UTILIZATION"}, rows)
}

func (f Formatter) FormatCapacityForecast(rep *reports.CapacityForecast) string {
	title := fmt.Sprintf("%d resources counted\n", rep.ResourceCount)
	return title + f.RenderTable(forecastHeaders, f.forecastRows(rep.Weeks))
}

func (f Formatter) FormatSkillForecast(rep *reports.SkillCapacityForecast) string {
	if len(rep.Groups) == 0 {
		return "No matching skill groups.\n"
	}
	var b strings.Builder
	for i, g := range rep.Groups {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(f.paint(StyleHeader, fmt.Sprintf("%s / %s", g.SkillFunction, g.SkillSubFunction)))
		b.WriteString(fmt.Sprintf(" (%d resources)\n", g.ResourceCount))
		b.WriteString(f.RenderTable(forecastHeaders, f.forecastRows(g.Weeks)))
	}
	return b.String()
}

func (f Formatter) FormatTimeline(tl *reports.ReleaseTimeline) string {
	headers := []string{"WEEK", "TOTAL"}
	for _, p := range generic.AllPhases {
		headers = append(headers, strings.ToUpper(string(p)))
	}
	rows := make([][]string, len(tl.Weeks))
	for i, w := range tl.Weeks {
		row := []string{w.WeekStart.String(), days(w.AllocatedDays)}
		for _, p := range generic.AllPhases {
			if d, ok := w.ByPhase[p]; ok {
				row = append(row, days(d))
			} else {
				row = append(row, f.paint(StyleDim, "-"))
			}
		}
		rows[i] = row
	}
	return f.RenderTable(headers, rows)
}

var forecastHeaders = []string{"WEEK", "ALLOCATED", "CAPACITY", "AVAILABLE"}

func (f Formatter) forecastRows(weeks []reports.ForecastWeek) [][]string {
	rows := make([][]string, len(weeks))
	for i, w := range weeks {
		rows[i] = []string{w.WeekStart.String(), f.load(w.AllocatedDays, w.Capacity), days(w.Capacity), days(w.AvailableDays)}
	}
	return rows
}
