package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/ecomap/internal/compare"
	"github.com/Veraticus/ecomap/internal/engine"
	"github.com/Veraticus/ecomap/internal/model"
)

// renderTable lays out rows under a header, left-aligned per column.
func renderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		rendered := make([]string, len(cells))
		for i, cell := range cells {
			rendered[i] = TableCellStyle.Width(widths[i] + TableCellStyle.GetPaddingRight()).Render(cell)
		}
		return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, line(header, TableHeaderStyle))
	for _, row := range rows {
		lines = append(lines, line(row, lipgloss.NewStyle()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// FormatComparison renders a comparison report with one row per level.
func FormatComparison(reports []compare.LevelReport, specific bool) string {
	levelHeader := "Prefix"
	if specific {
		levelHeader = "Component"
	}

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		level := strconv.Itoa(r.Level)
		if specific && r.Level >= 0 && r.Level < len(componentNames) {
			level += " " + componentNames[r.Level]
		}
		rows = append(rows, []string{
			level,
			strconv.Itoa(r.Matches),
			strconv.Itoa(r.Mismatches),
			accuracyStyle(r.Accuracy).Render(fmt.Sprintf("%.1f%%", r.Accuracy*100)),
		})
	}

	return RenderBox(ChartIcon+" Comparison",
		renderTable([]string{levelHeader, "Matches", "Mismatches", "Accuracy"}, rows))
}

var componentNames = []string{"salinity", "substratum", "depth", "hydrodynamics", "depth-2", "substratum-2"}

func accuracyStyle(acc float64) lipgloss.Style {
	switch {
	case acc >= 0.9:
		return SuccessStyle
	case acc >= 0.5:
		return WarningStyle
	default:
		return ErrorStyle
	}
}

// FormatRunSummary renders the outcome of a mapping run.
func FormatRunSummary(s *engine.RunSummary, top int) string {
	if s.Points == 0 {
		return FormatWarning("No grid points mapped")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Partitions: %d\n", s.Partitions)
	fmt.Fprintf(&b, "Points:     %d\n", s.Points)
	fmt.Fprintf(&b, "Ecotopes:   %d\n", s.UniqueCodes)
	fmt.Fprintf(&b, "Wildcards:  %d (%.1f%%)\n", s.WildcardPoints, float64(s.WildcardPoints)/float64(s.Points)*100)
	fmt.Fprintf(&b, "Time:       %s\n", s.ProcessingTime.Round(time.Millisecond))
	if s.ExportPath != "" {
		fmt.Fprintf(&b, "Export:     %s\n", s.ExportPath)
	}
	if s.NegativeDepthPartitions > 0 {
		b.WriteString(FormatWarning(fmt.Sprintf("%d partition(s) had a negative mean water depth", s.NegativeDepthPartitions)))
		b.WriteString("\n")
	}

	codes := s.TopCodes(top)
	rows := make([][]string, 0, len(codes))
	for _, c := range codes {
		rows = append(rows, []string{c.Code, strconv.Itoa(c.Points)})
	}
	b.WriteString("\n")
	b.WriteString(renderTable([]string{"Ecotope", "Points"}, rows))

	return RenderBox(FormatSuccess("Mapping complete"), b.String())
}

// FormatRuns renders stored runs, one per row.
func FormatRuns(runs []model.Run) string {
	if len(runs) == 0 {
		return SubtleStyle.Render("No stored runs")
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		substratum := r.Substratum
		if substratum == "" {
			substratum = "-"
		}
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.EcotopeConfig,
			substratum,
			strconv.Itoa(len(r.Partitions)),
			strconv.Itoa(r.Points),
			strconv.Itoa(r.UniqueCodes),
		})
	}
	return renderTable([]string{"ID", "Started", "Config", "Substratum", "Partitions", "Points", "Ecotopes"}, rows)
}
