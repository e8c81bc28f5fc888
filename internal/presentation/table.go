package presentation

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/truncate"

	"github.com/zjrosen/modkit/internal/ui/styles"
)

// MaxCellWidth bounds every table cell; longer values end in "…".
const MaxCellWidth = 40

var descriptorHeaders = []string{"TYPE", "NAME", "KIND", "PARENT", "ORDER", "AUTO", "VERSION", "LABELS"}

func descriptorRow(d DescriptorDTO) []string {
	auto := "yes"
	if !d.AutoLoad {
		auto = "no"
	}
	return []string{
		d.Type,
		d.Name,
		d.Kind,
		dash(d.Parent),
		fmt.Sprint(d.LoadOrder),
		auto,
		dash(d.Version),
		dash(strings.Join(d.Labels, ",")),
	}
}

// RenderDescriptorTable writes descs as an aligned text table. Columns are
// sized to their widest cell, capped at MaxCellWidth.
func RenderDescriptorTable(w io.Writer, descs []DescriptorDTO) error {
	rows := make([][]string, 0, len(descs))
	for _, d := range descs {
		rows = append(rows, descriptorRow(d))
	}
	_, err := io.WriteString(w, renderTable(descriptorHeaders, rows))
	return err
}

func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], min(lipgloss.Width(cell), MaxCellWidth))
		}
	}

	var b strings.Builder
	b.WriteString(styles.HeaderStyle.Render(renderLine(headers, widths)))
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString(renderLine(row, widths))
		b.WriteString("\n")
	}
	if len(rows) == 0 {
		b.WriteString(styles.MutedStyle.Render("(no components)"))
		b.WriteString("\n")
	}
	return b.String()
}

func renderLine(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		cell = truncate.StringWithTail(cell, uint(widths[i]), "…")
		if i < len(cells)-1 {
			cell = padding.String(cell, uint(widths[i]))
		}
		parts[i] = cell
	}
	return strings.Join(parts, "  ")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
