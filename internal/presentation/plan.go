package presentation

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/zjrosen/modkit/internal/ui/styles"
)

// PlanText renders a plan as one line per descriptor in construction order,
// grouped under "modules:", "submodules:" and "inactive:" headings.
func PlanText(p PlanDTO) string {
	var b strings.Builder
	section := func(title string, descs []DescriptorDTO) {
		b.WriteString(title)
		b.WriteString(":\n")
		for _, d := range descs {
			b.WriteString("  ")
			b.WriteString(planLine(d))
			b.WriteString("\n")
		}
	}
	section("modules", p.Modules)
	section("submodules", p.Submodules)
	section("inactive", p.Inactive)
	return b.String()
}

func planLine(d DescriptorDTO) string {
	line := fmt.Sprintf("%d %s (%s)", d.LoadOrder, d.Name, d.Type)
	if d.Parent != "" {
		line += " parent=" + d.Parent
	}
	if d.Version != "" {
		line += " version=" + d.Version
	}
	if len(d.Labels) > 0 {
		line += " labels=" + strings.Join(d.Labels, ",")
	}
	return line
}

// DiffOp is the kind of one DiffLine.
type DiffOp int

const (
	DiffEqual DiffOp = iota
	DiffInsert
	DiffDelete
)

// DiffLine is one line of a line-level diff.
type DiffLine struct {
	Op   DiffOp
	Text string
}

// DiffLines computes a line-level diff of a against b.
func DiffLines(a, b string) []DiffLine {
	dmp := diffmatchpatch.New()
	chars1, chars2, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lines)

	var out []DiffLine
	for _, d := range diffs {
		op := DiffEqual
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = DiffInsert
		case diffmatchpatch.DiffDelete:
			op = DiffDelete
		}
		for line := range strings.Lines(d.Text) {
			out = append(out, DiffLine{Op: op, Text: strings.TrimSuffix(line, "\n")})
		}
	}
	return out
}

// Changed reports whether any line differs.
func Changed(lines []DiffLine) bool {
	for _, l := range lines {
		if l.Op != DiffEqual {
			return true
		}
	}
	return false
}

// RenderDiff renders lines with "+ ", "- " and "  " prefixes, colouring
// insertions and deletions.
func RenderDiff(lines []DiffLine) string {
	var b strings.Builder
	for _, l := range lines {
		switch l.Op {
		case DiffInsert:
			b.WriteString(styles.SuccessStyle.Render("+ " + l.Text))
		case DiffDelete:
			b.WriteString(styles.ErrorStyle.Render("- " + l.Text))
		default:
			b.WriteString("  " + l.Text)
		}
		b.WriteString("\n")
	}
	return b.String()
}
