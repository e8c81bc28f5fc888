package hosttree

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderOptions styles Render output. The zero value renders plain text.
type RenderOptions struct {
	Root  lipgloss.Style
	Name  lipgloss.Style
	Guide lipgloss.Style
	// Suffix, when set, is appended after each node name (e.g. a state badge).
	Suffix func(*Node) string
}

// Render draws the tree below n with box-drawing branch guides.
func Render(n *Node, opts RenderOptions) string {
	var sb strings.Builder
	for _, node := range n.Flatten() {
		depth := depthBelow(node, n)
		if depth == 0 {
			sb.WriteString(opts.Root.Render(node.Name()))
		} else {
			sb.WriteString(opts.Guide.Render(buildPrefix(node, n)))
			sb.WriteString(opts.Name.Render(node.Name()))
		}
		if opts.Suffix != nil {
			if s := opts.Suffix(node); s != "" {
				sb.WriteString(" ")
				sb.WriteString(s)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Write renders n to w without styling.
func Write(w io.Writer, n *Node) error {
	_, err := io.WriteString(w, Render(n, RenderOptions{}))
	return err
}

func depthBelow(node, top *Node) int {
	d := 0
	for a := node; a != nil && a != top; a = a.Parent() {
		d++
	}
	return d
}

// buildPrefix builds the branch prefix for node relative to top.
func buildPrefix(node, top *Node) string {
	var ancestors []*Node
	for a := node.Parent(); a != nil && a != top; a = a.Parent() {
		ancestors = append(ancestors, a)
	}

	var parts []string
	for i := len(ancestors) - 1; i >= 0; i-- {
		if isLastChild(ancestors[i]) {
			parts = append(parts, "    ")
		} else {
			parts = append(parts, "│   ")
		}
	}
	if isLastChild(node) {
		parts = append(parts, "└─ ")
	} else {
		parts = append(parts, "├─ ")
	}
	return strings.Join(parts, "")
}

func isLastChild(node *Node) bool {
	p := node.Parent()
	if p == nil {
		return true
	}
	children := p.Children()
	return len(children) > 0 && children[len(children)-1] == node
}
