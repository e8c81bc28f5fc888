package styles

import (
	"fmt"
	"strings"
)

// Badges drawn after component names.
const (
	BadgeInitialized = "●"
	BadgePending     = "○"
)

// StateBadge returns the styled badge for a component's initialized flag.
func StateBadge(initialized bool) string {
	if initialized {
		return SuccessStyle.Render(BadgeInitialized)
	}
	return WarningStyle.Render(BadgePending)
}

// Divider returns a horizontal rule of the given width.
func Divider(width int) string {
	if width < 1 {
		return ""
	}
	return DividerStyle.Render(strings.Repeat("─", width))
}

// Pluralize formats n with noun, adding "s" unless n is 1.
func Pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
