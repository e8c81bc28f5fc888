// Package inspector is a read-only TUI showing the composition tree of a
// running coordinator next to its lifecycle event stream.
package inspector

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/modkit/internal/domain/component"
	"github.com/zjrosen/modkit/internal/hosttree"
	"github.com/zjrosen/modkit/internal/lifecycle"
	"github.com/zjrosen/modkit/internal/log"
	"github.com/zjrosen/modkit/internal/pubsub"
	"github.com/zjrosen/modkit/internal/ui/styles"
)

const (
	// MaxEvents is how many lifecycle events, and separately how many log
	// lines, the stream keeps.
	MaxEvents = 200

	defaultWidth  = 80
	defaultHeight = 24
	chromeLines   = 4 // title, divider, divider, footer
)

// Pane identifies the focused viewport.
type Pane int

const (
	PaneTree Pane = iota
	PaneEvents
)

// Source is what the inspector reads from a running coordinator.
type Source interface {
	State() lifecycle.State
	Store() *component.Store
	Events() *pubsub.Broker[lifecycle.Event]
}

// Model is the inspector state.
type Model struct {
	source Source
	root   *hosttree.Node

	listener *pubsub.ContinuousListener[lifecycle.Event]
	events   []lifecycle.Event
	missed   uint64
	closed   bool

	logs     *log.LogListener // nil when no logger is installed
	logLines []string
	showLogs bool

	focus  Pane
	width  int
	height int
	tree   viewport.Model
	stream viewport.Model
}

// New creates an inspector over src that draws root. The event subscription
// lives until ctx is cancelled.
func New(ctx context.Context, src Source, root *hosttree.Node) Model {
	m := Model{
		source:   src,
		root:     root,
		listener: pubsub.NewContinuousListener(ctx, src.Events()),
		logs:     log.NewListener(ctx),
		tree:     viewport.New(defaultWidth, 1),
		stream:   viewport.New(defaultWidth, 1),
	}
	m.resize(defaultWidth, defaultHeight)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.logs == nil {
		return m.listener.Listen()
	}
	return tea.Batch(m.listener.Listen(), m.logs.Listen())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pubsub.Event[lifecycle.Event]:
		m.missed += m.listener.Observe(msg)
		m.push(msg.Payload)
		return m, m.listener.Listen()

	case pubsub.StreamClosed[lifecycle.Event]:
		m.closed = true
		return m, nil

	case log.LogEvent:
		m.pushLog(strings.TrimRight(msg.Payload, "\n"))
		if m.logs == nil {
			return m, nil
		}
		return m, m.logs.Listen()

	case pubsub.StreamClosed[string]:
		m.logs = nil
		return m, nil

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "l":
			m.showLogs = !m.showLogs
			m.refresh()
			m.stream.GotoBottom()
		case "tab":
			if m.focus == PaneTree {
				m.focus = PaneEvents
			} else {
				m.focus = PaneTree
			}
		case "j", "down":
			m.focused().ScrollDown(1)
		case "k", "up":
			m.focused().ScrollUp(1)
		case "g":
			m.focused().GotoTop()
		case "G":
			m.focused().GotoBottom()
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	divider := styles.Divider(m.width)

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(fmt.Sprintf("modkit · %s · %s", m.source.State(), styles.Pluralize(m.source.Store().Len(), "component"))))
	b.WriteString("\n")
	b.WriteString(m.tree.View())
	b.WriteString("\n")
	b.WriteString(divider)
	b.WriteString("\n")
	b.WriteString(m.stream.View())
	b.WriteString("\n")
	b.WriteString(divider)
	b.WriteString("\n")
	b.WriteString(styles.HintStyle.Render(m.hint()))
	return b.String()
}

// Events returns the retained events, oldest first.
func (m Model) Events() []lifecycle.Event {
	return append([]lifecycle.Event(nil), m.events...)
}

// Focus returns the focused pane.
func (m Model) Focus() Pane { return m.focus }

// ShowingLogs reports whether the stream pane shows log lines instead of
// lifecycle events.
func (m Model) ShowingLogs() bool { return m.showLogs }

// Missed returns how many published events never reached the stream.
func (m Model) Missed() uint64 { return m.missed }

func (m Model) hint() string {
	pane := "tree"
	switch {
	case m.focus == PaneEvents && m.showLogs:
		pane = "logs"
	case m.focus == PaneEvents:
		pane = "events"
	}
	hint := "[" + pane + "] tab switch · l logs · j/k scroll · g/G top/bottom · q quit"
	if m.missed > 0 {
		hint += fmt.Sprintf(" · %d missed", m.missed)
	}
	if m.closed {
		hint += " · stream closed"
	}
	return hint
}

func (m *Model) focused() *viewport.Model {
	if m.focus == PaneEvents {
		return &m.stream
	}
	return &m.tree
}

func (m *Model) push(e lifecycle.Event) {
	m.events = keepLast(append(m.events, e), MaxEvents)
	m.refresh()
	m.stream.GotoBottom()
}

func (m *Model) pushLog(line string) {
	m.logLines = keepLast(append(m.logLines, line), MaxEvents)
	if m.showLogs {
		m.refresh()
		m.stream.GotoBottom()
	}
}

func keepLast[T any](s []T, n int) []T {
	if over := len(s) - n; over > 0 {
		return s[over:]
	}
	return s
}

// resize splits the body between the tree (upper half) and the stream.
func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	body := max(height-chromeLines, 2)
	treeHeight := body / 2
	m.tree.Width, m.tree.Height = width, treeHeight
	m.stream.Width, m.stream.Height = width, body-treeHeight-1
	m.refresh()
}

func (m *Model) refresh() {
	m.tree.SetContent(m.renderTree())
	m.stream.SetContent(m.renderEvents())
}

func (m Model) renderTree() string {
	if m.root == nil {
		return "(no host tree)"
	}
	status := make(map[string]bool)
	for _, inst := range m.source.Store().All() {
		status[inst.Name()] = inst.Initialized()
	}
	return strings.TrimRight(hosttree.Render(m.root, hosttree.RenderOptions{
		Root:  styles.HeaderStyle,
		Guide: styles.MutedStyle,
		Suffix: func(n *hosttree.Node) string {
			ready, ok := status[n.Name()]
			if !ok {
				return ""
			}
			return styles.StateBadge(ready)
		},
	}), "\n")
}

func (m Model) renderEvents() string {
	if m.showLogs {
		return m.renderLogs()
	}
	if len(m.events) == 0 {
		return "(waiting for events)"
	}
	lines := make([]string, 0, len(m.events))
	for _, e := range m.events {
		line := fmt.Sprintf("%-13s %s", e.Kind, e.Message())
		if e.Kind == lifecycle.EventFailure {
			line = styles.ErrorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderLogs() string {
	switch {
	case len(m.logLines) > 0:
		return strings.Join(m.logLines, "\n")
	case m.logs == nil:
		return styles.MutedStyle.Render("(logging disabled, run with --debug)")
	default:
		return "(no log output)"
	}
}
