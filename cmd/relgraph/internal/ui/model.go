// Package ui is the terminal graph explorer behind `relgraph explore`.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/recera/relgraph/pkg/graphviewer"
	"github.com/recera/relgraph/pkg/renderer/term"
)

const (
	// statusLines is the space kept below the canvas for status and help.
	statusLines = 2
	panStep     = 8
	focusZoom   = 1.5
	repaint     = 50 * time.Millisecond
)

var (
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2563eb")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))
)

type frameMsg time.Time

// Model represents the explorer state
type Model struct {
	viewer *graphviewer.Viewer
	grid   *term.Grid
	keys   KeyMap
	help   help.Model

	width  int
	height int

	canvas   string
	lastSeq  uint64
	focusIdx int
	showHelp bool
	quitting bool
	message  string
	err      error
}

// NewModel creates an explorer over v. The caller starts and stops v.
func NewModel(v *graphviewer.Viewer) Model {
	return Model{
		viewer:   v,
		grid:     term.NewGrid(0, 0),
		keys:     DefaultKeyMap,
		help:     help.New(),
		focusIdx: -1,
	}
}

// Init starts the repaint loop.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(repaint, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		rows := msg.Height - statusLines
		if rows < 0 {
			rows = 0
		}
		m.grid.Resize(msg.Width, rows)
		w, h := m.grid.Size()
		m.viewer.Resize(graphviewer.Viewport{Width: w, Height: h})
		m.paint(true)
		return m, nil

	case frameMsg:
		m.paint(false)
		return m, tick()

	case tea.MouseMsg:
		m.handleMouse(msg)
		m.paint(false)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		m.handleKey(msg)
		m.paint(false)
		return m, nil
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if msg.Y >= m.grid.Rows() && msg.Action != tea.MouseActionRelease {
		return
	}
	x, y := term.CellToPixel(msg.X, msg.Y)
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.viewer.Handle(graphviewer.PointerEvent{Type: graphviewer.PointerWheel, X: x, Y: y, Delta: -1})
	case msg.Button == tea.MouseButtonWheelDown:
		m.viewer.Handle(graphviewer.PointerEvent{Type: graphviewer.PointerWheel, X: x, Y: y, Delta: 1})
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.viewer.Handle(graphviewer.PointerEvent{Type: graphviewer.PointerDown, X: x, Y: y})
	case msg.Action == tea.MouseActionMotion:
		m.viewer.Handle(graphviewer.PointerEvent{Type: graphviewer.PointerMove, X: x, Y: y})
	case msg.Action == tea.MouseActionRelease:
		m.viewer.Handle(graphviewer.PointerEvent{Type: graphviewer.PointerUp, X: x, Y: y})
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	m.err = nil
	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, m.keys.ZoomIn):
		m.viewer.Handle(graphviewer.PointerEvent{Type: graphviewer.ZoomIn})
	case key.Matches(msg, m.keys.ZoomOut):
		m.viewer.Handle(graphviewer.PointerEvent{Type: graphviewer.ZoomOut})
	case key.Matches(msg, m.keys.Reset):
		m.viewer.ResetView()
	case key.Matches(msg, m.keys.Fit):
		m.viewer.FitGraph(graphviewer.DefaultFitPadding / 4)
	case key.Matches(msg, m.keys.Labels):
		s := m.viewer.Settings()
		s.ShowLabels = !s.ShowLabels
		m.viewer.SetSettings(s)
		m.message = onOff("labels", s.ShowLabels)
	case key.Matches(msg, m.keys.Categories):
		s := m.viewer.Settings()
		s.ShowCategories = !s.ShowCategories
		m.viewer.SetSettings(s)
		m.focusIdx = -1
		m.message = onOff("categories", s.ShowCategories)
	case key.Matches(msg, m.keys.Next):
		m.cycleFocus(1)
	case key.Matches(msg, m.keys.Prev):
		m.cycleFocus(-1)
	case key.Matches(msg, m.keys.Pan):
		switch msg.String() {
		case "up":
			m.viewer.Pan(0, panStep)
		case "down":
			m.viewer.Pan(0, -panStep)
		case "left":
			m.viewer.Pan(panStep, 0)
		case "right":
			m.viewer.Pan(-panStep, 0)
		}
	}
}

// cycleFocus centers the next (dir 1) or previous (dir -1) node.
func (m *Model) cycleFocus(dir int) {
	nodes := m.viewer.Frame().Nodes
	if len(nodes) == 0 {
		return
	}
	if m.focusIdx < 0 && dir < 0 {
		m.focusIdx = 0
	}
	m.focusIdx = ((m.focusIdx+dir)%len(nodes) + len(nodes)) % len(nodes)
	n := nodes[m.focusIdx]
	if err := m.viewer.FocusNode(n.ID, focusZoom); err != nil {
		m.err = err
		return
	}
	m.message = "focus " + n.Label()
}

// paint re-renders the canvas when the frame changed or force is set.
func (m *Model) paint(force bool) {
	f := m.viewer.Frame()
	if !force && f.Seq == m.lastSeq {
		return
	}
	m.lastSeq = f.Seq
	m.viewer.Render(m.grid)
	m.canvas = m.grid.String()
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	if m.showHelp {
		m.help.ShowAll = true
		return lipgloss.JoinVertical(lipgloss.Left, m.canvas, m.help.View(m.keys))
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.canvas, m.status(), m.help.View(m.keys))
}

func (m Model) status() string {
	f := m.viewer.Frame()
	parts := []string{
		fmt.Sprintf("%d nodes", len(f.Nodes)),
		fmt.Sprintf("%d edges", len(f.Edges)),
		fmt.Sprintf("zoom %.1f", f.Transform.Zoom),
	}
	if f.AtRest {
		parts = append(parts, "at rest")
	}
	line := statusStyle.Render(strings.Join(parts, " · "))
	if n, ok := f.Selected(); ok {
		line += "  " + selectedStyle.Render(fmt.Sprintf("%s (%s)", n.Label(), n.Kind.Name()))
	}
	switch {
	case m.err != nil:
		line += "  " + errorStyle.Render(m.err.Error())
	case m.message != "":
		line += "  " + statusStyle.Render(m.message)
	}
	return line
}

func onOff(name string, on bool) string {
	if on {
		return name + " on"
	}
	return name + " off"
}
