// Package tui is the terminal presentation layer: the transcript console, a
// status sidebar, and a toggleable database pane. It holds no game state of
// its own; everything is read back from the session controller.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tatianab/zork-agents/internal/models"
	"github.com/tatianab/zork-agents/internal/session"
)

// pollInterval is how often the view re-reads the session projections.
const pollInterval = 200 * time.Millisecond

var (
	gmStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#33FF00"))

	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	dumpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00CCCC"))
)

type tickMsg time.Time

type turnDoneMsg struct{}

type model struct {
	ctx       context.Context
	ctrl      *session.Controller
	viewport  viewport.Model
	width     int
	height    int
	showDB    bool
	lastLogID int64
}

// NewModel builds the TUI model over a bootstrapped session controller.
func NewModel(ctx context.Context, ctrl *session.Controller) model {
	return model{ctx: ctx, ctrl: ctrl}
}

func (m model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit

		case "s":
			// Step runs a whole turn including agent calls, so keep it off
			// the update loop.
			return m, func() tea.Msg {
				m.ctrl.Step(m.ctx)
				return turnDoneMsg{}
			}

		case "a":
			m.ctrl.ToggleAutoPlay()
			return m, nil

		case "r":
			return m, func() tea.Msg {
				m.ctrl.Reset(m.ctx)
				return turnDoneMsg{}
			}

		case "d":
			m.showDB = !m.showDB
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		logWidth := int(float64(msg.Width) * 0.6)
		if m.viewport.Width == 0 {
			m.viewport = viewport.New(logWidth, msg.Height-4)
		} else {
			m.viewport.Width = logWidth
			m.viewport.Height = msg.Height - 4
		}
		m.viewport.SetContent(m.renderTranscript(m.ctrl.Logs()))
		m.viewport.GotoBottom()

	case tickMsg:
		m.refresh()
		return m, tick()

	case turnDoneMsg:
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.width == 0 {
		return "\n  Booting neural interface...\n"
	}

	sidebar := m.renderSidebar()
	if m.showDB {
		sidebar = m.renderDatabase()
	}

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), sidebar)

	status := "idle"
	if m.ctrl.InFlight() {
		status = "agents thinking..."
	}
	autoplay := "off"
	if m.ctrl.AutoPlay() {
		autoplay = "ON"
	}
	help := helpStyle.Render(fmt.Sprintf(
		"[s]tep  [a]utoplay: %s  [r]eset  [d]atabase  [q]uit  |  %s", autoplay, status))

	return "\n" + lipgloss.JoinVertical(lipgloss.Left, mainView, "\n"+help) + "\n"
}

// refresh re-reads the transcript, autoscrolling only when new entries have
// arrived so a user scrolled back up is left alone.
func (m *model) refresh() {
	logs := m.ctrl.Logs()
	m.viewport.SetContent(m.renderTranscript(logs))
	if len(logs) > 0 && logs[len(logs)-1].ID != m.lastLogID {
		m.lastLogID = logs[len(logs)-1].ID
		m.viewport.GotoBottom()
	}
}

func (m model) renderTranscript(logs []models.LogEntry) string {
	logWidth := m.viewport.Width
	var b strings.Builder
	for _, entry := range logs {
		var line string
		switch entry.Role {
		case models.RolePlayer:
			line = playerStyle.Width(logWidth).Render(entry.Text)
		case models.RoleSystem:
			line = systemStyle.Width(logWidth).Render(entry.Text)
		default:
			line = gmStyle.Width(logWidth).Render(entry.Text)
		}
		b.WriteString(line + "\n\n")
	}
	return b.String()
}

func (m model) renderSidebar() string {
	player := m.ctrl.Player()
	settings := m.ctrl.Settings()

	location := "Unknown"
	if room, ok := m.ctrl.CurrentRoom(); ok {
		location = room.Name
	}

	content := titleStyle.Render("LOCATION") + "\n" + location + "\n\n"
	content += titleStyle.Render("STATUS") + "\n"
	content += fmt.Sprintf("Health: %d%%\n%s\nTurns: %d\n\n", player.Health, player.Status, settings.TurnCount)

	content += titleStyle.Render("INVENTORY") + "\n"
	if len(player.Inventory) == 0 {
		content += "(empty)"
	} else {
		for _, item := range player.Inventory {
			content += "- " + item + "\n"
		}
	}

	content += "\n\n" + titleStyle.Render("MAP") + "\n" + m.renderMap()

	return sidebarStyle.Width(m.sidebarWidth()).Height(m.viewport.Height).Render(content)
}

// renderMap draws known rooms as a coarse grid of markers around the player.
func (m model) renderMap() string {
	rooms := m.ctrl.Rooms()
	if len(rooms) == 0 {
		return "(void)"
	}
	current := m.ctrl.Player().CurrentRoomID

	marks := make(map[models.Coordinates]string)
	for _, room := range rooms {
		if room.ID == current {
			marks[room.Coordinates] = "@"
		} else if _, taken := marks[room.Coordinates]; !taken {
			marks[room.Coordinates] = "#"
		}
	}

	const span = 3 // rooms drawn within ±span of the origin
	var b strings.Builder
	for y := -span; y <= span; y++ {
		for x := -span; x <= span; x++ {
			if mark, ok := marks[models.Coordinates{X: x, Y: y}]; ok {
				b.WriteString(mark + " ")
			} else {
				b.WriteString(". ")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderDatabase() string {
	dump := dumpStyle.Render(m.ctrl.Export())
	content := titleStyle.Render("DATABASE") + "\n" + dump
	return sidebarStyle.Width(m.sidebarWidth()).Height(m.viewport.Height).Render(content)
}

func (m model) sidebarWidth() int {
	return m.width - m.viewport.Width - 4
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, ctrl *session.Controller) error {
	p := tea.NewProgram(NewModel(ctx, ctrl), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
