package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/boardviz/internal/app"
	"github.com/matzehuels/boardviz/pkg/board"
	errs "github.com/matzehuels/boardviz/pkg/errors"
	"github.com/matzehuels/boardviz/pkg/source"
)

// =============================================================================
// Messages
// =============================================================================

// eventMsg carries a connection event from the mailbox into the program.
type eventMsg source.Event

// sourceDoneMsg reports that the source worker ended on its own.
type sourceDoneMsg struct{ err error }

// =============================================================================
// BoardModel - Live terminal display
// =============================================================================

// BoardModel is the bubbletea model for the live board. The bubbletea event
// loop is the presentation loop: only Update touches the session.
type BoardModel struct {
	ctx      context.Context
	session  *app.Session
	source   string
	savePath string
	webAddr  string

	status    string
	statusErr bool
	latest    *board.Connection
	quitting  bool
}

// NewBoardModel creates the model around a session.
func NewBoardModel(ctx context.Context, s *app.Session, sourceName, savePath, webAddr string) BoardModel {
	return BoardModel{
		ctx:      ctx,
		session:  s,
		source:   sourceName,
		savePath: savePath,
		webAddr:  webAddr,
		status:   "waiting for connections",
	}
}

func (m BoardModel) Init() tea.Cmd {
	return nil
}

func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		ev := source.Event(msg)
		rec := m.session.Handle(m.ctx, ev)
		if rec.Accepted() {
			m.latest = &board.Connection{First: ev.First, Second: ev.Second}
			m.setStatus(fmt.Sprintf("connected %s-%s", ev.First, ev.Second), false)
		} else {
			m.setStatus(errs.UserMessage(rec.Err), true)
		}

	case sourceDoneMsg:
		if msg.err != nil {
			m.setStatus("source stopped: "+errs.UserMessage(msg.err), true)
		} else {
			m.setStatus("source stopped", false)
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "s":
			if m.savePath == "" {
				m.setStatus("no save path configured", true)
			} else if err := m.session.Save(m.savePath); err != nil {
				m.setStatus(errs.UserMessage(err), true)
			} else {
				m.setStatus("saved "+m.savePath, false)
			}
		}
	}
	return m, nil
}

func (m *BoardModel) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// Status returns the current status line text.
func (m BoardModel) Status() string { return m.status }

func (m BoardModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	b.WriteString(StyleTitle.Render(boardTitle))
	b.WriteString(StyleDim.Render("  source: " + m.source))
	if m.webAddr != "" {
		b.WriteString(StyleDim.Render("  web: " + m.webAddr))
	}
	b.WriteString("\n\n")

	grid := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorDim).
		Padding(0, 1).
		Render(m.renderGrid())
	side := m.renderRecent()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, grid, "  ", side))
	b.WriteString("\n\n")

	_, rejected, failed := m.session.Counts()
	counts := fmt.Sprintf("%s connections  %s rejected",
		StyleNumber.Render(fmt.Sprint(m.session.Graph().EdgeCount())),
		StyleNumber.Render(fmt.Sprint(rejected)))
	if failed > 0 {
		counts += fmt.Sprintf("  %s render failures", StyleError.Render(fmt.Sprint(failed)))
	}
	b.WriteString(counts)
	b.WriteString("\n")

	if m.statusErr {
		b.WriteString(styleIconError.Render(iconError) + " " + StyleError.Render(m.status))
	} else {
		b.WriteString(styleIconInfo.Render(iconInfo) + " " + m.status)
	}
	b.WriteString("\n\n")
	b.WriteString(StyleDim.Render("s save  q quit"))
	return b.String()
}

// renderGrid draws the board as a character map with the top row first.
// Contacts in a recorded connection are highlighted and the endpoints of
// the latest connection are inverted.
func (m BoardModel) renderGrid() string {
	g := m.session.Graph()
	n := g.GridSize()

	width := 1
	cells := make(map[board.Tile]string)
	for _, c := range g.Contacts() {
		cells[c.Tile] = c.ID
		width = max(width, lipgloss.Width(c.ID))
	}
	connected := make(map[string]bool)
	for _, c := range g.Connections() {
		connected[c.First] = true
		connected[c.Second] = true
	}

	var b strings.Builder
	for y := n - 1; y >= 0; y-- {
		for x := range n {
			if x > 0 {
				b.WriteString(" ")
			}
			id, ok := cells[board.Tile{X: x, Y: y}]
			if !ok {
				b.WriteString(styleEmptyCell.Render(fmt.Sprintf("%*s", width, iconEmpty)))
				continue
			}
			label := fmt.Sprintf("%*s", width, id)
			switch {
			case m.latest != nil && (m.latest.First == id || m.latest.Second == id):
				b.WriteString(styleLatest.Render(label))
			case connected[id]:
				b.WriteString(styleConnected.Render(label))
			default:
				b.WriteString(styleContact.Render(label))
			}
		}
		if y > 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderRecent lists the latest handled events, newest first.
func (m BoardModel) renderRecent() string {
	var b strings.Builder
	b.WriteString(styleHeader.Render("Recent"))
	b.WriteString("\n")

	recent := m.session.Recent()
	if len(recent) == 0 {
		b.WriteString(StyleDim.Render("none yet"))
		return b.String()
	}
	for i := len(recent) - 1; i >= 0; i-- {
		r := recent[i]
		pair := r.Event.First + " " + iconEdge + " " + r.Event.Second
		if r.Accepted() {
			b.WriteString(styleIconSuccess.Render(iconSuccess) + " " + StyleValue.Render(pair))
		} else {
			b.WriteString(styleIconError.Render(iconError) + " " + StyleDim.Render(pair) +
				" " + StyleError.Render(string(errs.GetCode(r.Err))))
		}
		if i > 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
