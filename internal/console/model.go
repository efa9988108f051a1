// AngelaMos | 2026
// model.go

// Package console is the terminal dashboard. It only reads from the stores
// and recomputes every gate decision on each render.
package console

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/carterperez-dev/venuedesk/internal/api"
	"github.com/carterperez-dev/venuedesk/internal/gate"
	"github.com/carterperez-dev/venuedesk/internal/permission"
	"github.com/carterperez-dev/venuedesk/internal/tour"
	"github.com/carterperez-dev/venuedesk/internal/userdata"
)

type Session interface {
	IsAuthenticated() bool
	Subject() *permission.Subject
}

type Data interface {
	Subject() *permission.Subject
	User() *api.User
	Venue() *api.Venue
	Workspace() *api.Workspace
	Statistics() *api.Statistics
	MenuItems() []api.MenuItem
	Tables() []api.Table
	RecentOrders() []api.Order
	Users() []api.User
	Assignment() userdata.Assignment
	StatusMessage() string
}

type Tour interface {
	State() tour.State
	HandleKey(ctx context.Context, key string) error
}

// RefreshMsg asks the model to redraw after a store changed.
type RefreshMsg struct{}

type tourResultMsg struct{ err error }

type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Section  lipgloss.Style
	Focused  lipgloss.Style
	Target   lipgloss.Style
	Heading  lipgloss.Style
	Locked   lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Tour     lipgloss.Style
	Help     lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginBottom(1),
		Section: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1),
		Focused: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("86")).
			Padding(0, 1),
		Target: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("226")).
			Padding(0, 1),
		Heading: lipgloss.NewStyle().
			Bold(true),
		Locked: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true),
		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		Tour: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
	}
}

type Model struct {
	ctx     context.Context
	session Session
	data    Data
	tour    Tour

	cursor   int
	width    int
	lastErr  string
	quitting bool
	styles   Styles
}

func NewModel(ctx context.Context, session Session, data Data, t Tour) Model {
	return Model{
		ctx:     ctx,
		session: session,
		data:    data,
		tour:    t,
		styles:  DefaultStyles(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case RefreshMsg:
		m.clampCursor()
		return m, nil

	case tourResultMsg:
		m.lastErr = ""
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	}

	if m.tour != nil && m.tour.State().Status == tour.StatusActive {
		switch key {
		case tour.KeyEscape, tour.KeyEnter, tour.KeyRight, tour.KeyLeft:
			return m, m.tourKey(key)
		}
	}

	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		m.cursor++
		m.clampCursor()
	}

	return m, nil
}

func (m Model) tourKey(key string) tea.Cmd {
	ctx := m.ctx
	t := m.tour
	return func() tea.Msg {
		return tourResultMsg{err: t.HandleKey(ctx, key)}
	}
}

func (m *Model) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

type panel struct {
	Section
	decision gate.Decision
}

// visible evaluates every section against the current user. Sections that
// decide RenderNothing are dropped.
func (m Model) visible() []panel {
	subject := m.data.Subject()
	if subject == nil {
		subject = m.session.Subject()
	}
	authenticated := m.session.IsAuthenticated()

	out := make([]panel, 0, len(Sections))
	for _, s := range Sections {
		rule := s.Rule
		if s.NeedsVenue {
			if v := m.data.Venue(); v != nil {
				rule.VenueScope = v.ID
			}
		}
		if s.ScopeToWorkspace {
			if ws := m.data.Workspace(); ws != nil {
				rule.WorkspaceScope = ws.ID
			}
		}

		d := gate.Decide(subject, authenticated, rule)
		if d == gate.RenderNothing {
			continue
		}
		out = append(out, panel{Section: s, decision: d})
	}
	return out
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.styles.Title.Render("venuedesk"))
	b.WriteString("\n")

	if !m.session.IsAuthenticated() {
		b.WriteString(m.styles.Warning.Render("Not signed in. Run `venuedesk login`."))
		b.WriteString("\n")
		b.WriteString(m.styles.Help.Render("q quit"))
		return b.String()
	}

	b.WriteString(m.styles.Subtitle.Render(m.subtitle()))
	b.WriteString("\n")

	assignment := m.data.Assignment()
	if msg := m.data.StatusMessage(); msg != "" {
		b.WriteString(m.styles.Warning.Render(msg))
		b.WriteString("\n")
	}

	target := ""
	st := m.tourState()
	if st.Step != nil {
		target = st.Step.Target
	}

	panels := m.visible()
	blocks := make([]string, 0, len(panels))
	for i, p := range panels {
		blocks = append(blocks, m.renderPanel(p, assignment, i == m.cursor, p.ID == target))
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, blocks...))
	b.WriteString("\n")

	if st.Step != nil {
		b.WriteString(m.styles.Tour.Render(fmt.Sprintf("%s (%d/%d)\n%s",
			st.Step.Title, st.StepIndex+1, st.Total, st.Step.Body)))
		b.WriteString("\n")
	}

	if m.lastErr != "" {
		b.WriteString(m.styles.Error.Render(m.lastErr))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Help.Render(m.help(st)))
	return b.String()
}

func (m Model) renderPanel(p panel, a userdata.Assignment, focused, target bool) string {
	style := m.styles.Section
	switch {
	case target:
		style = m.styles.Target
	case focused:
		style = m.styles.Focused
	}
	if m.width > 4 {
		style = style.Width(m.width - 4)
	}

	var body string
	switch {
	case p.decision == gate.RenderFallback:
		body = m.styles.Locked.Render("You do not have access to this section.")
	case p.NeedsVenue && a.RequiresVenueAssignment:
		body = m.styles.Locked.Render("Waiting for a venue assignment.")
	default:
		body = p.Render(m.data)
	}

	return style.Render(m.styles.Heading.Render(p.Title) + "\n" + body)
}

func (m Model) subtitle() string {
	name, role := "", ""
	if u := m.data.User(); u != nil {
		name, role = u.Name, u.Role
	} else if s := m.session.Subject(); s != nil {
		role = s.Role.String()
	}
	if name == "" {
		return fmt.Sprintf("%s at %s", role, venueName(m.data.Venue()))
	}
	return fmt.Sprintf("%s (%s) at %s", name, role, venueName(m.data.Venue()))
}

func (m Model) tourState() tour.State {
	if m.tour == nil {
		return tour.State{Status: tour.StatusNotStarted}
	}
	return m.tour.State()
}

func (m Model) help(st tour.State) string {
	if st.Status == tour.StatusActive {
		return "enter/right next  left back  esc skip tour  q quit"
	}
	return "up/down move  q quit"
}
