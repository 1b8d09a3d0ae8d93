package changes

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/boardwatch/boardwatch/internal/model"
)

// Lines per change item in the list view (summary + timestamp + blank
// separator).
const changeItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("39"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	summaryStyle = lipgloss.NewStyle().
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	selectedSummaryStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(18)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	typeColors = map[model.ChangeType]lipgloss.Style{
		model.ChangeAdded:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),  // green
		model.ChangeRemoved:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")), // red
		model.ChangeModified: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // orange
		model.ChangeStale:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")), // gray
	}
)

func typeBadge(t model.ChangeType) string {
	style, ok := typeColors[t]
	if !ok {
		style = lipgloss.NewStyle()
	}
	return style.Render("[" + string(t) + "]")
}

type changesModel struct {
	changes  []model.JobChange
	viewport viewport.Model
	cursor   int
	width    int
	height   int
	ready    bool

	view           viewState
	detailViewport viewport.Model
}

func (m changesModel) Init() tea.Cmd {
	return nil
}

func (m changesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m changesModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1)
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m changesModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *changesModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(len(m.changes)-1, 0))
	m.viewport.SetContent(renderChanges(m.changes, m.cursor))
	m.ensureCursorVisible()
}

func (m *changesModel) ensureCursorVisible() {
	cursorTop := m.cursor * changeItemHeight
	cursorBottom := cursorTop + changeItemHeight - 1

	if cursorTop < m.viewport.YOffset {
		m.viewport.SetYOffset(cursorTop)
	} else if cursorBottom >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(cursorBottom - m.viewport.Height + 1)
	}
}

func (m changesModel) openDetailView() (tea.Model, tea.Cmd) {
	if len(m.changes) == 0 {
		return m, nil
	}
	m.view = viewDetail
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *changesModel) recalcLayout() {
	// Header (1) + border top/bottom (2) + status bar (1).
	width := max(m.width-2, 20)
	height := max(m.height-4, 5)

	if !m.ready {
		m.viewport = viewport.New(width, height)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = height
	}
	m.viewport.SetContent(renderChanges(m.changes, m.cursor))
}

func (m changesModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m changesModel) viewList() string {
	header := headerStyle.Render(fmt.Sprintf(" Recent Changes (%d)", len(m.changes)))
	pane := borderStyle.Width(m.viewport.Width).Render(m.viewport.View())
	statusBar := statusBarStyle.Width(m.width).Render(" ↑/↓ cursor  Enter detail  q quit")
	return header + "\n" + pane + "\n" + statusBar
}

func (m changesModel) viewDetail() string {
	title := detailTitleStyle.Render("Change Details")
	content := borderStyle.Width(m.width - 2).Render(m.detailViewport.View())
	statusBar := statusBarStyle.Width(m.width).Render(" esc/backspace back  ↑/↓ scroll  q quit")
	return title + "\n" + content + "\n" + statusBar
}

func (m changesModel) renderDetail() string {
	c := m.changes[clamp(m.cursor, 0, max(len(m.changes)-1, 0))]
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}
	addPair := func(label string, prev, next *string) {
		switch {
		case prev != nil && next != nil:
			addField(label, fmt.Sprintf("%s → %s", *prev, *next))
		case next != nil:
			addField(label, *next)
		case prev != nil:
			addField(label, *prev)
		}
	}

	addField("Type", typeBadge(c.Type))
	addField("When", c.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	addField("Employer", c.EmployerID)
	addField("Job", c.JobID)

	b.WriteByte('\n')
	addPair("Title", c.PreviousTitle, c.NewTitle)
	addPair("Location", c.PreviousLocation, c.NewLocation)
	addPair("Currency", c.PreviousSalaryCurrency, c.NewSalaryCurrency)
	addPair("Interval", c.PreviousSalaryInterval, c.NewSalaryInterval)

	addIntPair := func(label string, prev, next *int64) {
		switch {
		case prev != nil && next != nil:
			addField(label, fmt.Sprintf("%d → %d", *prev, *next))
		case next != nil:
			addField(label, fmt.Sprintf("%d", *next))
		case prev != nil:
			addField(label, fmt.Sprintf("%d", *prev))
		}
	}
	addIntPair("Salary Min", c.PreviousSalaryMin, c.NewSalaryMin)
	addIntPair("Salary Max", c.PreviousSalaryMax, c.NewSalaryMax)

	if c.PreviousJobsCount != nil || c.NewJobsCount != nil {
		prev, next := 0, 0
		if c.PreviousJobsCount != nil {
			prev = *c.PreviousJobsCount
		}
		if c.NewJobsCount != nil {
			next = *c.NewJobsCount
		}
		addField("Jobs Count", fmt.Sprintf("%d → %d", prev, next))
	}

	if c.PreviousDescription != nil || c.NewDescription != nil {
		b.WriteByte('\n')
		b.WriteString(subtitleStyle.Render("  description changed") + "\n")
	}

	return b.String()
}

func changeSummary(c model.JobChange) string {
	switch {
	case c.Type == model.ChangeAdded && c.NewTitle != nil:
		return *c.NewTitle
	case c.Type == model.ChangeRemoved && c.PreviousTitle != nil:
		return *c.PreviousTitle
	case c.Type == model.ChangeStale && c.PreviousTitle != nil:
		return *c.PreviousTitle
	case c.NewTitle != nil:
		return *c.NewTitle
	case c.PreviousTitle != nil:
		return *c.PreviousTitle
	case c.NewJobsCount != nil:
		return fmt.Sprintf("posting count now %d", *c.NewJobsCount)
	case c.Type == model.ChangeTrackStart:
		return "employer tracking started"
	case c.Type == model.ChangeTrackStop:
		return "employer tracking stopped"
	default:
		return "(no detail)"
	}
}

func renderChanges(changes []model.JobChange, cursor int) string {
	if len(changes) == 0 {
		return "  (no changes)"
	}

	var b strings.Builder
	for i, c := range changes {
		summarySt := summaryStyle
		subtitleSt := subtitleStyle
		prefix := "  "
		if i == cursor {
			summarySt = selectedSummaryStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(typeBadge(c.Type))
		b.WriteString(" ")
		b.WriteString(summarySt.Render(changeSummary(c)))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(c.CreatedAt.Local().Format("2006-01-02 15:04")))
		b.WriteByte('\n')

		if i < len(changes)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Run loads the most recent changes and opens the interactive viewer.
func Run(store model.Store, limit int) error {
	changes, err := runLoader(func(ctx context.Context) ([]model.JobChange, error) {
		return store.ListRecentChanges(ctx, limit)
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(changesModel{changes: changes}, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
