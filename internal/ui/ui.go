// Package ui provides the terminal night browser using Bubble Tea.
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yetanothergithubaccount/DSObest/internal/astro"
	"github.com/yetanothergithubaccount/DSObest/internal/config"
	"github.com/yetanothergithubaccount/DSObest/internal/plan"
	"github.com/yetanothergithubaccount/DSObest/internal/version"
)

// Styles for the browser
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	topStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("60"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9D4EDD")).
			Bold(true)
)

// Bucket is a section of the browser list.
type Bucket int

const (
	BucketAstronomical Bucket = iota
	BucketNautical
	BucketInvisible
)

func (b Bucket) String() string {
	switch b {
	case BucketAstronomical:
		return "Astronomical"
	case BucketNautical:
		return "Nautical"
	default:
		return "Invisible"
	}
}

// row is one DSO in the flattened list.
type row struct {
	bucket Bucket
	dso    *plan.DSO
}

// Model is the root Bubble Tea model.
type Model struct {
	location config.Location
	result   *plan.Result
	filter   plan.Filter
	rows     []row
	filtered int

	cursor int
	width  int
	height int
	ready  bool
}

// New creates a browser over a planned night.
func New(loc config.Location, res *plan.Result, f plan.Filter) Model {
	m := Model{location: loc, result: res, filter: f}
	return m.rebuild()
}

// rebuild ranks the result with the current filter.
func (m Model) rebuild() Model {
	r := plan.Rank(m.result.DSOs, m.filter)
	m.rows = m.rows[:0:0]
	for _, d := range r.Astronomical {
		m.rows = append(m.rows, row{BucketAstronomical, d})
	}
	for _, d := range r.Nautical {
		m.rows = append(m.rows, row{BucketNautical, d})
	}
	for _, d := range r.Invisible {
		m.rows = append(m.rows, row{BucketInvisible, d})
	}
	m.filtered = r.Filtered
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			if len(m.rows) > 0 {
				m.cursor = len(m.rows) - 1
			}
		case "tab":
			m.cursor = m.nextBucket()
		case "m":
			m.filter.Moon = !m.filter.Moon
			m = m.rebuild()
		case "t":
			m.filter.TopOnly = !m.filter.TopOnly
			m = m.rebuild()
		case "d":
			m.filter.Direction = nextDirection(m.filter.Direction)
			m = m.rebuild()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
	}
	return m, nil
}

// nextBucket returns the first row of the following section.
func (m Model) nextBucket() int {
	if len(m.rows) == 0 {
		return 0
	}
	cur := m.rows[m.cursor].bucket
	for i := m.cursor + 1; i < len(m.rows); i++ {
		if m.rows[i].bucket != cur {
			return i
		}
	}
	return 0
}

// nextDirection cycles any, N, NE, ... NW, any.
func nextDirection(d astro.Direction) astro.Direction {
	if d == astro.NoDirection {
		return astro.North
	}
	if d == astro.NorthWest {
		return astro.NoDirection
	}
	return d + 1
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderList())
	b.WriteString("\n")
	b.WriteString(m.renderDetail())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	w := m.result.Window
	title := titleStyle.Render(fmt.Sprintf("DSObest v%s", version.Version)) + "  " +
		rowStyle.Render(fmt.Sprintf("%s  %s", w.Date.Format("02.01.2006"), m.location))

	naut := "none"
	if w.Nautical.Defined {
		naut = w.Nautical.Start.Format("15:04") + "-" + w.Nautical.End.Format("15:04")
	}
	astroIv := w.EffectiveAstronomical()
	astroText := "none"
	if astroIv.Defined {
		astroText = astroIv.Start.Format("15:04") + "-" + astroIv.End.Format("15:04")
		if w.AstronomicalFallback() {
			astroText += " (nautical)"
		}
	}
	return title + "\n" + dimStyle.Render(fmt.Sprintf("nautical %s | astronomical %s", naut, astroText))
}

func (m Model) renderFooter() string {
	f := []string{}
	if m.filter.Moon {
		f = append(f, "moon")
	}
	if m.filter.TopOnly {
		f = append(f, "top")
	}
	if m.filter.Direction != astro.NoDirection {
		f = append(f, "dir "+m.filter.Direction.String())
	}
	status := "no filter"
	if len(f) > 0 {
		status = strings.Join(f, ", ")
	}
	if m.filtered > 0 {
		status += fmt.Sprintf(" (%d hidden)", m.filtered)
	}

	help := dimStyle.Render("↑↓: navigate | tab: next section | m: moon | t: top | d: direction | q: quit")
	return "  " + accentStyle.Render(status) + "  " + dimStyle.Render("|") + "  " + help
}

// Selected returns the DSO under the cursor, or nil.
func (m Model) Selected() *plan.DSO {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].dso
}

// Run starts the browser on the terminal.
func Run(loc config.Location, res *plan.Result, f plan.Filter) error {
	p := tea.NewProgram(New(loc, res, f), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
