// Package report renders planned nights and years as text, charts and JSON.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/yetanothergithubaccount/DSObest/internal/config"
	"github.com/yetanothergithubaccount/DSObest/internal/night"
	"github.com/yetanothergithubaccount/DSObest/internal/plan"
)

// Date layouts used in messages.
const (
	dayLayout   = "02.01.2006"
	rangeLayout = "02.01.06 15:04"
	clockLayout = "15:04"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	topStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// Night is everything needed to report one planned night.
type Night struct {
	Location  config.Location
	Catalogue string
	Window    night.Window
	Ranking   plan.Ranking
	Failures  []plan.Outcome
	Moon      bool // include the moon explanation lines
}

// NewNight builds a report from a planner result.
func NewNight(loc config.Location, catalogue string, res *plan.Result, r plan.Ranking, moon bool) Night {
	return Night{
		Location:  loc,
		Catalogue: catalogue,
		Window:    res.Window,
		Ranking:   r,
		Failures:  res.Failures,
		Moon:      moon,
	}
}

// Header returns the first line of the results message.
func (n Night) Header() string {
	first := n.Window.Date
	next := first.AddDate(0, 0, 1)
	return fmt.Sprintf("Best DSOs for %s - %s at %s", first.Format(dayLayout), next.Format(dayLayout), n.Location)
}

// Title is the report title.
func (n Night) Title() string {
	return n.Catalogue + " Catalogue DSO Visibility"
}

// Subtitle is the date range and site, like "01.03.-02.03.2024 in Frankfurt (50.1, 8.6)".
func (n Night) Subtitle() string {
	first := n.Window.Date
	next := first.AddDate(0, 0, 1)
	return fmt.Sprintf("%s-%s in %s (%g, %g)", first.Format("02.01."), next.Format(dayLayout),
		n.Location.Name, n.Location.Latitude, n.Location.Longitude)
}

// FileName returns the base name for report files of this night, without
// extension.
func (n Night) FileName() string {
	return fmt.Sprintf("%s_Catalogue DSOs_in_%s_%s", n.Catalogue, n.Location.Name, n.Window.Date.Format(dayLayout))
}

// Message renders the plain results message sent to the observer.
func (n Night) Message() string {
	var b strings.Builder
	b.WriteString(n.Header())

	b.WriteString("\n\n")
	b.WriteString(intervalLine("Nautical night", n.Window.Nautical))
	for _, d := range n.Ranking.Nautical {
		b.WriteString("\n  ")
		b.WriteString(n.entry(d))
	}

	b.WriteString("\n\n")
	b.WriteString(intervalLine("Astronomical night", n.Window.EffectiveAstronomical()))
	for _, d := range n.Ranking.Astronomical {
		b.WriteString("\n  ")
		b.WriteString(n.entry(d))
	}

	b.WriteString("\n\nInvisible DSOs:")
	for _, d := range n.Ranking.Invisible {
		b.WriteString("\n  ")
		b.WriteString(invisibleEntry(d))
	}
	return b.String()
}

func (n Night) entry(d *plan.DSO) string {
	s := fmt.Sprintf("%s: %s in %s at %s", d.Name, altitude(d.Peak.Altitude), d.Peak.Direction, d.Peak.Time.Format(clockLayout))
	if n.Moon {
		s += d.Moon.Text()
	}
	return s
}

func invisibleEntry(d *plan.DSO) string {
	at := "--:--"
	if !d.Peak.Time.IsZero() {
		at = d.Peak.Time.Format(clockLayout)
	}
	return fmt.Sprintf("%s: %s in %s at %s [%d]", d.Name, altitude(d.Peak.Altitude), d.Peak.Direction, at, d.Index+1)
}

func intervalLine(label string, i night.Interval) string {
	if !i.Defined {
		return label + ": none"
	}
	return fmt.Sprintf("%s: %s - %s", label, i.Start.Format(rangeLayout), i.End.Format(rangeLayout))
}

func altitude(a float64) string {
	return fmt.Sprintf("%.0f", math.Round(a))
}

// WriteSummary writes the night report. Plain output is the results message
// followed by any failures; styled output renders the same content with
// lipgloss for a terminal.
func WriteSummary(w io.Writer, n Night, styled bool) error {
	if !styled {
		if _, err := fmt.Fprintln(w, n.Message()); err != nil {
			return err
		}
		if len(n.Failures) > 0 {
			fmt.Fprintln(w, "\nNot evaluated:")
			for _, f := range n.Failures {
				fmt.Fprintf(w, "  %s: %v\n", f.Name, f.Err)
			}
		}
		return nil
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(n.Title()))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(n.Subtitle()))
	b.WriteString("\n")

	n.writeBucket(&b, intervalLine("Nautical night", n.Window.Nautical), n.Ranking.Nautical)
	astroLine := intervalLine("Astronomical night", n.Window.EffectiveAstronomical())
	if n.Window.AstronomicalFallback() {
		astroLine += " (nautical bounds)"
	}
	n.writeBucket(&b, astroLine, n.Ranking.Astronomical)

	b.WriteString("\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("Invisible DSOs (%d)", len(n.Ranking.Invisible))))
	b.WriteString("\n")
	for _, d := range n.Ranking.Invisible {
		b.WriteString("  ")
		b.WriteString(dimStyle.Render(invisibleEntry(d)))
		b.WriteString("\n")
	}

	if n.Ranking.Filtered > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("\n%d observable DSOs hidden by filters\n", n.Ranking.Filtered)))
	}
	if len(n.Failures) > 0 {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Not evaluated:"))
		b.WriteString("\n")
		for _, f := range n.Failures {
			b.WriteString(errorStyle.Render(fmt.Sprintf("  %s: %v", f.Name, f.Err)))
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (n Night) writeBucket(b *strings.Builder, title string, dsos []*plan.DSO) {
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")
	if len(dsos) == 0 {
		b.WriteString(dimStyle.Render("  no DSOs"))
		b.WriteString("\n")
		return
	}
	for _, d := range dsos {
		line := fmt.Sprintf("  %-10s %4s° %-3s %s", d.Name, altitude(d.Peak.Altitude), d.Peak.Direction, d.Peak.Time.Format(clockLayout))
		if d.Metadata.Magnitude >= 0 {
			line += fmt.Sprintf("  mag %.1f", d.Metadata.Magnitude)
		}
		style := rowStyle
		if d.Moon.Top {
			style = topStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
		if n.Moon {
			for _, l := range d.Moon.Lines {
				b.WriteString(dimStyle.Render("      " + l))
				b.WriteString("\n")
			}
		}
	}
}

// YearMessage renders the one-line-per-month summary of a year plan.
func YearMessage(loc config.Location, y *plan.YearPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d at %s", y.Name, y.Year, loc)
	for i, d := range y.Months {
		b.WriteString("\n  ")
		if d == nil {
			fmt.Fprintf(&b, "%s: not evaluated", time.Month(i+1).String()[:3])
			continue
		}
		b.WriteString(monthEntry(d))
		if i == y.Best {
			b.WriteString(" *")
		}
	}
	if best := y.BestMonth(); best != nil {
		fmt.Fprintf(&b, "\n\nBest: %s", MonthLabel(best))
	}
	return b.String()
}

func monthEntry(d *plan.DSO) string {
	if !d.Observable() {
		return fmt.Sprintf("%s: invisible", d.Date().Format("02.01"))
	}
	return fmt.Sprintf("%s: %s in %s at %s%s", d.Date().Format("02.01"), altitude(d.Peak.Altitude),
		d.Peak.Direction, d.Peak.Time.Format(clockLayout), d.Moon.Text())
}
