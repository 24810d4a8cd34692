package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/yetanothergithubaccount/DSObest/internal/night"
	"github.com/yetanothergithubaccount/DSObest/internal/plan"
)

// ChartWidth is the default number of columns of an altitude chart.
const ChartWidth = 48

// sparkBlocks are the block characters from lowest to highest.
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// monthColors holds the pastel and solid colour of each month. Solid is
// used when the moon score passes.
var monthColors = [12][2]string{
	{"#C0C0C0", "#708090"},
	{"#F0F8FF", "#00BFFF"},
	{"#FAEBD7", "#D2691E"},
	{"#FFEBCD", "#A0522D"},
	{"#87CEFA", "#4169E1"},
	{"#AFEEEE", "#00CED1"},
	{"#98FB98", "#3CB371"},
	{"#FFA07A", "#FFA500"},
	{"#CD5C5C", "#DC143C"},
	{"#D8BFD8", "#9932CC"},
	{"#7B68EE", "#191970"},
	{"#E6E6FA", "#4B0082"},
}

// MonthColor returns the chart colour for a month.
func MonthColor(m time.Month, passes bool) string {
	if m < time.January || m > time.December {
		if passes {
			return "#9ACD32"
		}
		return "#FFFACD"
	}
	c := monthColors[m-1]
	if passes {
		return c[1]
	}
	return c[0]
}

// MonthLabel is "dd.mm", with the peak time appended when the moon is below
// the horizon.
func MonthLabel(d *plan.DSO) string {
	label := d.Date().Format("02.01")
	if d.Moon.Top && !d.Peak.Time.IsZero() {
		label += d.Peak.Time.Format(" 15:04")
	}
	return label
}

// ChartFileName returns the base name of the year chart of a DSO.
func ChartFileName(name string, year int) string {
	return fmt.Sprintf("DSO_%s_%d", strings.ReplaceAll(name, " ", ""), year)
}

// Sparkline renders altitudes as block characters; 0° and below map to the
// lowest block and 90° to the highest.
func Sparkline(alts []float64) string {
	var sb strings.Builder
	for _, a := range alts {
		sb.WriteRune(sparkBlocks[blockIndex(a)])
	}
	return sb.String()
}

func blockIndex(alt float64) int {
	if math.IsNaN(alt) || alt < 0 {
		alt = 0
	}
	if alt > 90 {
		alt = 90
	}
	idx := int(alt / 90 * 7)
	if idx > 7 {
		idx = 7
	}
	return idx
}

// resample averages object altitudes into width buckets.
func resample(samples []night.Sample, width int) []float64 {
	if len(samples) == 0 || width <= 0 {
		return nil
	}

	result := make([]float64, width)
	perBucket := float64(len(samples)) / float64(width)

	for i := 0; i < width; i++ {
		start, end := bucket(i, perBucket, len(samples))

		sum := 0.0
		for j := start; j < end; j++ {
			sum += samples[j].Object.AltDeg
		}
		result[i] = sum / float64(end-start)
	}
	return result
}

// bucket returns the sample range [start, end) of column i. Every column
// gets at least one sample, so sparse input is stretched rather than
// leaving empty columns.
func bucket(i int, perBucket float64, n int) (int, int) {
	start := int(float64(i) * perBucket)
	end := int(float64(i+1) * perBucket)
	if end <= start {
		end = start + 1
	}
	if end > n {
		end = n
	}
	if start >= end {
		start = end - 1
	}
	return start, end
}

// darkSamples returns the samples strictly inside the nautical interval.
func darkSamples(t night.Trace, w night.Window) []night.Sample {
	var out []night.Sample
	for _, s := range t.Samples {
		if w.Nautical.Contains(s.Time) {
			out = append(out, s)
		}
	}
	return out
}

// chartStyle picks the brightness tier of a DSO from its moon score.
func chartStyle(d *plan.DSO) lipgloss.Style {
	switch {
	case d.Moon.Top:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FF"))
	case d.Moon.Passes:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#3478C0"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#1B2B4B"))
	}
}

// WriteAltitudeChart writes one sparkline per DSO covering its nautical
// night, followed by the peak. DSOs without darkness samples are skipped.
func WriteAltitudeChart(w io.Writer, dsos []*plan.DSO, width int, styled bool) error {
	if width <= 0 {
		width = ChartWidth
	}
	for _, d := range dsos {
		samples := darkSamples(d.Trace, d.Window)
		if len(samples) == 0 {
			continue
		}
		line := Sparkline(resample(samples, width))
		if styled {
			line = chartStyle(d).Render(line)
		}
		peak := "below horizon"
		if d.Observable() {
			peak = fmt.Sprintf("%s° %s at %s", altitude(d.Peak.Altitude), d.Peak.Direction, d.Peak.Time.Format(clockLayout))
		}
		if _, err := fmt.Fprintf(w, "%-10s %s %s-%s  %s\n", d.Name, line,
			samples[0].Time.Format(clockLayout), samples[len(samples)-1].Time.Format(clockLayout), peak); err != nil {
			return err
		}
	}
	return nil
}

// WriteYearChart writes the year of one DSO, a sparkline per month over the
// whole trace in that month's colour. The best month is starred.
func WriteYearChart(w io.Writer, y *plan.YearPlan, width int, styled bool) error {
	if width <= 0 {
		width = ChartWidth
	}
	title := fmt.Sprintf("%s %d", y.Name, y.Year)
	if styled {
		title = titleStyle.Render(title)
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}

	for i, d := range y.Months {
		if d == nil {
			fmt.Fprintf(w, "%-11s %s\n", time.Month(i+1).String()[:3], strings.Repeat(" ", width))
			continue
		}
		line := Sparkline(resample(d.Trace.Samples, width))
		if styled {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(MonthColor(time.Month(i+1), d.Moon.Passes)))
			if !d.Moon.Top {
				style = style.Faint(true)
			}
			line = style.Render(line)
		}
		mark := ""
		if i == y.Best {
			mark = " *"
		}
		peak := "invisible"
		if d.Observable() {
			peak = fmt.Sprintf("%s° %s", altitude(d.Peak.Altitude), d.Peak.Direction)
		}
		fmt.Fprintf(w, "%-11s %s  %s%s\n", MonthLabel(d), line, peak, mark)
	}

	// Axis in hours around midnight, matching the trace span.
	axis := hourAxis(width)
	_, err := fmt.Fprintf(w, "%-11s %s\n", "", axis)
	return err
}

// hourAxis labels the width columns from 12 to 12 via midnight.
func hourAxis(width int) string {
	cells := []rune(strings.Repeat(" ", width))
	for h := -12; h <= 12; h += 6 {
		col := (h + 12) * (width - 1) / 24
		label := fmt.Sprintf("%d", (h+24)%24)
		if col+len(label) > width {
			col = width - len(label)
		}
		for i, r := range label {
			cells[col+i] = r
		}
	}
	return string(cells)
}
