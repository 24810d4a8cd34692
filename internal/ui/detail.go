package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yetanothergithubaccount/DSObest/internal/night"
)

// SparklineWidth is the fixed width of the altitude sparkline.
const SparklineWidth = 48

// sparklineBlocks are the Unicode block characters for sparkline (0 = lowest, 7 = highest).
var sparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

var (
	altColorLow  = [3]uint8{0x1b, 0x2b, 0x4b}
	altColorMid  = [3]uint8{0x34, 0x78, 0xc0}
	altColorHigh = [3]uint8{0x8b, 0xe9, 0xff}
)

func (m Model) renderDetail() string {
	d := m.Selected()
	if d == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(d.Name))
	if d.Metadata.Known() {
		info := d.Metadata.TypeString()
		if d.Metadata.Magnitude >= 0 {
			info += fmt.Sprintf(", mag %.1f", d.Metadata.Magnitude)
		}
		if d.Metadata.MajorAxis >= 0 {
			info += fmt.Sprintf(", %.1f'x%.1f'", d.Metadata.MajorAxis, d.Metadata.MinorAxis)
		}
		b.WriteString("  " + dimStyle.Render(info))
	}
	b.WriteString("\n")

	b.WriteString(m.renderSparkline(d.Trace, d.Window))
	b.WriteString("\n")

	if d.Peak.Empty {
		b.WriteString(dimStyle.Render("Not above the horizon during nautical darkness"))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(rowStyle.Render(fmt.Sprintf("Peak %.0f° in %s (az %.0f°) at %s, %d dark samples above the floor",
		d.Peak.Altitude, d.Peak.Direction, d.Peak.Azimuth, d.Peak.Time.Format("15:04"), d.Peak.AboveCount)))
	b.WriteString("\n")
	for _, line := range d.Moon.Lines {
		b.WriteString(dimStyle.Render("  " + line))
		b.WriteString("\n")
	}
	return b.String()
}

// renderSparkline renders the object altitude over nautical darkness.
func (m Model) renderSparkline(trace night.Trace, w night.Window) string {
	var dark []float64
	for _, s := range trace.Samples {
		if w.Nautical.Contains(s.Time) {
			dark = append(dark, s.Object.AltDeg)
		}
	}
	samples := resampleAltitude(dark, SparklineWidth)
	if len(samples) == 0 {
		return dimStyle.Render("No darkness samples")
	}

	var sb strings.Builder
	sb.WriteString(dimStyle.Render(w.Nautical.Start.Format("15:04") + " "))
	for _, alt := range samples {
		if math.IsNaN(alt) || alt < 0 {
			alt = 0
		}
		if alt > 90 {
			alt = 90
		}
		t := alt / 90.0

		blockIdx := int(t * 7.0)
		if blockIdx > 7 {
			blockIdx = 7
		}

		r, g, b := interpolateAltColor(t)
		color := fmt.Sprintf("#%02x%02x%02x", r, g, b)
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(string(sparklineBlocks[blockIdx])))
	}
	sb.WriteString(dimStyle.Render(" " + w.Nautical.End.Format("15:04")))
	return sb.String()
}

// interpolateAltColor returns RGB color for altitude value t in [0, 1].
// Gradient: low (dark blue) → mid (blue) → high (cyan).
func interpolateAltColor(t float64) (uint8, uint8, uint8) {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	lerp := func(a, b [3]uint8, s float64) (uint8, uint8, uint8) {
		return uint8(float64(a[0])*(1-s) + float64(b[0])*s),
			uint8(float64(a[1])*(1-s) + float64(b[1])*s),
			uint8(float64(a[2])*(1-s) + float64(b[2])*s)
	}
	if t < 0.5 {
		return lerp(altColorLow, altColorMid, t*2)
	}
	return lerp(altColorMid, altColorHigh, (t-0.5)*2)
}

// resampleAltitude averages altitudes into width buckets.
func resampleAltitude(alts []float64, width int) []float64 {
	if len(alts) == 0 || width <= 0 {
		return nil
	}

	result := make([]float64, width)
	perBucket := float64(len(alts)) / float64(width)

	for i := 0; i < width; i++ {
		start := int(float64(i) * perBucket)
		end := int(float64(i+1) * perBucket)
		if end <= start {
			end = start + 1
		}
		if end > len(alts) {
			end = len(alts)
		}
		if start >= end {
			start = end - 1
		}

		sum := 0.0
		for j := start; j < end; j++ {
			sum += alts[j]
		}
		result[i] = sum / float64(end-start)
	}
	return result
}
