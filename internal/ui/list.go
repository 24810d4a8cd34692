package ui

import (
	"fmt"
	"strings"
)

func (m Model) renderList() string {
	var b strings.Builder

	header := fmt.Sprintf("%-13s %-10s %5s %-3s %-5s %-5s", "Section", "DSO", "Alt", "Dir", "Time", "Moon")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString("  No DSOs\n")
		return b.String()
	}

	// Leave room for header, detail panel and footer
	maxRows := m.height - 16
	if maxRows < 5 {
		maxRows = 5
	}

	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}
	end := start + maxRows
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := start; i < end; i++ {
		r := m.rows[i]
		d := r.dso

		at := "--:--"
		if !d.Peak.Time.IsZero() {
			at = d.Peak.Time.Format("15:04")
		}
		line := fmt.Sprintf("%-13s %-10s %4.0f° %-3s %-5s %-5s",
			r.bucket, truncate(d.Name, 10), d.Peak.Altitude, d.Peak.Direction, at, moonBadge(r))

		switch {
		case i == m.cursor:
			b.WriteString(selectedRowStyle.Render(line))
		case r.bucket == BucketInvisible:
			b.WriteString(dimStyle.Render(line))
		case d.Moon.Top:
			b.WriteString(topStyle.Render(line))
		default:
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if len(m.rows) > maxRows {
		b.WriteString(fmt.Sprintf("\n  Showing %d-%d of %d DSOs\n", start+1, end, len(m.rows)))
	}
	return b.String()
}

func moonBadge(r row) string {
	switch {
	case r.bucket == BucketInvisible:
		return ""
	case r.dso.Moon.Top:
		return "top"
	case r.dso.Moon.Passes:
		return "ok"
	default:
		return "-"
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
