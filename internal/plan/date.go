package plan

import (
	"fmt"
	"strings"
	"time"
)

var dateLayouts = []string{"02.01.2006", "2006-01-02"}

// ParseDate parses an evening date as DD.MM.YYYY or YYYY-MM-DD in tz. An
// empty string is today in tz.
func ParseDate(s string, tz *time.Location, now time.Time) (time.Time, error) {
	if tz == nil {
		tz = time.UTC
	}
	s = strings.TrimSpace(s)
	if s == "" {
		n := now.In(tz)
		return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, tz), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, tz); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want DD.MM.YYYY or YYYY-MM-DD)", s)
}
