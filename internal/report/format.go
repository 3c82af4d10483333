package report

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	notAvailable = "N/A"
	dateLayout   = "2006-01-02 15:04:05"
)

// FormatRate prints a percentage with up to two decimals and at least one,
// so 70 renders as "70.0" and 66.67 as "66.67".
func FormatRate(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FormatDuration renders seconds as H:MM:SS, wrapping at one day.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	s := seconds % (24 * 3600)
	return fmt.Sprintf("%d:%02d:%02d", s/3600, s%3600/60, s%60)
}

// FormatTime renders a unix timestamp in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func numberOrNA(v *json.Number) string {
	if v == nil || v.String() == "" {
		return notAvailable
	}
	return v.String()
}
