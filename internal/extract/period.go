package extract

import (
	"regexp"
	"strings"
	"time"
)

var rePeriod = regexp.MustCompile(`(?i)\((\w+)\s+(\d{4})\)`)

var months = map[string]string{
	"january":   "01",
	"february":  "02",
	"march":     "03",
	"april":     "04",
	"may":       "05",
	"june":      "06",
	"july":      "07",
	"august":    "08",
	"september": "09",
	"october":   "10",
	"november":  "11",
	"december":  "12",
}

// Period returns the YYYY-MM a thread covers. It reads "(Month YYYY)" from
// the title and falls back to the UTC year and month of fallback when the
// title has no recognisable month.
func Period(title string, fallback time.Time) string {
	if m := rePeriod.FindStringSubmatch(title); m != nil {
		if mm, ok := months[strings.ToLower(m[1])]; ok {
			return m[2] + "-" + mm
		}
	}
	return fallback.UTC().Format("2006-01")
}
