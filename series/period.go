package series

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	yearOnly  = regexp.MustCompile(`^\d{4}$`)
	quarterly = regexp.MustCompile(`^(\d{4})-Q([1-4])$`)
	semester  = regexp.MustCompile(`^(\d{4})-S([1-2])$`)
	weekly    = regexp.MustCompile(`^(\d{4})-W(\d{1,2})$`)
)

var periodLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"2006-01",
}

// ParsePeriod converts an SDMX TIME_PERIOD value into a UTC timestamp at the
// start of the period. Annual, semestral, quarterly, monthly, weekly, daily
// and datetime forms are recognised. An unparseable value yields the zero
// time, never an error: a series with a malformed period still fetches.
func ParsePeriod(raw string) time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}
	}

	if yearOnly.MatchString(s) {
		year, _ := strconv.Atoi(s)
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	if m := quarterly.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		q, _ := strconv.Atoi(m[2])
		return time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	}
	if m := semester.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		half, _ := strconv.Atoi(m[2])
		return time.Date(year, time.Month((half-1)*6+1), 1, 0, 0, 0, 0, time.UTC)
	}
	if m := weekly.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		week, _ := strconv.Atoi(m[2])
		if week >= 1 && week <= 53 {
			return isoWeekStart(year, week)
		}
		return time.Time{}
	}

	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// isoWeekStart returns the Monday beginning ISO week n of the given year.
// January 4th is always inside week 1.
func isoWeekStart(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := jan4.AddDate(0, 0, 1-weekday)
	return monday.AddDate(0, 0, (week-1)*7)
}
