package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Locale decides how ambiguous numeric dates like 03/05/2024 are read.
type Locale string

const (
	// LocaleDMY reads 03/05/2024 as 3 May 2024.
	LocaleDMY Locale = "dmy"
	// LocaleMDY reads 03/05/2024 as March 5, 2024.
	LocaleMDY Locale = "mdy"
)

var numericDate = regexp.MustCompile(`^(\d{1,4})([./\-])(\d{1,2})\2(\d{2,4})$`)

// textualLayouts are the builtin non-numeric date layouts, tried in order.
var textualLayouts = []string{
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2-Jan-2006",
	"Jan. 2, 2006",
}

// ParseDate converts a textual date to canonical form (UTC midnight).
// The lowConfidence return is true when day/month ordering was ambiguous and
// resolved by the locale preference rather than by the digits themselves.
// Extra Go layouts from configuration are tried after the builtin set.
func ParseDate(s string, locale Locale, extraLayouts []string) (time.Time, bool, error) {
	cleaned := strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
	if cleaned == "" {
		return time.Time{}, false, fmt.Errorf("empty date string")
	}

	if m := numericDate.FindStringSubmatch(cleaned); m != nil {
		return parseNumericDate(m, locale)
	}

	for _, layout := range textualLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return midnightUTC(t), false, nil
		}
	}
	for _, layout := range extraLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return midnightUTC(t), false, nil
		}
	}

	return time.Time{}, false, fmt.Errorf("unable to parse date: %s", s)
}

func parseNumericDate(m []string, locale Locale) (time.Time, bool, error) {
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[3])
	c, _ := strconv.Atoi(m[4])

	// Year-first form: 2024-03-05
	if len(m[1]) == 4 {
		return buildDate(a, b, c, false)
	}

	year := expandYear(c, len(m[4]))

	switch {
	case a > 12 && b <= 12:
		// First component can only be a day
		return buildDate(year, b, a, false)
	case b > 12 && a <= 12:
		// Second component can only be a day
		return buildDate(year, a, b, false)
	case a > 12 && b > 12:
		return time.Time{}, false, fmt.Errorf("no valid month in date: %s/%s/%s", m[1], m[3], m[4])
	case a == b:
		// Either reading gives the same date
		return buildDate(year, a, b, false)
	default:
		// Genuinely ambiguous: resolve by locale and record low confidence
		if locale == LocaleMDY {
			t, _, err := buildDate(year, a, b, true)
			return t, err == nil, err
		}
		t, _, err := buildDate(year, b, a, true)
		return t, err == nil, err
	}
}

func buildDate(year, month, day int, low bool) (time.Time, bool, error) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range values; reject anything that moved.
	if int(t.Month()) != month || t.Day() != day || t.Year() != year {
		return time.Time{}, false, fmt.Errorf("invalid calendar date %04d-%02d-%02d", year, month, day)
	}
	return t, low, nil
}

func expandYear(y, digits int) int {
	if digits >= 4 {
		return y
	}
	// Same pivot the time package uses for two-digit years
	if y >= 69 {
		return 1900 + y
	}
	return 2000 + y
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
