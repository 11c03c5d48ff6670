package render

import (
	"strconv"
	"time"

	"golang.org/x/text/language"

	"insights-dashboard/internal/dashboard"
)

// localeFormat holds the date conventions of one supported locale.
type localeFormat struct {
	timestampLayout string
	longDate        func(t time.Time) string
}

var hebrewMonths = [12]string{
	"ינואר", "פברואר", "מרץ", "אפריל", "מאי", "יוני",
	"יולי", "אוגוסט", "ספטמבר", "אוקטובר", "נובמבר", "דצמבר",
}

var supportedLocales = []language.Tag{language.Hebrew, language.English}

var localeFormats = []localeFormat{
	{
		timestampLayout: "02.01.2006, 15:04",
		longDate: func(t time.Time) string {
			return strconv.Itoa(t.Day()) + " ב" + hebrewMonths[t.Month()-1] + " " + strconv.Itoa(t.Year())
		},
	},
	{
		timestampLayout: "01/02/2006, 15:04",
		longDate: func(t time.Time) string {
			return t.Format("January 2, 2006")
		},
	},
}

var localeMatcher = language.NewMatcher(supportedLocales)

// Formatter renders timestamps and dates for a locale and time zone.
type Formatter struct {
	locale localeFormat
	loc    *time.Location
}

// NewFormatter creates a formatter for a BCP 47 locale such as "he-IL".
// Unknown or malformed locales fall back to Hebrew; a nil location means UTC.
func NewFormatter(locale string, loc *time.Location) Formatter {
	if loc == nil {
		loc = time.UTC
	}
	idx := 0
	if tag, err := language.Parse(locale); err == nil {
		_, i, conf := localeMatcher.Match(tag)
		if conf != language.No {
			idx = i
		}
	}
	return Formatter{locale: localeFormats[idx], loc: loc}
}

// Timestamp formats raw as a short date and time, or returns raw unchanged
// when it cannot be parsed.
func (f Formatter) Timestamp(raw string) string {
	t, ok := dashboard.ParseTimestamp(raw)
	if !ok {
		return raw
	}
	return t.In(f.loc).Format(f.locale.timestampLayout)
}

// Date formats raw with a long month name, or returns raw unchanged when it
// cannot be parsed.
func (f Formatter) Date(raw string) string {
	t, ok := dashboard.ParseTimestamp(raw)
	if !ok {
		return raw
	}
	if len(raw) > len("2006-01-02") {
		t = t.In(f.loc)
	}
	return f.locale.longDate(t)
}
