package entries

import (
	"strings"
	"time"
)

// LocationPrompt is shown in place of a location that was never set.
const LocationPrompt = "Add location"

// FormatDate renders the long date shown on list rows and the form header,
// e.g. "Tuesday, January 15, 2019".
func FormatDate(t time.Time) string {
	return t.Format("Monday, January 2, 2006")
}

// MoodGlyph returns a short symbol for a mood, or a blank for an unset one.
func MoodGlyph(m Mood) string {
	switch m {
	case MoodBad:
		return ":("
	case MoodAverage:
		return ":|"
	case MoodGood:
		return ":)"
	default:
		return "  "
	}
}

// Row is the list presentation of an entry.
type Row struct {
	Date     string
	Mood     string
	Text     string
	Location string
	HasPhoto bool
}

// RowOf builds the list row for e. Text is collapsed to a single line and
// cut to maxText runes when maxText > 0.
func RowOf(e Entry, maxText int) Row {
	location := e.Location
	if location == "" {
		location = LocationPrompt
	}
	return Row{
		Date:     FormatDate(e.Date),
		Mood:     MoodGlyph(e.Mood),
		Text:     Truncate(e.Text, maxText),
		Location: location,
		HasPhoto: e.HasImage(),
	}
}

// Truncate collapses whitespace runs to single spaces and shortens s to max
// runes, ending with "..." when cut. max <= 0 disables cutting.
func Truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
