package entries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRowOf(t *testing.T) {
	e := Entry{
		Date: time.Date(2019, time.January, 15, 20, 0, 0, 0, time.UTC),
		Text: "Walked to the\n\nlake   and back",
		Mood: MoodGood,
	}

	row := RowOf(e, 0)
	assert.Equal(t, "Tuesday, January 15, 2019", row.Date)
	assert.Equal(t, ":)", row.Mood)
	assert.Equal(t, "Walked to the lake and back", row.Text)
	assert.Equal(t, LocationPrompt, row.Location)
	assert.False(t, row.HasPhoto)

	e.Location = "Riga, Riga"
	e.Image = []byte{1}
	row = RowOf(e, 10)
	assert.Equal(t, "Walked ...", row.Text)
	assert.Equal(t, "Riga, Riga", row.Location)
	assert.True(t, row.HasPhoto)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a bit longer than that", 10, "a bit l..."},
		{"abcdef", 3, "abc"},
		{"žšķūņļē", 5, "žš..."},
		{"  spaced   out  ", 0, "spaced out"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, Truncate(tc.in, tc.max), "Truncate(%q, %d)", tc.in, tc.max)
	}
}

func TestMoodGlyph(t *testing.T) {
	assert.Equal(t, ":(", MoodGlyph(MoodBad))
	assert.Equal(t, ":|", MoodGlyph(MoodAverage))
	assert.Equal(t, ":)", MoodGlyph(MoodGood))
	assert.Equal(t, "  ", MoodGlyph(MoodNone))
}
