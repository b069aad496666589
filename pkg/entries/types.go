package entries

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mood is the single mood rating shared by the store and the form.
// The zero value means no mood was set.
type Mood string

const (
	MoodNone    Mood = ""
	MoodBad     Mood = "bad"
	MoodAverage Mood = "average"
	MoodGood    Mood = "good"
)

// Moods lists the settable moods in display order.
var Moods = []Mood{MoodBad, MoodAverage, MoodGood}

// Valid reports whether m is one of bad, average or good.
func (m Mood) Valid() bool {
	switch m {
	case MoodBad, MoodAverage, MoodGood:
		return true
	}
	return false
}

// IsSet reports whether a mood was chosen.
func (m Mood) IsSet() bool { return m != MoodNone }

func (m Mood) String() string {
	if m == MoodNone {
		return "none"
	}
	return string(m)
}

// ParseMood accepts bad, average, good (any case) or the empty string.
func ParseMood(s string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	if m == MoodNone || m.Valid() {
		return m, nil
	}
	return MoodNone, fmt.Errorf("%w: %q", ErrInvalidMood, s)
}

// Entry is one durable diary record.
type Entry struct {
	ID       uuid.UUID `json:"id"`
	Date     time.Time `json:"date"`
	Text     string    `json:"text"`
	Image    []byte    `json:"image,omitempty"`
	Mood     Mood      `json:"mood,omitempty"`
	Location string    `json:"location,omitempty"`
}

// HasImage reports whether a photo blob is stored.
func (e Entry) HasImage() bool { return len(e.Image) > 0 }
