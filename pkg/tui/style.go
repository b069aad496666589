package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/unowned-ai/diary/pkg/entries"
)

// Color palette "Blue Moon" from https://gogh-co.github.io/Gogh/
const (
	colorGray     = "#353b52"
	colorWhite    = "#ffffff"
	colorGreen    = "#acfab4"
	colorGreenDim = "#b4c4b4"
	colorRed      = "#e61f44"
	colorRedDim   = "#d06178"
	colorPurple   = "#b9a3eb"
	colorBlue     = "#89ddff"
	colorYellow   = "#ffcb6b"

	marqueeTickDuration = time.Second / 20

	bordersAndPaddingWidth = 4
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color(colorBlue)).
			Background(lipgloss.Color(colorGray)).
			Padding(0, 2).Align(lipgloss.Center)
	subtitleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color(colorBlue))
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGray)).
			Background(lipgloss.Color(colorGreen))
	dangerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(colorGray)).
				Background(lipgloss.Color(colorRed))
	inactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorWhite))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorBlue))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreenDim))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray))
)

// moodStyle colors a mood glyph: red for bad, purple for average, green for good.
func moodStyle(m entries.Mood) lipgloss.Style {
	switch m {
	case entries.MoodBad:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorRedDim))
	case entries.MoodAverage:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorPurple))
	case entries.MoodGood:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen))
	default:
		return dimStyle
	}
}

// Generates pointer symbol when line in focus
func generateLinePointer(isPoint bool, length int) string {
	if isPoint {
		return ">" + strings.Repeat(" ", length-1)
	}
	return strings.Repeat(" ", length)
}

// Scroll text that does not fit, driven by the marquee tick
func (m model) marqueeText(text string, availableWidth int) string {
	r := []rune(text)
	if availableWidth <= 0 || len(r) <= availableWidth {
		return text
	}
	padded := append(append(append([]rune{}, r...), []rune("    ")...), r...)
	offset := m.marqueeOffset % (len(r) + 4)
	return string(padded[offset : offset+availableWidth])
}

// Split the width between the list and the detail pane
func (m model) columnWidths() (int, int) {
	left := (m.width * 45) / 100
	if m.mode == modeForm {
		left = (m.width * 35) / 100
	}
	return left, m.width - left
}
