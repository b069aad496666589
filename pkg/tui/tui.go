package tui

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/unowned-ai/diary/pkg/entries"
	"github.com/unowned-ai/diary/pkg/form"
	"github.com/unowned-ai/diary/pkg/imagecodec"
	"github.com/unowned-ai/diary/pkg/location"
	"github.com/unowned-ai/diary/pkg/logging"
)

// Deps are the collaborators the TUI drives.
type Deps struct {
	Store    *entries.Store
	Codec    *imagecodec.Codec
	Resolver *location.Resolver
	Defaults form.Defaults
	Logger   logging.Logger
	DBFile   string
	// Here is the position used when the user asks for the current
	// location. Nil disables the lookup.
	Here         *location.Coordinate
	DisplayWidth int
}

type mode int

const (
	modeBrowse mode = iota
	modeForm
	modeConfirmDelete
)

type formField int

const (
	fieldText formField = iota
	fieldLocation
	fieldPhoto
	fieldCount
)

type model struct {
	deps Deps

	entries []entries.Entry
	cursor  int
	loaded  bool

	mode             mode
	deleteConfirmIdx int // 0 = "Yes" selected, 1 = "No"

	session       *form.Session
	field         formField
	textInput     textarea.Model
	locationInput textinput.Model
	photoInput    textinput.Model
	mood          entries.Mood
	locating      bool

	status      string
	statusIsErr bool

	width    int
	height   int
	quitting bool

	// Animation state
	marqueeOffset int
	marqueeTimer  int
}

func initModel(deps Deps) model {
	if deps.Codec == nil {
		deps.Codec = imagecodec.New()
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.DisplayWidth <= 0 {
		deps.DisplayWidth = 320
	}

	text := textarea.New()
	text.Placeholder = deps.Defaults.Text
	text.CharLimit = 0
	text.ShowLineNumbers = false

	loc := textinput.New()
	loc.Placeholder = deps.Defaults.Location
	loc.CharLimit = 256

	photo := textinput.New()
	photo.Placeholder = "path to a JPEG or PNG (empty keeps the current photo)"
	photo.CharLimit = 1024

	return model{
		deps:          deps,
		entries:       []entries.Entry{},
		textInput:     text,
		locationInput: loc,
		photoInput:    photo,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		loadEntries(m.deps.Store),
		tea.Tick(marqueeTickDuration, func(t time.Time) tea.Msg {
			return t
		}),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case entriesLoadedMsg:
		m.entries = msg.entries
		m.loaded = true
		if m.cursor >= len(m.entries) {
			m.cursor = max(0, len(m.entries)-1)
		}
		return m, nil

	case storeErrMsg:
		m.setError(fmt.Sprintf("Could not %s: %v", msg.op, msg.err))
		if errors.Is(msg.err, entries.ErrEntryNotFound) {
			if m.session != nil {
				_, _ = m.session.Cancel()
				m.session = nil
				m.mode = modeBrowse
				m.setError("The entry was deleted elsewhere; changes discarded.")
			}
			return m, loadEntries(m.deps.Store)
		}
		return m, nil

	case entryDeletedMsg:
		m.setNotice("Entry deleted.")
		return m, loadEntries(m.deps.Store)

	case outcomeMsg:
		m.session = nil
		m.mode = modeBrowse
		if msg.outcome.Kind == form.Committed {
			m.setNotice("Saved " + entries.FormatDate(msg.outcome.Entry.Date) + ".")
			return m, loadEntries(m.deps.Store)
		}
		return m, nil

	case locationMsg:
		if msg.session != m.session || m.session == nil {
			return m, nil
		}
		m.locating = false
		res := msg.result
		switch {
		case res.Canceled():
		case res.Err != nil:
			m.setNotice("Location unavailable: " + res.Err.Error())
		case !res.OK:
			m.setNotice("No named place found here.")
		default:
			m.locationInput.SetValue(res.Label)
			m.setNotice("Location set to " + res.Label + ".")
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeForm:
			return m.updateForm(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		default:
			return m.updateBrowse(msg)
		}

	case time.Time:
		m.marqueeTimer++
		if m.marqueeTimer >= 10 {
			m.marqueeTimer = 0
			m.marqueeOffset++
		}
		return m, tea.Tick(marqueeTickDuration, func(t time.Time) tea.Msg {
			return t
		})
	}

	return m, nil
}

func (m model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Sequence(tea.ExitAltScreen, tea.Quit)

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}

	case "r":
		m.clearStatus()
		return m, loadEntries(m.deps.Store)

	case "n":
		return m.openForm(nil)

	case "enter", "e":
		if len(m.entries) > 0 {
			selected := m.entries[m.cursor]
			return m.openForm(&selected)
		}

	case "d":
		if len(m.entries) > 0 {
			m.deleteConfirmIdx = 1
			m.mode = modeConfirmDelete
		}
	}
	return m, nil
}

func (m model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.deleteConfirmIdx = 0
	case "down", "j":
		m.deleteConfirmIdx = 1
	case "enter":
		m.mode = modeBrowse
		if m.deleteConfirmIdx == 0 && len(m.entries) > 0 {
			return m, deleteEntry(m.deps.Store, m.entries[m.cursor].ID)
		}
	case "esc":
		m.mode = modeBrowse
	}
	return m, nil
}

// Start a form session for entry, or for a new entry when nil
func (m model) openForm(entry *entries.Entry) (tea.Model, tea.Cmd) {
	m.session = form.Begin(entry, form.Deps{
		Store:    m.deps.Store,
		Codec:    m.deps.Codec,
		Resolver: m.deps.Resolver,
		Defaults: m.deps.Defaults,
		Logger:   m.deps.Logger,
	})

	m.session.View(func(d *form.Draft) {
		m.textInput.SetValue(d.Text())
		m.locationInput.SetValue(d.Location())
		m.mood = d.Mood()
	})
	m.photoInput.Reset()
	m.locating = false
	m.clearStatus()

	m.mode = modeForm
	m.field = fieldText
	return m, m.focusField()
}

func (m *model) focusField() tea.Cmd {
	m.textInput.Blur()
	m.locationInput.Blur()
	m.photoInput.Blur()
	switch m.field {
	case fieldLocation:
		return m.locationInput.Focus()
	case fieldPhoto:
		return m.photoInput.Focus()
	default:
		return m.textInput.Focus()
	}
}

func (m model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		_, _ = m.session.Cancel()
		m.session = nil
		m.mode = modeBrowse
		m.setNotice("Changes discarded.")
		return m, nil

	case "tab":
		m.field = (m.field + 1) % fieldCount
		return m, m.focusField()

	case "shift+tab":
		m.field = (m.field + fieldCount - 1) % fieldCount
		return m, m.focusField()

	case "f1", "f2", "f3":
		mood := map[string]entries.Mood{"f1": entries.MoodBad, "f2": entries.MoodAverage, "f3": entries.MoodGood}[msg.String()]
		if err := m.session.SetMood(mood); err != nil {
			m.setError(err.Error())
			return m, nil
		}
		m.mood = mood
		return m, nil

	case "ctrl+l":
		if m.deps.Here == nil {
			m.setNotice("No current position configured.")
			return m, nil
		}
		m.locating = true
		m.setNotice("Locating...")
		return m, requestLocation(m.session, *m.deps.Here)

	case "ctrl+s":
		if err := m.pushInputs(); err != nil {
			m.setError(err.Error())
			return m, nil
		}
		return m, saveSession(m.session)
	}

	var cmd tea.Cmd
	switch m.field {
	case fieldLocation:
		m.locationInput, cmd = m.locationInput.Update(msg)
	case fieldPhoto:
		m.photoInput, cmd = m.photoInput.Update(msg)
	default:
		m.textInput, cmd = m.textInput.Update(msg)
	}
	return m, cmd
}

// Copy the input widgets into the session draft
func (m *model) pushInputs() error {
	if err := m.session.SetText(m.textInput.Value()); err != nil {
		return err
	}
	if err := m.session.SetLocation(strings.TrimSpace(m.locationInput.Value())); err != nil {
		return err
	}

	path := strings.TrimSpace(m.photoInput.Value())
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read photo: %w", err)
	}
	photo, err := m.deps.Codec.Decode(data)
	if err != nil {
		return err
	}
	return m.session.SetPhoto(photo)
}

func (m *model) setError(s string) {
	m.status = s
	m.statusIsErr = true
}

func (m *model) setNotice(s string) {
	m.status = s
	m.statusIsErr = false
}

func (m *model) clearStatus() {
	m.status = ""
	m.statusIsErr = false
}

func (m model) View() string {
	if m.quitting {
		return "Closing the diary.\n"
	}

	titleText := "Diary"
	if m.deps.DBFile != "" {
		titleText += " • " + filepath.Base(m.deps.DBFile)
	}
	titleBar := titleStyle.Width(m.width).Render(titleText)
	leftWidth, rightWidth := m.columnWidths()

	listPanel := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(lipgloss.Color(colorGray)).
		Padding(0, 2).
		Width(leftWidth).Height(max(0, m.height-4)).
		Render(m.listView(leftWidth - bordersAndPaddingWidth))

	var right string
	switch m.mode {
	case modeForm:
		right = m.formView(rightWidth - bordersAndPaddingWidth)
	case modeConfirmDelete:
		right = m.confirmDeleteView()
	default:
		right = m.detailView()
	}
	rightPanel := lipgloss.NewStyle().Padding(0, 2).
		Width(rightWidth).Height(max(0, m.height-4)).
		Render(right)

	columns := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, rightPanel)

	status := ""
	if m.status != "" {
		if m.statusIsErr {
			status = errorStyle.Render(m.status)
		} else {
			status = noticeStyle.Render(m.status)
		}
	}

	footerText := "↑/↓ navigate • enter edit • n new • d delete • r reload • q quit"
	if m.mode == modeForm {
		footerText = "tab next field • F1/F2/F3 mood • ctrl+l locate • ctrl+s save • esc cancel"
	}
	footerBar := footerStyle.Width(m.width).Render(footerText)

	return titleBar + "\n\n" + columns + "\n" + status + "\n" + footerBar
}

func (m model) listView(width int) string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("  Entries (%d)", len(m.entries))))
	b.WriteString("\n\n")

	if !m.loaded && len(m.entries) == 0 {
		b.WriteString("  Loading...\n")
		return b.String()
	}
	if len(m.entries) == 0 {
		b.WriteString("  No entries yet. Press 'n' to write one.\n")
		return b.String()
	}

	for i, e := range m.entries {
		row := entries.RowOf(e, 0)
		selected := i == m.cursor && m.mode != modeForm
		pointer := generateLinePointer(selected, 2)
		textWidth := width - len(pointer) - 3

		text := row.Text
		itemStyle := inactiveStyle
		if selected {
			itemStyle = selectedStyle
			text = m.marqueeText(text, textWidth)
		} else {
			text = entries.Truncate(text, textWidth)
		}

		b.WriteString(pointer + moodStyle(e.Mood).Render(row.Mood) + " " + itemStyle.Render(text) + "\n")
		b.WriteString("   " + dimStyle.Render(row.Date+" • "+row.Location) + "\n")
	}
	return b.String()
}

func (m model) detailView() string {
	if len(m.entries) == 0 {
		return "Select an entry to view details."
	}
	e := m.entries[m.cursor]
	row := entries.RowOf(e, 0)

	var b strings.Builder
	b.WriteString(subtitleStyle.Render(row.Date) + "\n\n")
	b.WriteString(labelStyle.Render("Mood: ") + moodStyle(e.Mood).Render(e.Mood.String()) + "\n")
	b.WriteString(labelStyle.Render("Location: ") + inactiveStyle.Render(row.Location) + "\n")
	photo := "none"
	if e.HasImage() {
		photo = fmt.Sprintf("%d KB", (len(e.Image)+1023)/1024)
	}
	b.WriteString(labelStyle.Render("Photo: ") + inactiveStyle.Render(photo) + "\n\n")
	b.WriteString(inactiveStyle.Render(e.Text))
	return b.String()
}

func (m model) formView(width int) string {
	var (
		header   string
		date     time.Time
		photoDim image.Point
		hasPhoto bool
	)
	m.session.View(func(d *form.Draft) {
		header = "New entry"
		if !d.IsNew() {
			header = "Edit entry"
		}
		date = d.Date()
		hasPhoto = d.Photo() != nil
		photoDim = d.DisplaySize(m.deps.DisplayWidth)
	})

	m.textInput.SetWidth(max(10, width))
	m.textInput.SetHeight(6)
	m.locationInput.Width = max(10, width-10)
	m.photoInput.Width = max(10, width-10)

	var b strings.Builder
	b.WriteString(subtitleStyle.Render(header) + "  " + dimStyle.Render(entries.FormatDate(date)) + "\n\n")
	b.WriteString(m.textInput.View() + "\n\n")

	var moods []string
	for i, md := range entries.Moods {
		label := fmt.Sprintf("F%d %s", i+1, md)
		if md == m.mood {
			label = selectedStyle.Render(label)
		} else {
			label = moodStyle(md).Render(label)
		}
		moods = append(moods, label)
	}
	b.WriteString(labelStyle.Render("Mood: ") + strings.Join(moods, "  ") + "\n")

	locLabel := "Location: "
	if m.locating {
		locLabel = "Location (locating): "
	}
	b.WriteString(labelStyle.Render(locLabel) + m.locationInput.View() + "\n")

	photo := "picture icon"
	if hasPhoto {
		photo = fmt.Sprintf("%dx%d at display width", photoDim.X, photoDim.Y)
	}
	b.WriteString(labelStyle.Render("Photo: ") + dimStyle.Render(photo) + "\n")
	b.WriteString(labelStyle.Render("Replace: ") + m.photoInput.View() + "\n")
	return b.String()
}

func (m model) confirmDeleteView() string {
	e := m.entries[m.cursor]
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("Delete Entry") + "\n\n")
	b.WriteString(errorStyle.Render(entries.FormatDate(e.Date)+": "+entries.Truncate(e.Text, 40)) + "\n\n")

	yesOpt, noOpt := "Yes", "No"
	if m.deleteConfirmIdx == 0 {
		yesOpt = dangerSelectedStyle.Render(" >" + yesOpt)
		noOpt = inactiveStyle.Render("  " + noOpt)
	} else {
		yesOpt = inactiveStyle.Render("  " + yesOpt)
		noOpt = selectedStyle.Render(" >" + noOpt)
	}
	b.WriteString(fmt.Sprintf("%s\n%s\n\n", yesOpt, noOpt))
	b.WriteString("(enter to confirm, esc to cancel, up/down to switch)")
	return b.String()
}

// ShowTUI runs the diary TUI until the user quits.
func ShowTUI(deps Deps) error {
	if deps.Store == nil {
		return errors.New("tui needs an entry store")
	}
	p := tea.NewProgram(initModel(deps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
