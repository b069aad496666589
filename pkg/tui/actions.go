package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/unowned-ai/diary/pkg/entries"
	"github.com/unowned-ai/diary/pkg/form"
	"github.com/unowned-ai/diary/pkg/location"
)

type entriesLoadedMsg struct {
	entries []entries.Entry
}

// storeErrMsg reports a failed store call. The model keeps whatever it was
// showing before.
type storeErrMsg struct {
	op  string
	err error
}

type entryDeletedMsg struct {
	id uuid.UUID
}

type outcomeMsg struct {
	outcome form.Outcome
}

type locationMsg struct {
	session *form.Session
	result  location.Result
}

// Load all entries from the store
func loadEntries(store *entries.Store) tea.Cmd {
	return func() tea.Msg {
		list, err := store.FetchAll(context.Background())
		if err != nil {
			return storeErrMsg{op: "load entries", err: err}
		}
		return entriesLoadedMsg{entries: list}
	}
}

func deleteEntry(store *entries.Store, id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		if err := store.Delete(context.Background(), id); err != nil {
			return storeErrMsg{op: "delete entry", err: err}
		}
		return entryDeletedMsg{id: id}
	}
}

// Commit the form session; on failure the session stays open
func saveSession(s *form.Session) tea.Cmd {
	return func() tea.Msg {
		out, err := s.Save(context.Background())
		if err != nil {
			return storeErrMsg{op: "save entry", err: err}
		}
		return outcomeMsg{outcome: out}
	}
}

// Start a location lookup on the session and wait for its result
func requestLocation(s *form.Session, here location.Coordinate) tea.Cmd {
	return awaitLocation(s, s.RequestLocation(context.Background(), here))
}

// Wait for an asynchronous location lookup started by the session
func awaitLocation(s *form.Session, ch <-chan location.Result) tea.Cmd {
	return func() tea.Msg {
		return locationMsg{session: s, result: <-ch}
	}
}
