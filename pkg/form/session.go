package form

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/unowned-ai/diary/pkg/entries"
	"github.com/unowned-ai/diary/pkg/imagecodec"
	"github.com/unowned-ai/diary/pkg/location"
	"github.com/unowned-ai/diary/pkg/logging"
)

var (
	ErrSessionClosed = errors.New("form session closed")
	ErrNoResolver    = errors.New("no location resolver configured")
)

type OutcomeKind int

const (
	Committed OutcomeKind = iota + 1
	Cancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case Committed:
		return "committed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is how a session ended. Entry is set only for Committed.
type Outcome struct {
	Kind  OutcomeKind
	Entry entries.Entry
}

// Deps are the collaborators of a form session.
type Deps struct {
	Store    EntryWriter
	Codec    *imagecodec.Codec
	Resolver *location.Resolver
	Defaults Defaults
	Now      func() time.Time
	Logger   logging.Logger
}

// Session owns one draft from the moment a form opens until it is saved or
// cancelled. The launcher learns the result from Done; location lookups
// complete on their own goroutines, hence the mutex.
type Session struct {
	mu       sync.Mutex
	draft    *Draft
	store    EntryWriter
	resolver *location.Resolver
	log      logging.Logger

	closed bool
	ctx    context.Context
	cancel context.CancelFunc
	done   chan Outcome
}

// Begin opens a session editing entry, or creating a new one when entry is
// nil. An unreadable stored photo is logged and replaced by the placeholder.
func Begin(entry *entries.Entry, deps Deps) *Session {
	log := deps.Logger
	if log == nil {
		log = logging.Nop()
	}

	draft, err := NewDraft(entry, deps.Codec, deps.Defaults, deps.Now)
	if err != nil {
		log.Warn(context.Background(), "stored photo unreadable, showing placeholder",
			"entry_id", entry.ID, "error", err)
	}

	return NewSession(draft, deps.Store, deps.Resolver, log)
}

func NewSession(draft *Draft, store EntryWriter, resolver *location.Resolver, log logging.Logger) *Session {
	if log == nil {
		log = logging.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		draft:    draft,
		store:    store,
		resolver: resolver,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan Outcome, 1),
	}
}

// Done delivers the outcome once and is then closed.
func (s *Session) Done() <-chan Outcome { return s.done }

// Closed reports whether the session has ended.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) SetText(text string) error {
	return s.mutate(func(d *Draft) error { d.SetText(text); return nil })
}

func (s *Session) SetPhoto(img image.Image) error {
	return s.mutate(func(d *Draft) error { d.SetPhoto(img); return nil })
}

func (s *Session) SetMood(m entries.Mood) error {
	return s.mutate(func(d *Draft) error { return d.SetMood(m) })
}

func (s *Session) SetLocation(label string) error {
	return s.mutate(func(d *Draft) error { d.SetLocation(label); return nil })
}

// View runs fn with the draft under the session lock. fn must not keep the
// draft or call back into the session.
func (s *Session) View(fn func(d *Draft)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.draft)
}

// Save commits the draft and ends the session. On failure the session stays
// open with the draft intact so the user can retry or cancel.
func (s *Session) Save(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Outcome{}, ErrSessionClosed
	}

	entry, err := s.draft.Commit(ctx, s.store)
	if err != nil {
		s.log.Error(ctx, "save entry failed", "new", s.draft.IsNew(), "error", err)
		return Outcome{}, err
	}

	out := Outcome{Kind: Committed, Entry: entry}
	s.log.Info(ctx, "form saved", "entry_id", entry.ID, "new", s.draft.IsNew())
	s.finish(out)
	return out, nil
}

// Cancel ends the session without touching the store.
func (s *Session) Cancel() (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Outcome{}, ErrSessionClosed
	}

	out := Outcome{Kind: Cancelled}
	s.finish(out)
	s.log.Debug(s.ctx, "form cancelled")
	return out, nil
}

// RequestLocation resolves c asynchronously. A successful label is written
// to the draft if the session is still open when it arrives. The lookup is
// cancelled when ctx is done or the session ends. The returned channel
// receives exactly one result; failures leave the location as it was and
// arrive there as a notice.
func (s *Session) RequestLocation(ctx context.Context, c location.Coordinate) <-chan location.Result {
	out := make(chan location.Result, 1)

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	switch {
	case closed:
		out <- location.Result{Coordinate: c, Err: ErrSessionClosed}
		close(out)
		return out
	case s.resolver == nil:
		out <- location.Result{Coordinate: c, Err: ErrNoResolver}
		close(out)
		return out
	}

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	lookup := s.resolver.Start(ctx, c)

	go func() {
		defer close(out)
		defer cancel()
		defer stop()
		res := lookup.Result()

		s.mu.Lock()
		switch {
		case s.closed || res.Canceled():
			s.log.Debug(s.ctx, "location result dropped", "coordinate", c.String())
		case res.Err != nil:
			s.log.Warn(s.ctx, "location lookup failed", "coordinate", c.String(), "error", res.Err)
		case res.OK:
			s.draft.SetLocation(res.Label)
		}
		s.mu.Unlock()

		out <- res
	}()

	return out
}

// finish must be called with s.mu held.
func (s *Session) finish(out Outcome) {
	s.closed = true
	s.cancel()
	s.done <- out
	close(s.done)
	s.draft.Discard()
}

func (s *Session) mutate(fn func(d *Draft) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return fn(s.draft)
}
