package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/unowned-ai/diary/pkg/logging"
)

const (
	createEntryStatement = `
	INSERT INTO entries (id, date, text, image, mood, location)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	getEntryStatement = `
	SELECT id, date, text, image, mood, location
	FROM entries
	WHERE id = ?
	`

	listEntriesStatement = `
	SELECT id, date, text, image, mood, location
	FROM entries
	ORDER BY date ASC, seq ASC
	`

	updateEntryStatement = `
	UPDATE entries
	SET text = ?, image = ?, mood = ?, location = ?
	WHERE id = ?
	`

	deleteEntryStatement = `
	DELETE FROM entries
	WHERE id = ?
	`

	countEntriesStatement = `SELECT COUNT(*) FROM entries`
)

// DBTX is the subset of database/sql used by the store.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persists entries in the local SQLite database. It assumes a single
// writer; see db.OpenDBConnection.
type Store struct {
	db  *sql.DB
	now func() time.Time
	log logging.Logger
}

type StoreOption func(*Store)

// WithClock overrides the clock used to stamp creation dates.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func WithLogger(l logging.Logger) StoreOption {
	return func(s *Store) { s.log = l }
}

func NewStore(db *sql.DB, opts ...StoreOption) *Store {
	s := &Store{db: db, now: time.Now, log: logging.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchAll returns every entry ordered by date, oldest first. Entries with
// the same date keep their insertion order. An empty store yields an empty
// slice.
func (s *Store) FetchAll(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, listEntriesStatement)
	if err != nil {
		return nil, storageErr("fetch all", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, storageErr("fetch all", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, storageErr("fetch all", err)
	}

	return entries, nil
}

// Get retrieves a single entry by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	return getEntry(ctx, s.db, id)
}

// Create stores a new entry stamped with the current time.
func (s *Store) Create(ctx context.Context, text string, image []byte, mood Mood, location string) (Entry, error) {
	if mood != MoodNone && !mood.Valid() {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidMood, string(mood))
	}

	id := uuid.New()
	date := time.UnixMicro(s.now().UnixMicro())

	_, err := s.db.ExecContext(
		ctx,
		createEntryStatement,
		id.String(),
		date.UnixMicro(),
		text,
		nullBytes(image),
		nullString(string(mood)),
		nullString(location),
	)
	if err != nil {
		return Entry{}, storageErr("create", err)
	}

	s.log.Info(ctx, "entry created", "id", id, "mood", mood.String())

	return s.Get(ctx, id)
}

// Update overwrites text, image, mood and location of the entry with the
// given id. An empty image, mood or location clears the stored value; nothing
// is merged from the previous record. ID and Date never change.
func (s *Store) Update(ctx context.Context, id uuid.UUID, text string, image []byte, mood Mood, location string) (Entry, error) {
	if mood != MoodNone && !mood.Valid() {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidMood, string(mood))
	}

	var updated Entry
	err := withTx(ctx, s.db, func(ctx context.Context, tx DBTX) error {
		res, err := tx.ExecContext(
			ctx,
			updateEntryStatement,
			text,
			nullBytes(image),
			nullString(string(mood)),
			nullString(location),
			id.String(),
		)
		if err != nil {
			return storageErr("update", err)
		}

		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return storageErr("update", err)
		}
		if rowsAffected == 0 {
			return ErrEntryNotFound
		}

		updated, err = getEntry(ctx, tx, id)
		return err
	})
	if err != nil {
		return Entry{}, err
	}

	s.log.Info(ctx, "entry updated", "id", id, "mood", updated.Mood.String())
	return updated, nil
}

// Delete removes the entry permanently. Deleting an id that is already gone
// fails with ErrEntryNotFound.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, deleteEntryStatement, id.String())
	if err != nil {
		return storageErr("delete", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return storageErr("delete", err)
	}

	if rowsAffected == 0 {
		return ErrEntryNotFound
	}

	s.log.Info(ctx, "entry deleted", "id", id)
	return nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, countEntriesStatement).Scan(&n); err != nil {
		return 0, storageErr("count", err)
	}
	return n, nil
}

func getEntry(ctx context.Context, db DBTX, id uuid.UUID) (Entry, error) {
	entry, err := scanEntry(db.QueryRowContext(ctx, getEntryStatement, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, storageErr("get", err)
	}
	return entry, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		entry    Entry
		rawID    string
		dateUS   int64
		image    []byte
		mood     sql.NullString
		location sql.NullString
	)

	if err := row.Scan(&rawID, &dateUS, &entry.Text, &image, &mood, &location); err != nil {
		return Entry{}, err
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return Entry{}, fmt.Errorf("parse entry id %q: %w", rawID, err)
	}

	entry.ID = id
	entry.Date = time.UnixMicro(dateUS)
	if len(image) > 0 {
		entry.Image = image
	}
	entry.Mood = Mood(mood.String)
	entry.Location = location.String

	return entry, nil
}

// withTx runs fn inside a transaction, committing on success and rolling back
// on error or panic.
func withTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = storageErr("commit", cerr)
		}
	}()

	err = fn(ctx, tx)
	return err
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
