package form

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/unowned-ai/diary/pkg/entries"
	"github.com/unowned-ai/diary/pkg/imagecodec"
)

var ErrDraftDiscarded = errors.New("draft discarded")

// Defaults are the values a commit substitutes for fields left empty.
type Defaults struct {
	Text     string
	Location string
}

// DefaultDefaults returns the stock placeholders.
func DefaultDefaults() Defaults {
	return Defaults{Text: "No text", Location: entries.LocationPrompt}
}

// EntryWriter is the part of entries.Store a draft commits through.
type EntryWriter interface {
	Create(ctx context.Context, text string, image []byte, mood entries.Mood, location string) (entries.Entry, error)
	Update(ctx context.Context, id uuid.UUID, text string, image []byte, mood entries.Mood, location string) (entries.Entry, error)
}

// Draft buffers the edits of one form. Nothing is persisted until Commit.
// A Draft is not safe for concurrent use; Session adds the locking.
type Draft struct {
	source   *entries.Entry
	codec    *imagecodec.Codec
	defaults Defaults

	date     time.Time
	text     string
	photo    image.Image
	mood     entries.Mood
	location string

	// storedImage holds the source bytes until the photo is replaced, so an
	// untouched photo is written back unchanged.
	storedImage  []byte
	photoTouched bool
	discarded    bool
}

// NewDraft starts a draft. With a non-nil entry the draft edits it and is
// seeded from its fields; otherwise it creates a new entry dated now().
//
// The draft is always usable. When the stored photo cannot be decoded the
// draft shows the placeholder instead and the *imagecodec.DecodeError is
// returned alongside it so the caller can log it.
func NewDraft(entry *entries.Entry, codec *imagecodec.Codec, defaults Defaults, now func() time.Time) (*Draft, error) {
	if codec == nil {
		codec = imagecodec.New()
	}
	if now == nil {
		now = time.Now
	}

	d := &Draft{codec: codec, defaults: defaults}

	if entry == nil {
		d.date = now()
		return d, nil
	}

	src := *entry
	d.source = &src
	d.date = src.Date
	d.text = src.Text
	d.mood = src.Mood
	d.location = src.Location

	if !src.HasImage() {
		return d, nil
	}

	d.storedImage = src.Image
	photo, err := codec.DecodeOrPlaceholder(src.Image)
	d.photo = photo
	return d, err
}

func (d *Draft) SetText(text string) { d.text = text }

// SetPhoto replaces the photo. A nil image removes it.
func (d *Draft) SetPhoto(img image.Image) {
	d.photo = img
	d.photoTouched = true
	d.storedImage = nil
}

// SetMood selects one of bad, average or good, deselecting the others.
func (d *Draft) SetMood(m entries.Mood) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", entries.ErrInvalidMood, string(m))
	}
	d.mood = m
	return nil
}

func (d *Draft) SetLocation(label string) { d.location = label }

func (d *Draft) Text() string           { return d.text }
func (d *Draft) Photo() image.Image     { return d.photo }
func (d *Draft) Mood() entries.Mood     { return d.mood }
func (d *Draft) Location() string       { return d.location }
func (d *Draft) Date() time.Time        { return d.date }
func (d *Draft) IsNew() bool            { return d.source == nil }
func (d *Draft) Source() *entries.Entry { return d.source }

// DisplayPhoto returns the photo, or the placeholder when there is none,
// scaled to width.
func (d *Draft) DisplayPhoto(width int) image.Image {
	img := d.photo
	if img == nil {
		img = d.codec.Placeholder()
	}
	return d.codec.ScaleToDisplayWidth(img, width)
}

// DisplaySize is the size DisplayPhoto(width) returns, worked out from the
// photo bounds alone. Views that only need dimensions should use it.
func (d *Draft) DisplaySize(width int) image.Point {
	img := d.photo
	if img == nil {
		img = d.codec.Placeholder()
	}
	return imagecodec.DisplaySize(img.Bounds(), width)
}

// Commit writes the draft through store: Update for an edited entry, Create
// otherwise. Empty text and location become the defaults and a missing
// photo becomes the placeholder icon. An unset mood stays unset.
func (d *Draft) Commit(ctx context.Context, store EntryWriter) (entries.Entry, error) {
	if d.discarded {
		return entries.Entry{}, ErrDraftDiscarded
	}

	text := d.text
	if text == "" {
		text = d.defaults.Text
	}

	location := d.location
	if location == "" {
		location = d.defaults.Location
	}

	imageData, err := d.imageBytes()
	if err != nil {
		return entries.Entry{}, err
	}

	if d.source != nil {
		return store.Update(ctx, d.source.ID, text, imageData, d.mood, location)
	}
	return store.Create(ctx, text, imageData, d.mood, location)
}

// Discard drops the buffered edits. Later commits fail with ErrDraftDiscarded.
func (d *Draft) Discard() {
	d.discarded = true
	d.photo = nil
	d.storedImage = nil
}

func (d *Draft) imageBytes() ([]byte, error) {
	if !d.photoTouched && len(d.storedImage) > 0 {
		return d.storedImage, nil
	}

	if d.photo == nil {
		placeholder, err := d.codec.EncodedPlaceholder()
		if err != nil {
			return nil, fmt.Errorf("encode placeholder: %w", err)
		}
		return placeholder, nil
	}

	data, err := d.codec.Encode(d.photo)
	if err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return data, nil
}
