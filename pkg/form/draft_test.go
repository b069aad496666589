package form

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unowned-ai/diary/pkg/db"
	"github.com/unowned-ai/diary/pkg/entries"
	"github.com/unowned-ai/diary/pkg/imagecodec"
)

var fixedNow = time.Date(2019, time.January, 15, 20, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newTestStore(t *testing.T) *entries.Store {
	t.Helper()

	conn, err := db.OpenDBConnection(":memory:", true, "NORMAL")
	require.NoError(t, err)
	require.NoError(t, db.InitializeSchema(conn, db.TargetSchemaVersion))
	t.Cleanup(func() { conn.Close() })

	return entries.NewStore(conn, entries.WithClock(clock))
}

type writeCall struct {
	op       string
	id       uuid.UUID
	text     string
	image    []byte
	mood     entries.Mood
	location string
}

// recordingWriter captures commits and optionally fails them.
type recordingWriter struct {
	calls []writeCall
	err   error
}

func (w *recordingWriter) Create(ctx context.Context, text string, image []byte, mood entries.Mood, location string) (entries.Entry, error) {
	w.calls = append(w.calls, writeCall{op: "create", text: text, image: image, mood: mood, location: location})
	if w.err != nil {
		return entries.Entry{}, w.err
	}
	return entries.Entry{ID: uuid.New(), Date: fixedNow, Text: text, Image: image, Mood: mood, Location: location}, nil
}

func (w *recordingWriter) Update(ctx context.Context, id uuid.UUID, text string, image []byte, mood entries.Mood, location string) (entries.Entry, error) {
	w.calls = append(w.calls, writeCall{op: "update", id: id, text: text, image: image, mood: mood, location: location})
	if w.err != nil {
		return entries.Entry{}, w.err
	}
	return entries.Entry{ID: id, Date: fixedNow, Text: text, Image: image, Mood: mood, Location: location}, nil
}

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestNewDraft_Create(t *testing.T) {
	d, err := NewDraft(nil, imagecodec.New(), DefaultDefaults(), clock)
	require.NoError(t, err)

	assert.True(t, d.IsNew())
	assert.Nil(t, d.Source())
	assert.Equal(t, fixedNow, d.Date())
	assert.Empty(t, d.Text())
	assert.Nil(t, d.Photo())
	assert.Equal(t, entries.MoodNone, d.Mood())
	assert.Empty(t, d.Location())
}

func TestCommit_NewEntryWithDefaults(t *testing.T) {
	store := newTestStore(t)
	codec := imagecodec.New()

	d, err := NewDraft(nil, codec, DefaultDefaults(), clock)
	require.NoError(t, err)

	d.SetText("Had a great day")
	require.NoError(t, d.SetMood(entries.MoodGood))

	entry, err := d.Commit(context.Background(), store)
	require.NoError(t, err)

	placeholder, err := codec.EncodedPlaceholder()
	require.NoError(t, err)

	assert.Equal(t, "Had a great day", entry.Text)
	assert.Equal(t, entries.MoodGood, entry.Mood)
	assert.Equal(t, "Add location", entry.Location)
	assert.Equal(t, placeholder, entry.Image)
	assert.True(t, entry.Date.Equal(fixedNow))

	all, err := store.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, entry, all[0])
}

func TestCommit_EmptyDraftKeepsMoodUnset(t *testing.T) {
	w := &recordingWriter{}
	d, err := NewDraft(nil, imagecodec.New(), DefaultDefaults(), clock)
	require.NoError(t, err)

	_, err = d.Commit(context.Background(), w)
	require.NoError(t, err)

	require.Len(t, w.calls, 1)
	call := w.calls[0]
	assert.Equal(t, "create", call.op)
	assert.Equal(t, "No text", call.text)
	assert.Equal(t, "Add location", call.location)
	assert.Equal(t, entries.MoodNone, call.mood)
	assert.NotEmpty(t, call.image)
}

func TestCommit_CustomDefaults(t *testing.T) {
	w := &recordingWriter{}
	d, err := NewDraft(nil, imagecodec.New(), Defaults{Text: "(empty)", Location: "Somewhere"}, clock)
	require.NoError(t, err)

	_, err = d.Commit(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, "(empty)", w.calls[0].text)
	assert.Equal(t, "Somewhere", w.calls[0].location)
}

func TestSetMood_IsExclusive(t *testing.T) {
	d, err := NewDraft(nil, imagecodec.New(), DefaultDefaults(), clock)
	require.NoError(t, err)

	for _, m := range []entries.Mood{entries.MoodBad, entries.MoodAverage, entries.MoodGood, entries.MoodBad} {
		require.NoError(t, d.SetMood(m))
		assert.Equal(t, m, d.Mood())
	}

	err = d.SetMood(entries.Mood("great"))
	assert.ErrorIs(t, err, entries.ErrInvalidMood)
	assert.Equal(t, entries.MoodBad, d.Mood(), "rejected mood leaves the selection alone")

	err = d.SetMood(entries.MoodNone)
	assert.ErrorIs(t, err, entries.ErrInvalidMood)
}

func TestCommit_EditUpdatesSameEntry(t *testing.T) {
	store := newTestStore(t)
	codec := imagecodec.New()
	ctx := context.Background()

	photo, err := codec.Encode(solidImage(16, 16, color.RGBA{R: 10, G: 120, B: 200, A: 255}))
	require.NoError(t, err)

	original, err := store.Create(ctx, "first draft", photo, entries.MoodAverage, "Seattle, WA")
	require.NoError(t, err)

	d, err := NewDraft(&original, codec, DefaultDefaults(), clock)
	require.NoError(t, err)

	assert.False(t, d.IsNew())
	assert.Equal(t, original.ID, d.Source().ID)
	assert.Equal(t, "first draft", d.Text())
	assert.Equal(t, entries.MoodAverage, d.Mood())
	assert.Equal(t, "Seattle, WA", d.Location())
	require.NotNil(t, d.Photo())
	assert.Equal(t, 16, d.Photo().Bounds().Dx())

	d.SetText("second draft")
	updated, err := d.Commit(ctx, store)
	require.NoError(t, err)

	assert.Equal(t, original.ID, updated.ID)
	assert.True(t, original.Date.Equal(updated.Date))
	assert.Equal(t, "second draft", updated.Text)
	assert.Equal(t, photo, updated.Image, "untouched photo is written back byte for byte")

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCommit_EditReplacedPhotoIsReencoded(t *testing.T) {
	codec := imagecodec.New()
	w := &recordingWriter{}
	source := entries.Entry{ID: uuid.New(), Date: fixedNow, Text: "x", Image: []byte("old")}

	d, _ := NewDraft(&source, codec, DefaultDefaults(), clock)
	d.SetPhoto(solidImage(8, 8, color.White))

	_, err := d.Commit(context.Background(), w)
	require.NoError(t, err)

	img, err := codec.Decode(w.calls[0].image)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestCommit_EditRemovedPhotoBecomesPlaceholder(t *testing.T) {
	codec := imagecodec.New()
	w := &recordingWriter{}
	photo, err := codec.Encode(solidImage(8, 8, color.Black))
	require.NoError(t, err)
	source := entries.Entry{ID: uuid.New(), Date: fixedNow, Image: photo}

	d, err := NewDraft(&source, codec, DefaultDefaults(), clock)
	require.NoError(t, err)
	d.SetPhoto(nil)

	_, err = d.Commit(context.Background(), w)
	require.NoError(t, err)

	placeholder, err := codec.EncodedPlaceholder()
	require.NoError(t, err)
	assert.Equal(t, "update", w.calls[0].op)
	assert.Equal(t, placeholder, w.calls[0].image)
}

func TestNewDraft_UnreadablePhotoFallsBack(t *testing.T) {
	codec := imagecodec.New()
	source := entries.Entry{ID: uuid.New(), Date: fixedNow, Text: "broken", Image: []byte("not a jpeg")}

	d, err := NewDraft(&source, codec, DefaultDefaults(), clock)
	require.NotNil(t, d)

	var decodeErr *imagecodec.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Same(t, codec.Placeholder(), d.Photo())

	w := &recordingWriter{}
	_, err = d.Commit(context.Background(), w)
	require.NoError(t, err)
	assert.Equal(t, []byte("not a jpeg"), w.calls[0].image, "stored bytes are kept while untouched")
}

func TestNewDraft_SeedsPlaceholderStringsVerbatim(t *testing.T) {
	source := entries.Entry{ID: uuid.New(), Date: fixedNow, Text: "No text", Location: "Add location"}

	d, err := NewDraft(&source, imagecodec.New(), DefaultDefaults(), clock)
	require.NoError(t, err)
	assert.Equal(t, "No text", d.Text())
	assert.Equal(t, "Add location", d.Location())
}

func TestDisplayPhoto(t *testing.T) {
	d, err := NewDraft(nil, imagecodec.New(), DefaultDefaults(), clock)
	require.NoError(t, err)

	img := d.DisplayPhoto(32)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy(), "placeholder is square")

	d.SetPhoto(solidImage(100, 50, color.White))
	img = d.DisplayPhoto(40)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
}

func TestDisplaySize_MatchesDisplayPhoto(t *testing.T) {
	d, err := NewDraft(nil, imagecodec.New(), DefaultDefaults(), clock)
	require.NoError(t, err)
	assert.Equal(t, d.DisplayPhoto(32).Bounds().Size(), d.DisplaySize(32))

	d.SetPhoto(image.NewRGBA(image.Rect(0, 0, 4032, 3024)))
	assert.Equal(t, image.Pt(320, 240), d.DisplaySize(320))
	assert.Equal(t, image.Pt(4032, 3024), d.DisplaySize(0))
}

func TestCommit_StoreErrorPropagates(t *testing.T) {
	storageErr := &entries.StorageError{Op: "create", Err: errors.New("disk full")}
	w := &recordingWriter{err: storageErr}

	d, err := NewDraft(nil, imagecodec.New(), DefaultDefaults(), clock)
	require.NoError(t, err)

	_, err = d.Commit(context.Background(), w)
	assert.ErrorIs(t, err, entries.ErrStorage)
}

func TestDiscard(t *testing.T) {
	w := &recordingWriter{}
	d, err := NewDraft(nil, imagecodec.New(), DefaultDefaults(), clock)
	require.NoError(t, err)

	d.SetText("never saved")
	d.Discard()

	_, err = d.Commit(context.Background(), w)
	assert.ErrorIs(t, err, ErrDraftDiscarded)
	assert.Empty(t, w.calls)
}
