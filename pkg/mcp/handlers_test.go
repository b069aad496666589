package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unowned-ai/diary/pkg/db"
	"github.com/unowned-ai/diary/pkg/entries"
	"github.com/unowned-ai/diary/pkg/form"
	"github.com/unowned-ai/diary/pkg/imagecodec"
	"github.com/unowned-ai/diary/pkg/location"
)

// heldGeocoder answers only once release is closed and ignores its context.
type heldGeocoder struct {
	release chan struct{}
}

func (g heldGeocoder) ReverseGeocode(ctx context.Context, c location.Coordinate) ([]location.Placemark, error) {
	<-g.release
	return []location.Placemark{{Locality: "Seattle", Region: "WA"}}, nil
}

func newTestBackend(t *testing.T) *Backend {
	t.Helper()

	conn, err := db.OpenDBConnection(":memory:", true, "NORMAL")
	require.NoError(t, err)
	require.NoError(t, db.InitializeSchema(conn, db.TargetSchemaVersion))
	t.Cleanup(func() { conn.Close() })

	now := time.Date(2019, time.January, 15, 8, 0, 0, 0, time.UTC)
	return &Backend{
		Store:    entries.NewStore(conn, entries.WithClock(func() time.Time { return now })),
		Codec:    imagecodec.New(),
		Resolver: location.NewResolver(location.NewGazetteer(location.DefaultPlaces, location.DefaultRadiusKm), nil),
		Defaults: form.DefaultDefaults(),
	}
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()

	req := mcp.CallToolRequest{}
	req.Params.Arguments = args

	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)

	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text, res.IsError
}

func decodeView(t *testing.T, s string) entryView {
	t.Helper()
	var v entryView
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestPing(t *testing.T) {
	out, isErr := call(t, pingHandler, nil)
	assert.False(t, isErr)
	assert.Equal(t, "pong_diary", out)
}

func TestCreateAndListEntries(t *testing.T) {
	b := newTestBackend(t)

	out, isErr := call(t, createEntryHandler(b), map[string]any{
		"text": "Had a great day",
		"mood": "good",
	})
	require.False(t, isErr, out)

	created := decodeView(t, out)
	assert.Equal(t, "Had a great day", created.Text)
	assert.Equal(t, entries.MoodGood, created.Mood)
	assert.Equal(t, "Add location", created.Location)
	assert.True(t, created.HasPhoto, "placeholder photo is stored")
	assert.Equal(t, "Tuesday, January 15, 2019", created.DisplayDate)

	out, isErr = call(t, listEntriesHandler(b), nil)
	require.False(t, isErr, out)

	var list []entryView
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Empty(t, list[0].Photo, "list never inlines photos")
}

func TestListEntries_Empty(t *testing.T) {
	out, isErr := call(t, listEntriesHandler(newTestBackend(t)), nil)
	assert.False(t, isErr)
	assert.Equal(t, "[]", out)
}

func TestCreateEntry_InvalidMood(t *testing.T) {
	b := newTestBackend(t)

	_, isErr := call(t, createEntryHandler(b), map[string]any{"mood": "ecstatic"})
	assert.True(t, isErr)

	n, err := b.Store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateEntry_ResolvesCoordinate(t *testing.T) {
	b := newTestBackend(t)

	out, isErr := call(t, createEntryHandler(b), map[string]any{
		"text":      "coffee",
		"latitude":  47.61,
		"longitude": -122.33,
	})
	require.False(t, isErr, out)
	assert.Equal(t, "Seattle, WA", decodeView(t, out).Location)
}

func TestCreateEntry_CancelledRequestCancelsLookup(t *testing.T) {
	b := newTestBackend(t)
	release := make(chan struct{})
	defer close(release)
	b.Resolver = location.NewResolver(heldGeocoder{release: release}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"text": "late", "latitude": 47.61, "longitude": -122.33}

	done := make(chan *mcp.CallToolResult, 1)
	go func() {
		res, err := createEntryHandler(b)(ctx, req)
		assert.NoError(t, err)
		done <- res
	}()

	select {
	case res := <-done:
		require.NotNil(t, res)
		assert.True(t, res.IsError, "a cancelled request must not save")
	case <-time.After(2 * time.Second):
		t.Fatal("handler waited on the geocoder after the request was cancelled")
	}

	n, err := b.Store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCreateEntry_HalfCoordinate(t *testing.T) {
	_, isErr := call(t, createEntryHandler(newTestBackend(t)), map[string]any{"latitude": 47.61})
	assert.True(t, isErr)
}

func TestCreateEntry_WithPhotoFile(t *testing.T) {
	b := newTestBackend(t)

	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	out, isErr := call(t, createEntryHandler(b), map[string]any{"photo_path": path})
	require.False(t, isErr, out)

	created := decodeView(t, out)
	stored, err := b.Store.Get(context.Background(), created.ID)
	require.NoError(t, err)

	decoded, err := b.Codec.Decode(stored.Image)
	require.NoError(t, err)
	assert.Equal(t, 20, decoded.Bounds().Dx())
	assert.Equal(t, 10, decoded.Bounds().Dy())
}

func TestUpdateEntry_KeepsOmittedFields(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	original, err := b.Store.Create(ctx, "morning", []byte("raw-photo"), entries.MoodAverage, "Portland, OR")
	require.NoError(t, err)

	out, isErr := call(t, updateEntryHandler(b), map[string]any{
		"id":   original.ID.String(),
		"text": "evening",
	})
	require.False(t, isErr, out)

	stored, err := b.Store.Get(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, "evening", stored.Text)
	assert.Equal(t, entries.MoodAverage, stored.Mood)
	assert.Equal(t, "Portland, OR", stored.Location)
	assert.Equal(t, []byte("raw-photo"), stored.Image)
}

func TestUpdateEntry_RemovePhoto(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	original, err := b.Store.Create(ctx, "x", []byte("raw-photo"), entries.MoodNone, "")
	require.NoError(t, err)

	_, isErr := call(t, updateEntryHandler(b), map[string]any{
		"id":           original.ID.String(),
		"remove_photo": true,
	})
	require.False(t, isErr)

	stored, err := b.Store.Get(ctx, original.ID)
	require.NoError(t, err)
	placeholder, err := b.Codec.EncodedPlaceholder()
	require.NoError(t, err)
	assert.Equal(t, placeholder, stored.Image)
}

func TestUpdateEntry_Missing(t *testing.T) {
	_, isErr := call(t, updateEntryHandler(newTestBackend(t)), map[string]any{"id": uuid.NewString()})
	assert.True(t, isErr)

	_, isErr = call(t, updateEntryHandler(newTestBackend(t)), map[string]any{"id": "not-a-uuid"})
	assert.True(t, isErr)
}

func TestGetAndDeleteEntry(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	e, err := b.Store.Create(ctx, "x", []byte{1, 2, 3}, entries.MoodBad, "")
	require.NoError(t, err)

	out, isErr := call(t, getEntryHandler(b), map[string]any{"id": e.ID.String(), "include_photo": true})
	require.False(t, isErr, out)
	v := decodeView(t, out)
	assert.Equal(t, "AQID", v.Photo)
	assert.Equal(t, 3, v.PhotoBytes)

	out, isErr = call(t, deleteEntryHandler(b), map[string]any{"id": e.ID.String()})
	require.False(t, isErr)
	assert.Contains(t, out, "deleted successfully")

	out, isErr = call(t, deleteEntryHandler(b), map[string]any{"id": e.ID.String()})
	assert.False(t, isErr)
	assert.Contains(t, out, "not found")

	_, isErr = call(t, getEntryHandler(b), map[string]any{"id": e.ID.String()})
	assert.True(t, isErr)
}

func TestResolveLocation(t *testing.T) {
	b := newTestBackend(t)

	out, isErr := call(t, resolveLocationHandler(b), map[string]any{"latitude": 45.52, "longitude": -122.68})
	require.False(t, isErr, out)
	assert.Equal(t, "Portland, OR", out)

	out, isErr = call(t, resolveLocationHandler(b), map[string]any{"latitude": 0.0, "longitude": -150.0})
	assert.False(t, isErr)
	assert.Contains(t, out, "No named place")

	_, isErr = call(t, resolveLocationHandler(b), map[string]any{"latitude": 120.0, "longitude": 0.0})
	assert.True(t, isErr)
}

func TestNewDiaryMCPServer(t *testing.T) {
	b := newTestBackend(t)

	conn, err := db.OpenDBConnection(":memory:", true, "NORMAL")
	require.NoError(t, err)

	srv, err := NewDiaryMCPServer(conn, ":memory:", b)
	require.NoError(t, err)
	assert.NotNil(t, srv.MCPRawServer())
	assert.Equal(t, ":memory:", srv.DBPath)
	require.NoError(t, srv.Close())

	_, err = NewDiaryMCPServer(nil, "", b)
	assert.Error(t, err)
}
