package mcp

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/unowned-ai/diary/pkg/entries"
	"github.com/unowned-ai/diary/pkg/imagecodec"
	"github.com/unowned-ai/diary/pkg/location"
)

// entryView is the JSON shape tools return. The photo is only inlined on
// request since it can be large.
type entryView struct {
	ID          uuid.UUID    `json:"id"`
	Date        string       `json:"date"`
	DisplayDate string       `json:"display_date"`
	Text        string       `json:"text"`
	Mood        entries.Mood `json:"mood,omitempty"`
	Location    string       `json:"location,omitempty"`
	HasPhoto    bool         `json:"has_photo"`
	PhotoBytes  int          `json:"photo_bytes,omitempty"`
	Photo       string       `json:"photo_base64,omitempty"`
}

func newEntryView(e entries.Entry, includePhoto bool) entryView {
	v := entryView{
		ID:          e.ID,
		Date:        e.Date.Format(time.RFC3339),
		DisplayDate: entries.FormatDate(e.Date),
		Text:        e.Text,
		Mood:        e.Mood,
		Location:    e.Location,
		HasPhoto:    e.HasImage(),
		PhotoBytes:  len(e.Image),
	}
	if includePhoto && e.HasImage() {
		v.Photo = base64.StdEncoding.EncodeToString(e.Image)
	}
	return v
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize result to JSON: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

func stringArg(req mcp.CallToolRequest, name string) (string, bool) {
	v, ok := req.Params.Arguments[name].(string)
	return v, ok
}

func boolArg(req mcp.CallToolRequest, name string) bool {
	v, _ := req.Params.Arguments[name].(bool)
	return v
}

func numberArg(req mcp.CallToolRequest, name string) (float64, bool) {
	v, ok := req.Params.Arguments[name].(float64)
	return v, ok
}

func entryIDArg(req mcp.CallToolRequest) (uuid.UUID, error) {
	raw, ok := stringArg(req, "id")
	if !ok || raw == "" {
		return uuid.Nil, fmt.Errorf("'id' parameter is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid entry id %q: %w", raw, err)
	}
	return id, nil
}

// coordinateArg reads latitude and longitude. ok is false when neither was
// given; giving only one is an error.
func coordinateArg(req mcp.CallToolRequest) (c location.Coordinate, ok bool, err error) {
	lat, hasLat := numberArg(req, "latitude")
	lng, hasLng := numberArg(req, "longitude")
	switch {
	case !hasLat && !hasLng:
		return location.Coordinate{}, false, nil
	case hasLat != hasLng:
		return location.Coordinate{}, false, fmt.Errorf("'latitude' and 'longitude' must be given together")
	}
	return location.Coordinate{Latitude: lat, Longitude: lng}, true, nil
}

// readPhoto loads and decodes the image file at path.
func readPhoto(codec *imagecodec.Codec, path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	return codec.Decode(data)
}
