package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/unowned-ai/diary/pkg/entries"
	"github.com/unowned-ai/diary/pkg/form"
)

// RegisterPingTool registers the simple ping tool.
func RegisterPingTool(s *server.MCPServer) {
	pingTool := mcp.NewTool("ping",
		mcp.WithDescription("Responds with 'pong' to check if the Diary MCP server is alive."),
	)
	s.AddTool(pingTool, pingHandler)
}

func pingHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("pong_diary"), nil
}

// RegisterListEntriesTool registers the list_entries tool.
func RegisterListEntriesTool(s *server.MCPServer, b *Backend) {
	listEntriesTool := mcp.NewTool("list_entries",
		mcp.WithDescription("Lists all diary entries, oldest first. Photos are summarized, not inlined."),
	)
	s.AddTool(listEntriesTool, listEntriesHandler(b))
}

func listEntriesHandler(b *Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		all, err := b.Store.FetchAll(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list entries: %v", err)), nil
		}

		views := make([]entryView, 0, len(all))
		for _, e := range all {
			views = append(views, newEntryView(e, false))
		}
		return jsonResult(views), nil
	}
}

// RegisterGetEntryTool registers the get_entry tool.
func RegisterGetEntryTool(s *server.MCPServer, b *Backend) {
	getEntryTool := mcp.NewTool("get_entry",
		mcp.WithDescription("Retrieves a single diary entry by its id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id (UUID).")),
		mcp.WithBoolean("include_photo", mcp.Description("Inline the stored photo as base64 JPEG.")),
	)
	s.AddTool(getEntryTool, getEntryHandler(b))
}

func getEntryHandler(b *Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := entryIDArg(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		entry, err := b.Store.Get(ctx, id)
		if errors.Is(err, entries.ErrEntryNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Entry '%s' not found.", id)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error retrieving entry '%s': %v", id, err)), nil
		}

		return jsonResult(newEntryView(entry, boolArg(request, "include_photo"))), nil
	}
}

// RegisterCreateEntryTool registers the create_entry tool.
func RegisterCreateEntryTool(s *server.MCPServer, b *Backend) {
	createEntryTool := mcp.NewTool("create_entry",
		mcp.WithDescription("Writes a new diary entry dated now. Empty text and location get placeholders and a missing photo gets the picture icon."),
		mcp.WithString("text", mcp.Description("Entry text.")),
		mcp.WithString("mood", mcp.Description("One of bad, average, good. Omit to leave unset.")),
		mcp.WithString("location", mcp.Description("Location label, e.g. 'Seattle, WA'.")),
		mcp.WithString("photo_path", mcp.Description("Path to a JPEG or PNG file to attach.")),
		mcp.WithNumber("latitude", mcp.Description("Resolve the location from this latitude (with longitude).")),
		mcp.WithNumber("longitude", mcp.Description("Resolve the location from this longitude (with latitude).")),
	)
	s.AddTool(createEntryTool, createEntryHandler(b))
}

func createEntryHandler(b *Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		session := form.Begin(nil, b.sessionDeps())
		return fillAndSave(ctx, b, session, request)
	}
}

// RegisterUpdateEntryTool registers the update_entry tool.
func RegisterUpdateEntryTool(s *server.MCPServer, b *Backend) {
	updateEntryTool := mcp.NewTool("update_entry",
		mcp.WithDescription("Edits an existing entry. Omitted fields keep their current values."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id (UUID).")),
		mcp.WithString("text", mcp.Description("New entry text.")),
		mcp.WithString("mood", mcp.Description("New mood: bad, average or good.")),
		mcp.WithString("location", mcp.Description("New location label.")),
		mcp.WithString("photo_path", mcp.Description("Path to a JPEG or PNG file replacing the photo.")),
		mcp.WithBoolean("remove_photo", mcp.Description("Replace the photo with the picture icon.")),
		mcp.WithNumber("latitude", mcp.Description("Resolve the location from this latitude (with longitude).")),
		mcp.WithNumber("longitude", mcp.Description("Resolve the location from this longitude (with latitude).")),
	)
	s.AddTool(updateEntryTool, updateEntryHandler(b))
}

func updateEntryHandler(b *Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := entryIDArg(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		existing, err := b.Store.Get(ctx, id)
		if errors.Is(err, entries.ErrEntryNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Entry '%s' not found.", id)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error retrieving entry '%s': %v", id, err)), nil
		}

		session := form.Begin(&existing, b.sessionDeps())
		if boolArg(request, "remove_photo") {
			if err := session.SetPhoto(nil); err != nil {
				_, _ = session.Cancel()
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
		return fillAndSave(ctx, b, session, request)
	}
}

// fillAndSave applies the optional entry arguments to session and saves it.
// The session is cancelled on any argument error.
func fillAndSave(ctx context.Context, b *Backend, session *form.Session, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fail := func(msg string) (*mcp.CallToolResult, error) {
		_, _ = session.Cancel()
		return mcp.NewToolResultError(msg), nil
	}

	if text, ok := stringArg(request, "text"); ok {
		if err := session.SetText(text); err != nil {
			return fail(err.Error())
		}
	}

	if raw, ok := stringArg(request, "mood"); ok && raw != "" {
		mood, err := entries.ParseMood(raw)
		if err != nil {
			return fail(fmt.Sprintf("Invalid mood %q: use bad, average or good.", raw))
		}
		if err := session.SetMood(mood); err != nil {
			return fail(err.Error())
		}
	}

	if path, ok := stringArg(request, "photo_path"); ok && path != "" {
		photo, err := readPhoto(b.Codec, path)
		if err != nil {
			return fail(fmt.Sprintf("Failed to load photo %s: %v", path, err))
		}
		if err := session.SetPhoto(photo); err != nil {
			return fail(err.Error())
		}
	}

	if label, ok := stringArg(request, "location"); ok {
		if err := session.SetLocation(label); err != nil {
			return fail(err.Error())
		}
	}

	coord, hasCoord, err := coordinateArg(request)
	if err != nil {
		return fail(err.Error())
	}
	if hasCoord {
		res := <-session.RequestLocation(ctx, coord)
		if res.Err != nil {
			b.log().Warn(ctx, "location not resolved, keeping current value", "error", res.Err)
		}
	}

	out, err := session.Save(ctx)
	if err != nil {
		_, _ = session.Cancel()
		if errors.Is(err, entries.ErrEntryNotFound) {
			return mcp.NewToolResultError("Entry was deleted before it could be saved."), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save entry: %v", err)), nil
	}

	return jsonResult(newEntryView(out.Entry, false)), nil
}

// RegisterDeleteEntryTool registers the delete_entry tool.
func RegisterDeleteEntryTool(s *server.MCPServer, b *Backend) {
	deleteEntryTool := mcp.NewTool("delete_entry",
		mcp.WithDescription("Permanently deletes a diary entry."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id (UUID).")),
	)
	s.AddTool(deleteEntryTool, deleteEntryHandler(b))
}

func deleteEntryHandler(b *Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := entryIDArg(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		err = b.Store.Delete(ctx, id)
		if errors.Is(err, entries.ErrEntryNotFound) {
			return mcp.NewToolResultText(fmt.Sprintf("Entry '%s' not found, nothing to delete.", id)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to delete entry '%s': %v", id, err)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Entry '%s' deleted successfully.", id)), nil
	}
}

// RegisterResolveLocationTool registers the resolve_location tool.
func RegisterResolveLocationTool(s *server.MCPServer, b *Backend) {
	resolveTool := mcp.NewTool("resolve_location",
		mcp.WithDescription("Turns a coordinate into a 'City, State' label."),
		mcp.WithNumber("latitude", mcp.Required(), mcp.Description("Latitude in degrees.")),
		mcp.WithNumber("longitude", mcp.Required(), mcp.Description("Longitude in degrees.")),
	)
	s.AddTool(resolveTool, resolveLocationHandler(b))
}

func resolveLocationHandler(b *Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if b.Resolver == nil {
			return mcp.NewToolResultError("No location resolver is configured."), nil
		}

		coord, ok, err := coordinateArg(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !ok {
			return mcp.NewToolResultError("'latitude' and 'longitude' are required."), nil
		}

		label, found, err := b.Resolver.ResolveCurrentPlace(ctx, coord)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to resolve location: %v", err)), nil
		}
		if !found {
			return mcp.NewToolResultText("No named place found at this coordinate."), nil
		}
		return mcp.NewToolResultText(label), nil
	}
}
