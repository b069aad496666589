package mcp

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	diary "github.com/unowned-ai/diary/pkg"
	pkgdb "github.com/unowned-ai/diary/pkg/db"
	"github.com/unowned-ai/diary/pkg/entries"
	"github.com/unowned-ai/diary/pkg/form"
	"github.com/unowned-ai/diary/pkg/imagecodec"
	"github.com/unowned-ai/diary/pkg/location"
	"github.com/unowned-ai/diary/pkg/logging"
)

// Backend is what the diary tools operate on.
type Backend struct {
	Store    *entries.Store
	Codec    *imagecodec.Codec
	Resolver *location.Resolver
	Defaults form.Defaults
	Logger   logging.Logger
}

func (b *Backend) sessionDeps() form.Deps {
	return form.Deps{
		Store:    b.Store,
		Codec:    b.Codec,
		Resolver: b.Resolver,
		Defaults: b.Defaults,
		Logger:   b.log(),
	}
}

func (b *Backend) log() logging.Logger {
	if b.Logger == nil {
		return logging.Nop()
	}
	return b.Logger
}

type DiaryMCPServer struct {
	mcpServer *server.MCPServer
	db        *sql.DB
	backend   *Backend
	log       logging.Logger
	DBPath    string
}

// NewDiaryMCPServer wraps an open, upgraded database in an MCP server with
// every diary tool registered.
func NewDiaryMCPServer(db *sql.DB, dbPath string, backend *Backend) (*DiaryMCPServer, error) {
	if db == nil || backend == nil || backend.Store == nil {
		return nil, fmt.Errorf("mcp server needs a database and a store")
	}
	if backend.Codec == nil {
		backend.Codec = imagecodec.New()
	}
	if backend.Logger == nil {
		backend.Logger = logging.Nop()
	}

	s := server.NewMCPServer(
		"Diary MCP Server",
		diary.Version,
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
		server.WithRecovery(),
	)

	RegisterTools(s, backend)

	return &DiaryMCPServer{
		mcpServer: s,
		db:        db,
		backend:   backend,
		log:       backend.Logger,
		DBPath:    dbPath,
	}, nil
}

// RegisterTools adds every diary tool to s.
func RegisterTools(s *server.MCPServer, b *Backend) {
	RegisterPingTool(s)
	RegisterListEntriesTool(s, b)
	RegisterGetEntryTool(s, b)
	RegisterCreateEntryTool(s, b)
	RegisterUpdateEntryTool(s, b)
	RegisterDeleteEntryTool(s, b)
	RegisterResolveLocationTool(s, b)
}

// ToolNames lists the registered tools in registration order.
var ToolNames = []string{
	"ping", "list_entries", "get_entry", "create_entry", "update_entry", "delete_entry", "resolve_location",
}

// Start runs the stdio event loop until stdin closes.
func (s *DiaryMCPServer) Start() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *DiaryMCPServer) MCPRawServer() *server.MCPServer {
	return s.mcpServer
}

// Close checkpoints the WAL and closes the database.
func (s *DiaryMCPServer) Close() error {
	if s.db == nil {
		return nil
	}
	if err := pkgdb.Checkpoint(s.db); err != nil {
		s.log.Warn(context.Background(), "WAL checkpoint failed during close", "error", err)
	}
	return s.db.Close()
}
