package main

import (
	"github.com/spf13/cobra"
	"github.com/unowned-ai/diary/pkg/mcp"
)

func newMCPCmd(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the Diary MCP server (stdio)",
		Long: `Start a Model Context Protocol (MCP) server that exposes the diary entries
as MCP tools via STDIO.

The --db flag is optional. If not provided, a system-specific default location will be used:
- Windows: %USERPROFILE%\AppData\Roaming\diary\diary.db
- macOS: ~/Library/Application Support/diary/diary.db
- Linux: ~/.local/share/diary/diary.db

Example:
  diary mcp
  diary mcp --db diary.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), r)
			if err != nil {
				return err
			}

			srv, err := mcp.NewDiaryMCPServer(a.db, a.dbPath, &mcp.Backend{
				Store:    a.store,
				Codec:    a.codec,
				Resolver: a.resolver,
				Defaults: a.defaults(),
				Logger:   a.log,
			})
			if err != nil {
				a.Close()
				return err
			}
			defer srv.Close()

			// Logs go to stderr so the JSON-RPC stream on stdout stays clean.
			a.log.Info(cmd.Context(), "diary MCP server started",
				"db", srv.DBPath, "wal", a.cfg.WAL, "sync", a.cfg.Sync, "tools", mcp.ToolNames)

			return srv.Start()
		},
	}
}
