package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/unowned-ai/diary/pkg/config"
	pkgdb "github.com/unowned-ai/diary/pkg/db"
	"github.com/unowned-ai/diary/pkg/entries"
	"github.com/unowned-ai/diary/pkg/form"
	"github.com/unowned-ai/diary/pkg/imagecodec"
	"github.com/unowned-ai/diary/pkg/location"
	"github.com/unowned-ai/diary/pkg/logging"
	"github.com/unowned-ai/diary/pkg/utils"
)

// app is the wired object graph behind every data command.
type app struct {
	cfg      *config.Config
	log      logging.Logger
	db       *sql.DB
	dbPath   string
	store    *entries.Store
	codec    *imagecodec.Codec
	resolver *location.Resolver
}

// openApp opens (and upgrades) the configured database and builds the store,
// codec and resolver. Logs go to stderr so stdout stays clean for output and
// the MCP stream, unless the runtime redirects them.
func openApp(ctx context.Context, r *runtime) (*app, error) {
	cfg := r.cfg
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	var logOut io.Writer = os.Stderr
	if r.logOut != nil {
		logOut = r.logOut
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, logOut)
	if err != nil {
		return nil, err
	}

	dbPath, err := utils.ResolveAndEnsureDBPath(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	conn, err := pkgdb.Open(ctx, dbPath, cfg.WAL, cfg.Sync, log)
	if err != nil {
		return nil, err
	}

	resolver, err := newResolver(cfg, log)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		log:      log,
		db:       conn,
		dbPath:   dbPath,
		store:    entries.NewStore(conn, entries.WithLogger(log)),
		codec:    imagecodec.New(),
		resolver: resolver,
	}, nil
}

func newResolver(cfg *config.Config, log logging.Logger) (*location.Resolver, error) {
	if cfg.Gazetteer == "" {
		return location.NewResolver(location.NewGazetteer(location.DefaultPlaces, cfg.GazetteerRadiusKm), log), nil
	}

	path, err := utils.ExpandHome(cfg.Gazetteer)
	if err != nil {
		return nil, err
	}
	g, err := location.LoadGazetteer(path, cfg.GazetteerRadiusKm)
	if err != nil {
		return nil, err
	}
	return location.NewResolver(g, log), nil
}

func (a *app) defaults() form.Defaults {
	return form.Defaults{Text: a.cfg.PlaceholderText, Location: a.cfg.PlaceholderLocation}
}

func (a *app) sessionDeps() form.Deps {
	return form.Deps{
		Store:    a.store,
		Codec:    a.codec,
		Resolver: a.resolver,
		Defaults: a.defaults(),
		Logger:   a.log,
	}
}

// Close checkpoints the WAL and closes the database.
func (a *app) Close() {
	if a.cfg.WAL {
		if err := pkgdb.Checkpoint(a.db); err != nil {
			a.log.Warn(context.Background(), "WAL checkpoint failed during close", "error", err)
		}
	}
	a.db.Close()
}

func printEntry(w io.Writer, entry entries.Entry) {
	row := entries.RowOf(entry, 0)

	fmt.Fprintln(w, "Entry Details:")
	fmt.Fprintf(w, "ID:       %s\n", entry.ID)
	fmt.Fprintf(w, "Date:     %s (%s)\n", row.Date, entry.Date.Format(time.RFC3339))
	fmt.Fprintf(w, "Mood:     %s\n", entry.Mood)
	fmt.Fprintf(w, "Location: %s\n", row.Location)
	fmt.Fprintf(w, "Photo:    %s\n", formatPhoto(entry))
	fmt.Fprintln(w, "\nText:")
	fmt.Fprintln(w, "------------------------------------------------------------")
	fmt.Fprintln(w, entry.Text)
	fmt.Fprintln(w, "------------------------------------------------------------")
}

func printEntryRow(w io.Writer, entry entries.Entry) {
	row := entries.RowOf(entry, 60)
	fmt.Fprintf(w, "%s  %s  %-30s  %s\n", entry.ID, row.Mood, row.Date, row.Text)
	fmt.Fprintf(w, "%s  %s\n", strings.Repeat(" ", 36), row.Location)
}

func formatPhoto(entry entries.Entry) string {
	if !entry.HasImage() {
		return "none"
	}
	return fmt.Sprintf("%d bytes", len(entry.Image))
}
