// Package logging defines the structured-logging interface used across the
// diary packages, together with an slog-backed implementation.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "entry created", "id", entry.ID, "mood", entry.Mood)
type Logger interface {
	// Debug logs low-level detail useful while developing.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs unusual but recovered conditions, such as a photo that failed
	// to decode and was replaced by the placeholder.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs failures that are propagated to the caller.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}
