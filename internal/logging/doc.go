// Package logging builds the application's slog loggers and provides the
// attribute helpers and sampling utilities the rest of hbwrap logs with.
package logging
