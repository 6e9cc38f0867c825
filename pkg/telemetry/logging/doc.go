// Package logging configures structured logging for Ganymede on top of
// log/slog. It parses the configured level and format, installs the resulting
// logger as the process default, and hands component loggers out via
// slog.Default().With("component", ...).
package logging
