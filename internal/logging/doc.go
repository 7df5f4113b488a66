// Package logging configures log/slog for contractgen.
//
// By default logs are human-readable text on stderr at the configured level.
// With --debug, JSON logs at debug level are also written to a size-rotated
// file under ~/.contractgen/logs/ for troubleshooting watch sessions.
package logging
