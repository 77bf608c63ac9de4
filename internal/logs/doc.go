// Package logs reads back the animethreads log file for the logs command.
//
// Tail returns the last N lines, optionally restricted to one run id or
// event type, and can follow the file for new lines. Filters understand both
// the console (key=value) and JSON log formats.
package logs
