// Package logging constructs slog loggers for the stand CLI and workers.
//
// Two output formats are supported: a human-oriented console format used
// when running interactively, and JSON for log files or piping. Helper
// constructors keep attribute creation terse at call sites, and component
// loggers tag every record with the subsystem that emitted it.
package logging
