// Package runstore persists the history of sweep runs and their missed
// frequencies in SQLite. It backs the status report and gives the
// missing-frequency analyzer a durable source for "rerun what failed
// last time" that survives process restarts, unlike the in-memory
// missed set.
package runstore
