// Package main hosts the stand CLI entrypoint and command graph.
//
// The Cobra-based command tree drives the vibration test stand: bounded
// sweep runs, missing-frequency replays, one-shot tone diagnostics,
// serial link checks, and configuration maintenance. It centralizes
// configuration resolution, logger setup, and hardware wiring so
// subcommands can focus on user experience instead of assembly.
//
// Keep this package lean: add new functionality by extending the
// internal packages first, then surface it through dedicated commands
// or flags here.
package main
