// Package config persists stand settings and sweep progress in a TOML file.
//
// The file is organized into the serial, commands, sound, loop, and fetch
// groups. A missing file is replaced with defaults on first load, and a
// corrupt file or out-of-range value falls back to the documented default
// instead of failing a run: the configuration doubles as the resume
// checkpoint (loop.current_frequency), so losing it must never be fatal.
//
// Store wraps the decoded configuration with a mutex; workers read typed
// snapshots and write progress through it while the CLI edits keys by
// dotted name.
package config
