// Package daemon owns platen's background process lifecycle.
//
// A Daemon couples the workflow manager with an exclusive file lock so only
// one platen instance processes a drop folder at a time. It exposes
// start/stop/status operations for the IPC layer plus accessors for the
// outcome ledger backing `platen history` and `platen status`.
package daemon
