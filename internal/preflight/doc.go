// Package preflight provides readiness checks for the filesystem paths and
// external commands platen depends on.
//
// The CLI "platen preflight" command runs RunAll before a daemon is started
// so operators can catch misconfiguration (missing drop folder, unreadable
// overlay asset, absent print binary) without waiting for the first pipeline
// failure. Individual check functions also back "platen status" output.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
