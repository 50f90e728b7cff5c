// Package cli wires the cubo command tree: argument parsing via kong,
// subcommand dispatch, and exit-code mapping from the typed errors the
// lower packages return.
//
// Global flags:
//
//	--root-dir      Override the resolved root directory (§4.1 precedence).
//	-q, --quiet     Suppress informational output.
//	-v, --verbose   Enable verbose output.
//	-d, --debug     Enable debug output.
//
// Flags override build-time defaults set via linker flags, following
// internal/config.go's quietMode/debugMode/verboseMode. After parsing,
// the global logger is reconfigured to reflect the final level before
// the subcommand runs.
//
// Exit codes follow §6/§7 of the specification: 0 success, 1 generic
// user-visible error, 2 usage error, 125 runtime configuration error,
// 126 container failed to start, 127 command not found inside container.
package cli
