// Package paths resolves Cubo's on-disk root directory and provides the
// atomic write/read helpers every on-disk writer in the system builds on.
//
// Root resolution follows a fixed precedence: an explicit flag value, then
// the CUBO_ROOT environment variable, then XDG_STATE_HOME/cubo,
// XDG_DATA_HOME/cubo, HOME/.local/state/cubo, and finally /tmp/cubo. The
// root directory is created on first use if it does not already exist.
package paths
