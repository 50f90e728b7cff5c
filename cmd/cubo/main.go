// Command cubo is a minimal Linux container runtime and image manager.
//
// Invoking the same binary three different ways is what makes the
// container lifecycle work without a resident daemon: a normal
// invocation parses CLI arguments and dispatches a subcommand; a
// detached re-exec (CUBO_SUPERVISE set) supervises one container's
// namespace-init child and records its exit; a further re-exec
// (CUBO_NSINIT set) is the namespace-init child itself, which never
// returns to this file.
package main

import (
	"fmt"
	"os"

	"github.com/cubohq/cubo/internal/cli"
	"github.com/cubohq/cubo/internal/nsinit"
	"github.com/cubohq/cubo/internal/runtime"
)

func main() {
	if os.Getenv(nsinit.Marker) != "" {
		nsinit.Run()
		return // unreachable: Run always exits or execs
	}

	if id := os.Getenv(runtime.SuperviseMarker); id != "" {
		os.Exit(supervise(id))
	}

	os.Exit(cli.ExitCode(cli.Execute()))
}

// supervise builds the Runtime bootstrap a detached supervisor process
// needs and runs the container it was re-exec'd for. It resolves the
// root directory from CUBO_ROOT/XDG defaults rather than an explicit
// --root-dir flag: the supervisor inherits its parent's environment,
// not its parent's parsed flags.
func supervise(id string) int {
	rt, err := cli.NewRuntime("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "cubo: supervise: bootstrap:", err)
		return 1
	}
	return rt.Supervise(id)
}
