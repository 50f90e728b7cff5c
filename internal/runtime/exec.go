package runtime

import (
	"io"
	"os/exec"

	"github.com/cubohq/cubo/internal/nsinit"
)

// RunScratch runs a single command in a scratch container rooted at
// rootfs, waiting synchronously for it to exit. This is the execution
// path the image builder uses for RUN steps: each step gets its own
// namespaces and chroot, but no container bundle or persisted state,
// since the build itself is the lifetime scope.
func RunScratch(rootfs, workdir string, env, cmdline []string, stdout, stderr io.Writer) (int, error) {
	spec := nsinit.Spec{
		Rootfs:  rootfs,
		Workdir: workdir,
		Env:     env,
		Cmd:     cmdline,
	}

	cmd, err := nsCommand(spec, nil, stdout, stderr)
	if err != nil {
		return 0, err
	}

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return 0, err
	}
	return 0, nil
}
