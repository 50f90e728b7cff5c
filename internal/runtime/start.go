package runtime

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cubohq/cubo/internal/containerstore"
	"github.com/cubohq/cubo/internal/errkit"
	"github.com/cubohq/cubo/internal/nsinit"
)

// SuperviseMarker is the environment variable cmd/cubo/main.go checks,
// after the CUBO_NSINIT check, to dispatch into Supervise instead of
// normal CLI parsing. Its value is the container id to supervise.
const SuperviseMarker = "CUBO_SUPERVISE"

// StartContainer launches a detached supervisor process for a created
// container and returns once it has been launched; the supervisor itself
// records the pid and flips status to running once its own child (the
// namespace-init process) is actually running.
func (rt *Runtime) StartContainer(id string) error {
	st, err := rt.Containers.LoadState(id)
	if err != nil {
		return err
	}
	if st.Status == containerstore.StatusRunning {
		return ErrAlreadyRunning
	}

	self, err := os.Executable()
	if err != nil {
		return errkit.Wrap(ErrRuntime, err)
	}

	cmd := exec.Command(self)
	cmd.Env = append(os.Environ(), SuperviseMarker+"="+id)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return errkit.Wrap(ErrRuntime, err)
	}
	// The supervisor is detached; its lifetime is not tied to ours.
	return cmd.Process.Release()
}

// Supervise is the body of the detached supervisor process dispatched by
// cmd/cubo/main.go on SuperviseMarker. It builds the namespace-init
// child, records its pid as the container's running state, waits for it
// to exit, and finalizes state to stopped with the exit code. It returns
// the exit code the supervisor process itself should exit with.
func (rt *Runtime) Supervise(id string) int {
	cfg, err := rt.Containers.LoadConfig(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cubo: supervise: load config:", err)
		return 1
	}

	stdoutLog, stderrLog, err := openLogFiles(rt.Containers.LogsDir(id))
	if err != nil {
		fmt.Fprintln(os.Stderr, "cubo: supervise: open logs:", err)
		return 1
	}
	defer stdoutLog.Close()
	defer stderrLog.Close()

	var stdin *os.File
	if cfg.Interactive {
		stdin = os.Stdin
	} else {
		devNull, err := os.Open(os.DevNull)
		if err == nil {
			stdin = devNull
			defer devNull.Close()
		}
	}

	spec := nsinit.Spec{
		Rootfs:   rt.Containers.RootfsDir(id),
		Workdir:  cfg.Workdir,
		Hostname: shortHostname(cfg),
		Env:      envSlice(cfg.Env),
		Cmd:      cfg.Command,
		Volumes:  convertVolumes(cfg.Volumes),
		Stdin:    cfg.Interactive,
	}

	cmd, err := nsCommand(spec, stdin, stdoutLog, stderrLog)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cubo: supervise: build command:", err)
		return 1
	}

	if err := cmd.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "cubo: supervise: start:", err)
		rt.markStopped(id, nsinit.ExitExecFailure)
		return 1
	}

	now := time.Now().UTC()
	st, err := rt.Containers.LoadState(id)
	if err != nil {
		st = containerstore.State{ID: id, Bundle: rt.Containers.BundleDir(id)}
	}
	st.Status = containerstore.StatusRunning
	st.Pid = cmd.Process.Pid
	st.StartedAt = &now
	if err := rt.Containers.SaveState(id, st); err != nil {
		fmt.Fprintln(os.Stderr, "cubo: supervise: save state:", err)
	}

	err = cmd.Wait()
	exitCode := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
		if exitCode == -1 {
			if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				sig := ws.Signal()
				exitCode = 128 + int(sig)
				fmt.Fprintf(os.Stderr, "cubo: container %s killed by signal %d (%s)\n", id, sig, sig.String())
			}
		}
	} else if err != nil {
		exitCode = 1
	}

	rt.markStopped(id, exitCode)
	return 0
}

func (rt *Runtime) markStopped(id string, exitCode int) {
	st, err := rt.Containers.LoadState(id)
	if err != nil {
		return
	}
	finished := time.Now().UTC()
	st.Status = containerstore.StatusStopped
	st.Pid = 0
	st.FinishedAt = &finished
	code := exitCode
	st.ExitCode = &code
	_ = rt.Containers.SaveState(id, st)
}

func openLogFiles(logsDir string) (*timestampWriter, *timestampWriter, error) {
	stdout, err := os.OpenFile(filepath.Join(logsDir, "stdout.log"), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	stderr, err := os.OpenFile(filepath.Join(logsDir, "stderr.log"), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		stdout.Close()
		return nil, nil, err
	}
	return newTimestampWriter(stdout), newTimestampWriter(stderr), nil
}

func shortHostname(cfg containerstore.Config) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	if len(cfg.ID) > 12 {
		return cfg.ID[:12]
	}
	return cfg.ID
}

func convertVolumes(vs []containerstore.Volume) []nsinit.Volume {
	out := make([]nsinit.Volume, 0, len(vs))
	for _, v := range vs {
		out = append(out, nsinit.Volume{Host: v.HostPath, Container: v.ContainerPath, ReadOnly: v.ReadOnly})
	}
	return out
}
