package runtime

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/cubohq/cubo/internal/containerstore"
)

// StopContainer sends SIGTERM to the container's recorded pid and waits
// up to 10 seconds for it to exit before escalating to SIGKILL; with
// force=true it sends SIGKILL immediately. A pid that no longer exists
// (ESRCH) is treated as already stopped rather than an error. State
// finalization (exit_code, finished_at) is the supervisor's job; this
// only delivers the signal and, on timeout, escalates.
func (rt *Runtime) StopContainer(id string, force bool) error {
	st, err := rt.Containers.LoadState(id)
	if err != nil {
		return err
	}
	if st.Status != containerstore.StatusRunning || st.Pid <= 0 {
		return nil
	}

	if force {
		return killIgnoreESRCH(st.Pid, unix.SIGKILL)
	}

	if err := killIgnoreESRCH(st.Pid, unix.SIGTERM); err != nil {
		return err
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if !pidAlive(st.Pid) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	if pidAlive(st.Pid) {
		return killIgnoreESRCH(st.Pid, unix.SIGKILL)
	}
	return nil
}

func killIgnoreESRCH(pid int, sig unix.Signal) error {
	err := unix.Kill(pid, sig)
	if err != nil && err != unix.ESRCH {
		return err
	}
	return nil
}

func pidAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
