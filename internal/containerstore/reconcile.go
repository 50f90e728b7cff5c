package containerstore

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Reconcile runs the startup repair pass described for the container
// store: every bundle with status running is checked for a live pid via
// signal 0; a dead pid is downgraded to stopped with finished_at stamped
// and pid cleared, persisted atomically. Bundles that fail to parse are
// left alone with whatever status they already carry, since they may be
// mid-repair by another process.
func (s *Store) Reconcile(now time.Time) error {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		id := de.Name()

		st, err := s.LoadState(id)
		if err != nil {
			continue
		}
		if st.Status != StatusRunning {
			continue
		}

		if st.Pid > 0 && pidIsAlive(st.Pid) {
			continue
		}

		finished := now
		st.Status = StatusStopped
		st.FinishedAt = &finished
		st.Pid = 0

		if err := s.SaveState(id, st); err != nil {
			return err
		}
	}
	return nil
}

// pidIsAlive reports whether pid names a live process, using the
// standard kill(pid, 0) liveness probe: nil means it is alive and
// signalable, EPERM means it exists but is owned by someone else, and any
// other error (ESRCH included) is treated as the process being gone.
func pidIsAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	return err == unix.EPERM
}
