package runtime

import "github.com/cubohq/cubo/internal/containerstore"

// RemoveContainer deletes a container's bundle directory. A running
// container is refused unless force is set, in which case it is stopped
// (SIGKILL) first.
func (rt *Runtime) RemoveContainer(id string, force bool) error {
	st, err := rt.Containers.LoadState(id)
	if err != nil {
		return err
	}

	if st.Status == containerstore.StatusRunning {
		if !force {
			return ErrAlreadyRunning
		}
		if err := rt.StopContainer(id, true); err != nil {
			return err
		}
	}

	return rt.Containers.Delete(id)
}
