package runtime

import (
	"io"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/cubohq/cubo/internal/nsinit"
)

// nsCommand returns the *exec.Cmd for the self-re-exec namespace-init
// child described in nsinit: it enters fresh PID, mount, UTS, IPC, and
// user namespaces, then runs nsinit.Run via the CUBO_NSINIT marker.
//
// When invoked as a non-root user, the current uid/gid is mapped to 0
// inside the new user namespace (a single-id mapping); when invoked as
// root, an identity mapping over the low 64k ids is used instead so the
// container sees the same absolute ids the host does.
func nsCommand(spec nsinit.Spec, stdin io.Reader, stdout, stderr io.Writer) (*exec.Cmd, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, err
	}

	env, err := nsinit.ChildEnv(spec)
	if err != nil {
		return nil, err
	}

	uidMap, gidMap := idMappings()

	cmd := exec.Command(self)
	cmd.Env = env
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: unix.CLONE_NEWNS | unix.CLONE_NEWUTS | unix.CLONE_NEWIPC |
			unix.CLONE_NEWPID | unix.CLONE_NEWUSER,
		UidMappings:                uidMap,
		GidMappings:                gidMap,
		GidMappingsEnableSetgroups: false,
	}
	return cmd, nil
}

func idMappings() ([]syscall.SysProcIDMap, []syscall.SysProcIDMap) {
	if os.Getuid() == 0 {
		return []syscall.SysProcIDMap{{ContainerID: 0, HostID: 0, Size: 65536}},
			[]syscall.SysProcIDMap{{ContainerID: 0, HostID: 0, Size: 65536}}
	}
	return []syscall.SysProcIDMap{{ContainerID: 0, HostID: os.Getuid(), Size: 1}},
		[]syscall.SysProcIDMap{{ContainerID: 0, HostID: os.Getgid(), Size: 1}}
}
