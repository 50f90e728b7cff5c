package nsinit

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/moby/sys/mountinfo"
	"golang.org/x/sys/unix"
)

// Marker is the environment variable cmd/cubo/main.go checks before
// parsing CLI arguments. Its presence means this process is the
// namespace-init child, not a normal CLI invocation.
const Marker = "CUBO_NSINIT"

// Exit codes for the distinguished "failure to exec" statuses described
// in §4.8 step 7 and the exit-code taxonomy in §6.
const (
	ExitCommandNotFound = 127
	ExitExecFailure     = 126
)

// ChildEnv returns the environment to run the self-re-exec child with:
// the marker variable plus the encoded spec.
func ChildEnv(spec Spec) ([]string, error) {
	encoded, err := spec.Marshal()
	if err != nil {
		return nil, err
	}
	return []string{Marker + "=1", envSpec + "=" + encoded}, nil
}

// Run performs the container-side setup (hostname, volume mounts, chroot,
// environment) and execs the resolved command, replacing this process.
// It never returns on success; on failure it writes a diagnostic to
// stderr and exits with a distinguished status.
func Run() {
	spec, err := specFromEnviron(os.Getenv(envSpec))
	if err != nil {
		fmt.Fprintln(os.Stderr, "cubo: nsinit: invalid spec:", err)
		os.Exit(ExitExecFailure)
	}

	if spec.Hostname != "" {
		if err := unix.Sethostname([]byte(spec.Hostname)); err != nil {
			fmt.Fprintln(os.Stderr, "cubo: nsinit: sethostname:", err)
		}
	}

	for _, v := range spec.Volumes {
		applyVolume(spec.Rootfs, v)
	}

	if err := unix.Chroot(spec.Rootfs); err != nil {
		fmt.Fprintln(os.Stderr, "cubo: nsinit: chroot:", err)
		os.Exit(ExitExecFailure)
	}

	workdir := spec.Workdir
	if workdir == "" {
		workdir = "/"
	}
	if err := os.Chdir(workdir); err != nil {
		fmt.Fprintln(os.Stderr, "cubo: nsinit: chdir:", err)
		os.Exit(ExitExecFailure)
	}

	os.Clearenv()
	for _, kv := range spec.Env {
		if i := indexOfEq(kv); i > 0 {
			os.Setenv(kv[:i], kv[i+1:])
		}
	}

	if len(spec.Cmd) == 0 {
		fmt.Fprintln(os.Stderr, "cubo: nsinit: empty command")
		os.Exit(ExitExecFailure)
	}

	path, err := exec.LookPath(spec.Cmd[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "cubo: nsinit: command not found:", spec.Cmd[0])
		os.Exit(ExitCommandNotFound)
	}

	if err := unix.Exec(path, spec.Cmd, os.Environ()); err != nil {
		fmt.Fprintln(os.Stderr, "cubo: nsinit: exec failed:", err)
		os.Exit(ExitExecFailure)
	}
}

// applyVolume creates the mount target inside rootfs and attempts a real
// bind mount; on failure it leaves the (now-existing) empty directory in
// place as the degraded fallback, per the §9 open-question resolution:
// degradation is detected via mountinfo.Mounted rather than assumed.
func applyVolume(rootfs string, v Volume) {
	target := rootfs + v.Container
	if err := os.MkdirAll(target, 0755); err != nil {
		fmt.Fprintln(os.Stderr, "cubo: nsinit: volume mkdir:", err)
		return
	}

	if err := unix.Mount(v.Host, target, "", unix.MS_BIND|unix.MS_REC, ""); err != nil {
		fmt.Fprintln(os.Stderr, "cubo: nsinit: bind mount degraded:", err)
		return
	}

	mounted, err := mountinfo.Mounted(target)
	if err != nil || !mounted {
		fmt.Fprintln(os.Stderr, "cubo: nsinit: bind mount did not take, degraded:", target)
		return
	}

	if v.ReadOnly {
		if err := unix.Mount("", target, "", unix.MS_BIND|unix.MS_REMOUNT|unix.MS_RDONLY, ""); err != nil {
			fmt.Fprintln(os.Stderr, "cubo: nsinit: read-only remount failed:", err)
		}
	}
}

func indexOfEq(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return i
		}
	}
	return -1
}
