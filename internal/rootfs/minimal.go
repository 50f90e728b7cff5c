package rootfs

import (
	"io"
	"os"
	"path/filepath"

	"github.com/cubohq/cubo/internal/errkit"
)

// EssentialBinaries is the whitelist of host binaries copied into a
// minimal fallback rootfs, along with their shared-library closure.
var EssentialBinaries = []string{"/bin/sh", "/bin/echo", "/bin/ls", "/bin/cat"}

var minimalDirs = []string{"bin", "etc", "lib", "usr/bin", "tmp"}

// CreateMinimal builds a minimal fallback rootfs at destDir: the standard
// directory skeleton plus EssentialBinaries and their ELF shared-library
// closure, used when an image has no layers or a scratch bundle is
// requested.
func CreateMinimal(destDir string) error {
	for _, d := range minimalDirs {
		if err := os.MkdirAll(filepath.Join(destDir, d), 0755); err != nil {
			return errkit.Wrap(ErrApply, err)
		}
	}

	for _, bin := range EssentialBinaries {
		if _, err := os.Stat(bin); err != nil {
			continue // host does not have this binary; skip rather than fail
		}
		if err := copyIntoRootfs(destDir, bin); err != nil {
			return errkit.Wrapf(ErrApply, err, "copy %s", bin)
		}

		closure, err := sharedLibraryClosure(bin)
		if err != nil {
			return errkit.Wrapf(ErrApply, err, "resolve closure for %s", bin)
		}
		for _, lib := range closure {
			if err := copyIntoRootfs(destDir, lib); err != nil {
				return errkit.Wrapf(ErrApply, err, "copy %s", lib)
			}
		}
	}

	return nil
}

func copyIntoRootfs(destDir, hostPath string) error {
	target := filepath.Join(destDir, hostPath)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	info, err := os.Stat(hostPath)
	if err != nil {
		return err
	}

	src, err := os.Open(hostPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
