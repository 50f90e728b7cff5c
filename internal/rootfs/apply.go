package rootfs

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/cubohq/cubo/internal/errkit"
)

// Applier mutates destDir in response to Events produced by [ParseEntries].
// One Applier is scoped to a single layer: Opaque only clears pre-existing
// (lower-layer) content, never content this same Applier has already
// written for the current layer.
type Applier struct {
	destDir   string
	writtenBy map[string]bool // paths created by this layer so far
}

// NewApplier returns an Applier targeting destDir, which must already
// exist.
func NewApplier(destDir string) *Applier {
	return &Applier{destDir: destDir, writtenBy: map[string]bool{}}
}

// Handle implements Handler.
func (a *Applier) Handle(ev Event) error {
	switch ev.Kind {
	case Opaque:
		return a.opaque(ev.Path)
	case Delete:
		return a.delete(ev.Path)
	case CreateDir:
		return a.createDir(ev)
	case CreateFile:
		return a.createFile(ev)
	case CreateSymlink:
		return a.createSymlink(ev)
	case CreateHardlink:
		return a.createHardlink(ev)
	default:
		return nil
	}
}

func (a *Applier) resolve(rel string) (string, error) {
	if rel == "" {
		return a.destDir, nil
	}
	return securejoin.SecureJoin(a.destDir, rel)
}

func (a *Applier) opaque(dir string) error {
	target, err := a.resolve(dir)
	if err != nil {
		return errkit.Wrap(ErrApply, err)
	}
	entries, err := os.ReadDir(target)
	if err != nil && !os.IsNotExist(err) {
		return errkit.Wrap(ErrApply, err)
	}
	for _, e := range entries {
		rel := joinPath(dir, e.Name())
		kept := a.writtenBy[rel]
		for p := range a.writtenBy {
			kept = kept || strings.HasPrefix(p, rel+"/")
		}
		if kept {
			// Written by this layer; opaque only governs lower-layer state.
			continue
		}
		if err := os.RemoveAll(filepath.Join(target, e.Name())); err != nil {
			return errkit.Wrap(ErrApply, err)
		}
	}
	return os.MkdirAll(target, 0755)
}

func (a *Applier) delete(rel string) error {
	target, err := a.resolve(rel)
	if err != nil {
		return errkit.Wrap(ErrApply, err)
	}
	if err := os.RemoveAll(target); err != nil && !os.IsNotExist(err) {
		return errkit.Wrap(ErrApply, err)
	}
	return nil
}

func (a *Applier) createDir(ev Event) error {
	target, err := a.resolve(ev.Path)
	if err != nil {
		return errkit.Wrap(ErrApply, err)
	}
	if err := os.MkdirAll(target, os.FileMode(ev.Mode)&0777); err != nil {
		return errkit.Wrap(ErrApply, err)
	}
	a.writtenBy[ev.Path] = true
	a.applyMeta(target, ev)
	return nil
}

func (a *Applier) createFile(ev Event) error {
	target, err := a.resolve(ev.Path)
	if err != nil {
		return errkit.Wrap(ErrApply, err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errkit.Wrap(ErrApply, err)
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(ev.Mode)&0777)
	if err != nil {
		return errkit.Wrap(ErrApply, err)
	}
	if _, err := io.Copy(f, ev.Content); err != nil {
		f.Close()
		return errkit.Wrap(ErrApply, err)
	}
	if err := f.Close(); err != nil {
		return errkit.Wrap(ErrApply, err)
	}

	a.writtenBy[ev.Path] = true
	a.applyMeta(target, ev)
	return nil
}

func (a *Applier) createSymlink(ev Event) error {
	target, err := a.resolve(ev.Path)
	if err != nil {
		return errkit.Wrap(ErrApply, err)
	}
	os.Remove(target)
	if err := os.Symlink(ev.Linkname, target); err != nil {
		return errkit.Wrap(ErrApply, err)
	}
	a.writtenBy[ev.Path] = true
	return nil
}

func (a *Applier) createHardlink(ev Event) error {
	target, err := a.resolve(ev.Path)
	if err != nil {
		return errkit.Wrap(ErrApply, err)
	}
	src, err := a.resolve(ev.Linkname)
	if err != nil {
		return errkit.Wrap(ErrApply, err)
	}
	os.Remove(target)
	if err := os.Link(src, target); err != nil {
		return errkit.Wrap(ErrApply, err)
	}
	a.writtenBy[ev.Path] = true
	return nil
}

// applyMeta best-effort applies ownership and modification time; failures
// are ignored since they are frequently unprivileged-environment no-ops.
func (a *Applier) applyMeta(target string, ev Event) {
	os.Chown(target, ev.UID, ev.GID)
	if !ev.ModTime.IsZero() {
		os.Chtimes(target, ev.ModTime, ev.ModTime)
	}
}
