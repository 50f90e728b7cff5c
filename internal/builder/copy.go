package builder

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/cubohq/cubo/internal/errkit"
)

// matchSources expands a Copy step's source pattern against the build
// context directory, per the glob syntax filepath.Glob already supports.
func matchSources(buildCtx, srcPattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(buildCtx, srcPattern))
	if err != nil {
		return nil, errkit.Wrap(ErrCopy, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// copySources walks each matched source onto dest inside rootfsDir,
// creating intermediate directories and preserving file mode. dest is
// resolved with securejoin so a crafted path cannot escape rootfsDir.
func copySources(rootfsDir string, matches []string, dest string) error {
	destPath, err := securejoin.SecureJoin(rootfsDir, dest)
	if err != nil {
		return errkit.Wrap(ErrCopy, err)
	}

	for _, src := range matches {
		info, err := os.Stat(src)
		if err != nil {
			return errkit.Wrap(ErrCopy, err)
		}

		if info.IsDir() {
			if err := copyDir(src, filepath.Join(destPath, filepath.Base(src))); err != nil {
				return errkit.Wrap(ErrCopy, err)
			}
			continue
		}

		target := destPath
		if isDirish(dest) {
			target = filepath.Join(destPath, filepath.Base(src))
		}
		if err := copyFile(src, target, info.Mode()); err != nil {
			return errkit.Wrap(ErrCopy, err)
		}
	}
	return nil
}

func isDirish(dest string) bool {
	if len(dest) == 0 {
		return true
	}
	return dest[len(dest)-1] == '/'
}

func copyDir(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dest string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// contentHash hashes the sorted set of matched sources (path and bytes)
// so the Copy step's cache key changes whenever the copied content
// does, independent of the destination path.
func contentHash(matches []string) (string, error) {
	h := sha256.New()
	for _, src := range matches {
		io.WriteString(h, src)
		h.Write([]byte{0})

		info, err := os.Stat(src)
		if err != nil {
			return "", err
		}
		if info.IsDir() {
			continue
		}

		f, err := os.Open(src)
		if err != nil {
			return "", err
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
