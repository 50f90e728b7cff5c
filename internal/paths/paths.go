package paths

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for the root directory under each base path.
	appName = "cubo"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Root resolves Cubo's root directory.
//
// Precedence: explicit (non-empty) is returned as-is; otherwise CUBO_ROOT;
// otherwise XDG_STATE_HOME/cubo; otherwise XDG_DATA_HOME/cubo; otherwise
// HOME/.local/state/cubo; otherwise /tmp/cubo. The resolved directory is
// created if it does not exist.
func Root(explicit string) (string, error) {
	dir := resolve(explicit)
	if err := os.MkdirAll(dir, DefaultDirMode); err != nil {
		return "", err
	}
	return dir, nil
}

func resolve(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv("CUBO_ROOT"); v != "" {
		return v
	}
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return filepath.Join(v, appName)
	}
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return filepath.Join(v, appName)
	}
	if xdg.Home != "" {
		return filepath.Join(xdg.Home, ".local", "state", appName)
	}
	return filepath.Join(os.TempDir(), appName)
}

// WriteJSONAtomic serializes v and writes it to path using the atomic write
// contract: serialize, write to a sibling temp file "path.tmp-<rand>" in the
// same directory, fsync, rename over path. A crash at any point leaves
// either the pre-write or the post-write content at path, never a partial
// file.
func WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data to path following the same atomic-rename
// discipline as [WriteJSONAtomic], without requiring a JSON-marshalable
// value.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DefaultDirMode); err != nil {
		return err
	}

	tmp := filepath.Join(dir, filepath.Base(path)+".tmp-"+randSuffix())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, DefaultFileMode)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// ReadJSON reads and unmarshals the document at path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func randSuffix() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failure is effectively unreachable on supported
		// platforms; fall back to a fixed marker rather than panic.
		return "fallback"
	}
	return hex.EncodeToString(b[:])
}
