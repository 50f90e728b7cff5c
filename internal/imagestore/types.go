package imagestore

import (
	"time"

	v1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/cubohq/cubo/internal/ociref"
)

// Image is a fully resolved, on-disk image: its manifest, its config, and
// the directory holding both plus its blobs.
type Image struct {
	ID        string           // digest of the config, e.g. "sha256:..."
	Reference ociref.Reference // the reference this image was stored under
	Manifest  *v1.Manifest
	Config    *v1.Image
	Dir       string
}

// ShortID returns the first 12 hex characters of the config digest, used
// for display.
func (img *Image) ShortID() string {
	id := img.ID
	if i := indexOf(id, ':'); i >= 0 {
		id = id[i+1:]
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

func indexOf(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// Summary is the lightweight listing form of a stored image.
type Summary struct {
	Reference string
	ID        string
	ShortID   string
	Created   time.Time
	Size      int64
}
