package rootfs

import (
	"archive/tar"
	"io"
	"strings"
	"time"
)

// Kind distinguishes the mutation an Event describes.
type Kind int

const (
	CreateFile Kind = iota
	CreateDir
	CreateSymlink
	CreateHardlink
	Delete // whiteout: remove Path from the accumulated lower state
	Opaque // .wh..wh..opq: clear Path's pre-existing content before later entries of this layer
)

const (
	whiteoutPrefix = ".wh."
	opaqueMarker   = ".wh..wh..opq"
)

// Event is one normalized unit of filesystem mutation derived from a tar
// entry. Content, when present, must be fully consumed by the handler
// before the next Event is produced; it is backed by the underlying tar
// reader's current entry.
type Event struct {
	Kind     Kind
	Path     string // slash-separated, relative to the rootfs root
	Mode     int64
	UID, GID int
	Linkname string
	Size     int64
	ModTime  time.Time
	Content  io.Reader
}

// Handler consumes one Event, performing (or recording) the corresponding
// mutation.
type Handler func(Event) error

// ParseEntries reads tar entries from tr and invokes handle once per
// entry, translating whiteout and opaque-marker names into Delete/Opaque
// events and everything else into the matching Create* event.
func ParseEntries(tr *tar.Reader, handle Handler) error {
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		name := strings.TrimPrefix(hdr.Name, "./")
		if name == "." || name == "" {
			continue
		}

		dir, base := splitPath(name)
		if base == opaqueMarker {
			if err := handle(Event{Kind: Opaque, Path: dir}); err != nil {
				return err
			}
			continue
		}
		if strings.HasPrefix(base, whiteoutPrefix) {
			target := joinPath(dir, strings.TrimPrefix(base, whiteoutPrefix))
			if err := handle(Event{Kind: Delete, Path: target}); err != nil {
				return err
			}
			continue
		}

		ev := Event{
			Path:    name,
			Mode:    hdr.Mode,
			UID:     hdr.Uid,
			GID:     hdr.Gid,
			Size:    hdr.Size,
			ModTime: hdr.ModTime,
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			ev.Kind = CreateDir
		case tar.TypeSymlink:
			ev.Kind = CreateSymlink
			ev.Linkname = hdr.Linkname
		case tar.TypeLink:
			ev.Kind = CreateHardlink
			ev.Linkname = hdr.Linkname
		case tar.TypeReg, tar.TypeRegA:
			ev.Kind = CreateFile
			ev.Content = tr
		default:
			// Device nodes, fifos, etc: not materialized; skip silently,
			// matching the whitelist-oriented scope of this assembler.
			continue
		}

		if err := handle(ev); err != nil {
			return err
		}
	}
}

func splitPath(name string) (dir, base string) {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

func joinPath(dir, base string) string {
	if dir == "" {
		return base
	}
	return dir + "/" + base
}
