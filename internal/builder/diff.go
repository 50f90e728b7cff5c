package builder

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/gzip"
	digest "github.com/opencontainers/go-digest"
)

// fileState is the stat-based fingerprint used to detect whether a path
// changed between two snapshots of the same rootfs, the same comparison
// an overlay filesystem diff driver would make: mode, size, and mtime,
// not a full content hash.
type fileState struct {
	mode    os.FileMode
	size    int64
	modTime time.Time
	isDir   bool
}

// snapshotTree walks root and records a fileState per entry, keyed by
// slash-separated path relative to root.
func snapshotTree(root string) (map[string]fileState, error) {
	out := map[string]fileState{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = fileState{
			mode:    info.Mode(),
			size:    info.Size(),
			modTime: info.ModTime(),
			isDir:   d.IsDir(),
		}
		return nil
	})
	return out, err
}

// diffTrees compares a before/after pair of snapshots from the same
// root, returning the relative paths that are new or changed (sorted,
// parents before children) and the paths that were removed.
func diffTrees(before, after map[string]fileState) (changed, deleted []string) {
	for path, a := range after {
		b, existed := before[path]
		if !existed || a != b {
			changed = append(changed, path)
		}
	}
	for path := range before {
		if _, stillThere := after[path]; !stillThere {
			deleted = append(deleted, path)
		}
	}
	sort.Strings(changed)
	sort.Strings(deleted)
	return changed, deleted
}

// layerResult is a freshly built layer: its uncompressed tar (identified
// by diffID) and its gzip-compressed form (identified by the layer
// digest that goes into the manifest).
type layerResult struct {
	compressed   []byte
	compressedID digest.Digest
	diffID       digest.Digest
	size         int64
}

// buildLayer tars changed and deleted into a layer diff rooted at root:
// changed paths are archived with their current content and mode;
// deleted paths become ".wh.<name>" whiteout entries in their parent
// directory, matching the whiteout convention internal/rootfs consumes.
func buildLayer(root string, changed, deleted []string) (*layerResult, error) {
	var uncompressed bytes.Buffer
	tw := tar.NewWriter(&uncompressed)

	for _, rel := range changed {
		if err := writeTreeEntry(tw, root, rel); err != nil {
			tw.Close()
			return nil, err
		}
	}
	for _, rel := range deleted {
		dir, base := filepath.Split(rel)
		name := filepath.ToSlash(filepath.Join(dir, ".wh."+base))
		hdr := &tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0644}
		if err := tw.WriteHeader(hdr); err != nil {
			tw.Close()
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}

	diffID := digest.FromBytes(uncompressed.Bytes())

	var compressed bytes.Buffer
	gw := gzip.NewWriter(&compressed)
	if _, err := gw.Write(uncompressed.Bytes()); err != nil {
		gw.Close()
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}

	return &layerResult{
		compressed:   compressed.Bytes(),
		compressedID: digest.FromBytes(compressed.Bytes()),
		diffID:       diffID,
		size:         int64(compressed.Len()),
	}, nil
}

func writeTreeEntry(tw *tar.Writer, root, rel string) error {
	full := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Lstat(full)
	if err != nil {
		return err
	}

	var linkname string
	if info.Mode()&os.ModeSymlink != 0 {
		linkname, err = os.Readlink(full)
		if err != nil {
			return err
		}
	}

	hdr, err := tar.FileInfoHeader(info, linkname)
	if err != nil {
		return err
	}
	hdr.Name = rel

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	if info.Mode().IsRegular() {
		f, err := os.Open(full)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(tw, f); err != nil {
			return err
		}
	}
	return nil
}
