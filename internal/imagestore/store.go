package imagestore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	digest "github.com/opencontainers/go-digest"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/cubohq/cubo/internal/errkit"
	"github.com/cubohq/cubo/internal/ociref"
	"github.com/cubohq/cubo/internal/paths"
)

const (
	manifestFile = "manifest.json"
	configFile   = "config.json"
	blobsDir     = "blobs"
)

// Store persists images under a root directory.
type Store struct {
	root string // <cubo-root>/images
}

// New returns a Store rooted at <cubo-root>/images, creating the directory
// if necessary.
func New(cuboRoot string) (*Store, error) {
	root := filepath.Join(cuboRoot, "images")
	if err := os.MkdirAll(root, paths.DefaultDirMode); err != nil {
		return nil, errkit.Wrap(ErrCorrupt, err)
	}
	return &Store{root: root}, nil
}

func (s *Store) dir(ref ociref.Reference) string {
	return filepath.Join(s.root, ref.Sanitized())
}

func (s *Store) blobPath(dir string, dgst digest.Digest) string {
	return filepath.Join(dir, blobsDir, dgst.Algorithm().String(), dgst.Encoded())
}

// Exists reports whether an image is present for ref.
func (s *Store) Exists(ref ociref.Reference) bool {
	_, err := os.Stat(filepath.Join(s.dir(ref), manifestFile))
	return err == nil
}

// HasBlob reports whether the blob for dgst exists under ref's directory.
func (s *Store) HasBlob(ref ociref.Reference, dgst digest.Digest) bool {
	_, err := os.Stat(s.blobPath(s.dir(ref), dgst))
	return err == nil
}

// PutBlob streams r into the blob store under ref, verifying that its
// SHA-256 matches expected. On mismatch the partially written blob is
// deleted and ErrDigestMismatch is returned.
func (s *Store) PutBlob(ref ociref.Reference, expected digest.Digest, r io.Reader) (int64, error) {
	dir := s.dir(ref)
	blobDir := filepath.Join(dir, blobsDir, expected.Algorithm().String())
	if err := os.MkdirAll(blobDir, paths.DefaultDirMode); err != nil {
		return 0, errkit.Wrap(ErrCorrupt, err)
	}

	tmp, err := os.CreateTemp(blobDir, "blob-*.tmp")
	if err != nil {
		return 0, errkit.Wrap(ErrCorrupt, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}

	got := digest.NewDigestFromEncoded(digest.SHA256, hex.EncodeToString(h.Sum(nil)))
	if got != expected {
		return n, ErrDigestMismatch
	}

	final := s.blobPath(dir, expected)
	if err := os.Rename(tmpPath, final); err != nil {
		return n, errkit.Wrap(ErrCorrupt, err)
	}
	return n, nil
}

// OpenBlob opens the blob for dgst under ref for reading.
func (s *Store) OpenBlob(ref ociref.Reference, dgst digest.Digest) (*os.File, error) {
	f, err := os.Open(s.blobPath(s.dir(ref), dgst))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errkit.Wrap(ErrNotFound, err)
		}
		return nil, err
	}
	return f, nil
}

// PutImage writes an image's config and manifest under ref. Blobs must
// already have been written via PutBlob before this is called, per the
// write order that guarantees a readable manifest implies its blobs exist.
func (s *Store) PutImage(ref ociref.Reference, manifest *v1.Manifest, config *v1.Image) error {
	dir := s.dir(ref)
	if err := os.MkdirAll(dir, paths.DefaultDirMode); err != nil {
		return errkit.Wrap(ErrCorrupt, err)
	}

	if manifest.Annotations == nil {
		manifest.Annotations = map[string]string{}
	}
	manifest.Annotations["io.cubo.reference"] = ref.Raw()

	if err := paths.WriteJSONAtomic(filepath.Join(dir, configFile), config); err != nil {
		return errkit.Wrap(ErrCorrupt, err)
	}
	if err := paths.WriteJSONAtomic(filepath.Join(dir, manifestFile), manifest); err != nil {
		return errkit.Wrap(ErrCorrupt, err)
	}
	return nil
}

// GetImage reads the manifest and config for ref, verifying that every
// blob the manifest references is present.
func (s *Store) GetImage(ref ociref.Reference) (*Image, error) {
	dir := s.dir(ref)

	var manifest v1.Manifest
	if err := paths.ReadJSON(filepath.Join(dir, manifestFile), &manifest); err != nil {
		if os.IsNotExist(err) {
			return nil, errkit.Wrap(ErrNotFound, err)
		}
		return nil, errkit.Wrap(ErrCorrupt, err)
	}

	var config v1.Image
	if err := paths.ReadJSON(filepath.Join(dir, configFile), &config); err != nil {
		return nil, errkit.Wrap(ErrCorrupt, err)
	}

	for _, l := range manifest.Layers {
		if _, err := os.Stat(s.blobPath(dir, l.Digest)); err != nil {
			return nil, errkit.Wrapf(ErrCorrupt, err, "missing blob %s", l.Digest)
		}
	}

	return &Image{
		ID:        manifest.Config.Digest.String(),
		Reference: ref,
		Manifest:  &manifest,
		Config:    &config,
		Dir:       dir,
	}, nil
}

// List enumerates all stored images.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []Summary
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		var manifest v1.Manifest
		mp := filepath.Join(s.root, e.Name(), manifestFile)
		if err := paths.ReadJSON(mp, &manifest); err != nil {
			continue
		}
		var size int64
		for _, l := range manifest.Layers {
			size += l.Size
		}

		ref := manifest.Annotations["io.cubo.reference"]
		var created time.Time
		var config v1.Image
		if err := paths.ReadJSON(filepath.Join(s.root, e.Name(), configFile), &config); err == nil && config.Created != nil {
			created = *config.Created
		}

		id := manifest.Config.Digest.String()
		out = append(out, Summary{
			Reference: ref,
			ID:        id,
			ShortID:   shortID(id),
			Created:   created,
			Size:      size,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Reference < out[j].Reference })
	return out, nil
}

// Remove deletes the stored image for ref. When force is false, inUse (if
// non-nil) is consulted first and ErrInUse is returned if it reports true.
func (s *Store) Remove(ref ociref.Reference, force bool, inUse func(ociref.Reference) bool) error {
	if !s.Exists(ref) {
		return ErrNotFound
	}
	if !force && inUse != nil && inUse(ref) {
		return ErrInUse
	}
	return os.RemoveAll(s.dir(ref))
}

// Marshal is a small helper used by callers that need the canonical JSON
// bytes of a manifest or config, e.g. for computing its digest.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func shortID(id string) string {
	if i := indexOf(id, ':'); i >= 0 {
		id = id[i+1:]
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
