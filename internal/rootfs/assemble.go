package rootfs

import (
	"archive/tar"
	"io"
	"os"

	gzip "github.com/klauspost/compress/gzip"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/cubohq/cubo/internal/errkit"
	"github.com/cubohq/cubo/internal/imagestore"
	"github.com/cubohq/cubo/internal/ociref"
)

// Assemble unpacks img's layers, in manifest order, into destDir, which is
// created if necessary. Whiteouts and opaque markers are scoped per layer:
// a layer's deletions remove content from the accumulated lower state, not
// from entries the same layer itself writes.
func Assemble(store *imagestore.Store, img *imagestore.Image, destDir string) error {
	if len(img.Manifest.Layers) == 0 {
		return ErrEmptyImage
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return errkit.Wrap(ErrApply, err)
	}

	for _, layer := range img.Manifest.Layers {
		if err := applyLayerBlob(store, img.Reference, layer, destDir); err != nil {
			return errkit.Wrapf(ErrApply, err, "layer %s", layer.Digest)
		}
	}
	return nil
}

func applyLayerBlob(store *imagestore.Store, ref ociref.Reference, layer v1.Descriptor, destDir string) error {
	f, err := store.OpenBlob(ref, layer.Digest)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := maybeGunzip(f)
	if err != nil {
		return err
	}
	if closer, ok := r.(io.Closer); ok && r != io.Reader(f) {
		defer closer.Close()
	}

	tr := tar.NewReader(r)
	applier := NewApplier(destDir)
	return ParseEntries(tr, applier.Handle)
}

func maybeGunzip(f *os.File) (io.Reader, error) {
	magic := make([]byte, 2)
	n, _ := io.ReadFull(f, magic)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if n == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		return gzip.NewReader(f)
	}
	return f, nil
}
