package imagestore

import (
	"strings"
	"testing"

	digest "github.com/opencontainers/go-digest"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/cubohq/cubo/internal/ociref"
)

func TestPutGetImage(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatal(err)
	}

	ref, err := ociref.Parse("alpine:latest")
	if err != nil {
		t.Fatal(err)
	}

	layerContent := []byte("hello layer")
	layerDigest := digest.FromBytes(layerContent)

	if _, err := store.PutBlob(ref, layerDigest, strings.NewReader(string(layerContent))); err != nil {
		t.Fatalf("PutBlob: %v", err)
	}
	if !store.HasBlob(ref, layerDigest) {
		t.Fatal("expected blob to exist")
	}

	configBytes := []byte(`{"architecture":"amd64","os":"linux","config":{},"rootfs":{"type":"layers","diff_ids":[]}}`)
	configDigest := digest.FromBytes(configBytes)

	manifest := &v1.Manifest{
		MediaType: v1.MediaTypeImageManifest,
		Config: v1.Descriptor{
			MediaType: v1.MediaTypeImageConfig,
			Digest:    configDigest,
			Size:      int64(len(configBytes)),
		},
		Layers: []v1.Descriptor{
			{MediaType: v1.MediaTypeImageLayerGzip, Digest: layerDigest, Size: int64(len(layerContent))},
		},
	}
	config := &v1.Image{Platform: v1.Platform{Architecture: "amd64", OS: "linux"}}

	if err := store.PutImage(ref, manifest, config); err != nil {
		t.Fatalf("PutImage: %v", err)
	}
	if !store.Exists(ref) {
		t.Fatal("expected image to exist")
	}

	img, err := store.GetImage(ref)
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if len(img.Manifest.Layers) != 1 {
		t.Fatalf("unexpected layers: %+v", img.Manifest.Layers)
	}

	summaries, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
}

func TestPutBlobDigestMismatch(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatal(err)
	}
	ref, _ := ociref.Parse("alpine:latest")

	wrong := digest.FromBytes([]byte("not this"))
	_, err = store.PutBlob(ref, wrong, strings.NewReader("actual content"))
	if err != ErrDigestMismatch {
		t.Fatalf("expected ErrDigestMismatch, got %v", err)
	}
	if store.HasBlob(ref, wrong) {
		t.Fatal("mismatched blob should not be retained")
	}
}

func TestRemoveNotFound(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatal(err)
	}
	ref, _ := ociref.Parse("alpine:latest")
	if err := store.Remove(ref, false, nil); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
