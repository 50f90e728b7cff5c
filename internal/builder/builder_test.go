package builder

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	digest "github.com/opencontainers/go-digest"
)

func TestStepCacheKeyStableAndSensitive(t *testing.T) {
	parent := digest.FromString("scratch")

	a := stepCacheKey(parent, "RUN", "apk add curl", "")
	b := stepCacheKey(parent, "RUN", "apk add curl", "")
	if a != b {
		t.Fatalf("expected stable cache key, got %q and %q", a, b)
	}

	if c := stepCacheKey(parent, "RUN", "apk add wget", ""); c == a {
		t.Fatal("expected different command to change the cache key")
	}
	if c := stepCacheKey(digest.FromString("other"), "RUN", "apk add curl", ""); c == a {
		t.Fatal("expected different parent to change the cache key")
	}
	if c := stepCacheKey(parent, "COPY", "apk add curl", ""); c == a {
		t.Fatal("expected different step kind to change the cache key")
	}
}

func TestCacheGetMissOnEmptyIndex(t *testing.T) {
	c := newCache(t.TempDir())
	if _, ok := c.get("sha256:doesnotexist"); ok {
		t.Fatal("expected miss against an empty cache")
	}
}

func TestCachePutGetRoundTrip(t *testing.T) {
	c := newCache(t.TempDir())
	entry := cacheEntry{
		LayerDigest: digest.FromString("layer"),
		DiffID:      digest.FromString("diff"),
		Size:        42,
	}
	if err := c.put("k1", entry); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok := c.get("k1")
	if !ok {
		t.Fatal("expected hit after put")
	}
	if got != entry {
		t.Fatalf("got %+v, want %+v", got, entry)
	}
}

func TestCacheStoreOpenRoundTrip(t *testing.T) {
	c := newCache(t.TempDir())
	dgst := digest.FromBytes([]byte("blob bytes"))
	if err := c.store(dgst, []byte("blob bytes")); err != nil {
		t.Fatalf("store: %v", err)
	}
	f, err := c.open(dgst)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	buf := make([]byte, 32)
	n, _ := f.Read(buf)
	if string(buf[:n]) != "blob bytes" {
		t.Fatalf("got %q", buf[:n])
	}
}

func TestSnapshotTreeAndDiff(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "keep.txt"), "same")
	mustWrite(t, filepath.Join(root, "remove.txt"), "gone soon")

	before, err := snapshotTree(root)
	if err != nil {
		t.Fatalf("snapshotTree before: %v", err)
	}

	if err := os.Remove(filepath.Join(root, "remove.txt")); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(root, "added.txt"), "new content")

	after, err := snapshotTree(root)
	if err != nil {
		t.Fatalf("snapshotTree after: %v", err)
	}

	changed, deleted := diffTrees(before, after)
	if !contains(changed, "added.txt") {
		t.Fatalf("expected added.txt in changed, got %v", changed)
	}
	if contains(changed, "keep.txt") {
		t.Fatalf("did not expect keep.txt in changed, got %v", changed)
	}
	if !contains(deleted, "remove.txt") {
		t.Fatalf("expected remove.txt in deleted, got %v", deleted)
	}
}

func TestBuildLayerEmitsWhiteoutForDeletedPath(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "added.txt"), "new content")

	layer, err := buildLayer(root, []string{"added.txt"}, []string{"gone.txt"})
	if err != nil {
		t.Fatalf("buildLayer: %v", err)
	}
	if layer.size == 0 {
		t.Fatal("expected non-empty compressed layer")
	}

	gz, err := gzip.NewReader(bytes.NewReader(layer.compressed))
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	var names []string
	for {
		hdr, err := tr.Next()
		if err != nil {
			break
		}
		names = append(names, hdr.Name)
	}

	if !contains(names, "added.txt") {
		t.Fatalf("expected added.txt in layer, got %v", names)
	}
	if !contains(names, ".wh.gone.txt") {
		t.Fatalf("expected whiteout entry for gone.txt, got %v", names)
	}

	if layer.compressedID == "" || layer.diffID == "" {
		t.Fatal("expected both digests to be set")
	}
	if layer.compressedID == layer.diffID {
		t.Fatal("compressed digest and diff id should differ (one is gzip, one is raw tar)")
	}
}

func TestContentHashChangesWithFileContent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	mustWrite(t, src, "v1")

	h1, err := contentHash([]string{src})
	if err != nil {
		t.Fatalf("contentHash: %v", err)
	}

	mustWrite(t, src, "v2")
	h2, err := contentHash([]string{src})
	if err != nil {
		t.Fatalf("contentHash: %v", err)
	}

	if h1 == h2 {
		t.Fatal("expected content hash to change when file content changes")
	}
}

func TestMatchSourcesGlob(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.txt"), "a")
	mustWrite(t, filepath.Join(dir, "b.txt"), "b")
	mustWrite(t, filepath.Join(dir, "c.md"), "c")

	matches, err := matchSources(dir, "*.txt")
	if err != nil {
		t.Fatalf("matchSources: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %v", matches)
	}
}

func TestCopySourcesIntoDirDestination(t *testing.T) {
	srcDir := t.TempDir()
	mustWrite(t, filepath.Join(srcDir, "app.bin"), "binary")

	rootfsDir := t.TempDir()
	matches, err := matchSources(srcDir, "app.bin")
	if err != nil {
		t.Fatalf("matchSources: %v", err)
	}

	if err := copySources(rootfsDir, matches, "/usr/local/bin/"); err != nil {
		t.Fatalf("copySources: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(rootfsDir, "usr", "local", "bin", "app.bin"))
	if err != nil {
		t.Fatalf("expected copied file: %v", err)
	}
	if string(got) != "binary" {
		t.Fatalf("got %q", got)
	}
}

func TestEnvSliceSortedRoundTrip(t *testing.T) {
	env := map[string]string{"PATH": "/usr/bin", "HOME": "/root"}
	slice := envSliceSorted(env)
	back := parseEnv(slice)
	if back["PATH"] != "/usr/bin" || back["HOME"] != "/root" {
		t.Fatalf("round trip mismatch: %v", back)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

