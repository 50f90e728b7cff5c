package rootfs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestApplierWhiteoutRemovesLowerFile(t *testing.T) {
	dir := t.TempDir()

	// Lower layer: a file at foo/bar.
	if err := os.MkdirAll(filepath.Join(dir, "foo"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "foo", "bar"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	a := NewApplier(dir)
	if err := a.Handle(Event{Kind: Delete, Path: "foo/bar"}); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, "foo", "bar")); !os.IsNotExist(err) {
		t.Fatalf("expected foo/bar to be removed, stat err = %v", err)
	}
}

func TestApplierOpaqueClearsLowerButNotSameLayerWrites(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "foo"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "foo", "old"), []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}

	a := NewApplier(dir)

	// This layer writes foo/new first...
	if err := a.Handle(Event{Kind: CreateFile, Path: "foo/new", Mode: 0644, Content: strings.NewReader("new")}); err != nil {
		t.Fatal(err)
	}
	// ...then marks foo opaque. The pre-existing "old" lower-layer entry
	// must be cleared, but "new" (written by this same layer) must remain
	// untouched per the opaque semantics.
	if err := a.Handle(Event{Kind: Opaque, Path: "foo"}); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, "foo", "old")); !os.IsNotExist(err) {
		t.Fatalf("expected foo/old cleared by opaque, err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "foo", "new")); err != nil {
		t.Fatalf("expected foo/new to survive opaque: %v", err)
	}
}

func TestApplierCreateFileAndDir(t *testing.T) {
	dir := t.TempDir()
	a := NewApplier(dir)

	if err := a.Handle(Event{Kind: CreateDir, Path: "a/b", Mode: 0755}); err != nil {
		t.Fatal(err)
	}
	if err := a.Handle(Event{Kind: CreateFile, Path: "a/b/c.txt", Mode: 0644, Content: strings.NewReader("hello")}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "a", "b", "c.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("got %q", data)
	}
}
