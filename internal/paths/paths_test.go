package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePrecedence(t *testing.T) {
	t.Setenv("CUBO_ROOT", "")
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")

	if got := resolve("/explicit"); got != "/explicit" {
		t.Fatalf("explicit: got %q", got)
	}

	t.Setenv("CUBO_ROOT", "/from-env")
	if got := resolve(""); got != "/from-env" {
		t.Fatalf("CUBO_ROOT: got %q", got)
	}

	t.Setenv("CUBO_ROOT", "")
	t.Setenv("XDG_STATE_HOME", "/state")
	if got := resolve(""); got != filepath.Join("/state", "cubo") {
		t.Fatalf("XDG_STATE_HOME: got %q", got)
	}

	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := resolve(""); got != filepath.Join("/data", "cubo") {
		t.Fatalf("XDG_DATA_HOME: got %q", got)
	}
}

func TestWriteJSONAtomicRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	type doc struct {
		Status string `json:"status"`
	}

	if err := WriteJSONAtomic(path, doc{Status: "running"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var got doc
	if err := ReadJSON(path, &got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Status != "running" {
		t.Fatalf("got %+v", got)
	}

	// No leftover temp files.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly the final file, got %v", entries)
	}
}

func TestWriteJSONAtomicOverwritePreservesOldOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	if err := WriteFileAtomic(path, []byte(`{"status":"created"}`)); err != nil {
		t.Fatal(err)
	}

	// A failed marshal (channels cannot be marshaled) must not touch the
	// existing file.
	err := WriteJSONAtomic(path, map[string]any{"bad": make(chan int)})
	if err == nil {
		t.Fatal("expected marshal error")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"status":"created"}` {
		t.Fatalf("old content clobbered: %s", data)
	}
}
