package containerstore

import (
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return New(dir)
}

func TestCreateLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	cfg := Config{ID: "abc123", Name: "web", Image: "alpine:latest", Command: []string{"/bin/sh"}, CreatedAt: time.Unix(0, 0).UTC()}

	if err := s.Create(cfg); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadConfig("abc123")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "web" || got.Image != "alpine:latest" {
		t.Fatalf("config mismatch: %+v", got)
	}

	st, err := s.LoadState("abc123")
	if err != nil {
		t.Fatal(err)
	}
	if st.Status != StatusCreated {
		t.Fatalf("expected created, got %s", st.Status)
	}
	if st.Annotations["name"] != "web" {
		t.Fatalf("expected name annotation, got %+v", st.Annotations)
	}
}

func TestResolvePrefixAndName(t *testing.T) {
	s := newTestStore(t)
	for _, cfg := range []Config{
		{ID: "aaaa1111", Name: "one"},
		{ID: "aaaa2222", Name: "two"},
		{ID: "bbbb3333", Name: "three"},
	} {
		if err := s.Create(cfg); err != nil {
			t.Fatal(err)
		}
	}

	if id, err := s.Resolve("bbbb"); err != nil || id != "bbbb3333" {
		t.Fatalf("unique prefix: id=%q err=%v", id, err)
	}
	if _, err := s.Resolve("aaaa"); err != ErrAmbiguousID {
		t.Fatalf("expected ambiguous, got %v", err)
	}
	if id, err := s.Resolve("two"); err != nil || id != "aaaa2222" {
		t.Fatalf("name lookup: id=%q err=%v", id, err)
	}
	if _, err := s.Resolve("nope"); err != ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListExcludesStoppedByDefault(t *testing.T) {
	s := newTestStore(t)
	if err := s.Create(Config{ID: "r1", CreatedAt: time.Unix(1, 0)}); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(Config{ID: "s1", CreatedAt: time.Unix(2, 0)}); err != nil {
		t.Fatal(err)
	}
	st, _ := s.LoadState("s1")
	st.Status = StatusStopped
	if err := s.SaveState("s1", st); err != nil {
		t.Fatal(err)
	}

	running, err := s.List(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(running) != 1 || running[0].Config.ID != "r1" {
		t.Fatalf("expected only r1, got %+v", running)
	}

	all, err := s.List(true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2, got %d", len(all))
	}
}

func TestReconcileDowngradesDeadPid(t *testing.T) {
	s := newTestStore(t)
	cfg := Config{ID: "dead1", CreatedAt: time.Unix(1, 0)}
	if err := s.Create(cfg); err != nil {
		t.Fatal(err)
	}

	// A pid astronomically unlikely to be alive in the test sandbox.
	st, _ := s.LoadState("dead1")
	st.Status = StatusRunning
	st.Pid = 1 << 30
	if err := s.SaveState("dead1", st); err != nil {
		t.Fatal(err)
	}

	if err := s.Reconcile(time.Unix(100, 0)); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadState("dead1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusStopped {
		t.Fatalf("expected stopped, got %s", got.Status)
	}
	if got.Pid != 0 {
		t.Fatalf("expected pid cleared, got %d", got.Pid)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(time.Unix(100, 0)) {
		t.Fatalf("expected finished_at stamped, got %+v", got.FinishedAt)
	}
}

func TestReconcileLeavesLiveProcessRunning(t *testing.T) {
	s := newTestStore(t)
	cfg := Config{ID: "live1", CreatedAt: time.Unix(1, 0)}
	if err := s.Create(cfg); err != nil {
		t.Fatal(err)
	}

	st, _ := s.LoadState("live1")
	st.Status = StatusRunning
	st.Pid = os.Getpid()
	if err := s.SaveState("live1", st); err != nil {
		t.Fatal(err)
	}

	if err := s.Reconcile(time.Unix(200, 0)); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadState("live1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusRunning {
		t.Fatalf("expected still running, got %s", got.Status)
	}
}

func TestPidIsAliveSelf(t *testing.T) {
	if !pidIsAlive(os.Getpid()) {
		t.Fatal("expected own pid to be alive")
	}
	_ = unix.Kill // keep import honest if probe implementation changes
}
