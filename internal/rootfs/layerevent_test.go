package rootfs

import (
	"archive/tar"
	"bytes"
	"testing"
)

func buildTar(t *testing.T, entries [][2]string) *tar.Reader {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, entry := range entries {
		name, content := entry[0], entry[1]
		hdr := &tar.Header{Name: name, Mode: 0644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return tar.NewReader(&buf)
}

func TestParseEntriesWhiteoutAndOpaque(t *testing.T) {
	tr := buildTar(t, [][2]string{
		{"foo/.wh.bar", ""},
		{"foo/.wh..wh..opq", ""},
		{"foo/new.txt", "data"},
	})

	var events []Event
	err := ParseEntries(tr, func(ev Event) error {
		events = append(events, ev)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(events), events)
	}
	if events[0].Kind != Delete || events[0].Path != "foo/bar" {
		t.Fatalf("event 0: %+v", events[0])
	}
	if events[1].Kind != Opaque || events[1].Path != "foo" {
		t.Fatalf("event 1: %+v", events[1])
	}
	if events[2].Kind != CreateFile || events[2].Path != "foo/new.txt" {
		t.Fatalf("event 2: %+v", events[2])
	}
}
