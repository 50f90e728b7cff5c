package runtime

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFetchLogsInterleavesByCaptureTime(t *testing.T) {
	logsDir := t.TempDir()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stdout := base.Format(time.RFC3339Nano) + " first\n" +
		base.Add(2*time.Second).Format(time.RFC3339Nano) + " third\n"
	stderr := base.Add(1 * time.Second).Format(time.RFC3339Nano) + " second\n"

	if err := os.WriteFile(filepath.Join(logsDir, "stdout.log"), []byte(stdout), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(logsDir, "stderr.log"), []byte(stderr), 0644); err != nil {
		t.Fatal(err)
	}

	rt := &Runtime{}
	var buf bytes.Buffer
	if _, err := rt.fetchLogsFrom(logsDir, 0, false, &buf); err != nil {
		t.Fatal(err)
	}

	want := "first\nsecond\nthird\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestFetchLogsTailLimitsToLastN(t *testing.T) {
	logsDir := t.TempDir()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var stdout string
	for i := 0; i < 5; i++ {
		stdout += base.Add(time.Duration(i) * time.Second).Format(time.RFC3339Nano) + " line\n"
	}
	if err := os.WriteFile(filepath.Join(logsDir, "stdout.log"), []byte(stdout), 0644); err != nil {
		t.Fatal(err)
	}

	rt := &Runtime{}
	var buf bytes.Buffer
	if _, err := rt.fetchLogsFrom(logsDir, 2, false, &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "line\nline\n" {
		t.Fatalf("tail: %q", buf.String())
	}
}

func TestTimestampWriterStampsLines(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "out.log"))
	if err != nil {
		t.Fatal(err)
	}
	w := newTimestampWriter(f)
	if _, err := w.Write([]byte("hello\nworld")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out.log"))
	if err != nil {
		t.Fatal(err)
	}
	lines, err := readLogFile(filepath.Join(dir, "out.log"))
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 || lines[0].text != "hello" || lines[1].text != "world" {
		t.Fatalf("lines: %+v (raw %q)", lines, data)
	}
	if lines[0].at.IsZero() || lines[1].at.IsZero() {
		t.Fatalf("expected stamped timestamps, got %+v", lines)
	}
}
