package runtime

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cubohq/cubo/internal/containerstore"
)

type logLine struct {
	at   time.Time
	text string
}

// FetchLogs writes a container's captured stdout/stderr to w, interleaved
// by capture time. tail > 0 limits the initial dump to the last N lines;
// follow blocks and streams new lines until the container stops and no
// further output arrives, or ctx is cancelled; timestamps prefixes each
// line with its RFC3339Nano capture time.
func (rt *Runtime) FetchLogs(ctx context.Context, id string, follow bool, tail int, timestamps bool, w io.Writer) error {
	logsDir := rt.Containers.LogsDir(id)

	seen, err := rt.fetchLogsFrom(logsDir, tail, timestamps, w)
	if err != nil {
		return err
	}
	if !follow {
		return nil
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			all, err := mergedLines(logsDir)
			if err != nil {
				return err
			}
			if len(all) > seen {
				for _, l := range all[seen:] {
					writeLogLine(w, l, timestamps)
				}
				seen = len(all)
			}

			st, err := rt.Containers.LoadState(id)
			if err == nil && st.Status == containerstore.StatusStopped && len(all) == seen {
				return nil
			}
		}
	}
}

// fetchLogsFrom writes the historical (non-follow) portion of logsDir's
// logs to w and returns the total number of lines the logs held at that
// point (whether or not tail cut some from the output), so callers that
// continue into follow mode know where new output starts.
func (rt *Runtime) fetchLogsFrom(logsDir string, tail int, timestamps bool, w io.Writer) (int, error) {
	lines, err := mergedLines(logsDir)
	if err != nil {
		return 0, err
	}
	total := len(lines)
	if tail > 0 && len(lines) > tail {
		lines = lines[len(lines)-tail:]
	}
	for _, l := range lines {
		writeLogLine(w, l, timestamps)
	}
	return total, nil
}

func mergedLines(logsDir string) ([]logLine, error) {
	out, err := readLogFile(filepath.Join(logsDir, "stdout.log"))
	if err != nil {
		return nil, err
	}
	errLines, err := readLogFile(filepath.Join(logsDir, "stderr.log"))
	if err != nil {
		return nil, err
	}
	out = append(out, errLines...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].at.Before(out[j].at) })
	return out, nil
}

func readLogFile(path string) ([]logLine, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []logLine
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		out = append(out, parseLogLine(sc.Text()))
	}
	return out, sc.Err()
}

func parseLogLine(raw string) logLine {
	ts, text, ok := strings.Cut(raw, " ")
	if !ok {
		return logLine{text: raw}
	}
	at, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return logLine{text: raw}
	}
	return logLine{at: at, text: text}
}

func writeLogLine(w io.Writer, l logLine, timestamps bool) {
	if timestamps && !l.at.IsZero() {
		io.WriteString(w, l.at.Format(time.RFC3339Nano)+" "+l.text+"\n")
		return
	}
	io.WriteString(w, l.text+"\n")
}
