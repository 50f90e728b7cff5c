package cli

import (
	"context"
	"os"

	"github.com/cubohq/cubo/internal/runtime"
)

// LogsCmd implements "cubo logs": dump (and optionally follow) a
// container's interleaved stdout/stderr.
type LogsCmd struct {
	Container  string `arg:"" help:"Container id or name."`
	Follow     bool   `short:"f" help:"Stream new output until the container stops."`
	Tail       int    `help:"Only show the last N lines (0 for all)." default:"0"`
	Timestamps bool   `short:"t" help:"Prefix each line with its capture timestamp."`
}

func (c *LogsCmd) Run(ctx context.Context, rt *runtime.Runtime) error {
	id, err := rt.Containers.Resolve(c.Container)
	if err != nil {
		return err
	}
	return rt.FetchLogs(ctx, id, c.Follow, c.Tail, c.Timestamps, os.Stdout)
}
