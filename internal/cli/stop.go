package cli

import (
	"context"

	"github.com/cubohq/cubo/internal/runtime"
)

// StopCmd implements "cubo stop": send SIGTERM (escalating to SIGKILL
// after a 10s grace period), or SIGKILL immediately with --force.
type StopCmd struct {
	Container string `arg:"" help:"Container id or name."`
	Force     bool   `short:"f" help:"Kill immediately instead of a graceful stop."`
}

func (c *StopCmd) Run(ctx context.Context, rt *runtime.Runtime) error {
	id, err := rt.Containers.Resolve(c.Container)
	if err != nil {
		return err
	}
	return rt.StopContainer(id, c.Force)
}
