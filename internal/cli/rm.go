package cli

import (
	"context"

	"github.com/cubohq/cubo/internal/runtime"
)

// RMCmd implements "cubo rm": remove a container's bundle. A running
// container is refused unless --force, which stops it first.
type RMCmd struct {
	Container string `arg:"" help:"Container id or name."`
	Force     bool   `short:"f" help:"Stop a running container first instead of refusing."`
}

func (c *RMCmd) Run(ctx context.Context, rt *runtime.Runtime) error {
	id, err := rt.Containers.Resolve(c.Container)
	if err != nil {
		return err
	}
	return rt.RemoveContainer(id, c.Force)
}
