package cli

import (
	"context"

	"github.com/cubohq/cubo/internal/ociref"
	"github.com/cubohq/cubo/internal/runtime"
)

// RMBCmd implements "cubo rmb": remove a stored blueprint (image).
// Refused while a non-removed container still references it, unless
// --force.
type RMBCmd struct {
	Image string `arg:"" help:"Image reference to remove."`
	Force bool   `short:"f" help:"Remove even if a container references this image."`
}

func (c *RMBCmd) Run(ctx context.Context, rt *runtime.Runtime) error {
	ref, err := ociref.Parse(c.Image)
	if err != nil {
		return err
	}

	return rt.Images.Remove(ref, c.Force, func(ref ociref.Reference) bool {
		entries, err := rt.Containers.List(true)
		if err != nil {
			return false
		}
		for _, e := range entries {
			if e.Config.Image == ref.Raw() || e.Config.Image == ref.String() {
				return true
			}
		}
		return false
	})
}
