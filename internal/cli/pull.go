package cli

import (
	"context"
	"fmt"

	"github.com/cubohq/cubo/internal/ociref"
	"github.com/cubohq/cubo/internal/runtime"
)

// PullCmd implements "cubo pull": fetch an image's manifest, config, and
// blobs from a registry into the local image store.
type PullCmd struct {
	Image string `arg:"" help:"Image reference to pull."`
}

func (c *PullCmd) Run(ctx context.Context, rt *runtime.Runtime) error {
	ref, err := ociref.Parse(c.Image)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUsage, err)
	}

	img, err := rt.PullImage(ctx, ref)
	if err != nil {
		return err
	}

	fmt.Printf("%s: pulled %s (%s)\n", ref.Raw(), img.ShortID(), img.ID)
	return nil
}
