package runtime

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/cubohq/cubo/internal/containerstore"
	"github.com/cubohq/cubo/internal/errkit"
	"github.com/cubohq/cubo/internal/imagestore"
	"github.com/cubohq/cubo/internal/ociref"
	"github.com/cubohq/cubo/internal/registry"
)

// Runtime is the single object holding the process-wide shared state:
// the container index (backed by the container store) and the in-flight
// pull dedup map. Command handlers are given one Runtime explicitly
// rather than reaching for package-level singletons.
type Runtime struct {
	Root       string
	Containers *containerstore.Store
	Images     *imagestore.Store
	registry   *registry.Client
	pulls      singleflight.Group
}

// New builds a Runtime rooted at root, wiring the container and image
// stores that already live there.
func New(root string, containers *containerstore.Store, images *imagestore.Store) *Runtime {
	return &Runtime{
		Root:       root,
		Containers: containers,
		Images:     images,
		registry:   registry.New(),
	}
}

// PullImage fetches ref into the image store, deduplicating concurrent
// pulls of the same reference through a shared in-flight future so that
// concurrent callers share one download.
func (rt *Runtime) PullImage(ctx context.Context, ref ociref.Reference) (*imagestore.Image, error) {
	v, err, _ := rt.pulls.Do(ref.String(), func() (any, error) {
		return rt.registry.Pull(ctx, rt.Images, ref)
	})
	if err != nil {
		return nil, errkit.Wrap(ErrRuntime, err)
	}
	return v.(*imagestore.Image), nil
}
