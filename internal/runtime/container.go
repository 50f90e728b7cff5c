package runtime

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cubohq/cubo/internal/containerstore"
	"github.com/cubohq/cubo/internal/errkit"
	"github.com/cubohq/cubo/internal/imagestore"
	"github.com/cubohq/cubo/internal/ociref"
	"github.com/cubohq/cubo/internal/rootfs"
)

// Overrides carries the user-supplied fields a "run" invocation layers
// on top of an image's own config: command, environment, working
// directory, volumes, ports, name, and interactivity.
type Overrides struct {
	Name        string
	Command     []string
	Env         map[string]string
	Workdir     string
	Volumes     []containerstore.Volume
	Ports       []containerstore.Port
	Interactive bool
}

// CreateContainer assembles a rootfs from the named image, merges the
// image's own config with ov (ov wins), and persists a new container
// bundle with status created.
func (rt *Runtime) CreateContainer(ctx context.Context, imageRef string, ov Overrides) (containerstore.Config, error) {
	ref, err := ociref.Parse(imageRef)
	if err != nil {
		return containerstore.Config{}, err
	}

	img, err := rt.Images.GetImage(ref)
	if err != nil {
		return containerstore.Config{}, err
	}

	if ov.Name != "" {
		existing, err := rt.Containers.List(true)
		if err != nil {
			return containerstore.Config{}, err
		}
		for _, e := range existing {
			if e.Config.Name == ov.Name {
				return containerstore.Config{}, ErrNameInUse
			}
		}
	}

	id := uuid.NewString()

	if err := assembleRootfs(rt.Images, img, rt.Containers.RootfsDir(id)); err != nil {
		return containerstore.Config{}, errkit.Wrap(ErrRuntime, err)
	}

	cfg := containerstore.Config{
		ID:          id,
		Name:        ov.Name,
		Image:       ref.Raw(),
		Command:     resolveCommand(img, ov.Command),
		Env:         mergeImageEnv(img, ov.Env),
		Workdir:     resolveWorkdir(img, ov.Workdir),
		Volumes:     ov.Volumes,
		Ports:       ov.Ports,
		Interactive: ov.Interactive,
		CreatedAt:   time.Now().UTC(),
	}

	if len(cfg.Command) == 0 {
		return containerstore.Config{}, errkit.Wrap(ErrRuntime, ErrEmptyCommand)
	}

	if err := rt.Containers.Create(cfg); err != nil {
		return containerstore.Config{}, err
	}
	return cfg, nil
}

// assembleRootfs lays out the image's layers into destDir, falling back
// to the minimal built-in rootfs when the image carries none.
func assembleRootfs(store *imagestore.Store, img *imagestore.Image, destDir string) error {
	if len(img.Manifest.Layers) == 0 {
		return rootfs.CreateMinimal(destDir)
	}
	return rootfs.Assemble(store, img, destDir)
}

func resolveCommand(img *imagestore.Image, override []string) []string {
	if len(override) > 0 {
		return override
	}
	cmd := append([]string{}, img.Config.Config.Entrypoint...)
	cmd = append(cmd, img.Config.Config.Cmd...)
	return cmd
}

func resolveWorkdir(img *imagestore.Image, override string) string {
	if override != "" {
		return override
	}
	return img.Config.Config.WorkingDir
}

// mergeImageEnv merges the image's own KEY=VALUE environment with user
// overrides, user wins.
func mergeImageEnv(img *imagestore.Image, overrides map[string]string) map[string]string {
	merged := map[string]string{}
	for _, kv := range img.Config.Config.Env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			merged[k] = v
		}
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// envSlice renders a container's merged env map as KEY=VALUE entries.
func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
