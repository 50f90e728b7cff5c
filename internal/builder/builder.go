package builder

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	digest "github.com/opencontainers/go-digest"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/cubohq/cubo/internal/buildfile"
	"github.com/cubohq/cubo/internal/errkit"
	"github.com/cubohq/cubo/internal/imagestore"
	"github.com/cubohq/cubo/internal/ociref"
	"github.com/cubohq/cubo/internal/rootfs"
	"github.com/cubohq/cubo/internal/runtime"
)

// Options controls one build invocation.
type Options struct {
	Plan    *buildfile.Plan
	Context string // build context directory, for resolving Copy sources
	Tag     string // image reference the result is stored under
	NoCache bool
}

// Result is the outcome of a successful build.
type Result struct {
	Reference ociref.Reference
}

// accumulated tracks the image config fields build steps mutate as they
// execute, per the tie-break rule that later steps override scalars and
// Env is merged with last-write-wins per key.
type accumulated struct {
	env     map[string]string
	workdir string
	cmd     []string
	expose  map[string]struct{}
}

// Build executes plan against rt: it ensures the base image is present,
// runs each step in a scratch rootfs (reusing cached layers where the
// step's cache key matches a prior build), and writes the resulting
// manifest and config under tag.
func Build(ctx context.Context, rt *runtime.Runtime, opts Options) (*Result, error) {
	if opts.Plan == nil || opts.Plan.Base == "" {
		return nil, ErrMissingBase
	}

	baseRef, err := ociref.Parse(opts.Plan.Base)
	if err != nil {
		return nil, errkit.Wrap(ErrBuild, err)
	}
	tagRef, err := ociref.Parse(opts.Tag)
	if err != nil {
		return nil, errkit.Wrap(ErrBuild, err)
	}

	baseImg, err := rt.Images.GetImage(baseRef)
	if err != nil {
		baseImg, err = rt.PullImage(ctx, baseRef)
		if err != nil {
			return nil, errkit.Wrap(ErrBuild, err)
		}
	}

	scratchDir, err := os.MkdirTemp(rt.Root, "build-")
	if err != nil {
		return nil, errkit.Wrap(ErrBuild, err)
	}
	defer os.RemoveAll(scratchDir)

	if len(baseImg.Manifest.Layers) == 0 {
		if err := rootfs.CreateMinimal(scratchDir); err != nil {
			return nil, errkit.Wrap(ErrBuild, err)
		}
	} else if err := rootfs.Assemble(rt.Images, baseImg, scratchDir); err != nil {
		return nil, errkit.Wrap(ErrBuild, err)
	}

	acc := &accumulated{
		env:     parseEnv(baseImg.Config.Config.Env),
		workdir: baseImg.Config.Config.WorkingDir,
		cmd:     append([]string{}, baseImg.Config.Config.Cmd...),
		expose:  map[string]struct{}{},
	}
	for port := range baseImg.Config.Config.ExposedPorts {
		acc.expose[port] = struct{}{}
	}

	layers := append([]v1.Descriptor{}, baseImg.Manifest.Layers...)
	diffIDs := append([]digest.Digest{}, baseImg.Config.RootFS.DiffIDs...)
	parent := parentDigest(layers)

	c := newCache(rt.Root)

	for _, step := range opts.Plan.Steps {
		switch step.Kind {
		case buildfile.StepEnv:
			acc.env[step.Key] = step.Value

		case buildfile.StepWorkdir:
			acc.workdir = step.Path

		case buildfile.StepExpose:
			acc.expose[step.Port] = struct{}{}

		case buildfile.StepCmd:
			acc.cmd = step.Cmd

		case buildfile.StepRun:
			desc, diffID, newParent, err := runStep(scratchDir, acc, step, parent, c, opts.NoCache)
			if err != nil {
				return nil, err
			}
			if desc != nil {
				layers = append(layers, *desc)
				diffIDs = append(diffIDs, diffID)
				parent = newParent
			}

		case buildfile.StepCopy:
			desc, diffID, newParent, err := copyStep(scratchDir, opts.Context, step, parent, c, opts.NoCache)
			if err != nil {
				return nil, err
			}
			if desc != nil {
				layers = append(layers, *desc)
				diffIDs = append(diffIDs, diffID)
				parent = newParent
			}
		}
	}

	for _, l := range layers {
		if err := ensureBlob(rt.Images, c, baseRef, tagRef, l); err != nil {
			return nil, errkit.Wrap(ErrBuild, err)
		}
	}

	now := time.Now().UTC()
	config := *baseImg.Config
	config.Created = &now
	config.Config.Env = envSliceSorted(acc.env)
	config.Config.WorkingDir = acc.workdir
	config.Config.Cmd = acc.cmd
	config.Config.ExposedPorts = acc.expose
	config.RootFS = v1.RootFS{Type: "layers", DiffIDs: diffIDs}
	config.History = append(config.History, v1.History{Created: &now, CreatedBy: "cubo build"})

	configBytes, err := imagestore.Marshal(&config)
	if err != nil {
		return nil, errkit.Wrap(ErrBuild, err)
	}
	configDigest := digest.FromBytes(configBytes)

	manifest := &v1.Manifest{
		MediaType: v1.MediaTypeImageManifest,
		Config: v1.Descriptor{
			MediaType: v1.MediaTypeImageConfig,
			Digest:    configDigest,
			Size:      int64(len(configBytes)),
		},
		Layers: layers,
	}

	if err := rt.Images.PutImage(tagRef, manifest, &config); err != nil {
		return nil, errkit.Wrap(ErrBuild, err)
	}

	return &Result{Reference: tagRef}, nil
}

func parentDigest(layers []v1.Descriptor) digest.Digest {
	if len(layers) == 0 {
		return digest.FromString("scratch")
	}
	return layers[len(layers)-1].Digest
}

func runStep(scratchDir string, acc *accumulated, step buildfile.Step, parent digest.Digest, c *cache, noCache bool) (*v1.Descriptor, digest.Digest, digest.Digest, error) {
	key := stepCacheKey(parent, "RUN", step.Command, "")

	if !noCache {
		if entry, ok := c.get(key); ok {
			if err := applyCachedLayer(c, entry.LayerDigest, scratchDir); err == nil {
				return descriptorFromEntry(entry), entry.DiffID, entry.LayerDigest, nil
			}
		}
	}

	before, err := snapshotTree(scratchDir)
	if err != nil {
		return nil, "", "", errkit.Wrap(ErrBuild, err)
	}

	var stdout, stderr bytes.Buffer
	exitCode, err := runtime.RunScratch(scratchDir, acc.workdir, envSliceSorted(acc.env), []string{"/bin/sh", "-c", step.Command}, &stdout, &stderr)
	if err != nil {
		return nil, "", "", errkit.Wrap(ErrBuild, err)
	}
	if exitCode != 0 {
		return nil, "", "", errkit.Wrapf(ErrCommandFailed, err, "exit code %d: %s", exitCode, stderr.String())
	}

	after, err := snapshotTree(scratchDir)
	if err != nil {
		return nil, "", "", errkit.Wrap(ErrBuild, err)
	}
	changed, deleted := diffTrees(before, after)

	layer, err := buildLayer(scratchDir, changed, deleted)
	if err != nil {
		return nil, "", "", errkit.Wrap(ErrBuild, err)
	}

	if err := c.store(layer.compressedID, layer.compressed); err != nil {
		return nil, "", "", errkit.Wrap(ErrBuild, err)
	}
	entry := cacheEntry{LayerDigest: layer.compressedID, DiffID: layer.diffID, Size: layer.size}
	if err := c.put(key, entry); err != nil {
		return nil, "", "", errkit.Wrap(ErrBuild, err)
	}

	return descriptorFromEntry(entry), layer.diffID, layer.compressedID, nil
}

func copyStep(scratchDir, buildCtx string, step buildfile.Step, parent digest.Digest, c *cache, noCache bool) (*v1.Descriptor, digest.Digest, digest.Digest, error) {
	matches, err := matchSources(buildCtx, step.Src)
	if err != nil {
		return nil, "", "", err
	}
	if len(matches) == 0 {
		return nil, "", "", errkit.Wrapf(ErrCopy, nil, "no source matched %q", step.Src)
	}

	hash, err := contentHash(matches)
	if err != nil {
		return nil, "", "", errkit.Wrap(ErrCopy, err)
	}

	key := stepCacheKey(parent, "COPY", step.Dest, hash)

	if !noCache {
		if entry, ok := c.get(key); ok {
			if err := applyCachedLayer(c, entry.LayerDigest, scratchDir); err == nil {
				return descriptorFromEntry(entry), entry.DiffID, entry.LayerDigest, nil
			}
		}
	}

	before, err := snapshotTree(scratchDir)
	if err != nil {
		return nil, "", "", errkit.Wrap(ErrBuild, err)
	}

	if err := copySources(scratchDir, matches, step.Dest); err != nil {
		return nil, "", "", err
	}

	after, err := snapshotTree(scratchDir)
	if err != nil {
		return nil, "", "", errkit.Wrap(ErrBuild, err)
	}
	changed, deleted := diffTrees(before, after)

	layer, err := buildLayer(scratchDir, changed, deleted)
	if err != nil {
		return nil, "", "", errkit.Wrap(ErrBuild, err)
	}

	if err := c.store(layer.compressedID, layer.compressed); err != nil {
		return nil, "", "", errkit.Wrap(ErrBuild, err)
	}
	entry := cacheEntry{LayerDigest: layer.compressedID, DiffID: layer.diffID, Size: layer.size}
	if err := c.put(key, entry); err != nil {
		return nil, "", "", errkit.Wrap(ErrBuild, err)
	}

	return descriptorFromEntry(entry), layer.diffID, layer.compressedID, nil
}

func descriptorFromEntry(e cacheEntry) *v1.Descriptor {
	return &v1.Descriptor{
		MediaType: v1.MediaTypeImageLayerGzip,
		Digest:    e.LayerDigest,
		Size:      e.Size,
	}
}

func applyCachedLayer(c *cache, dgst digest.Digest, destDir string) error {
	f, err := c.open(dgst)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	applier := rootfs.NewApplier(destDir)
	return rootfs.ParseEntries(tar.NewReader(gz), applier.Handle)
}

// ensureBlob makes sure l's content is present under tagRef's blob
// directory, fetching it from the build cache (for a layer produced or
// reused this build) or copying it from baseRef (for an inherited base
// layer) as needed.
func ensureBlob(images *imagestore.Store, c *cache, baseRef, tagRef ociref.Reference, l v1.Descriptor) error {
	if images.HasBlob(tagRef, l.Digest) {
		return nil
	}

	if f, err := c.open(l.Digest); err == nil {
		defer f.Close()
		_, err := images.PutBlob(tagRef, l.Digest, f)
		return err
	}

	src, err := images.OpenBlob(baseRef, l.Digest)
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = images.PutBlob(tagRef, l.Digest, src)
	return err
}

func parseEnv(env []string) map[string]string {
	out := map[string]string{}
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}

func envSliceSorted(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

