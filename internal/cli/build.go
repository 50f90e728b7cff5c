package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cubohq/cubo/internal/buildfile"
	"github.com/cubohq/cubo/internal/builder"
	"github.com/cubohq/cubo/internal/runtime"
)

const (
	defaultTextBuildFile = "Cubofile"
	defaultTOMLBuildFile = "Cubofile.toml"
)

// BuildCmd implements "cubo build": parse a build file into a buildfile.Plan
// and execute it against a build context directory.
type BuildCmd struct {
	Path    string `arg:"" help:"Build context directory."`
	Tag     string `short:"t" required:"" help:"Name (and optionally :tag) for the built image."`
	File    string `short:"f" help:"Path to the build file, overriding auto-detection."`
	NoCache bool   `help:"Disable build-step caching."`
}

func (c *BuildCmd) Run(ctx context.Context, rt *runtime.Runtime) error {
	plan, err := loadBuildPlan(c.Path, c.File)
	if err != nil {
		return err
	}

	result, err := builder.Build(ctx, rt, builder.Options{
		Plan:    plan,
		Context: c.Path,
		Tag:     c.Tag,
		NoCache: c.NoCache,
	})
	if err != nil {
		return err
	}

	fmt.Printf("built %s\n", result.Reference.Raw())
	return nil
}

// loadBuildPlan resolves the build file for a context directory: an
// explicit override, else Cubofile.toml, else Cubofile, matching the
// auto-detection original_source/src/cli.rs documents for BuildArgs.file.
func loadBuildPlan(contextDir, override string) (*buildfile.Plan, error) {
	if override != "" {
		return parseBuildFile(filepath.Join(contextDir, override))
	}

	tomlPath := filepath.Join(contextDir, defaultTOMLBuildFile)
	if _, err := os.Stat(tomlPath); err == nil {
		return parseBuildFile(tomlPath)
	}

	textPath := filepath.Join(contextDir, defaultTextBuildFile)
	if _, err := os.Stat(textPath); err == nil {
		return parseBuildFile(textPath)
	}

	return nil, fmt.Errorf("%w: no %s or %s found in %s", ErrUsage, defaultTextBuildFile, defaultTOMLBuildFile, contextDir)
}

func parseBuildFile(path string) (*buildfile.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading build file: %s", ErrUsage, err)
	}

	if filepath.Ext(path) == ".toml" {
		return buildfile.ParseTOML(data)
	}
	return buildfile.ParseText(string(data))
}
