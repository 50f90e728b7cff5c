package cli

import (
	"errors"

	"github.com/cubohq/cubo/internal/buildfile"
	"github.com/cubohq/cubo/internal/builder"
	"github.com/cubohq/cubo/internal/containerstore"
	"github.com/cubohq/cubo/internal/imagestore"
	"github.com/cubohq/cubo/internal/registry"
	"github.com/cubohq/cubo/internal/runtime"
)

// ErrUsage is returned by flag-parsing helpers for malformed volume/port/
// env syntax or a missing required argument; it maps to exit code 2.
var ErrUsage = errors.New("usage error")

// ExitCode maps a typed error returned from Execute to the exit code
// taxonomy in §6/§7: 0 success, 1 generic error, 2 usage error,
// 125 runtime configuration error. It never returns 126 or 127; those
// come from internal/nsinit as the container process's own exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch {
	case errors.Is(err, ErrUsage),
		errors.Is(err, buildfile.ErrParse),
		errors.Is(err, buildfile.ErrMissingFrom),
		errors.Is(err, builder.ErrMissingBase),
		errors.Is(err, runtime.ErrEmptyCommand):
		return 2

	case errors.Is(err, containerstore.ErrNotFound),
		errors.Is(err, containerstore.ErrAmbiguousID),
		errors.Is(err, imagestore.ErrNotFound),
		errors.Is(err, registry.ErrNotFound),
		errors.Is(err, containerstore.ErrNameInUse),
		errors.Is(err, runtime.ErrNameInUse),
		errors.Is(err, runtime.ErrAlreadyRunning),
		errors.Is(err, runtime.ErrNotRunning),
		errors.Is(err, imagestore.ErrInUse):
		return 1

	case errors.Is(err, runtime.ErrRuntime):
		return 125

	case errors.Is(err, runtime.ErrBuildFailed),
		errors.Is(err, builder.ErrBuild),
		errors.Is(err, builder.ErrCommandFailed),
		errors.Is(err, builder.ErrCopy):
		return 1

	default:
		return 1
	}
}
