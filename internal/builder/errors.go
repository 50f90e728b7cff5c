package builder

import "errors"

var (
	ErrBuild         = errors.New("build failed")
	ErrCommandFailed = errors.New("run step failed")
	ErrCopy          = errors.New("copy step failed")
	ErrMissingBase   = errors.New("build plan has no base image")
)
