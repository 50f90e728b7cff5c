package runtime

import "errors"

var (
	ErrRuntime        = errors.New("runtime error")
	ErrAlreadyRunning = errors.New("container already running")
	ErrNotRunning     = errors.New("container not running")
	ErrBuildFailed    = errors.New("build step failed")
	ErrNameInUse      = errors.New("container name already in use")
	ErrEmptyCommand   = errors.New("no command: override or image CMD required")
)
