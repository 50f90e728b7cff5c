package registry

import "errors"

var (
	ErrAuth           = errors.New("registry authentication failed")
	ErrNotFound       = errors.New("registry resource not found")
	ErrTransport      = errors.New("registry transport error")
	ErrDigestMismatch = errors.New("blob digest mismatch")
	ErrNoPlatformMatch = errors.New("no manifest matches the host platform")
)
