package imagestore

import "errors"

var (
	ErrNotFound     = errors.New("image not found")
	ErrCorrupt      = errors.New("image store corrupt")
	ErrDigestMismatch = errors.New("blob digest mismatch")
	ErrInUse        = errors.New("image in use")
)
