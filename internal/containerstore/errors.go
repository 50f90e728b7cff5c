package containerstore

import "errors"

var (
	ErrNotFound    = errors.New("container not found")
	ErrAmbiguousID = errors.New("ambiguous container id prefix")
	ErrNameInUse   = errors.New("container name already in use")
	ErrCorrupt     = errors.New("container bundle corrupt")
)
