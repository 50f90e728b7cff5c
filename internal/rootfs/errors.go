package rootfs

import "errors"

var (
	ErrEmptyImage = errors.New("image has no layers")
	ErrApply      = errors.New("failed to apply layer")
)
