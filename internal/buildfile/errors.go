package buildfile

import "errors"

var (
	ErrParse      = errors.New("build file parse error")
	ErrMissingFrom = errors.New("build file has no base image")
)
