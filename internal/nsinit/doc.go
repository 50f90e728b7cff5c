// Package nsinit is the minimal child-side program that runs between a
// self-re-exec and the final exec of a container's command.
//
// This path stays short: hostname, volume mounts, chroot, chdir and
// environment setup, then the final exec. Every setup failure is reported
// as a diagnostic on stderr followed by a distinguished process exit
// status; there is no separate pipe back to the parent.
// cmd/cubo/main.go dispatches into Run before any CLI parsing happens,
// gated on the CUBO_NSINIT environment variable, mirroring the
// init/shim/exec re-exec dispatch idiom used by minimal container
// runtimes written in Go.
package nsinit
