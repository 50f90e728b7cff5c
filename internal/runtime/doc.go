// Package runtime implements the container lifecycle operations: creating
// a bundle from a stored image, starting it under fresh namespaces via a
// detached supervisor process, stopping and removing it, and reading back
// its captured logs. It also exposes the scratch-container execution path
// the image builder uses to run RUN steps.
//
// Every long-running container is launched by re-executing the current
// binary twice: once as a detached supervisor (marker CUBO_SUPERVISE)
// that owns the child's pid and finalizes its state on exit, and once as
// the namespace-init child (internal/nsinit, marker CUBO_NSINIT) that
// enters namespaces, chroots into the rootfs, and execs the resolved
// command. cmd/cubo/main.go dispatches on both markers before any CLI
// parsing happens.
package runtime
