// Package rootfs unpacks OCI layer blobs into a container's root
// filesystem directory, and builds the minimal fallback rootfs used when
// an image has no layers.
//
// Layer application is modeled as a pipeline: tar parsing produces a
// stream of [Event] records (create file, create directory, delete path,
// mark opaque), and a separate applier mutates the target directory. This
// isolates the two concerns and lets the event stream be exercised with
// synthetic inputs in tests, independent of real tar archives.
package rootfs
