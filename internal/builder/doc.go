// Package builder executes a build plan against a base image: it runs
// each step in a scratch rootfs, diffs the filesystem before and after
// the step into a new layer, and emits an OCI manifest and config for
// the result.
//
// Run steps execute under internal/runtime's scratch-container path;
// Copy steps walk the build context directly onto the scratch rootfs.
// Per-step results are cached by a key derived from the parent layer,
// the step's kind and arguments, and (for Copy) the content hash of the
// matched sources, so an unchanged prefix of steps can be skipped on a
// repeat build.
package builder
