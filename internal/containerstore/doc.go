// Package containerstore persists per-container configuration and
// OCI-shaped runtime state under <root>/<id>/, and performs the startup
// reconciliation that repairs stale "running" state left by a prior
// process that no longer exists.
package containerstore
