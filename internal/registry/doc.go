// Package registry implements a minimal OCI Distribution Spec v1.0 client:
// anonymous bearer-token exchange, manifest fetch (including multi-arch
// manifest-list/index selection), and digest-verified blob download.
//
// Transient transport errors (5xx responses, connection resets) are
// retried with bounded exponential backoff; everything else surfaces to
// the caller on first failure.
package registry
