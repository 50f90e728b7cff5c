// Package ociref parses and normalizes image references.
//
// A reference is the triple (registry host, repository, tag-or-digest).
// Parsing mirrors Docker Hub's defaulting behavior: a bare name like
// "alpine:latest" resolves to the default registry and the "library/"
// repository prefix, while a reference with an explicit registry host
// segment (containing a dot, a colon, or equal to "localhost") is left
// alone.
package ociref
