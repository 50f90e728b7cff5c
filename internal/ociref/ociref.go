package ociref

import (
	"fmt"
	"strings"

	"github.com/distribution/reference"
)

// DefaultRegistryHost is the actual HTTP host backing Docker Hub's
// canonical "docker.io" domain name.
const DefaultRegistryHost = "registry-1.docker.io"

// Reference is the parsed (registry host, repository, tag-or-digest) triple
// described in the data model.
type Reference struct {
	Registry   string // e.g. "registry-1.docker.io", "ghcr.io"
	Repository string // e.g. "library/alpine", "owner/image"
	Tag        string // e.g. "latest", "" when Digest is set
	Digest     string // e.g. "sha256:...", "" when Tag is set

	raw string // original string, preserved for display/annotations
}

// String returns the reference in its normalized "registry/repo:tag" (or
// "registry/repo@digest") form.
func (r Reference) String() string {
	if r.Digest != "" {
		return fmt.Sprintf("%s/%s@%s", r.Registry, r.Repository, r.Digest)
	}
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// Raw returns the exact string this reference was parsed from.
func (r Reference) Raw() string {
	if r.raw != "" {
		return r.raw
	}
	return r.String()
}

// Sanitized returns a filesystem-safe form of the reference for use as an
// image store subdirectory name: "/", ":" and "@" (the digest separator)
// are all replaced with "_".
func (r Reference) Sanitized() string {
	s := r.String()
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "@", "_")
	return s
}

// Parse parses s into a Reference, defaulting the registry host and
// repository prefix the way Docker Hub does: a name with no explicit
// registry segment resolves to DefaultRegistryHost, and a single-segment
// repository is prefixed with "library/".
func Parse(s string) (Reference, error) {
	named, err := reference.ParseNormalizedNamed(s)
	if err != nil {
		return Reference{}, fmt.Errorf("parse image reference %q: %w", s, err)
	}

	domain := reference.Domain(named)
	if domain == "docker.io" {
		domain = DefaultRegistryHost
	}

	ref := Reference{
		Registry:   domain,
		Repository: reference.Path(named),
		raw:        s,
	}

	switch v := named.(type) {
	case reference.Canonical:
		ref.Digest = v.Digest().String()
	case reference.Tagged:
		ref.Tag = v.Tag()
	default:
		ref.Tag = "latest"
	}

	return ref, nil
}
