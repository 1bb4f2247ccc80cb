package packaging

import (
	"fmt"

	"github.com/distribution/reference"
)

// NormalizedRef is a validated and normalized image reference.
// It can be either a tagged reference (e.g., "docker.io/library/golang:1.25-alpine")
// or a digest reference (e.g., "docker.io/library/alpine@sha256:abc123...").
type NormalizedRef struct {
	raw        string
	repository string
	tag        string // empty if digest ref
	digest     string // empty if tag ref
}

// ParseNormalizedRef validates and normalizes an image reference.
// Examples:
//   - "alpine" -> "docker.io/library/alpine:latest"
//   - "python:3.12-slim" -> "docker.io/library/python:3.12-slim"
//   - "alpine@sha256:abc..." -> "docker.io/library/alpine@sha256:abc..."
func ParseNormalizedRef(s string) (*NormalizedRef, error) {
	named, err := reference.ParseNormalizedNamed(s)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidReference, s, err)
	}

	ref := &NormalizedRef{
		repository: reference.Domain(named) + "/" + reference.Path(named),
	}

	if canonical, ok := named.(reference.Canonical); ok {
		ref.digest = canonical.Digest().String()
		ref.raw = canonical.String()
		return ref, nil
	}

	tagged := reference.TagNameOnly(named)
	if t, ok := tagged.(reference.Tagged); ok {
		ref.tag = t.Tag()
	}
	ref.raw = tagged.String()

	return ref, nil
}

// String returns the full normalized reference.
func (r *NormalizedRef) String() string {
	return r.raw
}

// IsDigest reports whether the reference pins a digest.
func (r *NormalizedRef) IsDigest() bool {
	return r.digest != ""
}

// Digest returns the digest if present (e.g., "sha256:abc123...").
func (r *NormalizedRef) Digest() string {
	return r.digest
}

// Repository returns the repository path without tag or digest.
// Example: "docker.io/library/python"
func (r *NormalizedRef) Repository() string {
	return r.repository
}

// Tag returns the tag of a tagged reference.
func (r *NormalizedRef) Tag() string {
	return r.tag
}
