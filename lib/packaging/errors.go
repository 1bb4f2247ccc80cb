package packaging

import "errors"

var (
	// ErrUnsupportedRuntime is returned for a runtime without a generator
	ErrUnsupportedRuntime = errors.New("unsupported runtime")

	// ErrManifestNotFound is returned when the dependency manifest is missing from the source directory
	ErrManifestNotFound = errors.New("dependency manifest not found")

	// ErrInvalidPackage is returned for a package name that is not safe to put on a RUN line
	ErrInvalidPackage = errors.New("invalid package name")

	// ErrInvalidPath is returned for a script, binary or package path that is not safe
	// to put in an exec-form command or a RUN line
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidReference is returned for an unparsable image reference
	ErrInvalidReference = errors.New("invalid image reference")

	// ErrNoBaseImage is returned when a Dockerfile has no FROM instruction
	ErrNoBaseImage = errors.New("dockerfile has no FROM instruction")
)
