// Package packaging generates and inspects the Dockerfiles the bot ships in.
package packaging

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// Generator generates Dockerfiles for a specific runtime
type Generator interface {
	// Generate creates a Dockerfile for the given source directory.
	// An empty baseImage selects the runtime's default image.
	Generate(sourceDir string, baseImage string) (string, error)

	// DetectLockfile returns the detected dependency manager and its manifest file
	DetectLockfile(sourceDir string) (string, string)
}

// GetGenerator returns a Generator for the given runtime
func GetGenerator(runtime string) (Generator, error) {
	switch runtime {
	case "go":
		return &GoGenerator{Version: "1.25"}, nil
	case "python":
		return &PythonGenerator{Version: "3.12"}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedRuntime, runtime)
	}
}

var (
	packageNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._+\-\[\],=]*$`)
	pathRe        = regexp.MustCompile(`^[A-Za-z0-9._][A-Za-z0-9._/\-]*$`)
)

func validatePackages(pkgs []string) error {
	for _, p := range pkgs {
		if !packageNameRe.MatchString(p) {
			return fmt.Errorf("%w: %q", ErrInvalidPackage, p)
		}
	}
	return nil
}

// validatePath accepts paths that can be embedded unquoted in RUN lines and
// exec-form commands.
func validatePath(kind, p string) error {
	if !pathRe.MatchString(p) {
		return fmt.Errorf("%w: %s %q", ErrInvalidPath, kind, p)
	}
	return nil
}

func resolveBaseImage(baseImage, fallback string) (string, error) {
	if baseImage == "" {
		return fallback, nil
	}
	if _, err := ParseNormalizedRef(baseImage); err != nil {
		return "", err
	}
	return baseImage, nil
}

func fileExists(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

// GoGenerator generates multi-stage Dockerfiles for Go services
type GoGenerator struct {
	Version string

	// Package is the main package to build, relative to the module root
	Package string

	// Binary is the installed executable name
	Binary string

	// RuntimeImage is the final stage's base image
	RuntimeImage string
}

// DetectLockfile reports whether dependencies are vendored or downloaded
func (g *GoGenerator) DetectLockfile(sourceDir string) (string, string) {
	if fileExists(sourceDir, filepath.Join("vendor", "modules.txt")) {
		return "vendor", "vendor/modules.txt"
	}
	return "mod", "go.mod"
}

// Generate creates a Dockerfile for a Go service
func (g *GoGenerator) Generate(sourceDir string, baseImage string) (string, error) {
	if !fileExists(sourceDir, "go.mod") {
		return "", fmt.Errorf("%w: go.mod", ErrManifestNotFound)
	}

	builder, err := resolveBaseImage(baseImage, fmt.Sprintf("golang:%s-alpine", g.Version))
	if err != nil {
		return "", err
	}
	runtimeImage, err := resolveBaseImage(g.RuntimeImage, "alpine:3.22")
	if err != nil {
		return "", err
	}

	pkg := g.Package
	if pkg == "" {
		pkg = detectGoMainPackage(sourceDir)
	}
	pkg = path.Clean(filepath.ToSlash(pkg))
	if pkg != "." && !strings.HasPrefix(pkg, "../") {
		pkg = "./" + pkg
	}

	binary := g.Binary
	if binary == "" {
		binary = path.Base(pkg)
		if binary == "." {
			binary = "app"
		}
	}
	if err := validatePath("package", pkg); err != nil {
		return "", err
	}
	if strings.Contains(binary, "/") {
		return "", fmt.Errorf("%w: binary %q", ErrInvalidPath, binary)
	}
	if err := validatePath("binary", binary); err != nil {
		return "", err
	}

	manager, _ := g.DetectLockfile(sourceDir)
	download := "RUN go mod download\n\n"
	buildFlags := ""
	if manager == "vendor" {
		download = ""
		buildFlags = " -mod=vendor"
	}

	dockerfile := fmt.Sprintf(`FROM %s AS builder

WORKDIR /src

# Copy dependency files first (cache layer)
COPY go.mod go.sum* ./

%s# Copy application source
COPY . .

# Build a static binary
RUN CGO_ENABLED=0 go build%s -trimpath -ldflags="-s -w" -o /out/%s %s

FROM %s

RUN apk add --no-cache ca-certificates tzdata

WORKDIR /app

COPY --from=builder /out/%s /usr/local/bin/%s

# Default command
ENTRYPOINT ["/usr/local/bin/%s"]
`, builder, download, buildFlags, binary, pkg, runtimeImage, binary, binary, binary)

	return dockerfile, nil
}

// detectGoMainPackage picks the first cmd/<name> directory holding a main.go
func detectGoMainPackage(sourceDir string) string {
	entries, err := os.ReadDir(filepath.Join(sourceDir, "cmd"))
	if err == nil {
		for _, e := range entries {
			if e.IsDir() && fileExists(sourceDir, filepath.Join("cmd", e.Name(), "main.go")) {
				return "cmd/" + e.Name()
			}
		}
	}
	return "."
}

// PythonGenerator generates Dockerfiles for Python applications
type PythonGenerator struct {
	Version string

	// Packages are installed directly instead of from a dependency manifest
	Packages []string

	// Script is the file run by the default command
	Script string
}

// DetectLockfile detects which Python dependency file is present
func (g *PythonGenerator) DetectLockfile(sourceDir string) (string, string) {
	lockfiles := []struct {
		name    string
		manager string
	}{
		{"poetry.lock", "poetry"},
		{"Pipfile.lock", "pipenv"},
		{"requirements.txt", "pip"},
	}

	for _, lf := range lockfiles {
		if fileExists(sourceDir, lf.name) {
			return lf.manager, lf.name
		}
	}

	return "pip", "requirements.txt"
}

// Generate creates a Dockerfile for a Python application
func (g *PythonGenerator) Generate(sourceDir string, baseImage string) (string, error) {
	image, err := resolveBaseImage(baseImage, fmt.Sprintf("python:%s-slim", g.Version))
	if err != nil {
		return "", err
	}

	script := g.Script
	if script == "" {
		script = detectPythonEntryPoint(sourceDir)
	}
	if err := validatePath("script", script); err != nil {
		return "", err
	}

	if len(g.Packages) > 0 {
		if err := validatePackages(g.Packages); err != nil {
			return "", err
		}
		return fmt.Sprintf(`FROM %s

WORKDIR /app

# Copy application source
COPY . .

# Install dependencies
RUN pip install %s

# Default command
CMD ["python", "%s"]
`, image, strings.Join(g.Packages, " "), script), nil
	}

	manager, lockfile := g.DetectLockfile(sourceDir)
	if !fileExists(sourceDir, lockfile) {
		return "", fmt.Errorf("%w: %s", ErrManifestNotFound, lockfile)
	}

	var installCmd string
	var copyFiles string

	switch manager {
	case "poetry":
		copyFiles = "pyproject.toml poetry.lock"
		installCmd = `pip install poetry && \
    poetry config virtualenvs.create false && \
    poetry install --no-root --no-interaction --no-ansi`
	case "pipenv":
		copyFiles = "Pipfile Pipfile.lock"
		installCmd = `pip install pipenv && \
    pipenv install --system --deploy --ignore-pipfile`
	default:
		copyFiles = "requirements.txt"
		if checkRequirementsHasHashes(sourceDir) {
			installCmd = "pip install --require-hashes --only-binary :all: -r requirements.txt"
		} else {
			installCmd = "pip install --no-cache-dir -r requirements.txt"
		}
	}

	dockerfile := fmt.Sprintf(`FROM %s

WORKDIR /app

# Copy dependency files first (cache layer)
COPY %s ./

# Install dependencies
RUN %s

# Copy application source
COPY . .

# Default command
CMD ["python", "%s"]
`, image, copyFiles, installCmd, script)

	return dockerfile, nil
}

// checkRequirementsHasHashes checks if requirements.txt contains hash pins
func checkRequirementsHasHashes(sourceDir string) bool {
	data, err := os.ReadFile(filepath.Join(sourceDir, "requirements.txt"))
	if err != nil {
		return false
	}
	return strings.Contains(string(data), "--hash=")
}

// detectPythonEntryPoint tries to detect the entry point for a Python app
func detectPythonEntryPoint(sourceDir string) string {
	candidates := []string{"main.py", "bot.py", "app.py", "run.py", "server.py", "src/main.py"}
	for _, candidate := range candidates {
		if fileExists(sourceDir, candidate) {
			return candidate
		}
	}
	return "main.py"
}
