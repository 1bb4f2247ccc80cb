package packaging

import (
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/moby/buildkit/frontend/dockerfile/parser"
	"github.com/samber/lo"
)

// Copy is a COPY or ADD instruction.
type Copy struct {
	Sources   []string
	Dest      string
	FromStage string
}

// Stage is one FROM section of a Dockerfile.
type Stage struct {
	Name string

	// BaseImage is the FROM argument as written
	BaseImage string

	// Base is the normalized image reference; nil for scratch or a previous stage
	Base *NormalizedRef

	// Parent is the index of the stage this one builds on, or -1
	Parent int

	WorkDir    string
	Copies     []Copy
	Runs       []string
	Entrypoint []string
	Cmd        []string
	Exposed    []string
	Volumes    []string
}

// Recipe is the image layer stack a Dockerfile describes.
type Recipe struct {
	Stages []Stage
}

// Inspect parses a Dockerfile.
func Inspect(r io.Reader) (*Recipe, error) {
	res, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse dockerfile: %w", err)
	}

	recipe := &Recipe{}
	var cur *Stage
	cmdSet := false

	for _, node := range res.AST.Children {
		instruction := strings.ToLower(node.Value)

		if instruction == "from" {
			stage, err := recipe.newStage(node)
			if err != nil {
				return nil, err
			}
			recipe.Stages = append(recipe.Stages, stage)
			cur = &recipe.Stages[len(recipe.Stages)-1]
			cmdSet = false
			continue
		}
		if cur == nil {
			// ARG may precede FROM
			if instruction == "arg" {
				continue
			}
			return nil, fmt.Errorf("%w: %s before FROM", ErrNoBaseImage, strings.ToUpper(instruction))
		}

		args := nodeArgs(node)
		switch instruction {
		case "workdir":
			if len(args) > 0 {
				cur.WorkDir = resolveWorkDir(cur.WorkDir, args[0])
			}
		case "copy", "add":
			if len(args) < 2 {
				return nil, fmt.Errorf("line %d: %s requires a source and a destination", node.StartLine, strings.ToUpper(instruction))
			}
			cur.Copies = append(cur.Copies, Copy{
				Sources:   slices.Clone(args[:len(args)-1]),
				Dest:      args[len(args)-1],
				FromStage: flagValue(node.Flags, "from"),
			})
		case "run":
			cur.Runs = append(cur.Runs, strings.Join(args, " "))
		case "entrypoint":
			cur.Entrypoint = commandArgs(node, args)
			// ENTRYPOINT resets an inherited CMD
			if !cmdSet {
				cur.Cmd = nil
			}
		case "cmd":
			cur.Cmd = commandArgs(node, args)
			cmdSet = true
		case "expose":
			cur.Exposed = append(cur.Exposed, args...)
		case "volume":
			cur.Volumes = append(cur.Volumes, args...)
		}
	}

	if len(recipe.Stages) == 0 {
		return nil, ErrNoBaseImage
	}
	return recipe, nil
}

func (r *Recipe) newStage(node *parser.Node) (Stage, error) {
	args := nodeArgs(node)
	if len(args) == 0 {
		return Stage{}, fmt.Errorf("line %d: FROM requires an image", node.StartLine)
	}

	stage := Stage{BaseImage: args[0], Parent: -1, WorkDir: "/"}
	if len(args) >= 3 && strings.EqualFold(args[1], "as") {
		stage.Name = args[2]
	}

	if i := r.stageIndex(args[0]); i >= 0 {
		parent := r.Stages[i]
		stage.Parent = i
		stage.WorkDir = parent.WorkDir
		stage.Entrypoint = slices.Clone(parent.Entrypoint)
		stage.Cmd = slices.Clone(parent.Cmd)
		stage.Exposed = slices.Clone(parent.Exposed)
		stage.Volumes = slices.Clone(parent.Volumes)
		return stage, nil
	}
	if strings.EqualFold(args[0], "scratch") {
		return stage, nil
	}

	ref, err := ParseNormalizedRef(args[0])
	if err != nil {
		return Stage{}, err
	}
	stage.Base = ref
	return stage, nil
}

func (r *Recipe) stageIndex(name string) int {
	return slices.IndexFunc(r.Stages, func(s Stage) bool {
		return s.Name != "" && strings.EqualFold(s.Name, name)
	})
}

// Final returns the stage the image is built from.
func (r *Recipe) Final() *Stage {
	return &r.Stages[len(r.Stages)-1]
}

// BaseImage returns the external image the final stage ultimately starts from.
func (r *Recipe) BaseImage() *NormalizedRef {
	for _, s := range r.lineage() {
		if s.Base != nil {
			return s.Base
		}
	}
	return nil
}

// DefaultCommand returns what the image runs with no command override.
func (r *Recipe) DefaultCommand() []string {
	final := r.Final()
	return append(slices.Clone(final.Entrypoint), final.Cmd...)
}

// Packages returns the packages installed by the final stage and the stages it builds on.
func (r *Recipe) Packages() []string {
	var pkgs []string
	lineage := r.lineage()
	for i := len(lineage) - 1; i >= 0; i-- {
		for _, run := range lineage[i].Runs {
			pkgs = append(pkgs, installedPackages(run)...)
		}
	}
	return lo.Uniq(pkgs)
}

// lineage walks from the final stage back through its parents.
func (r *Recipe) lineage() []*Stage {
	var out []*Stage
	for i := len(r.Stages) - 1; i >= 0; i = r.Stages[i].Parent {
		out = append(out, &r.Stages[i])
	}
	return out
}

// nodeArgs collects the arguments following an instruction node.
func nodeArgs(node *parser.Node) []string {
	var args []string
	for n := node.Next; n != nil; n = n.Next {
		args = append(args, n.Value)
	}
	return args
}

// commandArgs returns exec-form arguments as-is and wraps shell form in /bin/sh -c.
func commandArgs(node *parser.Node, args []string) []string {
	if node.Attributes["json"] {
		return slices.Clone(args)
	}
	return []string{"/bin/sh", "-c", strings.Join(args, " ")}
}

func flagValue(flags []string, name string) string {
	prefix := "--" + name + "="
	for _, f := range flags {
		if v, ok := strings.CutPrefix(f, prefix); ok {
			return v
		}
	}
	return ""
}

func resolveWorkDir(current, dir string) string {
	if path.IsAbs(dir) {
		return path.Clean(dir)
	}
	return path.Join(current, dir)
}

// installer flags whose next token is a value rather than a package
var installerValueFlags = map[string]bool{
	"-r": true, "--requirement": true,
	"-c": true, "--constraint": true,
	"-i": true, "--index-url": true,
	"--extra-index-url": true,
	"-t": true, "--target": true,
	"--repository": true, "-X": true,
}

// installedPackages extracts package names from pip, apk and apt-get commands.
func installedPackages(run string) []string {
	var pkgs []string
	for _, cmd := range splitShell(run) {
		fields := strings.Fields(cmd)
		start := installArgsStart(fields)
		if start < 0 {
			continue
		}
		for i := start; i < len(fields); i++ {
			f := fields[i]
			if strings.HasPrefix(f, "-") {
				if installerValueFlags[f] {
					i++
				}
				continue
			}
			if name := packageName(f); name != "" {
				pkgs = append(pkgs, name)
			}
		}
	}
	return pkgs
}

// installArgsStart returns the index of the first argument after an install verb, or -1.
func installArgsStart(fields []string) int {
	for i := 0; i+1 < len(fields); i++ {
		tool := path.Base(fields[i])
		verb := fields[i+1]
		switch {
		case (tool == "pip" || tool == "pip3") && verb == "install":
			return i + 2
		case strings.HasPrefix(tool, "python") && verb == "-m" && i+3 < len(fields) &&
			fields[i+2] == "pip" && fields[i+3] == "install":
			return i + 4
		case tool == "apk" && verb == "add":
			return i + 2
		case (tool == "apt-get" || tool == "apt") && verb == "install":
			return i + 2
		}
	}
	return -1
}

// packageName strips version pins and extras from a requirement.
func packageName(req string) string {
	req = strings.Trim(req, `"'`)
	if i := strings.IndexAny(req, "=<>!~[;"); i >= 0 {
		req = req[:i]
	}
	return req
}

func splitShell(run string) []string {
	return strings.FieldsFunc(strings.NewReplacer("&&", ";", "||", ";").Replace(run), func(r rune) bool {
		return r == ';' || r == '\n'
	})
}
