package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/onkernel/finbot/lib/packaging"
	"github.com/spf13/cobra"
)

var errStale = errors.New("dockerfile is out of date")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.Red("✖ %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dockerfile",
		Short:         "Generate and inspect the bot's container recipe",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newGenerateCmd(), newInspectCmd())
	return root
}

type generateOptions struct {
	runtime   string
	source    string
	baseImage string
	pkg       string
	binary    string
	packages  []string
	script    string
	output    string
	check     bool
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a Dockerfile for the source directory",
		Long: "Generates a Dockerfile for the go or python runtime. With --check the existing " +
			"file is compared instead of written, and a difference is an error.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.runtime, "runtime", "go", "runtime to generate for (go, python)")
	flags.StringVar(&opts.source, "source", ".", "source directory")
	flags.StringVar(&opts.baseImage, "base-image", "", "override the default base image")
	flags.StringVar(&opts.pkg, "package", "cmd/bot", "go main package")
	flags.StringVar(&opts.binary, "binary", "finbot", "go binary name")
	flags.StringSliceVar(&opts.packages, "packages", nil, "python packages to install directly")
	flags.StringVar(&opts.script, "script", "", "python script to run")
	flags.StringVarP(&opts.output, "output", "o", "Dockerfile", "output file, relative to --source; - for stdout")
	flags.BoolVar(&opts.check, "check", false, "fail if the output file differs from the generated one")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	gen, err := packaging.GetGenerator(opts.runtime)
	if err != nil {
		return err
	}
	switch g := gen.(type) {
	case *packaging.GoGenerator:
		g.Package = opts.pkg
		g.Binary = opts.binary
	case *packaging.PythonGenerator:
		g.Packages = opts.packages
		g.Script = opts.script
	}

	dockerfile, err := gen.Generate(opts.source, opts.baseImage)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	if opts.output == "-" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), dockerfile)
		return err
	}

	path := filepath.Join(opts.source, opts.output)
	if opts.check {
		existing, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if !bytes.Equal(existing, []byte(dockerfile)) {
			return fmt.Errorf("%w: %s", errStale, path)
		}
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ %s is up to date", path))
		return nil
	}

	if err := os.WriteFile(path, []byte(dockerfile), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ wrote %s", path))
	return nil
}

type inspectOutput struct {
	BaseImage      string   `json:"base_image,omitempty"`
	WorkDir        string   `json:"workdir"`
	Copies         []string `json:"copies"`
	Packages       []string `json:"packages"`
	DefaultCommand []string `json:"default_command"`
	Exposed        []string `json:"exposed,omitempty"`
	Volumes        []string `json:"volumes,omitempty"`
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [Dockerfile]",
		Short: "Print the image layer stack a Dockerfile describes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "Dockerfile"
			if len(args) == 1 {
				path = args[0]
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			recipe, err := packaging.Inspect(f)
			if err != nil {
				return fmt.Errorf("inspect %s: %w", path, err)
			}

			final := recipe.Final()
			out := inspectOutput{
				WorkDir:        final.WorkDir,
				Packages:       recipe.Packages(),
				DefaultCommand: recipe.DefaultCommand(),
				Exposed:        final.Exposed,
				Volumes:        final.Volumes,
			}
			if base := recipe.BaseImage(); base != nil {
				out.BaseImage = base.String()
			}
			for _, c := range final.Copies {
				src := fmt.Sprint(c.Sources)
				if c.FromStage != "" {
					src = c.FromStage + ":" + src
				}
				out.Copies = append(out.Copies, src+" -> "+c.Dest)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}
