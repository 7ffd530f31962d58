// Package build turns a jsc project into C++ sources and, unless asked to
// stop after emission, drives node-gyp or the native compiler over them.
package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/tinyrange/jsc/internal/codegen"
	"github.com/tinyrange/jsc/internal/config"
	"github.com/tinyrange/jsc/internal/manifest"
	"github.com/tinyrange/jsc/internal/parse"
)

// ErrNoEntryPoint is returned for a node-program project where no module
// defines main.
var ErrNoEntryPoint = errors.New("build: no module defines main")

type Options struct {
	// EmitOnly stops after the sources and manifests are written.
	EmitOnly bool
	// NoProgress disables the progress bar even on a terminal.
	NoProgress bool
	Logger     *slog.Logger
}

// Output describes what a build wrote.
type Output struct {
	Dir       string
	Sources   []string
	Modules   []manifest.Module
	Manifests []string
	Artifacts []string
}

// Step is one external command of the toolchain plan.
type Step struct {
	Name string
	Dir  string
	Args []string
}

func (s Step) String() string {
	return strings.Join(s.Args, " ")
}

// Run compiles every module of p and builds the result.
func Run(ctx context.Context, p config.Project, opts Options) (*Output, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(p.OutDir)
	if err != nil {
		return nil, fmt.Errorf("build: resolve %s: %w", p.OutDir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("build: create output dir: %w", err)
	}
	out := &Output{Dir: dir}

	logger.Info("compiling modules", "target", p.Target, "modules", len(p.Modules), "dir", dir)
	if err := compileAll(ctx, p, dir, out, logger); err != nil {
		return nil, err
	}

	if err := writeManifests(p, out); err != nil {
		return nil, err
	}

	if p.Format {
		if err := format(ctx, out, logger); err != nil {
			return nil, err
		}
	}

	if opts.EmitOnly {
		logger.Info("emitted sources", "files", len(out.Sources))
		return out, nil
	}

	steps := Plan(p, out)
	if err := runSteps(ctx, steps, opts, logger); err != nil {
		return nil, err
	}
	out.Artifacts = Artifacts(p, dir)
	logger.Info("build complete", "artifacts", len(out.Artifacts))
	return out, nil
}

// compileAll generates one C++ file per module. Modules are independent
// compile sessions and run concurrently.
func compileAll(ctx context.Context, p config.Project, dir string, out *Output, logger *slog.Logger) error {
	flavor := p.Target.Flavor()
	results := make([]*codegen.Result, len(p.Modules))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, m := range p.Modules {
		i, m := i, m
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := compileModule(m, flavor, filepath.Join(dir, m.Name+".cc"), logger)
			if err != nil {
				return fmt.Errorf("build: %s: %w", m.Entry, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, m := range p.Modules {
		out.Sources = append(out.Sources, filepath.Join(dir, m.Name+".cc"))
		out.Modules = append(out.Modules, manifest.Module{
			Name:    m.Name,
			Exports: results[i].Exports,
			HasMain: results[i].HasMain,
		})
	}
	return nil
}

func compileModule(m config.Module, flavor codegen.Flavor, path string, logger *slog.Logger) (*codegen.Result, error) {
	prog, err := parse.File(m.Entry)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	res, err := codegen.Generate(f, prog, codegen.Options{
		Module: m.Name,
		Flavor: flavor,
		Logger: logger,
	})
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", path, cerr)
	}
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	logger.Debug("compiled module", "module", m.Name, "lines", res.Lines, "exports", len(res.Exports))
	return res, nil
}

func writeManifests(p config.Project, out *Output) error {
	if p.Target == config.TargetStandalone {
		return nil
	}

	path, err := manifest.WriteBinding(out.Dir, out.Modules)
	if err != nil {
		return err
	}
	out.Manifests = append(out.Manifests, path)

	if p.Target != config.TargetNodeProgram {
		return nil
	}
	for _, m := range out.Modules {
		if !m.HasMain {
			continue
		}
		path, err := manifest.WriteNodeEntry(out.Dir, m)
		if err != nil {
			return err
		}
		out.Manifests = append(out.Manifests, path)
	}
	if len(out.Manifests) == 1 {
		return ErrNoEntryPoint
	}
	return nil
}

// format runs clang-format over the generated sources when it is installed.
func format(ctx context.Context, out *Output, logger *slog.Logger) error {
	bin, err := exec.LookPath("clang-format")
	if err != nil {
		logger.Debug("clang-format not found, leaving sources unformatted")
		return nil
	}
	args := append([]string{bin, "-i"}, out.Sources...)
	return runStep(ctx, Step{Name: "format", Dir: out.Dir, Args: args}, logger)
}

// Plan returns the toolchain commands for a project whose sources were
// written to out.Dir.
func Plan(p config.Project, out *Output) []Step {
	if p.Target == config.TargetStandalone {
		var steps []Step
		for _, m := range p.Modules {
			args := []string{p.Native.CXX, m.Name + ".cc", "-o", m.Name, "-std=" + p.Native.Std}
			for _, inc := range p.Native.IncludeDirs {
				args = append(args, "-I"+inc)
			}
			for _, lib := range p.Native.LibDirs {
				args = append(args, "-L"+lib)
			}
			for _, lib := range p.Native.Libs {
				args = append(args, "-l"+lib)
			}
			args = append(args, p.Native.Flags...)
			steps = append(steps, Step{Name: "compile " + m.Name, Dir: out.Dir, Args: args})
		}
		return steps
	}

	configure := []string{p.Node.Gyp, "configure"}
	if v := p.NodeTarget(); v != "" {
		configure = append(configure, "--target="+v)
	}
	return []Step{
		{Name: "configure", Dir: out.Dir, Args: configure},
		{Name: "build", Dir: out.Dir, Args: []string{p.Node.Gyp, "build"}},
	}
}

// Artifacts lists the files a successful toolchain run leaves in dir.
func Artifacts(p config.Project, dir string) []string {
	var paths []string
	for _, m := range p.Modules {
		if p.Target == config.TargetStandalone {
			paths = append(paths, filepath.Join(dir, m.Name))
		} else {
			paths = append(paths, filepath.Join(dir, "build", "Release", m.Name+".node"))
		}
	}
	return paths
}

func runSteps(ctx context.Context, steps []Step, opts Options, logger *slog.Logger) error {
	var bar *progressbar.ProgressBar
	if !opts.NoProgress && term.IsTerminal(int(os.Stderr.Fd())) {
		bar = progressbar.Default(int64(len(steps)), "build")
		defer bar.Close()
	}

	for _, step := range steps {
		if bar != nil {
			bar.Describe(step.Name)
		}
		if err := runStep(ctx, step, logger); err != nil {
			return err
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	return nil
}

func runStep(ctx context.Context, step Step, logger *slog.Logger) error {
	logger.Debug("run", "step", step.Name, "cmd", step.String(), "dir", step.Dir)

	cmd := exec.CommandContext(ctx, step.Args[0], step.Args[1:]...)
	cmd.Dir = step.Dir

	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("build: %s failed: %w\n%s", step.Name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
