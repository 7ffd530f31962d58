// Package config loads the jsc.yaml project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/tinyrange/jsc/internal/codegen"
)

const (
	Filename      = "jsc.yaml"
	DefaultOutDir = "out"

	// MinNodeVersion is the oldest Node.js release whose V8 API matches the
	// generated code.
	MinNodeVersion = "v12.0.0"
)

var (
	ErrNoModules      = errors.New("config: no modules")
	ErrUnknownTarget  = errors.New("config: unknown target")
	ErrNodeVersion    = errors.New("config: invalid node version")
	ErrStandaloneMany = errors.New("config: standalone target takes exactly one module")
)

// Target selects what the build produces.
type Target string

const (
	// TargetNodeLib builds an addon and exports its functions.
	TargetNodeLib Target = "node-lib"
	// TargetNodeProgram builds an addon plus an entry script that runs main.
	TargetNodeProgram Target = "node-program"
	// TargetStandalone builds an executable that embeds V8.
	TargetStandalone Target = "standalone"
)

// ParseTarget validates a target name.
func ParseTarget(s string) (Target, error) {
	switch t := Target(s); t {
	case TargetNodeLib, TargetNodeProgram, TargetStandalone:
		return t, nil
	default:
		return "", fmt.Errorf("%w %q (want node-lib, node-program or standalone)", ErrUnknownTarget, s)
	}
}

// Flavor maps the target onto the generated program shell.
func (t Target) Flavor() codegen.Flavor {
	if t == TargetStandalone {
		return codegen.FlavorStandalone
	}
	return codegen.FlavorAddon
}

// Project describes one jsc project.
type Project struct {
	Version int      `yaml:"version"`
	Target  Target   `yaml:"target"`
	OutDir  string   `yaml:"outDir"`
	Modules []Module `yaml:"modules"`

	Node   NodeConfig   `yaml:"node,omitempty"`
	Native NativeConfig `yaml:"native,omitempty"`

	// Format runs clang-format over generated sources when it is installed.
	Format bool `yaml:"format,omitempty"`
}

// Module is one JavaScript source compiled into its own C++ file.
type Module struct {
	Name  string `yaml:"name,omitempty"`
	Entry string `yaml:"entry"`
}

type NodeConfig struct {
	// Version is passed to node-gyp as --target. Empty uses the running node.
	Version string `yaml:"version,omitempty"`
	Gyp     string `yaml:"gyp,omitempty"`
}

// NativeConfig drives the standalone compiler invocation.
type NativeConfig struct {
	CXX         string   `yaml:"cxx,omitempty"`
	Std         string   `yaml:"std,omitempty"`
	IncludeDirs []string `yaml:"includeDirs,omitempty"`
	LibDirs     []string `yaml:"libDirs,omitempty"`
	Libs        []string `yaml:"libs,omitempty"`
	Flags       []string `yaml:"flags,omitempty"`
}

func (p *Project) normalize() {
	if p.Version == 0 {
		p.Version = 1
	}
	if p.Target == "" {
		p.Target = TargetNodeProgram
	}
	if p.OutDir == "" {
		p.OutDir = DefaultOutDir
	}
	for i := range p.Modules {
		if p.Modules[i].Name == "" && p.Modules[i].Entry != "" {
			p.Modules[i].Name = ModuleName(p.Modules[i].Entry)
		}
	}
	if p.Node.Gyp == "" {
		p.Node.Gyp = "node-gyp"
	}
	if p.Native.CXX == "" {
		p.Native.CXX = "c++"
	}
	if p.Native.Std == "" {
		p.Native.Std = "c++17"
	}
	if len(p.Native.Libs) == 0 {
		p.Native.Libs = []string{"v8_monolith", "dl"}
	}
	if len(p.Native.Flags) == 0 {
		p.Native.Flags = []string{"-pthread"}
	}
}

// ModuleName derives a module name from an entry file path.
func ModuleName(entry string) string {
	base := filepath.Base(entry)
	return codegen.ModuleName(strings.TrimSuffix(base, filepath.Ext(base)))
}

// New returns a normalized project for the given entry files.
func New(target Target, entries ...string) Project {
	p := Project{Target: target}
	for _, e := range entries {
		p.Modules = append(p.Modules, Module{Entry: e})
	}
	p.normalize()
	return p
}

// Normalize fills defaults after fields were changed by the caller.
func (p *Project) Normalize() { p.normalize() }

// NodeTarget returns the node-gyp --target value, without the leading v.
func (p Project) NodeTarget() string {
	return strings.TrimPrefix(p.Node.Version, "v")
}

// Validate reports the first problem with the project.
func (p Project) Validate() error {
	if _, err := ParseTarget(string(p.Target)); err != nil {
		return err
	}
	if len(p.Modules) == 0 {
		return ErrNoModules
	}
	if p.Target == TargetStandalone && len(p.Modules) != 1 {
		return fmt.Errorf("%w: got %d", ErrStandaloneMany, len(p.Modules))
	}

	seen := make(map[string]string)
	for _, m := range p.Modules {
		if m.Entry == "" {
			return fmt.Errorf("config: module %q has no entry", m.Name)
		}
		if prev, ok := seen[m.Name]; ok {
			return fmt.Errorf("config: module name %q used by %s and %s", m.Name, prev, m.Entry)
		}
		seen[m.Name] = m.Entry
	}

	if p.Node.Version != "" {
		v := "v" + p.NodeTarget()
		if !semver.IsValid(v) {
			return fmt.Errorf("%w %q", ErrNodeVersion, p.Node.Version)
		}
		if semver.Compare(v, MinNodeVersion) < 0 {
			return fmt.Errorf("%w %q: need %s or newer", ErrNodeVersion, p.Node.Version, MinNodeVersion)
		}
	}
	return nil
}

// Load reads a project file. Relative entries and output directories are
// resolved against the file's directory.
func Load(path string) (Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Project{}, fmt.Errorf("read %s: %w", path, err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Project{}, fmt.Errorf("parse %s: %w", path, err)
	}
	p.normalize()

	dir := filepath.Dir(path)
	for i := range p.Modules {
		if p.Modules[i].Entry != "" && !filepath.IsAbs(p.Modules[i].Entry) {
			p.Modules[i].Entry = filepath.Join(dir, p.Modules[i].Entry)
		}
	}
	if !filepath.IsAbs(p.OutDir) {
		p.OutDir = filepath.Join(dir, p.OutDir)
	}
	return p, nil
}

// Write stores p as YAML at path.
func Write(path string, p Project) error {
	p.normalize()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(&p); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
