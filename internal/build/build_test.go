package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tinyrange/jsc/internal/codegen"
	"github.com/tinyrange/jsc/internal/config"
)

func writeJS(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestPlanNode(t *testing.T) {
	p := config.New(config.TargetNodeProgram, "prog.js")
	p.Node.Version = "v20.11.0"
	steps := Plan(p, &Output{Dir: "/out"})

	want := []Step{
		{Name: "configure", Dir: "/out", Args: []string{"node-gyp", "configure", "--target=20.11.0"}},
		{Name: "build", Dir: "/out", Args: []string{"node-gyp", "build"}},
	}
	if !reflect.DeepEqual(steps, want) {
		t.Fatalf("unexpected plan\n got: %+v\nwant: %+v", steps, want)
	}
}

func TestPlanStandalone(t *testing.T) {
	p := config.New(config.TargetStandalone, "hello.js")
	p.Native.IncludeDirs = []string{"/v8/include"}
	p.Native.LibDirs = []string{"/v8/lib"}
	steps := Plan(p, &Output{Dir: "/out"})

	if len(steps) != 1 {
		t.Fatalf("got %d steps, want 1", len(steps))
	}
	got := steps[0].String()
	want := "c++ hello.cc -o hello -std=c++17 -I/v8/include -L/v8/lib -lv8_monolith -ldl -pthread"
	if got != want {
		t.Fatalf("unexpected command\n got: %s\nwant: %s", got, want)
	}
}

func TestArtifacts(t *testing.T) {
	node := Artifacts(config.New(config.TargetNodeLib, "a.js"), "/out")
	if !reflect.DeepEqual(node, []string{filepath.Join("/out", "build", "Release", "a.node")}) {
		t.Fatalf("node artifacts = %v", node)
	}
	native := Artifacts(config.New(config.TargetStandalone, "a.js"), "/out")
	if !reflect.DeepEqual(native, []string{filepath.Join("/out", "a")}) {
		t.Fatalf("standalone artifacts = %v", native)
	}
}

func TestRunEmitOnly(t *testing.T) {
	dir := t.TempDir()
	math := writeJS(t, dir, "math.js", "function add(a, b) { return a + b; }\nfunction sub(a, b) { return a - b; }\n")
	prog := writeJS(t, dir, "prog.js", "function main() { return 0; }\n")

	p := config.New(config.TargetNodeProgram, math, prog)
	p.OutDir = filepath.Join(dir, "out")

	out, err := Run(context.Background(), p, Options{EmitOnly: true, NoProgress: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, path := range append(out.Sources, out.Manifests...) {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing %s: %v", path, err)
		}
	}
	wantManifests := []string{
		filepath.Join(p.OutDir, "binding.gyp"),
		filepath.Join(p.OutDir, "prog.js"),
	}
	if !reflect.DeepEqual(out.Manifests, wantManifests) {
		t.Fatalf("manifests = %v, want %v", out.Manifests, wantManifests)
	}

	var names []string
	for _, e := range out.Modules[0].Exports {
		names = append(names, e.Name)
	}
	if strings.Join(names, ",") != "add,sub" {
		t.Fatalf("math exports = %v", names)
	}
	if out.Artifacts != nil {
		t.Fatalf("emit-only build reported artifacts %v", out.Artifacts)
	}

	src, err := os.ReadFile(out.Sources[0])
	if err != nil {
		t.Fatalf("read source: %v", err)
	}
	if !strings.Contains(string(src), "NODE_MODULE(NODE_GYP_MODULE_NAME, Init)") {
		t.Fatalf("math.cc is not an addon")
	}
}

func TestRunNodeProgramNeedsMain(t *testing.T) {
	dir := t.TempDir()
	lib := writeJS(t, dir, "lib.js", "function f() { return 1; }\n")

	p := config.New(config.TargetNodeProgram, lib)
	p.OutDir = filepath.Join(dir, "out")
	if _, err := Run(context.Background(), p, Options{EmitOnly: true, NoProgress: true}); !errors.Is(err, ErrNoEntryPoint) {
		t.Fatalf("error = %v, want %v", err, ErrNoEntryPoint)
	}
}

func TestRunReportsCompileErrors(t *testing.T) {
	dir := t.TempDir()
	bad := writeJS(t, dir, "bad.js", "function main() {\n  for (;;) {}\n}\n")

	p := config.New(config.TargetNodeLib, bad)
	p.OutDir = filepath.Join(dir, "out")
	_, err := Run(context.Background(), p, Options{EmitOnly: true, NoProgress: true})
	if !errors.Is(err, codegen.ErrUnsupported) {
		t.Fatalf("error = %v, want %v", err, codegen.ErrUnsupported)
	}
	if !strings.Contains(err.Error(), "bad.js:2:") {
		t.Fatalf("error %q has no source position", err)
	}
	if _, statErr := os.Stat(filepath.Join(p.OutDir, "bad.cc")); !os.IsNotExist(statErr) {
		t.Fatalf("partial output left behind: %v", statErr)
	}
}

func TestTestdataPrograms(t *testing.T) {
	testdataDir := filepath.Join("..", "parse", "testdata")
	files, err := os.ReadDir(testdataDir)
	if err != nil {
		t.Fatalf("failed to read testdata directory: %v", err)
	}

	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".js" {
			continue
		}
		for _, target := range []config.Target{config.TargetNodeProgram, config.TargetStandalone} {
			t.Run(f.Name()+"/"+string(target), func(t *testing.T) {
				p := config.New(target, filepath.Join(testdataDir, f.Name()))
				p.OutDir = t.TempDir()
				if _, err := Run(context.Background(), p, Options{EmitOnly: true, NoProgress: true}); err != nil {
					t.Fatalf("Run failed: %v", err)
				}
			})
		}
	}
}
