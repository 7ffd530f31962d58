package manifest

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tinyrange/jsc/internal/codegen"
)

func TestBindingTargets(t *testing.T) {
	data, err := Binding([]Module{
		{Name: "math", Exports: []codegen.Export{{Name: "add", Symbol: "math_add_0"}}, HasMain: true},
		{Name: "util"},
	})
	if err != nil {
		t.Fatalf("Binding returned error: %v", err)
	}

	var got binding
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("binding.gyp is not valid JSON: %v\n%s", err, data)
	}

	want := binding{Targets: []target{
		{
			TargetName: "math",
			Sources:    []string{"math.cc"},
			CflagsCC:   []string{"-std=c++17"},
			Variables:  map[string][]string{"jsc_exports": {"add=math_add_0", "jsc_main=jsc_main"}},
		},
		{
			TargetName: "util",
			Sources:    []string{"util.cc"},
			CflagsCC:   []string{"-std=c++17"},
			Variables:  map[string][]string{"jsc_exports": {}},
		},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected binding\n got: %#v\nwant: %#v", got, want)
	}
}

func TestBindingRequiresModules(t *testing.T) {
	if _, err := Binding(nil); err == nil {
		t.Fatalf("expected an error for an empty project")
	}
}

func TestNodeEntry(t *testing.T) {
	data, err := NodeEntry(Module{Name: "prog", HasMain: true})
	if err != nil {
		t.Fatalf("NodeEntry returned error: %v", err)
	}
	want := "const status = require(\"./build/Release/prog.node\").jsc_main();\n" +
		"if (typeof status === \"number\") {\n" +
		"  process.exitCode = status;\n" +
		"}\n"
	if string(data) != want {
		t.Fatalf("unexpected entry\n got: %q\nwant: %q", data, want)
	}
}

func TestNodeEntryRequiresMain(t *testing.T) {
	_, err := NodeEntry(Module{Name: "lib"})
	if !errors.Is(err, ErrNoEntryPoint) {
		t.Fatalf("error = %v, want %v", err, ErrNoEntryPoint)
	}
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	m := Module{Name: "prog", HasMain: true}

	gyp, err := WriteBinding(dir, []Module{m})
	if err != nil {
		t.Fatalf("WriteBinding: %v", err)
	}
	entry, err := WriteNodeEntry(dir, m)
	if err != nil {
		t.Fatalf("WriteNodeEntry: %v", err)
	}
	for _, path := range []string{gyp, entry} {
		if filepath.Dir(path) != dir {
			t.Errorf("%s written outside %s", path, dir)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("stat %s: %v", path, err)
		}
	}
}
