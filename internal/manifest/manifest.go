// Package manifest renders the files that sit next to generated C++ in a
// Node.js addon project: the node-gyp build descriptor and the entry stub
// that loads the compiled module.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tinyrange/jsc/internal/codegen"
)

// ErrNoEntryPoint is returned when an entry stub is requested for a module
// that does not define main.
var ErrNoEntryPoint = errors.New("manifest: module has no main function")

// CXXStandard is the language standard passed to the addon compiler.
const CXXStandard = "c++17"

// Module is one compiled JavaScript module and its export table.
type Module struct {
	Name    string
	Exports []codegen.Export
	HasMain bool
}

// exportTable lists the module's exports as name=symbol pairs, in the
// order they are registered on the exports object.
func (m Module) exportTable() []string {
	table := make([]string, 0, len(m.Exports)+1)
	for _, e := range m.Exports {
		table = append(table, e.Name+"="+e.Symbol)
	}
	if m.HasMain {
		table = append(table, codegen.EntrySymbol+"="+codegen.EntrySymbol)
	}
	return table
}

type target struct {
	TargetName string              `json:"target_name"`
	Sources    []string            `json:"sources"`
	CflagsCC   []string            `json:"cflags_cc"`
	Variables  map[string][]string `json:"variables"`
}

type binding struct {
	Targets []target `json:"targets"`
}

// Binding renders binding.gyp with one target per module.
func Binding(modules []Module) ([]byte, error) {
	if len(modules) == 0 {
		return nil, errors.New("manifest: no modules")
	}
	b := binding{Targets: make([]target, 0, len(modules))}
	for _, m := range modules {
		b.Targets = append(b.Targets, target{
			TargetName: m.Name,
			Sources:    []string{m.Name + ".cc"},
			CflagsCC:   []string{"-std=" + CXXStandard},
			Variables:  map[string][]string{"jsc_exports": m.exportTable()},
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return nil, fmt.Errorf("manifest: encode binding.gyp: %w", err)
	}
	return buf.Bytes(), nil
}

// NodeEntry renders the script that loads the addon, runs jsc_main and
// forwards a numeric result as the process exit code.
func NodeEntry(m Module) ([]byte, error) {
	if !m.HasMain {
		return nil, fmt.Errorf("%w: %s", ErrNoEntryPoint, m.Name)
	}
	path, err := json.Marshal("./build/Release/" + m.Name + ".node")
	if err != nil {
		return nil, fmt.Errorf("manifest: quote module path: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "const status = require(%s).%s();\n", path, codegen.EntrySymbol)
	buf.WriteString("if (typeof status === \"number\") {\n")
	buf.WriteString("  process.exitCode = status;\n")
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// WriteBinding writes binding.gyp into dir.
func WriteBinding(dir string, modules []Module) (string, error) {
	data, err := Binding(modules)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "binding.gyp")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("manifest: write %s: %w", path, err)
	}
	return path, nil
}

// WriteNodeEntry writes <module>.js into dir.
func WriteNodeEntry(dir string, m Module) (string, error) {
	data, err := NodeEntry(m)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, m.Name+".js")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("manifest: write %s: %w", path, err)
	}
	return path, nil
}
