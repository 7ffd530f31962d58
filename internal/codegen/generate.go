// Package codegen lowers a jsast.Program into C++ source that drives the V8
// embedding API.
//
// One call to Generate is one compile session: it owns a scope tree, a
// temporary allocator and an output sink, and writes lines strictly in the
// order the syntax tree is walked. Sessions share no state, so independent
// modules can be generated concurrently.
package codegen

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/tinyrange/jsc/internal/jsast"
)

// Flavor selects the program shell around the translated functions.
type Flavor int

const (
	// FlavorAddon emits a Node.js native addon.
	FlavorAddon Flavor = iota
	// FlavorStandalone emits an executable that boots V8 itself.
	FlavorStandalone
)

func (f Flavor) String() string {
	switch f {
	case FlavorAddon:
		return "addon"
	case FlavorStandalone:
		return "standalone"
	default:
		return fmt.Sprintf("Flavor(%d)", int(f))
	}
}

// EntrySymbol is the generated name of the top-level main function.
const EntrySymbol = "jsc_main"

// Options configures one compile session.
type Options struct {
	// Module prefixes every hygienic rename. It is sanitized into a C
	// identifier.
	Module string
	Flavor Flavor
	Logger *slog.Logger
}

// Export is one top-level function made visible to the host.
type Export struct {
	Name   string
	Symbol string
}

// Result describes a completed compile.
type Result struct {
	// Exports lists top-level functions other than main in declaration
	// order.
	Exports []Export
	HasMain bool
	Lines   int
}

type generator struct {
	out     *Writer
	temps   *Allocator
	module  string
	flavor  Flavor
	log     *slog.Logger
	root    *Scope
	hoisted map[*jsast.FunctionDecl]*Binding
	exports []Export
	inits   []string
	hasMain bool
}

// tailCall describes the function whose self-calls may become jumps.
type tailCall struct {
	symbol string
	params []string
	label  string
}

// frame is the per-statement translation context. It is passed by value so
// a callee can narrow it without affecting the caller.
type frame struct {
	scope *Scope
	depth int
	// tail is set only while translating a statement in tail position.
	tail *tailCall
	// last is set when control falling off the statement leaves the
	// function.
	last bool
	// global is set in module initializers, where declarations become
	// properties of the global object.
	global bool
}

// child returns a frame for a nested block one indentation level deeper.
func (f frame) child() frame {
	f.scope = f.scope.Block()
	f.depth++
	f.global = false
	return f
}

// plain drops the tail context and finality.
func (f frame) plain() frame {
	f.tail = nil
	f.last = false
	return f
}

// ModuleName maps an arbitrary module or file name onto the identifier
// prefix used for hygienic renames.
func ModuleName(name string) string {
	if name == "" {
		return "jsc"
	}
	return cIdent(name)
}

// Generate translates prog and writes the C++ program to w.
func Generate(w io.Writer, prog *jsast.Program, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	module := ModuleName(opts.Module)
	temps := NewAllocator()
	temps.Reserve(EntrySymbol)

	g := &generator{
		out:     NewWriter(w),
		temps:   temps,
		module:  module,
		flavor:  opts.Flavor,
		log:     logger.With("module", module),
		root:    NewScope(module, temps),
		hoisted: make(map[*jsast.FunctionDecl]*Binding),
	}

	if err := g.program(prog); err != nil {
		return nil, fmt.Errorf("codegen: %w", err)
	}
	if err := g.out.Flush(); err != nil {
		return nil, fmt.Errorf("codegen: write output: %w", err)
	}

	g.log.Debug("generated program",
		"flavor", g.flavor,
		"exports", len(g.exports),
		"initializers", len(g.inits),
		"lines", g.out.Lines())

	return &Result{
		Exports: g.exports,
		HasMain: g.hasMain,
		Lines:   g.out.Lines(),
	}, nil
}

func (g *generator) program(prog *jsast.Program) error {
	if err := g.hoist(prog); err != nil {
		return err
	}
	if g.flavor == FlavorStandalone && !g.hasMain {
		return &CompileError{Pos: jsast.Pos{File: prog.File}, Err: ErrNoEntryPoint}
	}

	g.preamble()
	g.prototypes(prog)

	var run []jsast.Stmt
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		err := g.initializer(run)
		run = nil
		return err
	}

	for _, stmt := range prog.Body {
		if fn, ok := stmt.(*jsast.FunctionDecl); ok {
			if err := flush(); err != nil {
				return err
			}
			f := frame{scope: g.root}
			if err := g.function(fn, g.hoisted[fn], f); err != nil {
				return err
			}
			g.out.Blank()
		} else {
			run = append(run, stmt)
		}
		if err := g.out.Err(); err != nil {
			return err
		}
	}
	if err := flush(); err != nil {
		return err
	}

	g.postamble()
	return g.out.Err()
}

// hoist registers every top-level function before anything is translated,
// so calls may refer to functions declared later in the file.
func (g *generator) hoist(prog *jsast.Program) error {
	for _, stmt := range prog.Body {
		fn, ok := stmt.(*jsast.FunctionDecl)
		if !ok {
			continue
		}
		if fn.Name == nil {
			return compileError(fn, ErrAnonymousFunction, "top-level function has no name")
		}

		var b *Binding
		if fn.Name.Name == "main" {
			if g.hasMain {
				return &CompileError{Pos: fn.Pos(), Err: ErrDuplicateMain}
			}
			g.hasMain = true
			b = g.root.Fixed("main", EntrySymbol, BindFunc)
		} else {
			b = g.root.Register(fn.Name.Name, BindFunc)
			g.exports = append(g.exports, Export{Name: fn.Name.Name, Symbol: b.Name})
		}
		g.hoisted[fn] = b
	}
	return nil
}

func (g *generator) prototypes(prog *jsast.Program) {
	n := 0
	for _, stmt := range prog.Body {
		fn, ok := stmt.(*jsast.FunctionDecl)
		if !ok {
			continue
		}
		g.out.Linef(0, "void %s(const FunctionCallbackInfo<Value>& args);", g.hoisted[fn].Name)
		n++
	}
	if n > 0 {
		g.out.Blank()
	}
}

// initializer wraps a run of top-level statements in a callback that the
// postamble invokes at load time.
func (g *generator) initializer(run []jsast.Stmt) error {
	name := g.temps.Init()
	g.inits = append(g.inits, name)
	g.log.Debug("module initializer", "symbol", name, "statements", len(run))

	g.out.Linef(0, "void %s(const FunctionCallbackInfo<Value>& args) {", name)
	g.out.Line(1, "Isolate* isolate = args.GetIsolate();")
	g.out.Line(1, "Local<Context> context = isolate->GetCurrentContext();")

	f := frame{scope: g.root.Function(), depth: 1, global: true}
	if err := g.stmts(run, f); err != nil {
		return err
	}

	g.out.Line(0, "}")
	g.out.Blank()
	return nil
}

// function emits fn as a FunctionCallback named by b. Top-level functions
// become file-scope definitions, nested ones static lambdas.
func (g *generator) function(fn *jsast.FunctionDecl, b *Binding, outer frame) error {
	scope := outer.scope.Function()
	label := g.temps.Label()

	var params []string
	for _, p := range fn.Params {
		switch p := p.(type) {
		case *jsast.Ident:
			params = append(params, scope.Register(p.Name, BindParam).Name)
		case *jsast.Pattern:
			return compileError(p, ErrDestructuring, "parameter %s of %s", p.Kind, b.Source)
		default:
			return unsupported(p, fmt.Sprintf("parameter %T", p))
		}
	}

	g.log.Debug("function", "name", b.Source, "symbol", b.Name, "kind", b.Kind, "params", len(params))

	d := outer.depth
	if b.Kind == BindNestedFunc {
		g.out.Linef(d, "static const FunctionCallback %s = [](const FunctionCallbackInfo<Value>& args) {", b.Name)
	} else {
		g.out.Linef(d, "void %s(const FunctionCallbackInfo<Value>& args) {", b.Name)
	}
	g.out.Line(d+1, "Isolate* isolate = args.GetIsolate();")
	g.out.Line(d+1, "Local<Context> context = isolate->GetCurrentContext();")
	for i, p := range params {
		g.out.Linef(d+1, "Local<Value> %s = args[%d];", p, i)
	}
	g.out.Linef(d+1, "%s:;", label)

	f := frame{
		scope: scope,
		depth: d + 1,
		tail:  &tailCall{symbol: b.Name, params: params, label: label},
		last:  true,
	}
	var body []jsast.Stmt
	if fn.Body != nil {
		body = fn.Body.List
	}
	if err := g.stmts(body, f); err != nil {
		return err
	}

	if b.Kind == BindNestedFunc {
		g.out.Line(d, "};")
	} else {
		g.out.Line(d, "}")
	}
	return nil
}
