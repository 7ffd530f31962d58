package codegen

import (
	"strconv"
	"strings"

	"github.com/tinyrange/jsc/internal/jsast"
)

// callee is a resolved call target: a Local<Function> handle and the
// receiver passed as `this`.
type callee struct {
	fn   string
	recv string
}

func (g *generator) callee(c *jsast.CallExpr, f frame) (callee, error) {
	switch t := c.Callee.(type) {
	case *jsast.Ident:
		if b, ok := f.scope.Lookup(t.Name); ok && b.callable() {
			return g.staticCallee(b, f), nil
		}
	case *jsast.DotExpr:
		v, err := g.member(t.Object, nil, t.Name, f)
		if err != nil {
			return callee{}, err
		}
		return g.dynamicCallee(v.code, v.recv, f), nil
	case *jsast.IndexExpr:
		v, err := g.member(t.Object, t.Index, "", f)
		if err != nil {
			return callee{}, err
		}
		return g.dynamicCallee(v.code, v.recv, f), nil
	}

	v, err := g.lower(c.Callee, f)
	if err != nil {
		return callee{}, err
	}
	return g.dynamicCallee(g.materialize(v, f, "callee"), "context->Global()", f), nil
}

// staticCallee wraps a known FunctionCallback in a function object.
func (g *generator) staticCallee(b *Binding, f frame) callee {
	tpl := g.temps.Fresh("tpl")
	fn := g.temps.Fresh("fn")
	g.out.Linef(f.depth, "Local<FunctionTemplate> %s = FunctionTemplate::New(isolate, %s);", tpl, b.Name)
	g.out.Linef(f.depth, "Local<Function> %s = %s->GetFunction(context).ToLocalChecked();", fn, tpl)
	g.out.Linef(f.depth, "%s->SetName(%s);", fn, str(b.Source))
	return callee{fn: fn, recv: "Null(isolate)"}
}

func (g *generator) dynamicCallee(v, recv string, f frame) callee {
	fn := g.temps.Fresh("fn")
	g.out.Linef(f.depth, "Local<Function> %s = Local<Function>::Cast(%s);", fn, v)
	return callee{fn: fn, recv: recv}
}

// arguments materializes each argument, left to right, into its own
// temporary.
func (g *generator) arguments(args []jsast.Expr, f frame) ([]string, error) {
	var out []string
	for _, a := range args {
		v, err := g.lower(a, f)
		if err != nil {
			return nil, err
		}
		name := g.temps.Fresh("arg")
		g.out.Linef(f.depth, "Local<Value> %s = %s;", name, v.code)
		out = append(out, name)
	}
	return out, nil
}

func (g *generator) call(c *jsast.CallExpr, f frame) (value, error) {
	target, err := g.callee(c, f)
	if err != nil {
		return value{}, err
	}
	args, err := g.arguments(c.Args, f)
	if err != nil {
		return value{}, err
	}

	argv := "nullptr"
	if len(args) > 0 {
		argv = g.temps.Fresh("argv")
		g.out.Linef(f.depth, "Local<Value> %s[] = {%s};", argv, strings.Join(args, ", "))
	}
	result := g.temps.Fresh("call")
	g.out.Linef(f.depth, "Local<Value> %s = %s->Call(context, %s, %s, %s).ToLocalChecked();",
		result, target.fn, target.recv, strconv.Itoa(len(args)), argv)
	return value{code: result, simple: true}, nil
}

// tailCall replaces a self-call in tail position with parameter
// reassignment and a jump to the function entry. It reports whether the
// call was consumed.
func (g *generator) tailCall(c *jsast.CallExpr, f frame) (bool, error) {
	id, ok := c.Callee.(*jsast.Ident)
	if !ok {
		return false, nil
	}
	b, ok := f.scope.Lookup(id.Name)
	if !ok || !b.callable() || b.Name != f.tail.symbol {
		return false, nil
	}

	args, err := g.arguments(c.Args, f.plain())
	if err != nil {
		return false, err
	}
	for i, p := range f.tail.params {
		if i < len(args) {
			g.out.Linef(f.depth, "%s = %s;", p, args[i])
		} else {
			g.out.Linef(f.depth, "%s = Undefined(isolate);", p)
		}
	}
	g.out.Linef(f.depth, "goto %s;", f.tail.label)
	return true, nil
}
