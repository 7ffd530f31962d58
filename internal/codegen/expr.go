package codegen

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tinyrange/jsc/internal/jsast"
)

// value is the result of lowering an expression.
type value struct {
	code string
	// simple is set when code is a plain identifier that may be referenced
	// more than once without re-evaluating anything.
	simple bool
	// recv is the converted receiver object of a property read.
	recv string
}

// materialize binds v to a fresh temporary unless it is already simple.
func (g *generator) materialize(v value, f frame, prefix string) string {
	if v.simple {
		return v.code
	}
	name := g.temps.Fresh(prefix)
	g.out.Linef(f.depth, "Local<Value> %s = %s;", name, v.code)
	return name
}

// snapshot is materialize for an operand whose expression is followed by
// later in evaluation order. A local referenced by name is copied when later
// may reassign it, so the operand keeps the value it had when it was read.
func (g *generator) snapshot(v value, f frame, prefix string, later jsast.Expr) string {
	if v.simple && assigns(later) {
		v.simple = false
	}
	return g.materialize(v, f, prefix)
}

// assigns reports whether evaluating e may assign to a variable.
func assigns(e jsast.Expr) bool {
	switch e := e.(type) {
	case *jsast.AssignExpr:
		return true
	case *jsast.BinaryExpr:
		return assigns(e.Left) || assigns(e.Right)
	case *jsast.CallExpr:
		if assigns(e.Callee) {
			return true
		}
		for _, a := range e.Args {
			if assigns(a) {
				return true
			}
		}
	case *jsast.DotExpr:
		return assigns(e.Object)
	case *jsast.IndexExpr:
		return assigns(e.Object) || assigns(e.Index)
	case *jsast.ArrayLit:
		for _, el := range e.Elems {
			if el != nil && assigns(el) {
				return true
			}
		}
	}
	return false
}

// lower translates e, writing any statements it needs to the sink first.
// Tail context never applies inside an expression.
func (g *generator) lower(e jsast.Expr, f frame) (value, error) {
	f = f.plain()
	switch e := e.(type) {
	case *jsast.Ident:
		return g.ident(e, f)

	case *jsast.StringLit:
		return value{code: str(e.Value)}, nil

	case *jsast.NumberLit:
		return value{code: "Number::New(isolate, " + number(e.Value) + ")"}, nil

	case *jsast.BoolLit:
		return value{code: "Boolean::New(isolate, " + strconv.FormatBool(e.Value) + ")"}, nil

	case *jsast.NullLit:
		return value{code: "Null(isolate)"}, nil

	case *jsast.ArrayLit:
		return g.array(e, f)

	case *jsast.BinaryExpr:
		if e.Op == jsast.OpLogicalAnd || e.Op == jsast.OpLogicalOr {
			return g.logical(e, f)
		}
		return g.binary(e, f)

	case *jsast.AssignExpr:
		return g.assign(e, f)

	case *jsast.CallExpr:
		return g.call(e, f)

	case *jsast.DotExpr:
		return g.member(e.Object, nil, e.Name, f)

	case *jsast.IndexExpr:
		return g.member(e.Object, e.Index, "", f)

	case *jsast.Pattern:
		return value{}, compileError(e, ErrDestructuring, "%s in expression", e.Kind)

	case *jsast.UnsupportedExpr:
		return value{}, unsupported(e, e.Kind)

	default:
		return value{}, unsupported(e, fmt.Sprintf("%T", e))
	}
}

func (g *generator) ident(e *jsast.Ident, f frame) (value, error) {
	b, ok := f.scope.Lookup(e.Name)
	if !ok {
		if e.Name == "global" {
			return value{code: "context->Global()"}, nil
		}
		return value{code: globalGet(e.Name)}, nil
	}
	switch b.Kind {
	case BindFunc, BindNestedFunc:
		return value{code: functionValue(b.Name)}, nil
	default:
		if b.Level > 0 && b.Level != f.scope.Level() {
			return value{}, compileError(e, ErrClosureCapture, "%s belongs to an enclosing function", e.Name)
		}
		return value{code: b.Name, simple: true}, nil
	}
}

func globalGet(name string) string {
	return "context->Global()->Get(context, " + str(name) + ").ToLocalChecked()"
}

func functionValue(sym string) string {
	return "FunctionTemplate::New(isolate, " + sym + ")->GetFunction(context).ToLocalChecked()"
}

func (g *generator) array(e *jsast.ArrayLit, f frame) (value, error) {
	name := g.temps.Fresh("array")
	g.out.Linef(f.depth, "Local<Array> %s = Array::New(isolate, %d);", name, len(e.Elems))
	for i, el := range e.Elems {
		code := "Null(isolate)"
		if el != nil {
			v, err := g.lower(el, f)
			if err != nil {
				return value{}, err
			}
			code = v.code
		}
		g.out.Linef(f.depth, "%s->Set(context, %d, %s).Check();", name, i, code)
	}
	return value{code: name, simple: true}, nil
}

func (g *generator) binary(e *jsast.BinaryExpr, f frame) (value, error) {
	lv, err := g.lower(e.Left, f)
	if err != nil {
		return value{}, err
	}
	l := g.snapshot(lv, f, "lhs", e.Right)
	rv, err := g.lower(e.Right, f)
	if err != nil {
		return value{}, err
	}
	r := g.materialize(rv, f, "rhs")

	code, ok := binaryOp(e.Op, l, r)
	if !ok {
		return value{}, unsupported(e, "binary operator "+e.Op.String())
	}
	return value{code: code}, nil
}

// logical lowers && and || so the right operand only runs when needed.
func (g *generator) logical(e *jsast.BinaryExpr, f frame) (value, error) {
	lv, err := g.lower(e.Left, f)
	if err != nil {
		return value{}, err
	}
	name := g.temps.Fresh("logic")
	g.out.Linef(f.depth, "Local<Value> %s = %s;", name, lv.code)
	if e.Op == jsast.OpLogicalAnd {
		g.out.Linef(f.depth, "if (jsc::ToBoolean(%s)) {", name)
	} else {
		g.out.Linef(f.depth, "if (!jsc::ToBoolean(%s)) {", name)
	}
	inner := f.child()
	rv, err := g.lower(e.Right, inner)
	if err != nil {
		return value{}, err
	}
	g.out.Linef(inner.depth, "%s = %s;", name, rv.code)
	g.out.Line(f.depth, "}")
	return value{code: name, simple: true}, nil
}

// property is a resolved property reference: the converted receiver object
// and a materialized key.
type property struct {
	recv string
	key  string
}

// target converts object to an object handle and materializes the key.
// index is nil for a dot access, in which case name is the key. later is
// the expression evaluated after the key, if any.
func (g *generator) target(object, index jsast.Expr, name string, later jsast.Expr, f frame) (property, error) {
	ov, err := g.lower(object, f)
	if err != nil {
		return property{}, err
	}
	recv := g.temps.Fresh("recv")
	g.out.Linef(f.depth, "Local<Object> %s = %s->ToObject(context).ToLocalChecked();", recv, ov.code)

	var kv value
	if index == nil {
		kv = value{code: str(name)}
	} else {
		kv, err = g.lower(index, f)
		if err != nil {
			return property{}, err
		}
	}
	return property{recv: recv, key: g.snapshot(kv, f, "key", later)}, nil
}

// read walks the prototype chain from the receiver to the first object that
// owns the key and reads the property there.
func (g *generator) read(p property, f frame) string {
	owner := g.temps.Fresh("owner")
	g.out.Linef(f.depth, "Local<Object> %s = %s;", owner, p.recv)
	g.out.Linef(f.depth, "while (!jsc::HasOwn(context, %s, %s) && %s->GetPrototype()->IsObject()) {", owner, p.key, owner)
	g.out.Linef(f.depth+1, "%s = %s->GetPrototype().As<Object>();", owner, owner)
	g.out.Line(f.depth, "}")
	prop := g.temps.Fresh("prop")
	g.out.Linef(f.depth, "Local<Value> %s = %s->Get(context, %s).ToLocalChecked();", prop, owner, p.key)
	return prop
}

func (g *generator) member(object, index jsast.Expr, name string, f frame) (value, error) {
	p, err := g.target(object, index, name, nil, f)
	if err != nil {
		return value{}, err
	}
	return value{code: g.read(p, f), simple: true, recv: p.recv}, nil
}

func (g *generator) assign(e *jsast.AssignExpr, f frame) (value, error) {
	switch t := e.Target.(type) {
	case *jsast.Ident:
		return g.assignIdent(e, t, f)
	case *jsast.DotExpr:
		return g.assignProperty(e, t.Object, nil, t.Name, f)
	case *jsast.IndexExpr:
		return g.assignProperty(e, t.Object, t.Index, "", f)
	case *jsast.Pattern:
		return value{}, compileError(t, ErrDestructuring, "%s assignment", t.Kind)
	default:
		return value{}, unsupported(e, fmt.Sprintf("assignment to %T", t))
	}
}

// combine applies the compound operator of e to the current value and rhs.
func (g *generator) combine(e *jsast.AssignExpr, current, rhs string) (string, error) {
	if e.Op == jsast.OpAssign {
		return rhs, nil
	}
	code, ok := binaryOp(e.Op, current, rhs)
	if !ok {
		return "", unsupported(e, "assignment operator "+e.Op.String()+"=")
	}
	return code, nil
}

func (g *generator) assignIdent(e *jsast.AssignExpr, t *jsast.Ident, f frame) (value, error) {
	b, bound := f.scope.Lookup(t.Name)
	if bound && b.callable() {
		return value{}, compileError(t, ErrUnsupported, "assignment to function %s", t.Name)
	}
	if bound && b.Level > 0 && b.Level != f.scope.Level() {
		return value{}, compileError(t, ErrClosureCapture, "%s belongs to an enclosing function", t.Name)
	}

	if !bound {
		var current string
		if e.Op != jsast.OpAssign {
			current = g.materialize(value{code: globalGet(t.Name)}, f, "lhs")
		}
		rv, err := g.lower(e.Value, f)
		if err != nil {
			return value{}, err
		}
		rhs := rv.code
		if e.Op != jsast.OpAssign {
			rhs = g.materialize(rv, f, "rhs")
		}
		code, err := g.combine(e, current, rhs)
		if err != nil {
			return value{}, err
		}
		result := g.materialize(value{code: code}, f, "assign")
		g.out.Linef(f.depth, "context->Global()->Set(context, %s, %s).Check();", str(t.Name), result)
		return value{code: result, simple: true}, nil
	}

	current := b.Name
	if e.Op != jsast.OpAssign {
		current = g.snapshot(value{code: b.Name, simple: true}, f, "lhs", e.Value)
	}
	rv, err := g.lower(e.Value, f)
	if err != nil {
		return value{}, err
	}
	rhs := rv.code
	if e.Op != jsast.OpAssign {
		rhs = g.materialize(rv, f, "rhs")
	}
	code, err := g.combine(e, current, rhs)
	if err != nil {
		return value{}, err
	}
	g.out.Linef(f.depth, "%s = %s;", b.Name, code)
	return value{code: b.Name, simple: true}, nil
}

func (g *generator) assignProperty(e *jsast.AssignExpr, object, index jsast.Expr, name string, f frame) (value, error) {
	p, err := g.target(object, index, name, e.Value, f)
	if err != nil {
		return value{}, err
	}
	var current string
	if e.Op != jsast.OpAssign {
		current = g.read(p, f)
	}
	rv, err := g.lower(e.Value, f)
	if err != nil {
		return value{}, err
	}
	rhs := rv.code
	if e.Op != jsast.OpAssign {
		rhs = g.materialize(rv, f, "rhs")
	}
	code, err := g.combine(e, current, rhs)
	if err != nil {
		return value{}, err
	}
	result := g.materialize(value{code: code}, f, "assign")
	g.out.Linef(f.depth, "%s->Set(context, %s, %s).Check();", p.recv, p.key, result)
	return value{code: result, simple: true}, nil
}

// str renders a string literal as a V8 string handle.
func str(s string) string {
	return "jsc::Str(isolate, " + cString(s) + ")"
}

// cString quotes s as a C++ narrow string literal. Bytes outside printable
// ASCII use three-digit octal escapes so a following digit cannot extend
// the escape.
func cString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '?':
			sb.WriteString(`\?`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if c < 0x20 || c >= 0x7f {
				fmt.Fprintf(&sb, `\%03o`, c)
			} else {
				sb.WriteByte(c)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// number renders a double constant.
func number(v float64) string {
	switch {
	case math.IsNaN(v):
		return `std::nan("")`
	case math.IsInf(v, 1):
		return "std::numeric_limits<double>::infinity()"
	case math.IsInf(v, -1):
		return "-std::numeric_limits<double>::infinity()"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
