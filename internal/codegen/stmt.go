package codegen

import (
	"fmt"

	"github.com/tinyrange/jsc/internal/jsast"
)

// stmts translates a statement list. Only the final statement inherits the
// tail context and finality of f.
func (g *generator) stmts(list []jsast.Stmt, f frame) error {
	for i, s := range list {
		sf := f
		if i < len(list)-1 {
			sf = f.plain()
		}
		if err := g.stmt(s, sf); err != nil {
			return err
		}
		if err := g.out.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) stmt(s jsast.Stmt, f frame) error {
	switch s := s.(type) {
	case *jsast.ExprStmt:
		v, err := g.lower(s.X, f)
		if err != nil {
			return err
		}
		if !v.simple {
			g.out.Linef(f.depth, "%s;", v.code)
		}
		return nil

	case *jsast.VarDecl:
		return g.varDecl(s, f)

	case *jsast.ReturnStmt:
		return g.returnStmt(s, f)

	case *jsast.IfStmt:
		return g.ifStmt(s, f)

	case *jsast.WhileStmt:
		return g.whileStmt(s, f)

	case *jsast.BlockStmt:
		g.out.Line(f.depth, "{")
		if err := g.stmts(s.List, f.child()); err != nil {
			return err
		}
		g.out.Line(f.depth, "}")
		return nil

	case *jsast.FunctionDecl:
		if s.Name == nil {
			return compileError(s, ErrAnonymousFunction, "nested function has no name")
		}
		b := f.scope.Register(s.Name.Name, BindNestedFunc)
		return g.function(s, b, f.plain())

	case *jsast.UnsupportedStmt:
		return unsupported(s, s.Kind)

	default:
		return unsupported(s, fmt.Sprintf("%T", s))
	}
}

// body translates the statement controlled by an if or while inside the
// braces the caller already opened.
func (g *generator) body(s jsast.Stmt, f frame) error {
	inner := f.child()
	if block, ok := s.(*jsast.BlockStmt); ok {
		return g.stmts(block.List, inner)
	}
	return g.stmt(s, inner)
}

func (g *generator) varDecl(s *jsast.VarDecl, f frame) error {
	for _, d := range s.Decls {
		var name *jsast.Ident
		switch t := d.Target.(type) {
		case *jsast.Ident:
			name = t
		case *jsast.Pattern:
			return compileError(t, ErrDestructuring, "%s declaration", s.Kind)
		default:
			return unsupported(d, fmt.Sprintf("declaration target %T", t))
		}

		init := value{code: "Undefined(isolate)"}
		if d.Init != nil {
			v, err := g.lower(d.Init, f.plain())
			if err != nil {
				return err
			}
			init = v
		}

		if f.global {
			g.out.Linef(f.depth, "context->Global()->Set(context, %s, %s).Check();", str(name.Name), init.code)
			continue
		}
		b := f.scope.Register(name.Name, BindVar)
		g.out.Linef(f.depth, "Local<Value> %s = %s;", b.Name, init.code)
	}
	return nil
}

func (g *generator) returnStmt(s *jsast.ReturnStmt, f frame) error {
	if s.Result == nil {
		g.out.Line(f.depth, "return;")
		return nil
	}
	if call, ok := s.Result.(*jsast.CallExpr); ok && f.tail != nil {
		done, err := g.tailCall(call, f)
		if err != nil || done {
			return err
		}
	}
	v, err := g.lower(s.Result, f.plain())
	if err != nil {
		return err
	}
	g.out.Linef(f.depth, "args.GetReturnValue().Set(%s);", v.code)
	g.out.Line(f.depth, "return;")
	return nil
}

func (g *generator) ifStmt(s *jsast.IfStmt, f frame) error {
	v, err := g.lower(s.Test, f.plain())
	if err != nil {
		return err
	}
	test := g.temps.Fresh("test")
	g.out.Linef(f.depth, "Local<Boolean> %s = Boolean::New(isolate, jsc::ToBoolean(%s));", test, v.code)

	g.out.Linef(f.depth, "if (%s->IsTrue()) {", test)
	if err := g.branch(s.Then, f); err != nil {
		return err
	}
	if s.Else != nil {
		g.out.Line(f.depth, "} else {")
		if err := g.branch(s.Else, f); err != nil {
			return err
		}
	}
	g.out.Line(f.depth, "}")
	return nil
}

func (g *generator) branch(s jsast.Stmt, f frame) error {
	if err := g.body(s, f); err != nil {
		return err
	}
	if f.last {
		g.out.Line(f.depth+1, "return;")
	}
	return nil
}

func (g *generator) whileStmt(s *jsast.WhileStmt, f frame) error {
	v, err := g.lower(s.Test, f.plain())
	if err != nil {
		return err
	}
	cond := g.temps.Fresh("loop")
	g.out.Linef(f.depth, "Local<Boolean> %s = Boolean::New(isolate, jsc::ToBoolean(%s));", cond, v.code)
	g.out.Linef(f.depth, "while (%s->IsTrue()) {", cond)

	// The loop body may run again, so falling off it never ends the function.
	inner := f
	inner.last = false
	if err := g.body(s.Body, inner); err != nil {
		return err
	}

	again := f.plain()
	again.depth++
	v, err = g.lower(s.Test, again)
	if err != nil {
		return err
	}
	g.out.Linef(f.depth+1, "%s = Boolean::New(isolate, jsc::ToBoolean(%s));", cond, v.code)
	g.out.Line(f.depth, "}")
	return nil
}
