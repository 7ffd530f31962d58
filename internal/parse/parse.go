// Package parse reads ECMAScript source with the goja parser and converts
// the result into the jsast tree consumed by the code generator.
//
// The conversion never rejects a program on its own. Constructs outside the
// compiled subset are carried over as jsast.UnsupportedStmt or
// jsast.UnsupportedExpr (destructuring as jsast.Pattern) so the generator
// can report them with a source position.
package parse

import (
	"fmt"
	"os"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"
	"github.com/dop251/goja/parser"
	"github.com/dop251/goja/token"

	"github.com/tinyrange/jsc/internal/jsast"
)

// File reads and parses the script at path.
func File(path string) (*jsast.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse: read %s: %w", path, err)
	}
	return Source(path, src)
}

// Source parses src as a script named name.
func Source(name string, src []byte) (*jsast.Program, error) {
	var fs file.FileSet
	prog, err := parser.ParseFile(&fs, name, string(src), 0)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	c := &converter{fs: &fs, name: name}
	return &jsast.Program{
		File: name,
		Body: c.stmts(prog.Body),
	}, nil
}

type converter struct {
	fs   *file.FileSet
	name string
}

func (c *converter) pos(idx file.Idx) jsast.Pos {
	p := c.fs.Position(idx)
	name := p.Filename
	if name == "" {
		name = c.name
	}
	return jsast.Pos{File: name, Line: p.Line, Col: p.Column}
}

// kind names a goja node for diagnostics.
func kind(n ast.Node) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", n), "*ast.")
}

func (c *converter) stmts(list []ast.Statement) []jsast.Stmt {
	var out []jsast.Stmt
	for _, s := range list {
		if _, ok := s.(*ast.EmptyStatement); ok {
			continue
		}
		out = append(out, c.stmt(s))
	}
	return out
}

func (c *converter) stmt(s ast.Statement) jsast.Stmt {
	at := c.pos(s.Idx0())
	switch s := s.(type) {
	case *ast.ExpressionStatement:
		return &jsast.ExprStmt{At: at, X: c.expr(s.Expression)}

	case *ast.VariableStatement:
		return &jsast.VarDecl{At: at, Kind: jsast.DeclVar, Decls: c.declarators(s.List)}

	case *ast.LexicalDeclaration:
		k := jsast.DeclLet
		if s.Token == token.CONST {
			k = jsast.DeclConst
		}
		return &jsast.VarDecl{At: at, Kind: k, Decls: c.declarators(s.List)}

	case *ast.ReturnStatement:
		r := &jsast.ReturnStmt{At: at}
		if s.Argument != nil {
			r.Result = c.expr(s.Argument)
		}
		return r

	case *ast.IfStatement:
		r := &jsast.IfStmt{At: at, Test: c.expr(s.Test), Then: c.stmt(s.Consequent)}
		if s.Alternate != nil {
			r.Else = c.stmt(s.Alternate)
		}
		return r

	case *ast.WhileStatement:
		return &jsast.WhileStmt{At: at, Test: c.expr(s.Test), Body: c.stmt(s.Body)}

	case *ast.BlockStatement:
		return c.block(s)

	case *ast.EmptyStatement:
		return &jsast.BlockStmt{At: at}

	case *ast.FunctionDeclaration:
		return c.function(s.Function, at)

	default:
		return &jsast.UnsupportedStmt{At: at, Kind: kind(s)}
	}
}

func (c *converter) block(b *ast.BlockStatement) *jsast.BlockStmt {
	return &jsast.BlockStmt{At: c.pos(b.Idx0()), List: c.stmts(b.List)}
}

func (c *converter) function(fn *ast.FunctionLiteral, at jsast.Pos) jsast.Stmt {
	decl := &jsast.FunctionDecl{At: at}
	if fn.Name != nil {
		decl.Name = &jsast.Ident{At: c.pos(fn.Name.Idx0()), Name: fn.Name.Name.String()}
	}
	if fn.ParameterList != nil {
		for _, p := range fn.ParameterList.List {
			decl.Params = append(decl.Params, c.param(p))
		}
		if fn.ParameterList.Rest != nil {
			rest := fn.ParameterList.Rest
			decl.Params = append(decl.Params, &jsast.UnsupportedExpr{At: c.pos(rest.Idx0()), Kind: "RestParameter"})
		}
	}
	if fn.Body != nil {
		decl.Body = c.block(fn.Body)
	} else {
		decl.Body = &jsast.BlockStmt{At: at}
	}
	return decl
}

func (c *converter) param(b *ast.Binding) jsast.Expr {
	if b.Initializer != nil {
		return &jsast.UnsupportedExpr{At: c.pos(b.Target.Idx0()), Kind: "DefaultParameter"}
	}
	return c.target(b.Target)
}

// target converts a binding target: an identifier or a destructuring
// pattern.
func (c *converter) target(t ast.BindingTarget) jsast.Expr {
	at := c.pos(t.Idx0())
	switch t := t.(type) {
	case *ast.Identifier:
		return &jsast.Ident{At: at, Name: t.Name.String()}
	case *ast.ObjectPattern, *ast.ArrayPattern:
		return &jsast.Pattern{At: at, Kind: kind(t)}
	default:
		return &jsast.UnsupportedExpr{At: at, Kind: kind(t)}
	}
}

func (c *converter) declarators(list []*ast.Binding) []*jsast.Declarator {
	var out []*jsast.Declarator
	for _, b := range list {
		d := &jsast.Declarator{At: c.pos(b.Target.Idx0()), Target: c.target(b.Target)}
		if b.Initializer != nil {
			d.Init = c.expr(b.Initializer)
		}
		out = append(out, d)
	}
	return out
}

var binaryOps = map[token.Token]jsast.BinaryOp{
	token.PLUS:                 jsast.OpAdd,
	token.MINUS:                jsast.OpSub,
	token.MULTIPLY:             jsast.OpMul,
	token.SLASH:                jsast.OpDiv,
	token.REMAINDER:            jsast.OpRem,
	token.EXPONENT:             jsast.OpExp,
	token.AND:                  jsast.OpBitAnd,
	token.OR:                   jsast.OpBitOr,
	token.EXCLUSIVE_OR:         jsast.OpBitXor,
	token.SHIFT_LEFT:           jsast.OpShl,
	token.SHIFT_RIGHT:          jsast.OpShr,
	token.UNSIGNED_SHIFT_RIGHT: jsast.OpUshr,
	token.EQUAL:                jsast.OpEq,
	token.NOT_EQUAL:            jsast.OpNe,
	token.STRICT_EQUAL:         jsast.OpStrictEq,
	token.STRICT_NOT_EQUAL:     jsast.OpStrictNe,
	token.LESS:                 jsast.OpLt,
	token.LESS_OR_EQUAL:        jsast.OpLe,
	token.GREATER:              jsast.OpGt,
	token.GREATER_OR_EQUAL:     jsast.OpGe,
	token.LOGICAL_AND:          jsast.OpLogicalAnd,
	token.LOGICAL_OR:           jsast.OpLogicalOr,
}

func (c *converter) exprs(list []ast.Expression) []jsast.Expr {
	out := make([]jsast.Expr, 0, len(list))
	for _, e := range list {
		out = append(out, c.expr(e))
	}
	return out
}

func (c *converter) expr(e ast.Expression) jsast.Expr {
	at := c.pos(e.Idx0())
	switch e := e.(type) {
	case *ast.Identifier:
		return &jsast.Ident{At: at, Name: e.Name.String()}

	case *ast.StringLiteral:
		return &jsast.StringLit{At: at, Value: e.Value.String()}

	case *ast.NumberLiteral:
		v, ok := numberValue(e.Value)
		if !ok {
			return &jsast.UnsupportedExpr{At: at, Kind: "BigIntLiteral"}
		}
		return &jsast.NumberLit{At: at, Value: v}

	case *ast.BooleanLiteral:
		return &jsast.BoolLit{At: at, Value: e.Value}

	case *ast.NullLiteral:
		return &jsast.NullLit{At: at}

	case *ast.ArrayLiteral:
		arr := &jsast.ArrayLit{At: at}
		for _, el := range e.Value {
			if el == nil {
				arr.Elems = append(arr.Elems, nil)
				continue
			}
			arr.Elems = append(arr.Elems, c.expr(el))
		}
		return arr

	case *ast.BinaryExpression:
		op, ok := binaryOps[e.Operator]
		if !ok {
			return &jsast.UnsupportedExpr{At: at, Kind: "BinaryExpression " + e.Operator.String()}
		}
		return &jsast.BinaryExpr{At: at, Op: op, Left: c.expr(e.Left), Right: c.expr(e.Right)}

	case *ast.AssignExpression:
		op := jsast.OpAssign
		if e.Operator != token.ASSIGN {
			var ok bool
			op, ok = binaryOps[e.Operator]
			if !ok || op == jsast.OpLogicalAnd || op == jsast.OpLogicalOr {
				return &jsast.UnsupportedExpr{At: at, Kind: "AssignExpression " + e.Operator.String() + "="}
			}
		}
		return &jsast.AssignExpr{At: at, Op: op, Target: c.expr(e.Left), Value: c.expr(e.Right)}

	case *ast.CallExpression:
		return &jsast.CallExpr{At: at, Callee: c.expr(e.Callee), Args: c.exprs(e.ArgumentList)}

	case *ast.DotExpression:
		return &jsast.DotExpr{At: at, Object: c.expr(e.Left), Name: e.Identifier.Name.String()}

	case *ast.BracketExpression:
		return &jsast.IndexExpr{At: at, Object: c.expr(e.Left), Index: c.expr(e.Member)}

	case *ast.UnaryExpression:
		// -<number> folds into a negative literal.
		if e.Operator == token.MINUS && !e.Postfix {
			if lit, ok := e.Operand.(*ast.NumberLiteral); ok {
				if v, ok := numberValue(lit.Value); ok {
					return &jsast.NumberLit{At: at, Value: -v}
				}
			}
		}
		return &jsast.UnsupportedExpr{At: at, Kind: "UnaryExpression " + e.Operator.String()}

	case *ast.ObjectPattern, *ast.ArrayPattern:
		return &jsast.Pattern{At: at, Kind: kind(e)}

	default:
		return &jsast.UnsupportedExpr{At: at, Kind: kind(e)}
	}
}

func numberValue(v any) (float64, bool) {
	switch v := v.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
