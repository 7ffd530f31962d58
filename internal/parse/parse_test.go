package parse

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tinyrange/jsc/internal/jsast"
)

func parseOne(t *testing.T, src string) []jsast.Stmt {
	t.Helper()
	prog, err := Source("t.js", []byte(src))
	if err != nil {
		t.Fatalf("Source returned error: %v", err)
	}
	return prog.Body
}

func TestParseFunctionDeclaration(t *testing.T) {
	body := parseOne(t, "function add(a, b) {\n  return a + b;\n}\n")
	if len(body) != 1 {
		t.Fatalf("got %d statements, want 1", len(body))
	}
	fn, ok := body[0].(*jsast.FunctionDecl)
	if !ok {
		t.Fatalf("statement is %T, want *jsast.FunctionDecl", body[0])
	}
	if fn.Name == nil || fn.Name.Name != "add" {
		t.Fatalf("unexpected name %+v", fn.Name)
	}
	var params []string
	for _, p := range fn.Params {
		params = append(params, p.(*jsast.Ident).Name)
	}
	if !reflect.DeepEqual(params, []string{"a", "b"}) {
		t.Fatalf("params = %v", params)
	}

	ret, ok := fn.Body.List[0].(*jsast.ReturnStmt)
	if !ok {
		t.Fatalf("body statement is %T", fn.Body.List[0])
	}
	if ret.Pos().Line != 2 || ret.Pos().File != "t.js" {
		t.Fatalf("return position = %s, want t.js line 2", ret.Pos())
	}
	sum, ok := ret.Result.(*jsast.BinaryExpr)
	if !ok || sum.Op != jsast.OpAdd {
		t.Fatalf("return value = %#v", ret.Result)
	}
}

func TestParseOperators(t *testing.T) {
	for _, tt := range []struct {
		src  string
		want jsast.BinaryOp
	}{
		{"a + b", jsast.OpAdd},
		{"a % b", jsast.OpRem},
		{"a ** b", jsast.OpExp},
		{"a >>> b", jsast.OpUshr},
		{"a == b", jsast.OpEq},
		{"a !== b", jsast.OpStrictNe},
		{"a <= b", jsast.OpLe},
		{"a && b", jsast.OpLogicalAnd},
		{"a || b", jsast.OpLogicalOr},
	} {
		body := parseOne(t, tt.src+";")
		bin, ok := body[0].(*jsast.ExprStmt).X.(*jsast.BinaryExpr)
		if !ok {
			t.Errorf("%s: got %T", tt.src, body[0].(*jsast.ExprStmt).X)
			continue
		}
		if bin.Op != tt.want {
			t.Errorf("%s: op = %s, want %s", tt.src, bin.Op, tt.want)
		}
	}
}

func TestParseAssignments(t *testing.T) {
	for _, tt := range []struct {
		src    string
		op     jsast.BinaryOp
		target any
	}{
		{"x = 1;", jsast.OpAssign, &jsast.Ident{}},
		{"x += 1;", jsast.OpAdd, &jsast.Ident{}},
		{"o.k -= 1;", jsast.OpSub, &jsast.DotExpr{}},
		{"o[0] = 1;", jsast.OpAssign, &jsast.IndexExpr{}},
	} {
		body := parseOne(t, tt.src)
		a, ok := body[0].(*jsast.ExprStmt).X.(*jsast.AssignExpr)
		if !ok {
			t.Errorf("%s: not an assignment", tt.src)
			continue
		}
		if a.Op != tt.op {
			t.Errorf("%s: op = %s, want %s", tt.src, a.Op, tt.op)
		}
		if reflect.TypeOf(a.Target) != reflect.TypeOf(tt.target) {
			t.Errorf("%s: target %T, want %T", tt.src, a.Target, tt.target)
		}
	}
}

func TestParseDeclarations(t *testing.T) {
	body := parseOne(t, "var a = 1, b; let c = 'x'; const d = null;")
	if len(body) != 3 {
		t.Fatalf("got %d statements", len(body))
	}
	kinds := []jsast.DeclKind{jsast.DeclVar, jsast.DeclLet, jsast.DeclConst}
	for i, want := range kinds {
		d := body[i].(*jsast.VarDecl)
		if d.Kind != want {
			t.Errorf("statement %d kind = %s, want %s", i, d.Kind, want)
		}
	}
	first := body[0].(*jsast.VarDecl)
	if len(first.Decls) != 2 || first.Decls[1].Init != nil {
		t.Fatalf("unexpected var declarators %+v", first.Decls)
	}
	if _, ok := body[2].(*jsast.VarDecl).Decls[0].Init.(*jsast.NullLit); !ok {
		t.Fatalf("null initializer not converted")
	}
}

func TestParseNegativeLiteralFolds(t *testing.T) {
	body := parseOne(t, "f(-3, -x);")
	call := body[0].(*jsast.ExprStmt).X.(*jsast.CallExpr)
	lit, ok := call.Args[0].(*jsast.NumberLit)
	if !ok || lit.Value != -3 {
		t.Fatalf("first argument = %#v, want -3 literal", call.Args[0])
	}
	if _, ok := call.Args[1].(*jsast.UnsupportedExpr); !ok {
		t.Fatalf("negation of an identifier = %T, want unsupported", call.Args[1])
	}
}

func TestParseArrayHoles(t *testing.T) {
	body := parseOne(t, "[1, , 'two'];")
	arr := body[0].(*jsast.ExprStmt).X.(*jsast.ArrayLit)
	if len(arr.Elems) != 3 || arr.Elems[1] != nil {
		t.Fatalf("unexpected elements %#v", arr.Elems)
	}
	if s, ok := arr.Elems[2].(*jsast.StringLit); !ok || s.Value != "two" {
		t.Fatalf("unexpected string element %#v", arr.Elems[2])
	}
}

func TestParseDropsEmptyStatements(t *testing.T) {
	body := parseOne(t, ";;function f() {;};")
	if len(body) != 1 {
		t.Fatalf("got %d statements, want 1", len(body))
	}
	if n := len(body[0].(*jsast.FunctionDecl).Body.List); n != 0 {
		t.Fatalf("function body has %d statements, want 0", n)
	}
}

func TestParseUnsupportedForms(t *testing.T) {
	for _, tt := range []struct {
		src  string
		kind string
	}{
		{"for (;;) {}", "ForStatement"},
		{"try {} catch (e) {}", "TryStatement"},
		{"throw 1;", "ThrowStatement"},
	} {
		body := parseOne(t, tt.src)
		u, ok := body[0].(*jsast.UnsupportedStmt)
		if !ok {
			t.Errorf("%s: got %T", tt.src, body[0])
			continue
		}
		if u.Kind != tt.kind {
			t.Errorf("%s: kind = %q, want %q", tt.src, u.Kind, tt.kind)
		}
	}

	body := parseOne(t, "x = {};")
	if _, ok := body[0].(*jsast.ExprStmt).X.(*jsast.AssignExpr).Value.(*jsast.UnsupportedExpr); !ok {
		t.Fatalf("object literal was not marked unsupported")
	}
}

func TestParseDestructuring(t *testing.T) {
	body := parseOne(t, "function f({a}, [b]) {}\nlet {c} = o;")
	fn := body[0].(*jsast.FunctionDecl)
	for i, p := range fn.Params {
		if _, ok := p.(*jsast.Pattern); !ok {
			t.Errorf("param %d = %T, want pattern", i, p)
		}
	}
	decl := body[1].(*jsast.VarDecl)
	pat, ok := decl.Decls[0].Target.(*jsast.Pattern)
	if !ok || pat.Kind != "ObjectPattern" {
		t.Fatalf("declaration target = %#v", decl.Decls[0].Target)
	}
}

func TestParseSyntaxError(t *testing.T) {
	if _, err := Source("bad.js", []byte("function (")); err == nil {
		t.Fatalf("expected a syntax error")
	}
}

func TestParseTestdataFiles(t *testing.T) {
	files, err := os.ReadDir("testdata")
	if err != nil {
		t.Fatalf("failed to read testdata directory: %v", err)
	}

	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".js" {
			continue
		}
		t.Run(f.Name(), func(t *testing.T) {
			prog, err := File(filepath.Join("testdata", f.Name()))
			if err != nil {
				t.Fatalf("File failed: %v", err)
			}
			if len(prog.Body) == 0 {
				t.Fatal("expected at least one statement")
			}
			var hasMain bool
			for _, s := range prog.Body {
				if fn, ok := s.(*jsast.FunctionDecl); ok && fn.Name != nil && fn.Name.Name == "main" {
					hasMain = true
				}
			}
			if !hasMain {
				t.Error("expected a main function")
			}
		})
	}
}
