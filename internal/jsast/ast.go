// Package jsast defines the syntax tree consumed by the code generator.
//
// The tree is a closed sum: every expression implements Expr and every
// statement implements Stmt through unexported marker methods, so only the
// node types declared here can appear. Constructs outside the supported
// subset are carried as UnsupportedExpr / UnsupportedStmt (or Pattern for
// destructuring) so the generator can report them with a position.
package jsast

import "fmt"

// Pos is a source location forwarded from the parser.
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) String() string {
	switch {
	case p.Line == 0 && p.File == "":
		return "-"
	case p.Line == 0:
		return p.File
	case p.File == "":
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	default:
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
	}
}

type Node interface {
	Pos() Pos
}

type Expr interface {
	Node
	exprNode()
}

type Stmt interface {
	Node
	stmtNode()
}

// BinaryOp enumerates the binary operators of the subset. OpAssign is the
// zero value and marks a plain assignment in AssignExpr.
type BinaryOp int

const (
	OpAssign BinaryOp = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpExp
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpUshr
	OpEq
	OpNe
	OpStrictEq
	OpStrictNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpLogicalAnd
	OpLogicalOr
)

var opNames = [...]string{
	OpAssign:     "=",
	OpAdd:        "+",
	OpSub:        "-",
	OpMul:        "*",
	OpDiv:        "/",
	OpRem:        "%",
	OpExp:        "**",
	OpBitAnd:     "&",
	OpBitOr:      "|",
	OpBitXor:     "^",
	OpShl:        "<<",
	OpShr:        ">>",
	OpUshr:       ">>>",
	OpEq:         "==",
	OpNe:         "!=",
	OpStrictEq:   "===",
	OpStrictNe:   "!==",
	OpLt:         "<",
	OpLe:         "<=",
	OpGt:         ">",
	OpGe:         ">=",
	OpLogicalAnd: "&&",
	OpLogicalOr:  "||",
}

func (op BinaryOp) String() string {
	if op >= 0 && int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

// DeclKind distinguishes var, let and const declarations.
type DeclKind int

const (
	DeclVar DeclKind = iota
	DeclLet
	DeclConst
)

func (k DeclKind) String() string {
	switch k {
	case DeclLet:
		return "let"
	case DeclConst:
		return "const"
	default:
		return "var"
	}
}

// Program is the root of one parsed source file.
type Program struct {
	File string
	Body []Stmt
}

// Expressions.

type Ident struct {
	At   Pos
	Name string
}

type StringLit struct {
	At    Pos
	Value string
}

type NumberLit struct {
	At    Pos
	Value float64
}

type BoolLit struct {
	At    Pos
	Value bool
}

type NullLit struct {
	At Pos
}

// ArrayLit holds its elements in order. A nil element is a hole.
type ArrayLit struct {
	At    Pos
	Elems []Expr
}

type BinaryExpr struct {
	At    Pos
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// AssignExpr is `Target = Value` when Op is OpAssign, otherwise the compound
// form `Target op= Value`.
type AssignExpr struct {
	At     Pos
	Op     BinaryOp
	Target Expr
	Value  Expr
}

type CallExpr struct {
	At     Pos
	Callee Expr
	Args   []Expr
}

// DotExpr is `Object.Name`.
type DotExpr struct {
	At     Pos
	Object Expr
	Name   string
}

// IndexExpr is `Object[Index]`.
type IndexExpr struct {
	At     Pos
	Object Expr
	Index  Expr
}

// Pattern stands in for a destructuring binding or assignment target.
type Pattern struct {
	At   Pos
	Kind string
}

// UnsupportedExpr is any expression form outside the subset. Kind names the
// parser's node type.
type UnsupportedExpr struct {
	At   Pos
	Kind string
}

// Statements.

type ExprStmt struct {
	At Pos
	X  Expr
}

type VarDecl struct {
	At    Pos
	Kind  DeclKind
	Decls []*Declarator
}

// Declarator binds Target (an *Ident or a *Pattern) to an optional Init.
type Declarator struct {
	At     Pos
	Target Expr
	Init   Expr
}

type ReturnStmt struct {
	At     Pos
	Result Expr // nil for a bare return
}

type IfStmt struct {
	At   Pos
	Test Expr
	Then Stmt
	Else Stmt // may be nil
}

type WhileStmt struct {
	At   Pos
	Test Expr
	Body Stmt
}

type BlockStmt struct {
	At   Pos
	List []Stmt
}

// FunctionDecl is a function declaration. Name is nil for an anonymous
// declaration. Params hold *Ident, *Pattern or *UnsupportedExpr entries.
type FunctionDecl struct {
	At     Pos
	Name   *Ident
	Params []Expr
	Body   *BlockStmt
}

type UnsupportedStmt struct {
	At   Pos
	Kind string
}

func (n *Ident) Pos() Pos           { return n.At }
func (n *StringLit) Pos() Pos       { return n.At }
func (n *NumberLit) Pos() Pos       { return n.At }
func (n *BoolLit) Pos() Pos         { return n.At }
func (n *NullLit) Pos() Pos         { return n.At }
func (n *ArrayLit) Pos() Pos        { return n.At }
func (n *BinaryExpr) Pos() Pos      { return n.At }
func (n *AssignExpr) Pos() Pos      { return n.At }
func (n *CallExpr) Pos() Pos        { return n.At }
func (n *DotExpr) Pos() Pos         { return n.At }
func (n *IndexExpr) Pos() Pos       { return n.At }
func (n *Pattern) Pos() Pos         { return n.At }
func (n *UnsupportedExpr) Pos() Pos { return n.At }

func (n *ExprStmt) Pos() Pos        { return n.At }
func (n *VarDecl) Pos() Pos         { return n.At }
func (n *Declarator) Pos() Pos      { return n.At }
func (n *ReturnStmt) Pos() Pos      { return n.At }
func (n *IfStmt) Pos() Pos          { return n.At }
func (n *WhileStmt) Pos() Pos       { return n.At }
func (n *BlockStmt) Pos() Pos       { return n.At }
func (n *FunctionDecl) Pos() Pos    { return n.At }
func (n *UnsupportedStmt) Pos() Pos { return n.At }

func (*Ident) exprNode()           {}
func (*StringLit) exprNode()       {}
func (*NumberLit) exprNode()       {}
func (*BoolLit) exprNode()         {}
func (*NullLit) exprNode()         {}
func (*ArrayLit) exprNode()        {}
func (*BinaryExpr) exprNode()      {}
func (*AssignExpr) exprNode()      {}
func (*CallExpr) exprNode()        {}
func (*DotExpr) exprNode()         {}
func (*IndexExpr) exprNode()       {}
func (*Pattern) exprNode()         {}
func (*UnsupportedExpr) exprNode() {}

func (*ExprStmt) stmtNode()        {}
func (*VarDecl) stmtNode()         {}
func (*ReturnStmt) stmtNode()      {}
func (*IfStmt) stmtNode()          {}
func (*WhileStmt) stmtNode()       {}
func (*BlockStmt) stmtNode()       {}
func (*FunctionDecl) stmtNode()    {}
func (*UnsupportedStmt) stmtNode() {}
