package codegen

import (
	"errors"
	"fmt"

	"github.com/tinyrange/jsc/internal/jsast"
)

// Sentinel errors for fatal compile failures.
var (
	ErrUnsupported       = errors.New("unsupported syntax")
	ErrAnonymousFunction = errors.New("anonymous function declaration")
	ErrDestructuring     = errors.New("destructuring is not supported")
	ErrClosureCapture    = errors.New("closures are not supported")
	ErrNoEntryPoint      = errors.New("standalone program has no main function")
	ErrDuplicateMain     = errors.New("main is declared more than once")
)

// UnsupportedError reports a syntax node outside the compiled subset.
type UnsupportedError struct {
	Kind string
	Pos  jsast.Pos
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: unsupported syntax: %s", e.Pos, e.Kind)
}

func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

// CompileError attaches a source position to one of the sentinel errors.
type CompileError struct {
	Pos    jsast.Pos
	Err    error
	Detail string
}

func (e *CompileError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %v: %s", e.Pos, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s: %v", e.Pos, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

func unsupported(n jsast.Node, kind string) error {
	return &UnsupportedError{Kind: kind, Pos: n.Pos()}
}

func compileError(n jsast.Node, err error, format string, args ...any) error {
	return &CompileError{Pos: n.Pos(), Err: err, Detail: fmt.Sprintf(format, args...)}
}
