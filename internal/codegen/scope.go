package codegen

// BindingKind classifies what a generated identifier denotes in C++.
type BindingKind int

const (
	// BindVar is a Local<Value> variable.
	BindVar BindingKind = iota
	// BindParam is a Local<Value> bound from the callback arguments.
	BindParam
	// BindFunc is a file-scope FunctionCallback.
	BindFunc
	// BindNestedFunc is a static FunctionCallback lambda inside a function.
	BindNestedFunc
)

func (k BindingKind) String() string {
	switch k {
	case BindParam:
		return "parameter"
	case BindFunc:
		return "function"
	case BindNestedFunc:
		return "nested function"
	default:
		return "variable"
	}
}

// Binding maps a source identifier onto its generated name.
type Binding struct {
	Source string
	Name   string
	Kind   BindingKind
	// Level is the function nesting level that owns the binding: 0 for the
	// program, 1 for top-level functions and module initializers, and so on.
	Level int
}

func (b *Binding) callable() bool {
	return b.Kind == BindFunc || b.Kind == BindNestedFunc
}

// Scope is one lexical level of the name table. Children see their
// parent's bindings; bindings added to a child never reach the parent.
type Scope struct {
	parent *Scope
	module string
	level  int
	alloc  *Allocator
	names  map[string]*Binding
}

// NewScope returns the program-level scope for module.
func NewScope(module string, alloc *Allocator) *Scope {
	return &Scope{
		module: module,
		alloc:  alloc,
		names:  make(map[string]*Binding),
	}
}

// Block returns a child scope at the same function level.
func (s *Scope) Block() *Scope {
	return &Scope{
		parent: s,
		module: s.module,
		level:  s.level,
		alloc:  s.alloc,
		names:  make(map[string]*Binding),
	}
}

// Function returns a child scope for a function body one level deeper.
func (s *Scope) Function() *Scope {
	c := s.Block()
	c.level = s.level + 1
	return c
}

// Level is the function nesting level of the scope.
func (s *Scope) Level() int { return s.level }

// Register binds source in this scope under a fresh hygienic name.
func (s *Scope) Register(source string, kind BindingKind) *Binding {
	return s.bind(source, s.alloc.Rename(s.module, source), kind)
}

// Fixed binds source under a caller-chosen name.
func (s *Scope) Fixed(source, name string, kind BindingKind) *Binding {
	s.alloc.Reserve(name)
	return s.bind(source, name, kind)
}

func (s *Scope) bind(source, name string, kind BindingKind) *Binding {
	b := &Binding{Source: source, Name: name, Kind: kind, Level: s.level}
	s.names[source] = b
	return b
}

// Lookup searches the scope chain innermost-first.
func (s *Scope) Lookup(source string) (*Binding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.names[source]; ok {
			return b, true
		}
	}
	return nil, false
}
