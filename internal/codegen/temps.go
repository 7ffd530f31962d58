package codegen

import "strconv"

// Allocator mints identifiers that are unique across one emitted program.
// Temporaries, labels and hygienic renames draw from the same counter.
type Allocator struct {
	next   int
	issued map[string]struct{}
}

func NewAllocator() *Allocator {
	return &Allocator{issued: make(map[string]struct{})}
}

// Fresh returns sym_<prefix>_<n>.
func (a *Allocator) Fresh(prefix string) string {
	return a.mint("sym_" + prefix + "_")
}

// Label returns tail_recurse_<n>.
func (a *Allocator) Label() string {
	return a.mint("tail_recurse_")
}

// Init returns jsc_init_<n> for a module initializer callback.
func (a *Allocator) Init() string {
	return a.mint("jsc_init_")
}

// Rename returns <module>_<name>_<n> for a source identifier.
func (a *Allocator) Rename(module, name string) string {
	return a.mint(module + "_" + cIdent(name) + "_")
}

// Reserve marks a fixed name as taken so nothing minted later collides
// with it. It reports false if the name was already issued.
func (a *Allocator) Reserve(name string) bool {
	if _, ok := a.issued[name]; ok {
		return false
	}
	a.issued[name] = struct{}{}
	return true
}

func (a *Allocator) mint(prefix string) string {
	for {
		name := prefix + strconv.Itoa(a.next)
		a.next++
		if _, taken := a.issued[name]; taken {
			continue
		}
		a.issued[name] = struct{}{}
		return name
	}
}

// cIdent maps a JavaScript identifier onto the C identifier alphabet.
func cIdent(name string) string {
	b := []byte(name)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9' && i > 0:
		default:
			b[i] = '_'
		}
	}
	if len(b) == 0 {
		return "_"
	}
	return string(b)
}
