package decl

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"aidacc/internal/storage"
)

// NamespaceID identifies a namespace inside a Unit's arena.
type NamespaceID uint32

// NoNamespaceID marks the absence of an enclosing namespace.
const NoNamespaceID NamespaceID = 0

// IsValid reports whether the ID refers to an allocated namespace.
func (id NamespaceID) IsValid() bool { return id != NoNamespaceID }

// builtin primitive declarations shared by every namespace of a unit.
var builtinNames = map[storage.Kind]string{
	storage.Void:    "void",
	storage.Bool:    "bool",
	storage.Int32:   "int32",
	storage.Int64:   "int64",
	storage.Float64: "float64",
	storage.String:  "string",
	storage.Any:     "any",
}

// Unit is one compilation unit: it owns the namespace arena, the builtin
// primitives and the append-only registry of implementation types.
//
// A Unit is built by a single writer. After Freeze it is read-only and may be
// shared between goroutines.
type Unit struct {
	namespaces []*Namespace // index 0 reserved for NoNamespaceID
	roots      []NamespaceID
	impl       []*Type
	builtins   map[storage.Kind]*Type
	frozen     bool
}

// NewUnit creates an empty compilation unit.
func NewUnit() *Unit {
	u := &Unit{
		namespaces: make([]*Namespace, 1, 16),
		builtins:   make(map[storage.Kind]*Type, len(builtinNames)),
	}
	for kind, name := range builtinNames {
		t := New(name, kind, false)
		t.unit = u
		u.builtins[kind] = t
	}
	return u
}

// NewNamespace opens a scope named name inside parent (nil for a top-level
// namespace).
func (u *Unit) NewNamespace(name string, parent *Namespace) *Namespace {
	if u.frozen {
		Raise(FaultFrozen, name, "cannot open a namespace in a frozen unit")
	}
	if parent != nil && parent.unit != u {
		Raise(FaultRebound, name, "parent namespace %q belongs to another unit", parent.FullName())
	}
	value, err := safecast.Conv[uint32](len(u.namespaces))
	if err != nil {
		panic(fmt.Errorf("namespace arena overflow: %w", err))
	}
	ns := &Namespace{
		name:       name,
		id:         NamespaceID(value),
		unit:       u,
		typeIndex:  make(map[string]*Type),
		constIndex: make(map[string]int),
		implNames:  make(map[string]struct{}),
	}
	u.namespaces = append(u.namespaces, ns)
	if parent != nil {
		ns.parent = parent.id
		parent.children = append(parent.children, ns.id)
	} else {
		u.roots = append(u.roots, ns.id)
	}
	return ns
}

// Namespace returns the namespace for id or nil.
func (u *Unit) Namespace(id NamespaceID) *Namespace {
	if u == nil || !id.IsValid() || int(id) >= len(u.namespaces) {
		return nil
	}
	return u.namespaces[id]
}

// Namespaces lists every namespace in creation order.
func (u *Unit) Namespaces() []*Namespace {
	if len(u.namespaces) <= 1 {
		return nil
	}
	return slices.Clone(u.namespaces[1:])
}

// Roots lists the top-level namespaces in creation order.
func (u *Unit) Roots() []*Namespace {
	out := make([]*Namespace, 0, len(u.roots))
	for _, id := range u.roots {
		out = append(out, u.namespaces[id])
	}
	return out
}

// Builtin returns the unit's primitive declaration for kind, if any.
func (u *Unit) Builtin(kind storage.Kind) (*Type, bool) {
	t, ok := u.builtins[kind]
	return t, ok
}

// BuiltinNamed resolves a builtin primitive by its IDL spelling.
func (u *Unit) BuiltinNamed(name string) (*Type, bool) {
	for kind, n := range builtinNames {
		if n == name {
			return u.builtins[kind], true
		}
	}
	return nil, false
}

// ImplTypes returns the implementation-type registry in registration order.
func (u *Unit) ImplTypes() []*Type {
	return slices.Clone(u.impl)
}

// Freeze ends graph construction. Further construction calls on the unit's
// namespaces and registered declarations raise FaultFrozen.
func (u *Unit) Freeze() { u.frozen = true }

// Frozen reports whether Freeze was called.
func (u *Unit) Frozen() bool { return u.frozen }

func (u *Unit) registerImpl(t *Type) {
	u.impl = append(u.impl, t)
}
