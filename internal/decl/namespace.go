package decl

import (
	"strings"
)

// Value is the payload of a constant declaration (int64, float64, string, bool).
type Value = any

// Const is a named constant member of a namespace.
type Const struct {
	Name  string
	Value Value
}

// Namespace is a named scope. It owns its member declarations; a member only
// keeps a handle back to it for name qualification.
type Namespace struct {
	name     string
	id       NamespaceID
	parent   NamespaceID
	unit     *Unit
	children []NamespaceID

	consts     []Const
	types      []*Type
	typeIndex  map[string]*Type
	constIndex map[string]int
	implNames  map[string]struct{}

	Loc  Loc
	Docu string
}

// Name returns the short name (empty for an anonymous root).
func (ns *Namespace) Name() string { return ns.name }

// ID returns the arena handle of the namespace.
func (ns *Namespace) ID() NamespaceID { return ns.id }

// Unit returns the owning compilation unit.
func (ns *Namespace) Unit() *Unit { return ns.unit }

// Parent returns the enclosing namespace or nil.
func (ns *Namespace) Parent() *Namespace { return ns.unit.Namespace(ns.parent) }

// Children lists nested namespaces in creation order.
func (ns *Namespace) Children() []*Namespace {
	out := make([]*Namespace, 0, len(ns.children))
	for _, id := range ns.children {
		out = append(out, ns.unit.Namespace(id))
	}
	return out
}

// ListNamespaces returns the enclosing namespaces, outermost first,
// excluding ns itself.
func (ns *Namespace) ListNamespaces() []*Namespace {
	return ns.unit.chain(ns.parent)
}

// FullName joins the enclosing namespace names and the own name with "::".
func (ns *Namespace) FullName() string {
	return qualify(ns.ListNamespaces(), ns.name)
}

// AddType binds t to this namespace and appends it to the member list. When
// t is an implementation type it is also appended to the unit registry.
func (ns *Namespace) AddType(t *Type) {
	if t == nil {
		Raise(FaultNilDecl, ns.FullName(), "AddType: nil declaration")
	}
	if ns.unit.frozen {
		Raise(FaultFrozen, t.name, "AddType on frozen unit")
	}
	if t.bound {
		Raise(FaultRebound, t.name, "already declared in %q", t.Namespace().FullName())
	}
	if !ns.Unknown(t.name) {
		Raise(FaultRedeclared, qualify(append(ns.ListNamespaces(), ns), t.name), "name already declared in this namespace")
	}
	t.unit = ns.unit
	t.ns = ns.id
	t.bound = true
	ns.types = append(ns.types, t)
	ns.typeIndex[t.name] = t
	if t.isImpl {
		ns.unit.registerImpl(t)
	}
}

// AddConst declares a constant in this namespace.
func (ns *Namespace) AddConst(name string, value Value, isimpl bool) {
	if ns.unit.frozen {
		Raise(FaultFrozen, name, "AddConst on frozen unit")
	}
	if !ns.Unknown(name) {
		Raise(FaultRedeclared, qualify(append(ns.ListNamespaces(), ns), name), "name already declared in this namespace")
	}
	ns.consts = append(ns.consts, Const{Name: name, Value: value})
	ns.constIndex[name] = len(ns.consts) - 1
	if isimpl {
		ns.implNames[name] = struct{}{}
	}
}

// Unknown reports whether name is free in the combined const+type space.
func (ns *Namespace) Unknown(name string) bool {
	if _, ok := ns.typeIndex[name]; ok {
		return false
	}
	_, ok := ns.constIndex[name]
	return !ok
}

// FindType looks name up among this namespace's own types.
func (ns *Namespace) FindType(name string) (*Type, bool) {
	t, ok := ns.typeIndex[name]
	return t, ok
}

// FindTypeOr returns the local type called name, or fallback on a miss.
func (ns *Namespace) FindTypeOr(name string, fallback *Type) *Type {
	if t, ok := ns.typeIndex[name]; ok {
		return t
	}
	return fallback
}

// FindConst looks name up among this namespace's own constants.
func (ns *Namespace) FindConst(name string) (Value, bool) {
	idx, ok := ns.constIndex[name]
	if !ok {
		return nil, false
	}
	return ns.consts[idx].Value, true
}

// IsImplName reports whether the member called name was declared isimpl.
// Types answer with their own flag.
func (ns *Namespace) IsImplName(name string) bool {
	if t, ok := ns.typeIndex[name]; ok {
		return t.isImpl
	}
	_, ok := ns.implNames[name]
	return ok
}

// Types returns the member types in declaration order.
func (ns *Namespace) Types() []*Type { return ns.types }

// Consts returns the member constants in declaration order.
func (ns *Namespace) Consts() []Const { return ns.consts }

// Resolve performs chained lookup: a short name is searched in ns and then in
// every enclosing namespace; a "::"-qualified name is resolved relative to the
// nearest enclosing scope that contains its first segment, or from the top
// level when it starts with "::".
func (ns *Namespace) Resolve(name string) (*Type, bool) {
	if !strings.Contains(name, "::") {
		for s := ns; s != nil; s = s.Parent() {
			if t, ok := s.FindType(name); ok {
				return t, true
			}
		}
		return nil, false
	}
	absolute := strings.HasPrefix(name, "::")
	parts := strings.Split(strings.TrimPrefix(name, "::"), "::")
	path, last := parts[:len(parts)-1], parts[len(parts)-1]
	if len(path) == 0 {
		for _, root := range ns.unit.Roots() {
			if root.name != "" {
				continue
			}
			if t, ok := root.FindType(last); ok {
				return t, true
			}
		}
		return nil, false
	}
	if !absolute {
		for s := ns; s != nil; s = s.Parent() {
			if target := s.descend(path); target != nil {
				if t, ok := target.FindType(last); ok {
					return t, true
				}
			}
		}
	}
	for _, root := range ns.unit.topLevel(path[0]) {
		if target := root.descend(path[1:]); target != nil {
			if t, ok := target.FindType(last); ok {
				return t, true
			}
		}
	}
	return nil, false
}

// descend follows path through child namespaces.
func (ns *Namespace) descend(path []string) *Namespace {
	cur := ns
	for _, seg := range path {
		var next *Namespace
		for _, id := range cur.children {
			if child := cur.unit.Namespace(id); child.name == seg {
				next = child
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// topLevel returns the root namespaces named name. Children of anonymous
// roots count as top-level.
func (u *Unit) topLevel(name string) []*Namespace {
	var out []*Namespace
	for _, root := range u.Roots() {
		if root.name == name {
			out = append(out, root)
		}
		if root.name == "" {
			if child := root.descend([]string{name}); child != nil {
				out = append(out, child)
			}
		}
	}
	return out
}

// chain returns the namespace id and all of its ancestors, outermost first.
func (u *Unit) chain(id NamespaceID) []*Namespace {
	var out []*Namespace
	for ns := u.Namespace(id); ns != nil; ns = u.Namespace(ns.parent) {
		out = append(out, ns)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func qualify(chain []*Namespace, name string) string {
	var sb strings.Builder
	for _, ns := range chain {
		sb.WriteString(ns.name)
		sb.WriteString("::")
	}
	sb.WriteString(name)
	return sb.String()
}
