package decl

import (
	"fmt"
	"maps"
	"strings"

	"aidacc/internal/storage"
)

// Loc is a source position attached by the front-end.
type Loc struct {
	File string
	Line int
}

func (l Loc) String() string {
	if l.File == "" {
		return ""
	}
	if l.Line <= 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Type is the envelope shared by every declaration. Storage-specific data
// lives in the payload returned by Payload.
type Type struct {
	name          string
	storage       storage.Kind
	isImpl        bool
	typedefOrigin *Type
	isForward     bool
	payload       Payload

	// non-owning: qualification only
	unit  *Unit
	ns    NamespaceID
	bound bool

	AuxData map[string]string
	Loc     Loc
	Hint    string
	Docu    string
}

// New constructs a declaration of the given storage kind. Kinds outside the
// closed set raise FaultInvalidStorage.
func New(name string, kind storage.Kind, isimpl bool) *Type {
	if !kind.Valid() {
		Raise(FaultInvalidStorage, name, "storage %s is outside the closed set", kind)
	}
	t := &Type{
		name:    name,
		storage: kind,
		isImpl:  isimpl,
		AuxData: make(map[string]string),
	}
	switch kind {
	case storage.Enum:
		t.payload = &Enum{decl: t}
	case storage.Record:
		t.payload = &Record{decl: t}
	case storage.Interface:
		t.payload = &Interface{decl: t}
	case storage.Sequence:
		t.payload = &Sequence{decl: t}
	case storage.Func:
		t.payload = &Function{decl: t, collector: DefaultCollector}
	}
	return t
}

// NewEnum constructs an enum declaration.
func NewEnum(name string, isimpl bool) (*Type, *Enum) {
	t := New(name, storage.Enum, isimpl)
	return t, t.payload.(*Enum)
}

// NewRecord constructs a record declaration.
func NewRecord(name string, isimpl bool) (*Type, *Record) {
	t := New(name, storage.Record, isimpl)
	return t, t.payload.(*Record)
}

// NewInterface constructs an interface declaration.
func NewInterface(name string, isimpl bool) (*Type, *Interface) {
	t := New(name, storage.Interface, isimpl)
	return t, t.payload.(*Interface)
}

// NewSequence constructs a sequence declaration.
func NewSequence(name string, isimpl bool) (*Type, *Sequence) {
	t := New(name, storage.Sequence, isimpl)
	return t, t.payload.(*Sequence)
}

// NewFunction constructs a function declaration (method or signal).
func NewFunction(name string, isimpl bool) (*Type, *Function) {
	t := New(name, storage.Func, isimpl)
	return t, t.payload.(*Function)
}

func (t *Type) Name() string                 { return t.name }
func (t *Type) Storage() storage.Kind        { return t.storage }
func (t *Type) IsImpl() bool                 { return t.isImpl }
func (t *Type) IsForward() bool              { return t.isForward }
func (t *Type) TypedefOrigin() *Type         { return t.typedefOrigin }
func (t *Type) Payload() Payload             { return t.payload }
func (t *Type) IsFunc() bool                 { return t.storage == storage.Func }
func (t *Type) Namespace() *Namespace        { return t.unit.Namespace(t.ns) }
func (t *Type) NamespaceID() NamespaceID     { return t.ns }
func (t *Type) ListNamespaces() []*Namespace { return t.unit.chain(t.ns) }

// SetForward marks the declaration as an incomplete forward declaration.
func (t *Type) SetForward(forward bool) {
	t.mutable("SetForward")
	t.isForward = forward
}

// SetTypedefOrigin records the declaration t aliases.
func (t *Type) SetTypedefOrigin(origin *Type) {
	t.mutable("SetTypedefOrigin")
	t.typedefOrigin = origin
}

// UpdateAuxData merges aux into the annotation map. Concurrent callers must
// serialize access themselves.
func (t *Type) UpdateAuxData(aux map[string]string) {
	if t.AuxData == nil {
		t.AuxData = make(map[string]string, len(aux))
	}
	maps.Copy(t.AuxData, aux)
}

// FullName joins every enclosing namespace name and the own name with "::".
func (t *Type) FullName() string {
	return qualify(t.ListNamespaces(), t.name)
}

// NamespaceNames returns the non-empty enclosing namespace names.
func (t *Type) NamespaceNames() []string {
	chain := t.ListNamespaces()
	out := make([]string, 0, len(chain))
	for _, ns := range chain {
		if ns.name != "" {
			out = append(out, ns.name)
		}
	}
	return out
}

// JoinedName joins the non-empty namespace names and the own name with sep,
// e.g. JoinedName("__") yields "Pkg__Record".
func (t *Type) JoinedName(sep string) string {
	return strings.Join(append(t.NamespaceNames(), t.name), sep)
}

func (t *Type) String() string { return t.FullName() }

// Clone returns a new declaration with the same storage, flags, auxdata and
// namespace handle. Nested declarations are shared, member lists are copied.
// An empty newName keeps the current name. The clone is not a member of any
// namespace.
func (t *Type) Clone(newName string, isimpl bool) *Type {
	if newName == "" {
		newName = t.name
	}
	c := &Type{
		name:          newName,
		storage:       t.storage,
		isImpl:        isimpl,
		typedefOrigin: t.typedefOrigin,
		isForward:     t.isForward,
		unit:          t.unit,
		ns:            t.ns,
		AuxData:       make(map[string]string, len(t.AuxData)),
		Loc:           t.Loc,
		Hint:          t.Hint,
		Docu:          t.Docu,
	}
	maps.Copy(c.AuxData, t.AuxData)
	if t.payload != nil {
		c.payload = t.payload.cloneFor(c)
	}
	return c
}

// Enum returns the enum payload; other storages raise FaultStorageMismatch.
func (t *Type) Enum() *Enum {
	p, ok := t.payload.(*Enum)
	if !ok {
		t.mismatch(storage.Enum)
	}
	return p
}

// Record returns the record payload.
func (t *Type) Record() *Record {
	p, ok := t.payload.(*Record)
	if !ok {
		t.mismatch(storage.Record)
	}
	return p
}

// Interface returns the interface payload.
func (t *Type) Interface() *Interface {
	p, ok := t.payload.(*Interface)
	if !ok {
		t.mismatch(storage.Interface)
	}
	return p
}

// Sequence returns the sequence payload.
func (t *Type) Sequence() *Sequence {
	p, ok := t.payload.(*Sequence)
	if !ok {
		t.mismatch(storage.Sequence)
	}
	return p
}

// Function returns the function payload.
func (t *Type) Function() *Function {
	p, ok := t.payload.(*Function)
	if !ok {
		t.mismatch(storage.Func)
	}
	return p
}

// Fields returns the fields of a record or interface, nil otherwise.
func (t *Type) Fields() []Field {
	switch p := t.payload.(type) {
	case *Record:
		return p.fields
	case *Interface:
		return p.fields
	}
	return nil
}

func (t *Type) mismatch(want storage.Kind) {
	Raise(FaultStorageMismatch, t.name, "storage is %s, operation requires %s", t.storage, want)
}

// mutable guards construction calls on declarations registered in a frozen unit.
func (t *Type) mutable(op string) {
	if t.bound && t.unit != nil && t.unit.frozen {
		Raise(FaultFrozen, t.name, "%s after the unit was frozen", op)
	}
}
