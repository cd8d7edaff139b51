package decl

import (
	"slices"

	"aidacc/internal/storage"
)

// Payload is the storage-specific part of a declaration. The concrete types
// are *Enum, *Record, *Interface, *Sequence and *Function; primitive kinds
// have no payload.
type Payload interface {
	// Decl returns the envelope the payload belongs to.
	Decl() *Type
	cloneFor(owner *Type) Payload
}

// Option is one enumerator of an enum.
type Option struct {
	Ident string
	Label string
	Blurb string
	Value int64
}

// Field is a named member of a record or interface, or the element of a sequence.
type Field struct {
	Ident string
	Type  *Type
}

// Arg is one function argument. DefaultInit is the front-end's default
// initializer expression, kept verbatim.
type Arg struct {
	Ident       string
	Type        *Type
	DefaultInit string
}

// Enum ---------------------------------------------------------------------

type Enum struct {
	decl    *Type
	options []Option
}

func (e *Enum) Decl() *Type { return e.decl }

// Options returns the enumerators in declaration order.
func (e *Enum) Options() []Option { return e.options }

// AddOption appends an enumerator.
func (e *Enum) AddOption(ident, label, blurb string, value int64) {
	e.decl.mutable("AddOption")
	e.options = append(e.options, Option{Ident: ident, Label: label, Blurb: blurb, Value: value})
}

// HasOptions reports whether any enumerator was declared.
func (e *Enum) HasOptions() bool { return len(e.options) > 0 }

// HasOption reports whether some enumerator satisfies match.
func (e *Enum) HasOption(match func(Option) bool) bool {
	return slices.ContainsFunc(e.options, match)
}

// Option returns the enumerator called ident.
func (e *Enum) Option(ident string) (Option, bool) {
	idx := slices.IndexFunc(e.options, func(o Option) bool { return o.Ident == ident })
	if idx < 0 {
		return Option{}, false
	}
	return e.options[idx], true
}

func (e *Enum) cloneFor(owner *Type) Payload {
	return &Enum{decl: owner, options: slices.Clone(e.options)}
}

// Record -------------------------------------------------------------------

type Record struct {
	decl   *Type
	fields []Field
}

func (r *Record) Decl() *Type { return r.decl }

// Fields returns the fields in declaration order.
func (r *Record) Fields() []Field { return r.fields }

// AddField appends a field of type t.
func (r *Record) AddField(ident string, t *Type) {
	r.decl.mutable("AddField")
	requireDecl(r.decl, "AddField", t)
	r.fields = append(r.fields, Field{Ident: ident, Type: t})
}

func (r *Record) cloneFor(owner *Type) Payload {
	return &Record{decl: owner, fields: slices.Clone(r.fields)}
}

// Interface ----------------------------------------------------------------

type Interface struct {
	decl          *Type
	fields        []Field
	prerequisites []*Type
	methods       []*Type
	signals       []*Type
}

func (i *Interface) Decl() *Type { return i.decl }

// Fields returns the property fields in declaration order.
func (i *Interface) Fields() []Field { return i.fields }

// Prerequisites returns the base interfaces in declaration order.
func (i *Interface) Prerequisites() []*Type { return i.prerequisites }

// Methods returns the method declarations in declaration order.
func (i *Interface) Methods() []*Type { return i.methods }

// Signals returns the signal declarations in declaration order.
func (i *Interface) Signals() []*Type { return i.signals }

// AddField appends a property field of type t.
func (i *Interface) AddField(ident string, t *Type) {
	i.decl.mutable("AddField")
	requireDecl(i.decl, "AddField", t)
	i.fields = append(i.fields, Field{Ident: ident, Type: t})
}

// AddMethod makes i the owner of fn and appends it to the methods, or to the
// signals when isSignal is set. fn must have its return type assigned and no
// previous owner.
func (i *Interface) AddMethod(fn *Function, isSignal bool) {
	i.decl.mutable("AddMethod")
	if fn == nil {
		Raise(FaultNilDecl, i.decl.name, "AddMethod: nil function")
	}
	if fn.rtype == nil {
		Raise(FaultReturnMissing, fn.decl.name, "method added to %q before its return type was set", i.decl.name)
	}
	if fn.owner != nil {
		Raise(FaultOwnerReassigned, fn.decl.name, "already owned by %q", fn.owner.FullName())
	}
	fn.owner = i.decl
	fn.isSignal = isSignal
	if isSignal {
		i.signals = append(i.signals, fn.decl)
	} else {
		i.methods = append(i.methods, fn.decl)
	}
}

// AddPrerequisite appends a base interface.
func (i *Interface) AddPrerequisite(base *Interface) {
	i.decl.mutable("AddPrerequisite")
	if base == nil {
		Raise(FaultNilDecl, i.decl.name, "AddPrerequisite: nil interface")
	}
	i.prerequisites = append(i.prerequisites, base.decl)
}

func (i *Interface) cloneFor(owner *Type) Payload {
	return &Interface{
		decl:          owner,
		fields:        slices.Clone(i.fields),
		prerequisites: slices.Clone(i.prerequisites),
		methods:       slices.Clone(i.methods),
		signals:       slices.Clone(i.signals),
	}
}

// Sequence -----------------------------------------------------------------

type Sequence struct {
	decl     *Type
	elements Field
	set      bool
}

func (s *Sequence) Decl() *Type { return s.decl }

// Elements returns the element field; ok is false until SetElements ran.
func (s *Sequence) Elements() (Field, bool) { return s.elements, s.set }

// SetElements assigns the element identifier and type.
func (s *Sequence) SetElements(ident string, t *Type) {
	s.decl.mutable("SetElements")
	requireDecl(s.decl, "SetElements", t)
	s.elements = Field{Ident: ident, Type: t}
	s.set = true
}

func (s *Sequence) cloneFor(owner *Type) Payload {
	return &Sequence{decl: owner, elements: s.elements, set: s.set}
}

// Function -----------------------------------------------------------------

// DefaultCollector is the collector of a signal that declares none.
const DefaultCollector = "void"

type Function struct {
	decl      *Type
	args      []Arg
	rtype     *Type
	owner     *Type // non-owning
	pure      bool
	isSignal  bool
	collector string
}

func (f *Function) Decl() *Type { return f.decl }

// Args returns the arguments in declaration order.
func (f *Function) Args() []Arg { return f.args }

// Return returns the return type, nil while unset.
func (f *Function) Return() *Type { return f.rtype }

// Owner returns the interface that declared the function, nil if none.
func (f *Function) Owner() *Type { return f.owner }

func (f *Function) IsPure() bool   { return f.pure }
func (f *Function) IsSignal() bool { return f.isSignal }

// Collector names how a signal's handler results are combined, e.g. "void",
// "sum" or "last".
func (f *Function) Collector() string { return f.collector }

// SetCollector sets the signal collector kind.
func (f *Function) SetCollector(kind string) {
	f.decl.mutable("SetCollector")
	f.collector = kind
}

// ReturnsVoid reports whether the return type is set and has void storage.
func (f *Function) ReturnsVoid() bool {
	return f.rtype != nil && f.rtype.storage == storage.Void
}

// AddArg appends an argument.
func (f *Function) AddArg(ident string, t *Type, defaultInit string) {
	f.decl.mutable("AddArg")
	requireDecl(f.decl, "AddArg", t)
	f.args = append(f.args, Arg{Ident: ident, Type: t, DefaultInit: defaultInit})
}

// SetReturn assigns the return type. It may be called once.
func (f *Function) SetReturn(t *Type) {
	f.decl.mutable("SetReturn")
	requireDecl(f.decl, "SetReturn", t)
	if f.rtype != nil {
		Raise(FaultReturnReassigned, f.decl.name, "return type already set to %q", f.rtype.FullName())
	}
	f.rtype = t
}

// SetPure marks the function as free of side effects.
func (f *Function) SetPure(pure bool) {
	f.decl.mutable("SetPure")
	f.pure = pure
}

func (f *Function) cloneFor(owner *Type) Payload {
	return &Function{
		decl:      owner,
		args:      slices.Clone(f.args),
		rtype:     f.rtype,
		owner:     f.owner,
		pure:      f.pure,
		isSignal:  f.isSignal,
		collector: f.collector,
	}
}

func requireDecl(subject *Type, op string, t *Type) {
	if t == nil {
		Raise(FaultNilDecl, subject.name, "%s: nil declaration", op)
	}
}
