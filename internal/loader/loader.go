// Package loader builds a decl.Unit from a YAML graph document. It stands in
// for the IDL parser: the document names namespaces, constants and types, and
// the loader resolves type references the way the parser does.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"aidacc/internal/decl"
	"aidacc/internal/storage"
)

// Error is a loader failure anchored to a document line.
type Error struct {
	File string
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return decl.Loc{File: e.File, Line: e.Line}.String() + ": " + e.Msg
}

// LoadFile reads path and adds its declarations to u.
func LoadFile(u *decl.Unit, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return Load(u, path, data)
}

// Load adds the declarations of the document data to u. Namespaces named
// like existing ones are reopened; references may point at types loaded from
// earlier documents. On error u is left partially populated.
func Load(u *decl.Unit, file string, data []byte) error {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return &Error{File: file, Msg: err.Error()}
	}
	l := &loader{unit: u, file: file, symbols: make(map[string]*entry)}
	if err := decl.Guard(func() { l.declare(doc.Namespaces, nil, nil) }); err != nil {
		return l.wrap(0, err)
	}
	if l.err != nil {
		return l.err
	}
	for _, e := range l.order {
		if err := l.complete(e); err != nil {
			return err
		}
	}
	return l.populate()
}

// entry is a type declared by the document being loaded.
type entry struct {
	doc    *typeDoc
	ns     *decl.Namespace
	scope  []string
	typ    *decl.Type
	state  fillState
	bound  bool   // completes a forward declaration from an earlier document
	origin *entry // typedef origin declared by this document
}

type fillState uint8

const (
	fillPending fillState = iota
	fillActive
	fillDone
)

type scopedConst struct {
	doc *constDoc
	ns  *decl.Namespace
}

type loader struct {
	unit    *decl.Unit
	file    string
	symbols map[string]*entry
	order   []*entry
	consts  []scopedConst
	err     error
}

func (l *loader) errorf(line int, format string, args ...any) error {
	return &Error{File: l.file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func (l *loader) wrap(line int, err error) error {
	if f, ok := decl.AsFault(err); ok {
		return l.errorf(line, "%s", f.Error())
	}
	return l.errorf(line, "%v", err)
}

func (l *loader) loc(line int) decl.Loc { return decl.Loc{File: l.file, Line: line} }

// declare opens namespaces and creates an empty declaration for every
// non-typedef type, recording all of them in document order.
func (l *loader) declare(docs []nsDoc, parent *decl.Namespace, scope []string) {
	for i := range docs {
		if l.err != nil {
			return
		}
		nd := &docs[i]
		ns := l.open(nd.Name, parent)
		if nd.Doc != "" {
			ns.Docu = nd.Doc
		}
		if ns.Loc.File == "" {
			ns.Loc = l.loc(nd.line)
		}
		inner := append(append([]string(nil), scope...), nd.Name)
		for j := range nd.Consts {
			cd := &nd.Consts[j]
			if cd.Name == "" {
				l.err = l.errorf(cd.line, "constant without a name")
				return
			}
			l.consts = append(l.consts, scopedConst{doc: cd, ns: ns})
		}
		for j := range nd.Types {
			if err := l.declareType(&nd.Types[j], ns, inner); err != nil {
				l.err = err
				return
			}
		}
		l.declare(nd.Namespaces, ns, inner)
	}
}

// open returns the namespace called name inside parent, creating it unless
// an earlier document already did.
func (l *loader) open(name string, parent *decl.Namespace) *decl.Namespace {
	siblings := l.unit.Roots()
	if parent != nil {
		siblings = parent.Children()
	}
	for _, ns := range siblings {
		if ns.Name() == name {
			return ns
		}
	}
	return l.unit.NewNamespace(name, parent)
}

func (l *loader) declareType(td *typeDoc, ns *decl.Namespace, scope []string) error {
	if td.Name == "" {
		return l.errorf(td.line, "type without a name")
	}
	key := symbolKey(scope, td.Name)
	if prev, dup := l.symbols[key]; dup {
		if !prev.doc.Forward || td.Forward || prev.doc.Typedef != "" || td.Typedef != "" {
			return l.errorf(td.line, "%s redeclared (previous declaration at line %d)", key, prev.doc.line)
		}
		if err := l.define(prev.typ, td, key, prev.doc.line); err != nil {
			return err
		}
		prev.doc = td
		return nil
	}
	e := &entry{doc: td, ns: ns, scope: scope}
	if !ns.Unknown(td.Name) {
		t, ok := ns.FindType(td.Name)
		if !ok || !t.IsForward() || td.Forward || td.Typedef != "" {
			return l.errorf(td.line, "%s already declared", key)
		}
		if err := l.define(t, td, key, t.Loc.Line); err != nil {
			return err
		}
		e.typ, e.bound = t, true
	} else if td.Typedef == "" {
		kind, ok := storage.Parse(td.Storage)
		if !ok || !kind.IsComposite() || kind == storage.Func {
			return l.errorf(td.line, "%s: storage %q cannot be declared", key, td.Storage)
		}
		e.typ = decl.New(td.Name, kind, td.impl())
		l.annotate(e.typ, td)
	} else if td.Storage != "" {
		return l.errorf(td.line, "%s: typedef takes its storage from %s", key, td.Typedef)
	}
	l.symbols[key] = e
	l.order = append(l.order, e)
	return nil
}

// define completes the forward declaration t with the definition td. The
// members are filled later from td like any other declaration.
func (l *loader) define(t *decl.Type, td *typeDoc, key string, fwdLine int) error {
	kind, ok := storage.Parse(td.Storage)
	if !ok || kind != t.Storage() {
		return l.errorf(td.line, "%s: storage %q differs from forward declaration at line %d", key, td.Storage, fwdLine)
	}
	if td.impl() != t.IsImpl() {
		return l.errorf(td.line, "%s: impl differs from forward declaration at line %d", key, fwdLine)
	}
	l.annotate(t, td)
	return nil
}

func (l *loader) annotate(t *decl.Type, td *typeDoc) {
	t.Loc = l.loc(td.line)
	t.Docu = td.Doc
	t.Hint = td.Hint
	t.UpdateAuxData(td.Aux)
	t.SetForward(td.Forward)
}

func symbolKey(scope []string, name string) string {
	return strings.Join(append(append([]string(nil), scope...), name), "::")
}

// complete brings e to its final shape: payload filled or alias cloned.
func (l *loader) complete(e *entry) error {
	if e.doc.Typedef != "" {
		_, err := l.alias(e)
		return err
	}
	return l.fill(e)
}

// lookup resolves name as seen from scope: outward through the enclosing
// scopes of this document, then types loaded earlier, then builtins.
func (l *loader) lookup(scope []string, ns *decl.Namespace, name string, line int) (*entry, *decl.Type, error) {
	if rest, ok := strings.CutPrefix(name, "::"); ok {
		if e, ok := l.symbols[rest]; ok {
			return e, nil, nil
		}
		if e, ok := l.symbols[name]; ok {
			return e, nil, nil
		}
	} else {
		for i := len(scope); i >= 0; i-- {
			if e, ok := l.symbols[symbolKey(scope[:i], name)]; ok {
				return e, nil, nil
			}
		}
	}
	if t, ok := ns.Resolve(name); ok {
		return nil, t, nil
	}
	if t, ok := l.unit.BuiltinNamed(name); ok {
		return nil, t, nil
	}
	return nil, nil, l.errorf(line, "unknown type %q", name)
}

// ref returns the declaration a member reference points at. Typedef aliases
// are cloned on first use.
func (l *loader) ref(scope []string, ns *decl.Namespace, name string, line int) (*decl.Type, error) {
	if name == "" {
		return nil, l.errorf(line, "missing type reference")
	}
	e, t, err := l.lookup(scope, ns, name, line)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return t, nil
	}
	if e.doc.Typedef != "" {
		return l.alias(e)
	}
	return e.typ, nil
}

// alias clones the typedef origin once the origin is complete. An alias
// reached again while it is being resolved is either a loop through aliases
// or a use inside its own origin's members.
func (l *loader) alias(e *entry) (*decl.Type, error) {
	if e.typ != nil {
		return e.typ, nil
	}
	if e.state == fillActive {
		if e.origin != nil && e.origin.doc.Typedef == "" {
			return nil, l.incomplete(e, e.origin)
		}
		return nil, l.errorf(e.doc.line, "typedef cycle through %s", symbolKey(e.scope, e.doc.Name))
	}
	e.state = fillActive
	oe, origin, err := l.lookup(e.scope, e.ns, e.doc.Typedef, e.doc.line)
	if err != nil {
		return nil, err
	}
	e.origin = oe
	if oe != nil {
		switch {
		case oe.doc.Typedef != "":
			origin, err = l.alias(oe)
		case oe.state == fillActive:
			err = l.incomplete(e, oe)
		default:
			err = l.fill(oe)
			origin = oe.typ
		}
		if err != nil {
			return nil, err
		}
	}
	t := origin.Clone(e.doc.Name, e.doc.impl())
	t.SetTypedefOrigin(origin)
	l.annotate(t, e.doc)
	e.typ = t
	e.state = fillDone
	return t, nil
}

func (l *loader) incomplete(alias, origin *entry) error {
	return l.errorf(alias.doc.line, "typedef %s used before its origin %s is complete",
		symbolKey(alias.scope, alias.doc.Name), symbolKey(origin.scope, origin.doc.Name))
}

func (l *loader) fill(e *entry) error {
	switch e.state {
	case fillDone:
		return nil
	case fillActive:
		return l.errorf(e.doc.line, "typedef cycle through %s", symbolKey(e.scope, e.doc.Name))
	}
	e.state = fillActive
	td := e.doc
	var err error
	switch p := e.typ.Payload().(type) {
	case *decl.Enum:
		err = l.fillEnum(e, p)
	case *decl.Record:
		err = l.fillFields(e, td.Fields, p.AddField)
	case *decl.Sequence:
		err = l.fillSequence(e, p)
	case *decl.Interface:
		err = l.fillInterface(e, p)
	}
	if err != nil {
		return err
	}
	e.state = fillDone
	return nil
}

func (l *loader) fillEnum(e *entry, p *decl.Enum) error {
	var next int64
	for _, od := range e.doc.Options {
		if od.Ident == "" {
			return l.errorf(od.line, "enum option without an ident")
		}
		if _, dup := p.Option(od.Ident); dup {
			return l.errorf(od.line, "enum option %s redeclared", od.Ident)
		}
		value := next
		if od.Value != nil {
			value = *od.Value
		}
		p.AddOption(od.Ident, od.Label, od.Blurb, value)
		next = value + 1
	}
	return nil
}

func (l *loader) fillFields(e *entry, fields []memberDoc, add func(string, *decl.Type)) error {
	seen := make(map[string]bool, len(fields))
	for _, fd := range fields {
		if fd.Ident == "" {
			return l.errorf(fd.line, "field without an ident")
		}
		if seen[fd.Ident] {
			return l.errorf(fd.line, "field %s redeclared", fd.Ident)
		}
		seen[fd.Ident] = true
		t, err := l.ref(e.scope, e.ns, fd.Type, fd.line)
		if err != nil {
			return err
		}
		add(fd.Ident, t)
	}
	return nil
}

func (l *loader) fillSequence(e *entry, p *decl.Sequence) error {
	el := e.doc.Elements
	if el == nil {
		return l.errorf(e.doc.line, "sequence %s needs elements", e.doc.Name)
	}
	t, err := l.ref(e.scope, e.ns, el.Type, el.line)
	if err != nil {
		return err
	}
	p.SetElements(el.Ident, t)
	return nil
}

func (l *loader) fillInterface(e *entry, p *decl.Interface) error {
	for _, name := range e.doc.Prerequisites {
		t, err := l.ref(e.scope, e.ns, name, e.doc.line)
		if err != nil {
			return err
		}
		if t.Storage() != storage.Interface {
			return l.errorf(e.doc.line, "prerequisite %s is not an interface", name)
		}
		p.AddPrerequisite(t.Interface())
	}
	if err := l.fillFields(e, e.doc.Fields, p.AddField); err != nil {
		return err
	}
	seen := make(map[string]int)
	for _, group := range []struct {
		docs   []methodDoc
		signal bool
	}{{e.doc.Methods, false}, {e.doc.Signals, true}} {
		for i := range group.docs {
			md := &group.docs[i]
			if prev, dup := seen[md.Name]; dup {
				return l.errorf(md.line, "method %s redeclared (previous declaration at line %d)", md.Name, prev)
			}
			seen[md.Name] = md.line
			if md.Collector != "" && !group.signal {
				return l.errorf(md.line, "method %s: only signals take a collector", md.Name)
			}
			fn, err := l.function(e, md)
			if err != nil {
				return err
			}
			if err := decl.Guard(func() { p.AddMethod(fn, group.signal) }); err != nil {
				return l.wrap(md.line, err)
			}
		}
	}
	return nil
}

// function builds a method declaration. An omitted return type means void.
func (l *loader) function(e *entry, md *methodDoc) (*decl.Function, error) {
	if md.Name == "" {
		return nil, l.errorf(md.line, "method without a name")
	}
	t, fn := decl.NewFunction(md.Name, e.typ.IsImpl())
	t.Loc = l.loc(md.line)
	t.Docu = md.Doc
	for _, ad := range md.Args {
		at, err := l.ref(e.scope, e.ns, ad.Type, ad.line)
		if err != nil {
			return nil, err
		}
		fn.AddArg(ad.Ident, at, ad.Default)
	}
	rname := md.Return
	if rname == "" {
		rname = "void"
	}
	rt, err := l.ref(e.scope, e.ns, rname, md.line)
	if err != nil {
		return nil, err
	}
	fn.SetReturn(rt)
	fn.SetPure(md.Pure)
	if md.Collector != "" {
		fn.SetCollector(md.Collector)
	}
	return fn, nil
}

// populate binds constants and completed types to their namespaces in
// document order.
func (l *loader) populate() error {
	for _, c := range l.consts {
		value := normalize(c.doc.Value)
		if err := decl.Guard(func() { c.ns.AddConst(c.doc.Name, value, c.doc.Impl) }); err != nil {
			return l.wrap(c.doc.line, err)
		}
	}
	for _, e := range l.order {
		if e.bound {
			continue
		}
		if err := decl.Guard(func() { e.ns.AddType(e.typ) }); err != nil {
			return l.wrap(e.doc.line, err)
		}
	}
	return nil
}

// normalize maps YAML scalars onto the const value domain.
func normalize(v any) decl.Value {
	if i, ok := v.(int); ok {
		return int64(i)
	}
	return v
}
