package idhash

import (
	"aidacc/internal/decl"
)

// Entry is one tag minted for a declaration.
type Entry struct {
	Subject string // fully-qualified declaration, "::field" suffixed for properties
	Purpose string // purpose string fed to the digest
	Feed    string
	Tag     Tag
}

// Collect mints every tag a backend embeds for t: its identity tag, the call
// tags of its methods and signals, and getter/setter tags for its fields.
func Collect(t *decl.Type) []Entry {
	entries := []Entry{entryFor(t, CallPurpose(t), "")}
	switch p := t.Payload().(type) {
	case *decl.Interface:
		for _, m := range p.Methods() {
			entries = append(entries, entryFor(m, CallPurpose(m), ""))
		}
		for _, s := range p.Signals() {
			entries = append(entries, entryFor(s, CallPurpose(s), ""))
		}
		entries = append(entries, propertyEntries(t, p.Fields())...)
	case *decl.Record:
		entries = append(entries, propertyEntries(t, p.Fields())...)
	}
	return entries
}

// CollectAll runs Collect over types in order.
func CollectAll(types []*decl.Type) []Entry {
	var out []Entry
	for _, t := range types {
		out = append(out, Collect(t)...)
	}
	return out
}

func propertyEntries(t *decl.Type, fields []decl.Field) []Entry {
	out := make([]Entry, 0, 2*len(fields))
	for _, f := range fields {
		postfix := PropertyPostfix(f)
		for _, setter := range []bool{false, true} {
			e := entryFor(t, PropertyPurpose(setter), postfix)
			e.Subject += "::" + f.Ident
			out = append(out, e)
		}
	}
	return out
}

func entryFor(t *decl.Type, p Purpose, postfix string) Entry {
	subject := t.FullName()
	if fn, ok := t.Payload().(*decl.Function); ok && fn.Owner() != nil {
		subject = fn.Owner().FullName() + "::" + t.Name()
	}
	return Entry{
		Subject: subject,
		Purpose: p.Tag,
		Feed:    Feed(t, p.Tag, postfix),
		Tag:     Hash128(t, p.HighNibble, p.Tag, postfix),
	}
}
