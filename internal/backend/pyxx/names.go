package pyxx

import (
	"strings"

	"aidacc/internal/decl"
	"aidacc/internal/storage"
)

func underscoreTypename(tp *decl.Type) string {
	if tp.Storage() == storage.Any {
		return anyTypename
	}
	return tp.JoinedName("__")
}

// colonTypename is the C++ spelling; interfaces are referenced through their
// handle class (Widget -> WidgetH).
func colonTypename(tp *decl.Type) string {
	name := tp.JoinedName("::")
	if tp.Storage() == storage.Interface {
		name += "H"
	}
	return name
}

func colonNamespace(tp *decl.Type) string {
	return strings.Join(tp.NamespaceNames(), "::")
}

func cxxType(tp *decl.Type) string {
	switch tp.Storage() {
	case storage.Void:
		return "void"
	case storage.Bool:
		return "bool"
	case storage.Int32:
		return "int"
	case storage.Int64:
		return "int64_t"
	case storage.Float64:
		return "double"
	case storage.String:
		return "String"
	case storage.Any:
		return anyTypename
	}
	return underscoreTypename(tp)
}

func needsWrapper(tp *decl.Type) bool {
	switch tp.Storage() {
	case storage.Any, storage.Sequence, storage.Record, storage.Interface:
		return true
	}
	return false
}

// pyWrap converts the C++ value ident into a Python object.
func pyWrap(ident string, tp *decl.Type) string {
	if needsWrapper(tp) {
		return underscoreTypename(tp) + "__wrap (" + ident + ")"
	}
	return ident
}

// cxxUnwrap converts the Python object ident into a C++ value.
func cxxUnwrap(ident string, tp *decl.Type) string {
	if needsWrapper(tp) {
		return underscoreTypename(tp) + "__unwrap (" + ident + ")"
	}
	return ident
}

func cxxUnwrapImpl(ident string, tp *decl.Type) string {
	if tp.Storage() != storage.Sequence {
		return "raise NotImplementedError\n"
	}
	el := elements(tp)
	var sb strings.Builder
	sb.WriteString("cdef " + cxxType(tp) + " thisp\n")
	sb.WriteString("for element in " + ident + ":\n")
	sb.WriteString("  thisp.push_back (" + cxxUnwrap("element", el.Type) + ");\n")
	sb.WriteString("return thisp\n")
	return sb.String()
}

func pyWrapImpl(ident string, tp *decl.Type) string {
	if tp.Storage() != storage.Sequence {
		return "raise NotImplementedError\n"
	}
	el := elements(tp)
	var sb strings.Builder
	sb.WriteString("self = " + tp.Name() + "()\n")
	sb.WriteString("for idx in range (" + ident + ".size()):\n")
	sb.WriteString("  self.append (" + pyWrap(ident+"[idx]", el.Type) + ")\n")
	sb.WriteString("return self\n")
	return sb.String()
}

// reindent prefixes every non-empty line of text.
func reindent(prefix, text string) string {
	lines := strings.SplitAfter(text, "\n")
	var sb strings.Builder
	for _, line := range lines {
		if line != "" && line != "\n" {
			sb.WriteString(prefix)
		}
		sb.WriteString(line)
	}
	return sb.String()
}
