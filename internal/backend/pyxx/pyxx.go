// Package pyxx generates Cython glue (.pyx) for the implementation types of a
// compilation unit.
package pyxx

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"fortio.org/safecast"
	"github.com/mattn/go-runewidth"

	"aidacc/internal/backend"
	"aidacc/internal/decl"
	"aidacc/internal/storage"
)

// Name is the registry name of the backend.
const Name = "pyxx"

const (
	defaultOutput           = "testmodule"
	defaultIncludeHeader    = "ui/clientapi.hh"
	defaultIncludeNamespace = "Rapicorn"
	anyTypename             = "Rapicorn__Any"
)

// Backend returns the registry entry for the Cython stub generator.
func Backend() backend.Backend {
	return backend.Backend{
		Name:     Name,
		Doc:      "Cython stub generator (strip-path=, include-header=, include-namespace=)",
		Generate: Generate,
	}
}

// Generate emits a single .pyx module for impl.
func Generate(impl []*decl.Type, cfg backend.Config) ([]backend.Artifact, error) {
	if cfg.Output == "" {
		cfg.Output = defaultOutput
	}
	if err := cfg.RequireFileOutput(Name); err != nil {
		return nil, err
	}
	if err := cfg.RequireSingleInput(Name); err != nil {
		return nil, err
	}
	g := newGenerator(cfg.Files[0], filepath.Base(cfg.Output))
	g.stripPath = strings.Join(cfg.OptionValues("strip-path"), "")
	if v, ok := cfg.Option("include-header"); ok {
		g.includeHeader = v
	}
	if v, ok := cfg.Option("include-namespace"); ok {
		g.includeNamespace = v
	}
	text, err := g.generateTypes(impl)
	if err != nil {
		return nil, err
	}
	return []backend.Artifact{cfg.Emit([]byte(text))}, nil
}

type generator struct {
	idlFile          string
	moduleName       string
	stripPath        string
	includeHeader    string
	includeNamespace string

	lastNamespace []string
	haveLast      bool
}

func newGenerator(idlFile, moduleName string) *generator {
	return &generator{
		idlFile:          idlFile,
		moduleName:       moduleName,
		includeHeader:    defaultIncludeHeader,
		includeNamespace: defaultIncludeNamespace,
	}
}

// sourceName is the IDL path as shown in generated comments.
func (g *generator) sourceName() string {
	return strings.TrimPrefix(g.idlFile, g.stripPath)
}

func (g *generator) generateTypes(impl []*decl.Type) (string, error) {
	var sb strings.Builder
	sb.WriteString("# === Generated by aidacc pyxx ===             -*-mode:python;-*-\n")
	fmt.Fprintf(&sb, "# module %s, source %s\n", g.moduleName, g.sourceName())
	sb.WriteString("from libcpp cimport *\n")
	sb.WriteString("from cython.operator cimport dereference as deref\n")
	sb.WriteString("from libc.stdint cimport *\n")
	sb.WriteString("from cpython.object cimport Py_LT, Py_LE, Py_EQ, Py_NE, Py_GT, Py_GE\n")

	types := make([]*decl.Type, 0, len(impl))
	for _, tp := range impl {
		if tp.IsImpl() {
			types = append(types, tp)
		}
	}
	concrete := slices.DeleteFunc(slices.Clone(types), func(tp *decl.Type) bool {
		return tp.TypedefOrigin() != nil || tp.IsForward()
	})

	fmt.Fprintf(&sb, "cdef extern from \"%s\" namespace \"%s\":\n", g.includeHeader, g.includeNamespace)
	sb.WriteString("  pass\n")

	sb.WriteString("\n# Builtins\n")
	fmt.Fprintf(&sb, "cdef extern from * namespace \"%s\":\n", g.includeNamespace)
	fmt.Fprintf(&sb, "  cppclass %s \"%s::Any\"\n", pad(anyTypename, 40), g.includeNamespace)
	fmt.Fprintf(&sb, "  cppclass %s:\n", anyTypename)
	sb.WriteString("    pass\n")
	fmt.Fprintf(&sb, "cdef %s %s__unwrap (object pyo1):\n", anyTypename, anyTypename)
	sb.WriteString("  raise NotImplementedError\n")
	fmt.Fprintf(&sb, "cdef object %s__wrap (const %s &cxx1):\n", anyTypename, anyTypename)
	sb.WriteString("  raise NotImplementedError\n")

	sb.WriteString("\n# C++ declarations\n")
	g.resetNamespace()
	for _, tp := range concrete {
		switch tp.Storage() {
		case storage.Sequence, storage.Record, storage.Interface:
			sb.WriteString(g.openNamespace("cdef extern from * namespace \"%s\":\n", "::", tp))
			fmt.Fprintf(&sb, "  cppclass %s \"%s\"\n", pad(underscoreTypename(tp), 40), colonTypename(tp))
		}
	}

	sb.WriteString("\n# C++ Enums\n")
	g.resetNamespace()
	for _, tp := range concrete {
		if tp.Storage() != storage.Enum {
			continue
		}
		sb.WriteString(g.openNamespace("cdef extern from * namespace \"%s\":\n", "::", tp))
		fmt.Fprintf(&sb, "  cdef enum %s \"%s\":\n", pad(underscoreTypename(tp), 50), colonTypename(tp))
		for _, opt := range tp.Enum().Options() {
			if _, err := safecast.Conv[int32](opt.Value); err != nil {
				return "", fmt.Errorf("%s: enum value %s::%s = %d does not fit a C enum: %w",
					Name, tp.FullName(), opt.Ident, opt.Value, err)
			}
			fmt.Fprintf(&sb, "    %s \"%s\"\n", pad(tp.Name()+"__"+opt.Ident, 60), colonNamespace(tp)+"::"+opt.Ident)
		}
	}

	sb.WriteString("\n# C++ classes\n")
	g.resetNamespace()
	for _, tp := range concrete {
		sb.WriteString(g.openNamespace("cdef extern from * namespace \"%s\":\n", "::", tp))
		switch tp.Storage() {
		case storage.Sequence:
			el := elements(tp)
			fmt.Fprintf(&sb, "  cppclass %s (vector[%s]):\n", underscoreTypename(tp), underscoreTypename(el.Type))
			sb.WriteString("    pass\n")
		case storage.Record, storage.Interface:
			fmt.Fprintf(&sb, "  cppclass %s:\n", underscoreTypename(tp))
			sb.WriteString("    pass\n")
		}
	}

	sb.WriteString("\n# Python Enums\n")
	for _, tp := range types {
		if tp.Storage() != storage.Enum {
			continue
		}
		fmt.Fprintf(&sb, "\nclass %s (Enum):\n", tp.Name())
		opts := tp.Enum().Options()
		for _, opt := range opts {
			fmt.Fprintf(&sb, "  %s = %s\n", pad(opt.Ident, 40), tp.Name()+"__"+opt.Ident)
		}
		for _, opt := range opts {
			fmt.Fprintf(&sb, "%s =  %s.%s\n", pad(opt.Ident, 42), tp.Name(), opt.Ident)
		}
	}

	sb.WriteString("\n# Python classes\n")
	for _, tp := range concrete {
		typename := underscoreTypename(tp)
		switch tp.Storage() {
		case storage.Record:
			fmt.Fprintf(&sb, "\ncdef class %s:\n", tp.Name())
			fields := tp.Record().Fields()
			for _, f := range fields {
				fmt.Fprintf(&sb, "  cdef %s %s\n", cxxType(f.Type), f.Ident)
			}
			for _, f := range fields {
				fmt.Fprintf(&sb, "  property %s:\n", f.Ident)
				fmt.Fprintf(&sb, "    def __get__ (self):    return %s\n", pyWrap("self."+f.Ident, f.Type))
				fmt.Fprintf(&sb, "    def __set__ (self, v): self.%s = %s\n", f.Ident, cxxUnwrap("v", f.Type))
			}
		case storage.Sequence:
			fmt.Fprintf(&sb, "\ncdef class %s (list):\n", tp.Name())
			sb.WriteString("  pass\n")
		case storage.Interface:
			fmt.Fprintf(&sb, "\ncdef class %s:\n", tp.Name())
			sb.WriteString("  pass\n")
		default:
			continue
		}
		fmt.Fprintf(&sb, "cdef %s %s__unwrap (object pyo1) except *:\n", typename, typename)
		sb.WriteString(reindent("  ", cxxUnwrapImpl("pyo1", tp)))
		fmt.Fprintf(&sb, "cdef object %s__wrap (const %s &cxx1):\n", typename, typename)
		sb.WriteString(reindent("  ", pyWrapImpl("cxx1", tp)))
	}
	return sb.String(), nil
}

func (g *generator) resetNamespace() {
	g.lastNamespace = nil
	g.haveLast = false
}

// openNamespace emits format once per run of types sharing a namespace.
func (g *generator) openNamespace(format, joiner string, tp *decl.Type) string {
	nsn := tp.NamespaceNames()
	if g.haveLast && slices.Equal(g.lastNamespace, nsn) {
		return ""
	}
	g.lastNamespace = nsn
	g.haveLast = true
	return fmt.Sprintf(format, strings.Join(nsn, joiner))
}

func elements(tp *decl.Type) decl.Field {
	el, ok := tp.Sequence().Elements()
	if !ok {
		decl.Raise(decl.FaultNilDecl, tp.FullName(), "sequence without elements")
	}
	return el
}

func pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}
