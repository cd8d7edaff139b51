package pyxx

import (
	"errors"
	"strings"
	"testing"

	"aidacc/internal/backend"
	"aidacc/internal/decl"
	"aidacc/internal/storage"
)

// demoUnit builds namespace Demo with an enum, a record, a sequence of that
// record, an interface, a typedef of the record and a forward interface.
func demoUnit(t *testing.T, colorValue int64) *decl.Unit {
	t.Helper()
	u := decl.NewUnit()
	i32, _ := u.Builtin(storage.Int32)
	str, _ := u.Builtin(storage.String)
	ns := u.NewNamespace("Demo", nil)

	colorDecl, color := decl.NewEnum("Color", true)
	color.AddOption("RED", "Red", "", colorValue)
	color.AddOption("GREEN", "Green", "", 2)
	ns.AddType(colorDecl)

	pointDecl, point := decl.NewRecord("Point", true)
	point.AddField("x", i32)
	point.AddField("label", str)
	ns.AddType(pointDecl)

	seqDecl, seq := decl.NewSequence("PointSeq", true)
	seq.SetElements("points", pointDecl)
	ns.AddType(seqDecl)

	widgetDecl, _ := decl.NewInterface("Widget", true)
	ns.AddType(widgetDecl)

	alias := pointDecl.Clone("Pt", true)
	alias.SetTypedefOrigin(pointDecl)
	ns.AddType(alias)

	fwd, _ := decl.NewInterface("Later", true)
	fwd.SetForward(true)
	ns.AddType(fwd)

	u.Freeze()
	return u
}

func generate(t *testing.T, u *decl.Unit, cfg backend.Config) string {
	t.Helper()
	arts, err := Backend().Run(u.ImplTypes(), cfg)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(arts) != 1 {
		t.Fatalf("got %d artifacts, want 1", len(arts))
	}
	return string(arts[0].Data)
}

func TestGenerateSections(t *testing.T) {
	out := generate(t, demoUnit(t, 1), backend.Config{Output: "demo.pyx", Files: []string{"demo.idl"}})

	want := []string{
		"# module demo.pyx, source demo.idl\n",
		"cdef extern from \"ui/clientapi.hh\" namespace \"Rapicorn\":\n",
		"\n# Builtins\n",
		"cdef extern from * namespace \"Demo\":\n",
		" \"Demo::Point\"\n",
		" \"Demo::WidgetH\"\n",
		"  cdef enum Demo__Color",
		" \"Demo::RED\"\n",
		"  cppclass Demo__PointSeq (vector[Demo__Point]):\n",
		"\nclass Color (Enum):\n",
		"\ncdef class Point:\n",
		"  cdef int x\n",
		"  cdef String label\n",
		"    def __get__ (self):    return self.x\n",
		"\ncdef class PointSeq (list):\n",
		"cdef Demo__PointSeq Demo__PointSeq__unwrap (object pyo1) except *:\n",
		"  cdef Demo__PointSeq thisp\n",
		"    thisp.push_back (Demo__Point__unwrap (element));\n",
		"  for idx in range (cxx1.size()):\n",
		"    self.append (Demo__Point__wrap (cxx1[idx]))\n",
		"cdef object Demo__Widget__wrap (const Demo__Widget &cxx1):\n  raise NotImplementedError\n",
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output lacks %q\n%s", w, out)
		}
	}
	for _, skip := range []string{"cdef class Pt:", "cdef class Later:", "Demo__Later"} {
		if strings.Contains(out, skip) {
			t.Errorf("output contains %q from a typedef or forward declaration", skip)
		}
	}
	if n := strings.Count(out, "cdef extern from * namespace \"Demo\":\n"); n != 3 {
		t.Errorf("namespace opened %d times, want once per section (3)", n)
	}
}

func TestGenerateSectionOrder(t *testing.T) {
	out := generate(t, demoUnit(t, 1), backend.Config{Output: "demo.pyx", Files: []string{"demo.idl"}})
	sections := []string{"# Builtins", "# C++ declarations", "# C++ Enums", "# C++ classes", "# Python Enums", "# Python classes"}
	last := -1
	for _, s := range sections {
		i := strings.Index(out, "\n"+s+"\n")
		if i < 0 {
			t.Fatalf("missing section %q", s)
		}
		if i < last {
			t.Errorf("section %q out of order", s)
		}
		last = i
	}
}

func TestStripPathAndDefaults(t *testing.T) {
	u := demoUnit(t, 1)
	cfg := backend.Config{
		Files:   []string{"src/idl/demo.idl"},
		Options: []string{"strip-path=src/", "strip-path=idl/", "include-namespace=Aida"},
	}
	arts, err := Generate(u.ImplTypes(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if arts[0].Path != "testmodule" || arts[0].Kind != backend.ArtifactFile {
		t.Errorf("artifact = %s/%v, want default testmodule file", arts[0].Path, arts[0].Kind)
	}
	out := string(arts[0].Data)
	if !strings.Contains(out, "# module testmodule, source demo.idl\n") {
		t.Errorf("strip-path not applied:\n%s", out)
	}
	if !strings.Contains(out, "namespace \"Aida\":\n") {
		t.Error("include-namespace option ignored")
	}
}

func TestConfigurationFaults(t *testing.T) {
	u := demoUnit(t, 1)
	tests := []struct {
		name string
		cfg  backend.Config
		msg  string
	}{
		{"two inputs", backend.Config{Output: "x.pyx", Files: []string{"a.idl", "b.idl"}}, "exactly one IDL input file is required"},
		{"stdout", backend.Config{Output: backend.Stdout, Files: []string{"a.idl"}}, "stdout is not supported"},
	}
	for _, tt := range tests {
		_, err := Backend().Run(u.ImplTypes(), tt.cfg)
		if !errors.Is(err, backend.ErrConfig) {
			t.Errorf("%s: err = %v, want a configuration error", tt.name, err)
			continue
		}
		if !strings.Contains(err.Error(), tt.msg) || !strings.HasPrefix(err.Error(), Name+": ") {
			t.Errorf("%s: message = %q", tt.name, err.Error())
		}
	}
}

func TestEnumValueOutOfRange(t *testing.T) {
	u := demoUnit(t, 1<<40)
	_, err := Generate(u.ImplTypes(), backend.Config{Output: "demo.pyx", Files: []string{"demo.idl"}})
	if err == nil || !strings.Contains(err.Error(), "Demo::Color::RED") {
		t.Fatalf("err = %v, want out-of-range enum error", err)
	}
}

func TestReindent(t *testing.T) {
	got := reindent("  ", "a\n\nb\n")
	if got != "  a\n\n  b\n" {
		t.Errorf("reindent = %q", got)
	}
}
