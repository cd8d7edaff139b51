package tagtable

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"aidacc/internal/backend"
	"aidacc/internal/decl"
	"aidacc/internal/storage"
)

// pkgUnit declares Pkg::R{x int32} and Pkg::I{m(a int32) -> int32} plus a
// forward interface Pkg::F.
func pkgUnit(t *testing.T) *decl.Unit {
	t.Helper()
	u := decl.NewUnit()
	i32, _ := u.Builtin(storage.Int32)
	pkg := u.NewNamespace("Pkg", nil)

	recDecl, rec := decl.NewRecord("R", true)
	rec.AddField("x", i32)
	pkg.AddType(recDecl)

	ifaceDecl, iface := decl.NewInterface("I", true)
	_, m := decl.NewFunction("m", true)
	m.AddArg("a", i32, "")
	m.SetReturn(i32)
	iface.AddMethod(m, false)
	pkg.AddType(ifaceDecl)

	fwd, _ := decl.NewInterface("F", true)
	fwd.SetForward(true)
	pkg.AddType(fwd)

	u.Freeze()
	return u
}

func run(t *testing.T, cfg backend.Config) []byte {
	t.Helper()
	arts, err := Backend().Run(pkgUnit(t).ImplTypes(), cfg)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(arts) != 1 {
		t.Fatalf("got %d artifacts, want 1", len(arts))
	}
	return arts[0].Data
}

var wantRows = []Row{
	{Subject: "Pkg::R", Purpose: "type", Class: "type", Tag: "0384ad606c38822df0bc1db89aad9d03"},
	{Subject: "Pkg::R::x", Purpose: "getter", Class: "twoway", Tag: "336acdb17560f8fa77ea7c4d73b35940"},
	{Subject: "Pkg::R::x", Purpose: "setter", Class: "oneway", Tag: "2071ef2aaeed64e17eb8b0d1b59d206f"},
	{Subject: "Pkg::I::m", Purpose: "twoway", Class: "twoway", Tag: "33ae39fedec542c52b7e10470e17fb7c"},
}

// withoutInterfaceType drops the Pkg::I identity row, which has no golden value.
func withoutInterfaceType(rows []Row) []Row {
	var out []Row
	for _, r := range rows {
		if r.Subject == "Pkg::I" {
			continue
		}
		out = append(out, r)
	}
	return out
}

func TestTextTable(t *testing.T) {
	out := string(run(t, backend.Config{Files: []string{"pkg.idl"}}))
	want := []string{
		"# aidacc tag table, source pkg.idl\n",
		"0384ad606c38822df0bc1db89aad9d03  type    Pkg::R\n",
		"336acdb17560f8fa77ea7c4d73b35940  getter  Pkg::R::x\n",
		"2071ef2aaeed64e17eb8b0d1b59d206f  setter  Pkg::R::x\n",
		"33ae39fedec542c52b7e10470e17fb7c  twoway  Pkg::I::m\n",
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("table lacks %q\n%s", w, out)
		}
	}
	if strings.Contains(out, "Pkg::F") {
		t.Error("forward declaration was tabulated")
	}
}

func TestJSONTable(t *testing.T) {
	data := run(t, backend.Config{Output: backend.Stdout, Files: []string{"pkg.idl"}, Options: []string{"format=json"}})
	var tbl Table
	if err := json.Unmarshal(data, &tbl); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, data)
	}
	if tbl.Schema != schemaVersion || tbl.Source != "pkg.idl" {
		t.Errorf("header = %d/%q", tbl.Schema, tbl.Source)
	}
	if diff := cmp.Diff(wantRows, withoutInterfaceType(tbl.Rows)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestMsgpackTable(t *testing.T) {
	arts, err := Generate(pkgUnit(t).ImplTypes(), backend.Config{Output: "tags.mp", Options: []string{"format=msgpack"}})
	if err != nil {
		t.Fatal(err)
	}
	if arts[0].Kind != backend.ArtifactFile || arts[0].Path != "tags.mp" {
		t.Fatalf("artifact = %+v", arts[0])
	}
	tbl, err := Decode(arts[0].Data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(wantRows, withoutInterfaceType(tbl.Rows)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestFeedsAndCInit(t *testing.T) {
	out := string(run(t, backend.Config{Options: []string{"tag-style=cinit", "feeds=true"}}))
	if !strings.Contains(out, "{ 0x03, 0x84, 0xad,") {
		t.Errorf("cinit style not applied:\n%s", out)
	}
	if !strings.Contains(out, "# fc4676dd-248d-4958-a7fa-e170a4d8a68c | type | Pkg::R\n") {
		t.Errorf("feeds not shown:\n%s", out)
	}
}

func TestConfigurationFaults(t *testing.T) {
	u := pkgUnit(t)
	for _, cfg := range []backend.Config{
		{Output: backend.Stdout, Options: []string{"format=msgpack"}},
		{Options: []string{"format=xml"}},
		{Options: []string{"tag-style=octal"}},
	} {
		if _, err := Generate(u.ImplTypes(), cfg); !errors.Is(err, backend.ErrConfig) {
			t.Errorf("%v: err = %v, want configuration error", cfg.Options, err)
		}
	}
}
