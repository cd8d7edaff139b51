package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"aidacc/internal/decl"
	"aidacc/internal/diag"
	"aidacc/internal/ledger"
)

const pkgDoc = `namespaces:
  - name: Pkg
    types:
      - name: R
        storage: record
        fields:
          - {ident: x, type: int32}
          - {ident: y, type: int32}
      - name: I
        storage: interface
        methods:
          - name: m
            return: int32
            args:
              - {ident: a, type: int32}
`

func writeInput(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pkg.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestBuildWritesArtifacts(t *testing.T) {
	input := writeInput(t, pkgDoc)
	out := t.TempDir()
	var stdout bytes.Buffer
	res, err := Build(context.Background(), Options{
		Inputs: []string{input},
		Targets: []Target{
			{Backend: "pyxx", Output: filepath.Join(out, "gen", "pkg.pyx")},
			{Backend: "tagtable", Output: filepath.Join(out, "tags.json"), Options: []string{"format=json"}},
			{Backend: "tagtable"},
		},
		Stdout: &stdout,
	})
	if err != nil {
		t.Fatalf("Build: %v (%v)", err, codes(res.Bag))
	}
	want := []string{filepath.Join(out, "gen", "pkg.pyx"), filepath.Join(out, "tags.json")}
	if diff := cmp.Diff(want, res.Written); diff != "" {
		t.Errorf("written (-want +got):\n%s", diff)
	}
	data, err := os.ReadFile(filepath.Join(out, "tags.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "0384ad606c38822df0bc1db89aad9d03") {
		t.Errorf("tags.json lacks the type tag of Pkg::R:\n%s", data)
	}
	if !strings.Contains(stdout.String(), "Pkg::R") {
		t.Errorf("stdout table lacks Pkg::R:\n%s", stdout.String())
	}
	if _, err := os.Stat(filepath.Join(out, "gen", "pkg.pyx")); err != nil {
		t.Errorf("pyx module: %v", err)
	}
	if len(res.Timings) == 0 {
		t.Error("no timings recorded")
	}
}

func TestFailingTargetWritesNothing(t *testing.T) {
	input := writeInput(t, pkgDoc)
	tags := filepath.Join(t.TempDir(), "tags.json")
	res, err := Build(context.Background(), Options{
		Inputs: []string{input},
		Targets: []Target{
			{Backend: "tagtable", Output: tags, Options: []string{"format=json"}},
			{Backend: "pyxx", Output: "-"},
		},
	})
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("err = %v, want ErrFailed", err)
	}
	if diff := cmp.Diff([]diag.Code{diag.BackendConfig}, codes(res.Bag)); diff != "" {
		t.Errorf("codes (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(tags); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("tags.json written despite failure: %v", err)
	}
	if len(res.Written) != 0 || len(res.Artifacts) != 0 {
		t.Errorf("written %v, artifacts %d", res.Written, len(res.Artifacts))
	}
}

func TestLoadErrorCarriesLocation(t *testing.T) {
	input := writeInput(t, "namespaces:\n  - name: P\n    types:\n      - {name: R, storage: record, fields: [{ident: x, type: Nope}]}\n")
	res, err := Build(context.Background(), Options{
		Inputs:  []string{input},
		Targets: []Target{{Backend: "tagtable"}},
	})
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("err = %v, want ErrFailed", err)
	}
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.LoadFailed {
		t.Fatalf("diagnostics = %v", codes(res.Bag))
	}
	if got := items[0].Primary.String(); got != input+":4" {
		t.Errorf("location = %s, want %s:4", got, input)
	}
}

func TestUnknownBackendAndMissingInputs(t *testing.T) {
	res, err := Build(context.Background(), Options{})
	if !errors.Is(err, ErrFailed) || !cmp.Equal([]diag.Code{diag.ProjNoInputs}, codes(res.Bag)) {
		t.Errorf("no inputs: err %v, codes %v", err, codes(res.Bag))
	}

	res, err = Build(context.Background(), Options{
		Inputs:  []string{writeInput(t, pkgDoc)},
		Targets: []Target{{Backend: "cobol"}},
	})
	if !errors.Is(err, ErrFailed) || !cmp.Equal([]diag.Code{diag.BackendUnknown}, codes(res.Bag)) {
		t.Errorf("unknown backend: err %v, codes %v", err, codes(res.Bag))
	}
}

func TestDuplicateOutputIsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.txt")
	res, err := Build(context.Background(), Options{
		Inputs:  []string{writeInput(t, pkgDoc)},
		Targets: []Target{{Backend: "tagtable", Output: path}, {Backend: "tagtable", Output: path}},
	})
	if !errors.Is(err, ErrFailed) || !cmp.Equal([]diag.Code{diag.BackendOutput}, codes(res.Bag)) {
		t.Fatalf("err %v, codes %v", err, codes(res.Bag))
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("duplicate output written: %v", err)
	}
}

func TestLedgerIsStableAcrossBuilds(t *testing.T) {
	input := writeInput(t, pkgDoc)
	db := filepath.Join(t.TempDir(), "state", "tags.db")
	opts := Options{
		Inputs:     []string{input},
		Targets:    []Target{{Backend: "tagtable", Output: filepath.Join(t.TempDir(), "tags.txt")}},
		LedgerPath: db,
	}
	for i := range 2 {
		res, err := Build(context.Background(), opts)
		if err != nil {
			t.Fatalf("build %d: %v", i, err)
		}
		if len(res.Conflicts) != 0 || res.Bag.HasWarnings() {
			t.Errorf("build %d: conflicts %v", i, res.Conflicts)
		}
	}
	l, err := ledger.Open(db)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	// R: type tag plus getter and setter of x and y; I: type tag and m
	if n, _ := l.Len(); n != 7 {
		t.Errorf("ledger holds %d tags, want 7", n)
	}
}

func TestTagsSkipForwardDeclarations(t *testing.T) {
	res, err := Build(context.Background(), Options{
		Inputs:  []string{writeInput(t, pkgDoc + "      - {name: Later, storage: interface, forward: true}\n")},
		Targets: []Target{{Backend: "tagtable", Output: filepath.Join(t.TempDir(), "t.txt")}},
	})
	if err != nil {
		t.Fatal(err)
	}
	entries, err := Tags(res.Unit)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Subject, "Later") {
			t.Errorf("forward declaration tagged: %s", e.Subject)
		}
	}
}

func TestLedgerHashFaultFailsBuild(t *testing.T) {
	u := decl.NewUnit()
	ns := u.NewNamespace("Pkg", nil)
	fn, _ := decl.NewFunction("orphan", true)
	ns.AddType(fn)
	u.Freeze()

	res := &Result{Unit: u, Bag: diag.NewBag(0)}
	db := filepath.Join(t.TempDir(), "tags.db")
	if err := finishLedger(context.Background(), Options{LedgerPath: db}, res); !errors.Is(err, ErrFailed) {
		t.Fatalf("err = %v, want ErrFailed", err)
	}
	if diff := cmp.Diff([]diag.Code{diag.ForFault(decl.FaultReturnMissing)}, codes(res.Bag)); diff != "" {
		t.Errorf("codes (-want +got):\n%s", diff)
	}
	if err := finishLedger(context.Background(), Options{}, &Result{Unit: u, Bag: diag.NewBag(0)}); err != nil {
		t.Errorf("disabled ledger err = %v", err)
	}
}
