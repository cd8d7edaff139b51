package diag

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"aidacc/internal/decl"
)

func TestCodeIDs(t *testing.T) {
	if got := LedgerCollision.ID(); got != "AID4001" {
		t.Errorf("ID = %s", got)
	}
	if got := ForFault(decl.FaultRebound); got != DeclRebound {
		t.Errorf("ForFault(rebound) = %s", got.ID())
	}
	if got := ForFault(decl.FaultReturnMissing); got != DeclReturnMissing {
		t.Errorf("ForFault(return-missing) = %s", got.ID())
	}
	if Code(9999).Title() != UnknownCode.Title() {
		t.Error("unregistered code should fall back to the unknown title")
	}
}

func TestCodeSeverity(t *testing.T) {
	tests := []struct {
		code Code
		want Severity
	}{
		{LoadInfo, SevInfo},
		{LoadFailed, SevError},
		{ForFault(decl.FaultFrozen), SevError},
		{BackendConfig, SevError},
		{LedgerInfo, SevInfo},
		{LedgerDrift, SevWarning},
		{LedgerUnavailable, SevWarning},
		{ProjNoInputs, SevError},
		{UnknownCode, SevError},
	}
	for _, tt := range tests {
		if got := tt.code.Severity(); got != tt.want {
			t.Errorf("%s.Severity() = %s, want %s", tt.code.ID(), got, tt.want)
		}
	}
	d := LedgerUnavailable.At(decl.Loc{File: "tags.db"}, "locked")
	if d.Severity != SevWarning || d.Code != LedgerUnavailable || d.Primary.File != "tags.db" {
		t.Errorf("At = %+v", d)
	}
}

func TestBagSortDedupLimit(t *testing.T) {
	b := NewBag(4)
	b.Add(NewError(BackendFailed, decl.Loc{File: "b.yaml", Line: 3}, "late"))
	b.Add(LedgerDrift.At(decl.Loc{File: "a.yaml", Line: 9}, "drift"))
	b.Add(NewError(LoadFailed, decl.Loc{File: "a.yaml", Line: 9}, "bad"))
	b.Add(NewError(LoadFailed, decl.Loc{File: "a.yaml", Line: 9}, "bad"))
	if b.Add(NewError(LoadFailed, decl.Loc{}, "dropped")) {
		t.Error("limit ignored")
	}
	b.Dedup()
	b.Sort()
	var got []string
	for _, d := range b.Items() {
		got = append(got, d.Message)
	}
	if diff := cmp.Diff([]string{"bad", "drift", "late"}, got); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if !b.HasErrors() || !b.HasWarnings() {
		t.Error("severity queries wrong")
	}
}

func TestBagReporterAndBuilder(t *testing.T) {
	bag := NewBag(0)
	r := &BagReporter{Bag: bag}
	rb := ReportWarning(r, LedgerCollision, decl.Loc{File: "x.yaml", Line: 2}, "collides").
		WithNote(decl.Loc{}, "recorded feed: f")
	rb.Emit()
	rb.Emit()
	if bag.Len() != 1 {
		t.Fatalf("Len = %d, want exactly one emission", bag.Len())
	}
	if n := bag.Items()[0].Notes; len(n) != 1 || n[0].Msg != "recorded feed: f" {
		t.Errorf("notes = %+v", n)
	}
}

func TestRenderPlain(t *testing.T) {
	bag := NewBag(0)
	bag.Add(NewError(LoadFailed, decl.Loc{File: "api.yaml", Line: 4}, `unknown type "Nope"`).
		WithNote(decl.Loc{File: "api.yaml", Line: 1}, "in namespace Pkg"))
	bag.Add(New(SevWarning, BackendConfig, decl.Loc{}, "pyxx: no output"))
	var buf bytes.Buffer
	if err := Render(&buf, bag, RenderOpts{ShowNotes: true}); err != nil {
		t.Fatal(err)
	}
	want := "api.yaml:4: ERROR AID1001: unknown type \"Nope\"\n" +
		"  note: api.yaml:1: in namespace Pkg\n" +
		"WARNING AID3001: pyxx: no output\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("render (-want +got):\n%s", diff)
	}
}
