package idhash

import (
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"aidacc/internal/decl"
	"aidacc/internal/storage"
)

// fixture is the Pkg graph: record R{x,y int32}, interface I with
// m(a int32) -> int32, poke() -> void and signal changed(s string).
type fixture struct {
	unit    *decl.Unit
	rec     *decl.Type
	iface   *decl.Type
	m       *decl.Type
	poke    *decl.Type
	changed *decl.Type
}

func newFixture(t *testing.T, argName string, argKind storage.Kind) fixture {
	t.Helper()
	u := decl.NewUnit()
	i32, _ := u.Builtin(storage.Int32)
	void, _ := u.Builtin(storage.Void)
	str, _ := u.Builtin(storage.String)
	argType, _ := u.Builtin(argKind)
	pkg := u.NewNamespace("Pkg", nil)

	recDecl, rec := decl.NewRecord("R", true)
	rec.AddField("x", i32)
	rec.AddField("y", i32)
	pkg.AddType(recDecl)

	ifaceDecl, iface := decl.NewInterface("I", true)
	mDecl, m := decl.NewFunction("m", true)
	m.AddArg(argName, argType, "0")
	m.SetReturn(i32)
	iface.AddMethod(m, false)

	pokeDecl, poke := decl.NewFunction("poke", true)
	poke.SetReturn(void)
	iface.AddMethod(poke, false)

	sigDecl, sig := decl.NewFunction("changed", true)
	sig.AddArg("what", str, "")
	sig.SetReturn(void)
	iface.AddMethod(sig, true)
	pkg.AddType(ifaceDecl)
	u.Freeze()

	return fixture{unit: u, rec: recDecl, iface: ifaceDecl, m: mDecl, poke: pokeDecl, changed: sigDecl}
}

func mustTag(t *testing.T, s string) Tag {
	t.Helper()
	tag, err := ParseTag(s)
	if err != nil {
		t.Fatal(err)
	}
	return tag
}

func TestSignature(t *testing.T) {
	fx := newFixture(t, "a", storage.Int32)
	tests := []struct {
		decl *decl.Type
		want string
	}{
		{fx.rec, "Pkg::R"},
		{fx.iface, "Pkg::I"},
		{fx.m, "Pkg::I::m int32+int32"},
		{fx.poke, "Pkg::I::poke void"},
		{fx.changed, "Pkg::I::changed void+string"},
	}
	for _, tt := range tests {
		if got := Signature(tt.decl); got != tt.want {
			t.Errorf("Signature(%s) = %q, want %q", tt.decl.Name(), got, tt.want)
		}
	}
	if got := IdentSignature(fx.m); got != "Pkg__I__m_int32_int32" {
		t.Errorf("IdentSignature = %q", got)
	}
}

func TestGoldenTags(t *testing.T) {
	fx := newFixture(t, "a", storage.Int32)
	x := fx.rec.Record().Fields()[0]
	tests := []struct {
		name string
		got  Tag
		want string
	}{
		{"type R", TypeHash(fx.rec), "0384ad606c38822df0bc1db89aad9d03"},
		{"twoway m", TypeHash(fx.m), "33ae39fedec542c52b7e10470e17fb7c"},
		{"explicit twoway m", TwowayHash(fx.m, ""), "33ae39fedec542c52b7e10470e17fb7c"},
		{"special twoway m", TwowayHash(fx.m, "async"), "32ef95fa1b89d2d064290330ac2be734"},
		{"oneway poke", TypeHash(fx.poke), "2be7f9453902e8222f526b5a6d61ba55"},
		{"sigcon changed", TypeHash(fx.changed), "56e85964a87a17564e0ad5368f797cfb"},
		{"setter x", PropertyHash(fx.rec, x, true), "2071ef2aaeed64e17eb8b0d1b59d206f"},
		{"getter x", PropertyHash(fx.rec, x, false), "336acdb17560f8fa77ea7c4d73b35940"},
	}
	for _, tt := range tests {
		if tt.got != mustTag(t, tt.want) {
			t.Errorf("%s: got %s, want %s", tt.name, tt.got, tt.want)
		}
	}
}

func TestFeedLayout(t *testing.T) {
	fx := newFixture(t, "a", storage.Int32)
	want := "fc4676dd-248d-4958-a7fa-e170a4d8a68c | getter | Pkg::R::x int32"
	if got := Feed(fx.rec, "getter", PropertyPostfix(fx.rec.Record().Fields()[0])); got != want {
		t.Errorf("Feed = %q, want %q", got, want)
	}
	if len(Salt) != 36 {
		t.Errorf("salt length = %d", len(Salt))
	}
}

func TestEndToEndScenario(t *testing.T) {
	fx := newFixture(t, "a", storage.Int32)
	iface := fx.iface.Interface()

	if owner := iface.Methods()[0].Function().Owner(); owner != fx.iface {
		t.Fatalf("I.methods[0].owner = %v", owner)
	}
	if nib := TypeHash(iface.Methods()[0]).HighNibble(); nib != 0x30 {
		t.Errorf("type_hash(m) nibble = %#x, want 0x30", nib)
	}
	if nib := PropertyHash(fx.rec, fx.rec.Record().Fields()[0], true).HighNibble(); nib != 0x20 {
		t.Errorf("setter nibble = %#x, want 0x20", nib)
	}

	renamed := newFixture(t, "b", storage.Int32)
	if TypeHash(renamed.m) != TypeHash(fx.m) {
		t.Error("renaming an argument changed type_hash(m)")
	}
	retyped := newFixture(t, "a", storage.String)
	if TypeHash(retyped.m) == TypeHash(fx.m) {
		t.Error("changing the argument type kept type_hash(m)")
	}
	if TypeHash(retyped.m) != mustTag(t, "399fd62e0696f4cf0e53ce9b6dbf54ef") {
		t.Errorf("retyped m = %s", TypeHash(retyped.m))
	}
}

func TestDefaultInitDoesNotAffectTags(t *testing.T) {
	u := decl.NewUnit()
	i32, _ := u.Builtin(storage.Int32)
	build := func(def string) *decl.Type {
		_, iface := decl.NewInterface("I", true)
		mDecl, m := decl.NewFunction("m", false)
		m.AddArg("a", i32, def)
		m.SetReturn(i32)
		iface.AddMethod(m, false)
		return mDecl
	}
	a, b := build("0"), build("42")
	if TypeHash(a) != TypeHash(b) || TwowayHash(a, "x") != TwowayHash(b, "x") {
		t.Error("default initializer leaked into the tag")
	}
}

func TestSignatureSensitivity(t *testing.T) {
	u := decl.NewUnit()
	i32, _ := u.Builtin(storage.Int32)
	i64, _ := u.Builtin(storage.Int64)
	str, _ := u.Builtin(storage.String)
	pkg := u.NewNamespace("Pkg", nil)

	type sig struct {
		owner string
		name  string
		ret   *decl.Type
		args  []*decl.Type
	}
	owners := map[string]*decl.Interface{}
	build := func(s sig) *decl.Type {
		iface, ok := owners[s.owner]
		if !ok {
			var ifaceDecl *decl.Type
			ifaceDecl, iface = decl.NewInterface(s.owner, true)
			pkg.AddType(ifaceDecl)
			owners[s.owner] = iface
		}
		fnDecl, fn := decl.NewFunction(s.name, false)
		for i, a := range s.args {
			fn.AddArg(string(rune('a'+i)), a, "")
		}
		fn.SetReturn(s.ret)
		iface.AddMethod(fn, false)
		return fnDecl
	}

	base := build(sig{"I", "m", i32, []*decl.Type{i32, str}})
	same := build(sig{"I", "m", i32, []*decl.Type{i32, str}})
	if TypeHash(base) != TypeHash(same) {
		t.Fatal("identical contracts must share a tag")
	}
	variants := map[string]*decl.Type{
		"return":    build(sig{"I", "m", i64, []*decl.Type{i32, str}}),
		"arg type":  build(sig{"I", "m", i32, []*decl.Type{i64, str}}),
		"arg order": build(sig{"I", "m", i32, []*decl.Type{str, i32}}),
		"arity":     build(sig{"I", "m", i32, []*decl.Type{i32}}),
		"owner":     build(sig{"J", "m", i32, []*decl.Type{i32, str}}),
		"name":      build(sig{"I", "n", i32, []*decl.Type{i32, str}}),
	}
	for what, v := range variants {
		if TypeHash(v) == TypeHash(base) {
			t.Errorf("changing the %s kept the tag", what)
		}
	}
}

func TestPropertyTagsNeverCollide(t *testing.T) {
	fx := newFixture(t, "a", storage.Int32)
	fields := fx.rec.Record().Fields()
	seen := map[Tag]string{}
	for _, f := range fields {
		for _, setter := range []bool{false, true} {
			tag := PropertyHash(fx.rec, f, setter)
			key := f.Ident + map[bool]string{false: " get", true: " set"}[setter]
			if prev, dup := seen[tag]; dup {
				t.Errorf("%s collides with %s", key, prev)
			}
			seen[tag] = key
		}
	}
	if len(seen) != 4 {
		t.Errorf("expected 4 distinct tags, got %d", len(seen))
	}
}

func TestReduceKeepsHighNibble(t *testing.T) {
	for _, nibble := range []byte{0x00, 0x20, 0x30, 0x50, 0xF0, 0x3F} {
		lows := map[byte]bool{}
		for i := 0; i < 64; i++ {
			digest := sha256.Sum256([]byte{byte(i), nibble})
			tag := Reduce(digest, nibble)
			if tag.HighNibble() != nibble&0xF0 {
				t.Fatalf("nibble %#x: tag starts with %#x", nibble, tag[0])
			}
			if tag[0]&0x0F != digest[3]&0x0F {
				t.Fatalf("low nibble must come from digest[3]")
			}
			lows[tag[0]&0x0F] = true
		}
		if len(lows) < 2 {
			t.Errorf("nibble %#x: low nibble never varied", nibble)
		}
	}
}

func TestReduceByteSelection(t *testing.T) {
	var digest [sha256.Size]byte
	for i := range digest {
		digest[i] = byte(i)
	}
	got := Reduce(digest, 0x50)
	want := Tag{0x53, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 26, 27, 28, 29, 30}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Reduce mismatch (-want +got):\n%s", diff)
	}
}

func TestHashingIncompleteFunctionFaults(t *testing.T) {
	fnDecl, _ := decl.NewFunction("later", false)
	for name, call := range map[string]func(){
		"TypeHash":   func() { TypeHash(fnDecl) },
		"TwowayHash": func() { TwowayHash(fnDecl, "") },
	} {
		err := decl.Guard(call)
		if !errors.Is(err, decl.ErrFault) {
			t.Errorf("%s: expected fault, got %v", name, err)
			continue
		}
		if f, _ := decl.AsFault(err); f.Code != decl.FaultReturnMissing {
			t.Errorf("%s: fault code %s", name, f.Code)
		}
	}
}

func TestTagFormatting(t *testing.T) {
	tag := mustTag(t, "33ae39fedec542c52b7e10470e17fb7c")
	if tag.Class() != ClassTwoway || tag.Class().String() != "twoway" {
		t.Errorf("Class = %s", tag.Class())
	}
	if got := tag.CInit(); got[:12] != "{ 0x33, 0xae" {
		t.Errorf("CInit = %q", got)
	}
	hi, lo := tag.Words()
	if hi != 0x33ae39fedec542c5 || lo != 0x2b7e10470e17fb7c {
		t.Errorf("Words = %x %x", hi, lo)
	}
	if _, err := ParseTag("abcd"); err == nil {
		t.Error("short tag parsed")
	}
}

func TestCollect(t *testing.T) {
	fx := newFixture(t, "a", storage.Int32)
	got := CollectAll(fx.unit.ImplTypes())

	type row struct{ Subject, Purpose string }
	var rows []row
	for _, e := range got {
		rows = append(rows, row{e.Subject, e.Purpose})
		if e.Tag != Reduce(sha256.Sum256([]byte(e.Feed)), e.Tag.HighNibble()) {
			t.Errorf("%s/%s: tag does not match its feed", e.Subject, e.Purpose)
		}
	}
	want := []row{
		{"Pkg::R", "type"},
		{"Pkg::R::x", "getter"},
		{"Pkg::R::x", "setter"},
		{"Pkg::R::y", "getter"},
		{"Pkg::R::y", "setter"},
		{"Pkg::I", "type"},
		{"Pkg::I::m", "twoway"},
		{"Pkg::I::poke", "oneway"},
		{"Pkg::I::changed", "sigcon"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("Collect mismatch (-want +got):\n%s", diff)
	}
}
