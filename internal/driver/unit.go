package driver

import (
	"context"
	"errors"

	"aidacc/internal/decl"
	"aidacc/internal/diag"
	"aidacc/internal/idhash"
	"aidacc/internal/loader"
	"aidacc/internal/trace"
)

// LoadUnit loads every input into a fresh unit and freezes it. Load failures
// are reported to bag; the unit holds whatever loaded before the failure.
func LoadUnit(ctx context.Context, inputs []string, bag *diag.Bag) *decl.Unit {
	u := decl.NewUnit()
	for _, path := range inputs {
		_, span := trace.Start(ctx, trace.ScopeUnit, "load", path)
		err := loader.LoadFile(u, path)
		span.Finish(err)
		if err != nil {
			reportLoadError(bag, path, err)
			break
		}
	}
	u.Freeze()
	if trace.Enabled(ctx, trace.ScopeDecl) {
		for _, t := range u.ImplTypes() {
			trace.Mark(ctx, trace.ScopeDecl, "declare", t.FullName())
		}
	}
	return u
}

func reportLoadError(bag *diag.Bag, path string, err error) {
	var le *loader.Error
	if errors.As(err, &le) {
		bag.Add(diag.NewError(diag.LoadFailed, decl.Loc{File: le.File, Line: le.Line}, le.Msg))
		return
	}
	bag.Add(diag.NewError(diag.LoadReadFailed, decl.Loc{File: path}, err.Error()))
}

// Tags mints the dispatch tags of every implementation type of u, skipping
// forward declarations. A declaration that cannot be hashed is returned as
// a fault error.
func Tags(u *decl.Unit) (entries []idhash.Entry, err error) {
	defer decl.Catch(&err)
	for _, t := range u.ImplTypes() {
		if t.IsForward() {
			continue
		}
		entries = append(entries, idhash.Collect(t)...)
	}
	return entries, nil
}
