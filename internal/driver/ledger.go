package driver

import (
	"context"
	"strconv"

	"aidacc/internal/decl"
	"aidacc/internal/diag"
	"aidacc/internal/ledger"
	"aidacc/internal/trace"
)

// recordTags adds the unit's tags to the ledger at path. Conflicts and an
// unusable ledger are warnings: the generated artifacts stay valid either
// way. A tag that cannot be computed is an error.
func recordTags(ctx context.Context, path string, u *decl.Unit, bag *diag.Bag) []ledger.Conflict {
	_, span := trace.Start(ctx, trace.ScopeBackend, "ledger", path)
	defer span.End("")

	entries, err := Tags(u)
	if err != nil {
		if f, ok := decl.AsFault(err); ok {
			bag.Add(diag.ForFault(f.Code).At(decl.Loc{}, f.Error()))
		}
		return nil
	}
	l, err := ledger.Open(path)
	if err != nil {
		bag.Add(diag.LedgerUnavailable.At(decl.Loc{File: path}, err.Error()))
		return nil
	}
	defer l.Close()

	conflicts, err := l.Record(entries)
	if err != nil {
		bag.Add(diag.LedgerUnavailable.At(decl.Loc{File: path}, err.Error()))
		return nil
	}
	span.Set("entries", strconv.Itoa(len(entries)))
	rep := &diag.BagReporter{Bag: bag}
	for _, c := range conflicts {
		code := diag.LedgerCollision
		if c.Kind == ledger.Drift {
			code = diag.LedgerDrift
		}
		diag.ReportWarning(rep, code, decl.Loc{File: path}, c.String()).
			WithNote(decl.Loc{}, "feed: "+c.Feed).
			Emit()
	}
	return conflicts
}
