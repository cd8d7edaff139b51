// Package driver runs a complete aidacc build: load the input documents into
// a compilation unit, freeze it, run the requested backends concurrently,
// write their artifacts and update the tag ledger.
package driver

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"aidacc/internal/backend"
	"aidacc/internal/decl"
	"aidacc/internal/diag"
	"aidacc/internal/ledger"
	"aidacc/internal/trace"
)

// ErrFailed is returned when the build produced error diagnostics.
var ErrFailed = errors.New("build failed")

// Target is one backend invocation.
type Target struct {
	Backend string
	Output  string
	Options []string
}

// Options configures Build.
type Options struct {
	Inputs         []string
	Targets        []Target
	LedgerPath     string // empty disables the ledger
	MaxDiagnostics int
	Jobs           int               // parallel backends, <= 0 means GOMAXPROCS
	Registry       *backend.Registry // nil means Backends()
	Stdout         io.Writer         // receives stdout artifacts, nil means os.Stdout
}

// Timing is the wall time of one build phase.
type Timing struct {
	Name    string
	Elapsed time.Duration
}

// Result is the outcome of Build. Bag is always non-nil.
type Result struct {
	Unit      *decl.Unit
	Bag       *diag.Bag
	Artifacts []backend.Artifact
	Written   []string
	Conflicts []ledger.Conflict
	Timings   []Timing
}

func (r *Result) timed(name string, d time.Duration) {
	r.Timings = append(r.Timings, Timing{Name: name, Elapsed: d})
}

// Build runs the whole pipeline. Artifacts are written only when every
// backend succeeded; on failure nothing is written and ErrFailed is returned
// together with the diagnostics.
func Build(ctx context.Context, opts Options) (*Result, error) {
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "build", strings.Join(opts.Inputs, " "))

	res := &Result{Bag: diag.NewBag(opts.MaxDiagnostics)}
	begin := time.Now()
	defer func() {
		span.End(buildDetail(res))
		res.timed("build", time.Since(begin))
	}()

	if len(opts.Inputs) == 0 {
		res.Bag.Add(diag.NewError(diag.ProjNoInputs, decl.Loc{}, "no input documents given"))
		return res, ErrFailed
	}

	start := time.Now()
	res.Unit = LoadUnit(ctx, opts.Inputs, res.Bag)
	res.timed("load", time.Since(start))
	if res.Bag.HasErrors() {
		return res, ErrFailed
	}

	registry := opts.Registry
	if registry == nil {
		registry = Backends()
	}
	start = time.Now()
	res.Artifacts = runBackends(ctx, registry, res.Unit, opts, res.Bag)
	res.timed("backends", time.Since(start))
	if res.Bag.HasErrors() {
		res.Artifacts = nil
		return res, ErrFailed
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	res.Written = writeArtifacts(res.Artifacts, stdout, res.Bag)
	if res.Bag.HasErrors() {
		return res, ErrFailed
	}

	return res, finishLedger(ctx, opts, res)
}

// finishLedger records the unit's tags when a ledger is configured. Ledger
// conflicts stay warnings; a tag that cannot be computed fails the build.
func finishLedger(ctx context.Context, opts Options, res *Result) error {
	if opts.LedgerPath == "" {
		return nil
	}
	start := time.Now()
	res.Conflicts = recordTags(ctx, opts.LedgerPath, res.Unit, res.Bag)
	res.timed("ledger", time.Since(start))
	if res.Bag.HasErrors() {
		return ErrFailed
	}
	return nil
}

func buildDetail(res *Result) string {
	if res.Bag.HasErrors() {
		return "failed"
	}
	return "ok"
}
