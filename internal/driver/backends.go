package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"aidacc/internal/backend"
	"aidacc/internal/backend/pyxx"
	"aidacc/internal/backend/tagtable"
	"aidacc/internal/decl"
	"aidacc/internal/diag"
	"aidacc/internal/trace"
)

// Backends returns a registry holding every built-in backend.
func Backends() *backend.Registry {
	r := backend.NewRegistry()
	for _, b := range []backend.Backend{pyxx.Backend(), tagtable.Backend()} {
		if err := r.Register(b); err != nil {
			panic(err) // built-in names are unique
		}
	}
	return r
}

type backendResult struct {
	artifacts []backend.Artifact
	err       error
}

// runBackends runs every target against the frozen unit. A failing backend
// does not stop the others; all failures are reported to bag in target order.
func runBackends(ctx context.Context, registry *backend.Registry, u *decl.Unit, opts Options, bag *diag.Bag) []backend.Artifact {
	impl := u.ImplTypes()

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]backendResult, len(opts.Targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(opts.Targets))))
	for i, target := range opts.Targets {
		b, ok := registry.Lookup(target.Backend)
		if !ok {
			results[i].err = errUnknownBackend{name: target.Backend}
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].err = err
				return nil
			}
			_, span := trace.Start(gctx, trace.ScopeBackend, "backend", b.Name)
			cfg := backend.Config{Output: target.Output, Files: opts.Inputs, Options: target.Options}
			var (
				arts []backend.Artifact
				rerr error
			)
			err := decl.Guard(func() { arts, rerr = b.Run(impl, cfg) })
			if err == nil {
				err = rerr
			}
			if err != nil {
				arts = nil
			}
			results[i] = backendResult{artifacts: arts, err: err}
			span.Set("artifacts", strconv.Itoa(len(arts))).Finish(err)
			return nil
		})
	}
	// goroutines never return errors; cancellation is recorded per result
	_ = g.Wait()

	var out []backend.Artifact
	for i, r := range results {
		if r.err != nil {
			reportBackendError(bag, opts.Targets[i], r.err)
			continue
		}
		out = append(out, r.artifacts...)
	}
	return out
}

type errUnknownBackend struct{ name string }

func (e errUnknownBackend) Error() string { return fmt.Sprintf("unknown backend %q", e.name) }

func reportBackendError(bag *diag.Bag, target Target, err error) {
	var (
		unknown errUnknownBackend
		ce      *backend.ConfigError
	)
	switch {
	case errors.As(err, &unknown):
		bag.Add(diag.NewError(diag.BackendUnknown, decl.Loc{}, unknown.Error()))
	case errors.As(err, &ce):
		bag.Add(diag.NewError(diag.BackendConfig, decl.Loc{}, ce.Error()))
	default:
		if f, ok := decl.AsFault(err); ok {
			bag.Add(diag.NewError(diag.ForFault(f.Code), decl.Loc{}, target.Backend+": "+f.Error()))
			return
		}
		bag.Add(diag.NewError(diag.BackendFailed, decl.Loc{}, err.Error()))
	}
}
