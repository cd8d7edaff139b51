package trace

import (
	"context"
	"sync/atomic"
	"time"
)

var seq, spanIDs atomic.Uint64

type ctxKey struct{}

// state is what a context carries: the tracer and the span that new spans
// nest under.
type state struct {
	tracer Tracer
	span   uint64
}

func stateOf(ctx context.Context) state {
	if ctx != nil {
		if st, ok := ctx.Value(ctxKey{}).(state); ok {
			return st
		}
	}
	return state{tracer: Nop}
}

// WithTracer returns a context carrying t. Spans started from it are roots.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, state{tracer: t})
}

// FromContext returns the tracer carried by ctx, or Nop.
func FromContext(ctx context.Context) Tracer { return stateOf(ctx).tracer }

// Enabled reports whether events of scope reach the tracer in ctx.
func Enabled(ctx context.Context, scope Scope) bool {
	return stateOf(ctx).tracer.Level().Covers(scope)
}

// Span is an open pipeline step. A nil span ignores every call, so callers
// never check whether tracing is on.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	scope   Scope
	phase   string
	subject string
	started time.Time
	attrs   map[string]string
}

// Start opens a span for phase working on subject, nested under the span
// active in ctx. The returned context makes it the parent of later spans.
// When scope is not traced Start returns ctx unchanged and a nil span.
func Start(ctx context.Context, scope Scope, phase, subject string) (context.Context, *Span) {
	st := stateOf(ctx)
	if !st.tracer.Level().Covers(scope) {
		return ctx, nil
	}
	s := &Span{
		tracer:  st.tracer,
		id:      spanIDs.Add(1),
		parent:  st.span,
		scope:   scope,
		phase:   phase,
		subject: subject,
		started: time.Now(),
	}
	s.emit(KindBegin, s.started, "")
	return context.WithValue(ctx, ctxKey{}, state{tracer: st.tracer, span: s.id}), s
}

// Mark records an instant event under the span active in ctx.
func Mark(ctx context.Context, scope Scope, phase, subject string) {
	st := stateOf(ctx)
	if !st.tracer.Level().Covers(scope) {
		return
	}
	st.tracer.Emit(&Event{
		Time:    time.Now(),
		Seq:     seq.Add(1),
		Kind:    KindMark,
		Scope:   scope,
		Span:    spanIDs.Add(1),
		Parent:  st.span,
		Phase:   phase,
		Subject: subject,
	})
}

// Set attaches an attribute reported when the span ends.
func (s *Span) Set(key, value string) *Span {
	if s == nil {
		return nil
	}
	if s.attrs == nil {
		s.attrs = make(map[string]string)
	}
	s.attrs[key] = value
	return s
}

// End closes the span with outcome and returns how long it was open.
func (s *Span) End(outcome string) time.Duration {
	if s == nil {
		return 0
	}
	now := time.Now()
	s.emit(KindEnd, now, outcome)
	return now.Sub(s.started)
}

// Finish ends the span with "ok", or with the failure err describes.
func (s *Span) Finish(err error) time.Duration {
	if err != nil {
		return s.End("failed: " + err.Error())
	}
	return s.End("ok")
}

func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

func (s *Span) emit(kind Kind, at time.Time, outcome string) {
	ev := &Event{
		Time:    at,
		Seq:     seq.Add(1),
		Kind:    kind,
		Scope:   s.scope,
		Span:    s.id,
		Parent:  s.parent,
		Phase:   s.phase,
		Subject: s.subject,
		Outcome: outcome,
	}
	if kind == KindEnd {
		ev.Attrs = s.attrs
	}
	s.tracer.Emit(ev)
}
