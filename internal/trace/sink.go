package trace

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
)

// Tracer receives the events of a build. Emit must be safe for concurrent
// use: backends run in parallel.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
}

// Dumper is a tracer that can replay the events it kept.
type Dumper interface {
	Dump(w io.Writer, format Format) error
}

type nop struct{}

func (nop) Emit(*Event)  {}
func (nop) Flush() error { return nil }
func (nop) Close() error { return nil }
func (nop) Level() Level { return LevelOff }

// Nop drops everything. Its level is LevelOff, so Start never builds spans.
var Nop Tracer = nop{}

// Stream writes every event to its output as it arrives.
type Stream struct {
	mu     sync.Mutex
	w      io.Writer
	file   io.Closer // set when the stream opened its output
	level  Level
	format Format
}

func NewStream(w io.Writer, level Level, format Format) *Stream {
	return &Stream{w: w, level: level, format: format}
}

func (s *Stream) Emit(ev *Event) {
	if !s.level.Covers(ev.Scope) {
		return
	}
	line := FormatEvent(ev, s.format)
	s.mu.Lock()
	defer s.mu.Unlock()
	// a broken trace output never fails the build
	_, _ = s.w.Write(line)
}

// Flush is a no-op: Emit does not buffer.
func (s *Stream) Flush() error { return nil }

func (s *Stream) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

func (s *Stream) Level() Level { return s.level }

// Recent keeps the last events of a build in memory so that a failed build
// can be explained after the fact.
type Recent struct {
	mu      sync.Mutex
	events  []Event
	next    int // oldest event once full
	dropped int
	level   Level
}

// DefaultRecent is the number of events Recent keeps when no size is given.
const DefaultRecent = 4096

func NewRecent(size int, level Level) *Recent {
	if size <= 0 {
		size = DefaultRecent
	}
	return &Recent{events: make([]Event, 0, size), level: level}
}

func (r *Recent) Emit(ev *Event) {
	if !r.level.Covers(ev.Scope) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) < cap(r.events) {
		r.events = append(r.events, *ev)
		return
	}
	r.events[r.next] = *ev
	r.next = (r.next + 1) % len(r.events)
	r.dropped++
}

// Events returns the kept events, oldest first.
func (r *Recent) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append(slices.Clone(r.events[r.next:]), r.events[:r.next]...)
}

// Dropped counts the events pushed out by newer ones.
func (r *Recent) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Dump writes the kept events. Text dumps start with a note when earlier
// events were dropped.
func (r *Recent) Dump(w io.Writer, format Format) error {
	if n := r.Dropped(); n > 0 && format != FormatNDJSON {
		if _, err := fmt.Fprintf(w, "(%d earlier events dropped)\n", n); err != nil {
			return err
		}
	}
	for _, ev := range r.Events() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recent) Flush() error { return nil }
func (r *Recent) Close() error { return nil }
func (r *Recent) Level() Level { return r.level }

// Tee sends every event to all of its tracers.
type Tee struct {
	level   Level
	tracers []Tracer
}

func NewTee(level Level, tracers ...Tracer) *Tee {
	return &Tee{level: level, tracers: tracers}
}

func (t *Tee) Emit(ev *Event) {
	for _, tr := range t.tracers {
		tr.Emit(ev)
	}
}

func (t *Tee) Flush() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Flush())
	}
	return errors.Join(errs...)
}

func (t *Tee) Close() error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, tr.Close())
	}
	return errors.Join(errs...)
}

// Dump replays the first tracer that keeps events.
func (t *Tee) Dump(w io.Writer, format Format) error {
	for _, tr := range t.tracers {
		if d, ok := tr.(Dumper); ok {
			return d.Dump(w, format)
		}
	}
	return nil
}

func (t *Tee) Level() Level { return t.level }
