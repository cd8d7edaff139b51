package trace

import (
	"encoding/json"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Format is the encoding of trace output.
type Format uint8

const (
	FormatAuto   Format = iota // NDJSON for .ndjson and .json paths, text otherwise
	FormatText                 // one indented line per event
	FormatNDJSON               // one JSON object per line
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	}
	return FormatAuto, fmt.Errorf("invalid trace format %q (auto|text|ndjson)", s)
}

func formatFor(path string) Format {
	switch filepath.Ext(path) {
	case ".ndjson", ".json":
		return FormatNDJSON
	}
	return FormatText
}

var processStart = time.Now()

// FormatEvent encodes ev as one line.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		return appendJSON(nil, ev)
	}
	return appendText(nil, ev)
}

type jsonEvent struct {
	Time    string            `json:"time"`
	Seq     uint64            `json:"seq"`
	Kind    string            `json:"kind"`
	Scope   string            `json:"scope"`
	Span    uint64            `json:"span"`
	Parent  uint64            `json:"parent,omitempty"`
	Phase   string            `json:"phase"`
	Subject string            `json:"subject,omitempty"`
	Outcome string            `json:"outcome,omitempty"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

func appendJSON(b []byte, ev *Event) []byte {
	data, _ := json.Marshal(jsonEvent{
		Time:    ev.Time.Format(time.RFC3339Nano),
		Seq:     ev.Seq,
		Kind:    ev.Kind.String(),
		Scope:   ev.Scope.String(),
		Span:    ev.Span,
		Parent:  ev.Parent,
		Phase:   ev.Phase,
		Subject: ev.Subject,
		Outcome: ev.Outcome,
		Attrs:   ev.Attrs,
	})
	b = append(b, data...)
	return append(b, '\n')
}

var glyphs = [...]string{KindBegin: "→ ", KindEnd: "← ", KindMark: "• "}

// appendText renders
//
//	[   1.234ms]   ← backend pyxx: ok {artifacts=1}
//
// with nested events indented once.
func appendText(b []byte, ev *Event) []byte {
	b = fmt.Appendf(b, "[%9.3fms] ", float64(ev.Time.Sub(processStart).Microseconds())/1000)
	if ev.Parent != 0 {
		b = append(b, "  "...)
	}
	if int(ev.Kind) < len(glyphs) {
		b = append(b, glyphs[ev.Kind]...)
	}
	b = append(b, ev.Phase...)
	if ev.Subject != "" {
		b = append(append(b, ' '), ev.Subject...)
	}
	if ev.Outcome != "" {
		b = append(append(b, ": "...), ev.Outcome...)
	}
	for i, k := range slices.Sorted(maps.Keys(ev.Attrs)) {
		sep := ", "
		if i == 0 {
			sep = " {"
		}
		b = append(append(append(append(b, sep...), k...), '='), ev.Attrs[k]...)
	}
	if len(ev.Attrs) > 0 {
		b = append(b, '}')
	}
	return append(b, '\n')
}
