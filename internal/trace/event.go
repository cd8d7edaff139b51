package trace

import "time"

// Kind tells span boundaries from instant marks.
type Kind uint8

const (
	KindBegin Kind = iota + 1
	KindEnd
	KindMark
)

var kindNames = [...]string{KindBegin: "begin", KindEnd: "end", KindMark: "mark"}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Scope is the pipeline layer an event belongs to, coarsest first.
type Scope uint8

const (
	ScopeDriver  Scope = iota + 1 // command and build
	ScopeBackend                  // backend runs and the ledger
	ScopeUnit                     // input documents
	ScopeDecl                     // single declarations
)

var scopeNames = [...]string{ScopeDriver: "driver", ScopeBackend: "backend", ScopeUnit: "unit", ScopeDecl: "decl"}

func (s Scope) String() string {
	if int(s) < len(scopeNames) && scopeNames[s] != "" {
		return scopeNames[s]
	}
	return "unknown"
}

// Event is one record of a build trace. Phase names the pipeline step
// ("build", "load", "backend", "ledger", "declare"); Subject names what the
// step works on: input paths, a backend name or a declaration.
type Event struct {
	Time    time.Time
	Seq     uint64
	Kind    Kind
	Scope   Scope
	Span    uint64
	Parent  uint64 // 0 for root spans
	Phase   string
	Subject string
	Outcome string // set on KindEnd
	Attrs   map[string]string
}
