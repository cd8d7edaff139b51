package trace

import (
	"fmt"
	"strings"
)

// Level selects the deepest scope that is traced.
type Level uint8

const (
	LevelOff Level = iota
	LevelError
	LevelPhase
	LevelDetail
	LevelDebug
)

var levels = [...]struct {
	name    string
	deepest Scope
}{
	LevelOff:    {"off", 0},
	LevelError:  {"error", ScopeBackend},
	LevelPhase:  {"phase", ScopeBackend},
	LevelDetail: {"detail", ScopeUnit},
	LevelDebug:  {"debug", ScopeDecl},
}

func (l Level) String() string {
	if int(l) < len(levels) {
		return levels[l].name
	}
	return "unknown"
}

// ParseLevel accepts a level name in any case.
func ParseLevel(s string) (Level, error) {
	for l, info := range levels {
		if strings.EqualFold(s, info.name) {
			return Level(l), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level %q (off|error|phase|detail|debug)", s)
}

// Covers reports whether events of scope are traced at l.
func (l Level) Covers(scope Scope) bool {
	return int(l) < len(levels) && scope != 0 && scope <= levels[l].deepest
}
