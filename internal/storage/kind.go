// Package storage defines the closed set of storage kinds a declaration can have.
package storage

import "fmt"

// Kind enumerates the storage categories of IDL declarations.
type Kind uint8

const (
	Invalid Kind = iota
	Void
	Bool
	Int32
	Int64
	Float64
	String
	Enum
	Sequence
	Record
	Interface
	Func
	TypeReference
	Any

	kindCount
)

var names = [kindCount]string{
	Invalid:       "",
	Void:          "VOID",
	Bool:          "BOOL",
	Int32:         "INT32",
	Int64:         "INT64",
	Float64:       "FLOAT64",
	String:        "STRING",
	Enum:          "ENUM",
	Sequence:      "SEQUENCE",
	Record:        "RECORD",
	Interface:     "INTERFACE",
	Func:          "FUNC",
	TypeReference: "TYPE_REFERENCE",
	Any:           "ANY",
}

// idl spellings accepted by structured front-ends.
var spellings = map[string]Kind{
	"void":      Void,
	"bool":      Bool,
	"int32":     Int32,
	"int64":     Int64,
	"float64":   Float64,
	"string":    String,
	"enum":      Enum,
	"sequence":  Sequence,
	"record":    Record,
	"interface": Interface,
	"func":      Func,
	"typeref":   TypeReference,
	"any":       Any,
}

// Valid reports whether k belongs to the closed set.
func (k Kind) Valid() bool { return k > Invalid && k < kindCount }

// Name returns the stable textual name of k ("INT32", "RECORD", ...).
// The second result is false for kinds outside the closed set.
func (k Kind) Name() (string, bool) {
	if !k.Valid() {
		return "", false
	}
	return names[k], true
}

func (k Kind) String() string {
	if name, ok := k.Name(); ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Spelling returns the lowercase IDL spelling of k.
func (k Kind) Spelling() string {
	for s, kind := range spellings {
		if kind == k {
			return s
		}
	}
	return ""
}

// IsPrimitive reports whether declarations of this kind carry no payload.
func (k Kind) IsPrimitive() bool {
	switch k {
	case Void, Bool, Int32, Int64, Float64, String, TypeReference, Any:
		return true
	default:
		return false
	}
}

// IsComposite reports whether the kind holds nested declarations.
func (k Kind) IsComposite() bool {
	switch k {
	case Enum, Sequence, Record, Interface, Func:
		return true
	default:
		return false
	}
}

// Parse maps an IDL spelling (case-sensitive, lowercase) or a stable name
// ("RECORD") to its Kind.
func Parse(s string) (Kind, bool) {
	if k, ok := spellings[s]; ok {
		return k, true
	}
	for k := Void; k < kindCount; k++ {
		if names[k] == s {
			return k, true
		}
	}
	return Invalid, false
}

// All returns every valid kind in declaration order.
func All() []Kind {
	out := make([]Kind, 0, int(kindCount)-1)
	for k := Void; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}
