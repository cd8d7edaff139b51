package idhash

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Tag is a 16-byte dispatch tag.
type Tag [16]byte

// Class is the coarse category encoded in a tag's high nibble.
type Class uint8

const (
	ClassType   Class = 0x0
	ClassOneway Class = 0x2
	ClassTwoway Class = 0x3
	ClassSigCon Class = 0x5
)

func (c Class) String() string {
	switch c {
	case ClassType:
		return "type"
	case ClassOneway:
		return "oneway"
	case ClassTwoway:
		return "twoway"
	case ClassSigCon:
		return "sigcon"
	default:
		return fmt.Sprintf("class(%#x)", uint8(c))
	}
}

// HighNibble returns the tag's class nibble in place (0x00, 0x20, ...).
func (t Tag) HighNibble() byte { return t[0] & 0xF0 }

// Class classifies the tag without a full comparison.
func (t Tag) Class() Class { return Class(t[0] >> 4) }

// String renders the tag as 32 lowercase hex digits.
func (t Tag) String() string { return hex.EncodeToString(t[:]) }

// CInit renders the tag as a brace initializer: "{ 0x30, 0x1a, ... }".
func (t Tag) CInit() string {
	var sb strings.Builder
	sb.WriteString("{ ")
	for i, b := range t {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "0x%02x", b)
	}
	sb.WriteString(" }")
	return sb.String()
}

// Words splits the tag into two big-endian 64-bit halves, the layout runtimes
// use to compare tags in two machine words.
func (t Tag) Words() (hi, lo uint64) {
	for i := 0; i < 8; i++ {
		hi = hi<<8 | uint64(t[i])
		lo = lo<<8 | uint64(t[8+i])
	}
	return hi, lo
}

// ParseTag decodes the String form.
func ParseTag(s string) (Tag, error) {
	var tag Tag
	raw, err := hex.DecodeString(s)
	if err != nil {
		return tag, fmt.Errorf("parse tag %q: %w", s, err)
	}
	if len(raw) != len(tag) {
		return tag, fmt.Errorf("parse tag %q: want %d bytes, got %d", s, len(tag), len(raw))
	}
	copy(tag[:], raw)
	return tag, nil
}
