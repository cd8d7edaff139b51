// Package idhash derives the 16-byte dispatch tags the IPC runtime uses to
// route calls, signal connections and property accessors.
//
// A tag is computed from a declaration's canonical signature:
//
//	feed   = Salt + " | " + purpose + " | " + Signature(decl) + postfix
//	digest = SHA-256(feed)
//	tag    = byte0 + digest[7:17] + digest[26:31]
//	byte0  = (highNibble & 0xF0) | (digest[3] & 0x0F)
//
// The salt, the byte selection and the nibble split are part of the wire
// contract. Changing any of them invalidates every tag already compiled into
// clients and servers.
package idhash

import (
	"crypto/sha256"
	"strings"

	"aidacc/internal/decl"
	"aidacc/internal/storage"
)

// Salt namespaces every feed. Never change it without a deliberate wire break.
const Salt = "fc4676dd-248d-4958-a7fa-e170a4d8a68c"

const feedSep = " | "

// Purpose pairs a tag class nibble with the purpose string mixed into the feed.
type Purpose struct {
	HighNibble byte
	Tag        string
}

var (
	PurposeType   = Purpose{HighNibble: 0x00, Tag: "type"}
	PurposeOneway = Purpose{HighNibble: 0x20, Tag: "oneway"}
	PurposeTwoway = Purpose{HighNibble: 0x30, Tag: "twoway"}
	PurposeSigCon = Purpose{HighNibble: 0x50, Tag: "sigcon"}
	PurposeSetter = Purpose{HighNibble: 0x20, Tag: "setter"}
	PurposeGetter = Purpose{HighNibble: 0x30, Tag: "getter"}
)

// Signature builds the canonical signature of t:
// "[Owner::]Self[ [Return+]ArgType+ArgType...]". Argument names and default
// initializers are not part of it.
func Signature(t *decl.Type) string {
	typeList := make([]string, 0, 2)
	var argList []string
	if fn, ok := t.Payload().(*decl.Function); ok {
		if owner := fn.Owner(); owner != nil {
			typeList = append(typeList, owner.FullName())
		}
		typeList = append(typeList, t.FullName())
		if rt := fn.Return(); rt != nil {
			argList = append(argList, rt.FullName())
		}
		for _, arg := range fn.Args() {
			argList = append(argList, arg.Type.FullName())
		}
	} else {
		typeList = append(typeList, t.FullName())
	}
	sig := strings.Join(typeList, "::")
	if len(argList) > 0 {
		sig += " " + strings.Join(argList, "+")
	}
	return sig
}

// IdentSignature is Signature with every byte outside [A-Za-z0-9] replaced
// by '_', usable as an identifier in generated code.
func IdentSignature(t *decl.Type) string {
	sig := []byte(Signature(t))
	for i, c := range sig {
		if !isAlnum(c) {
			sig[i] = '_'
		}
	}
	return string(sig)
}

// Feed returns the exact digest input for t.
func Feed(t *decl.Type, purpose, postfix string) string {
	return Salt + feedSep + purpose + feedSep + Signature(t) + postfix
}

// Hash128 reduces the digest of Feed(t, purpose, postfix) to a tag whose
// high nibble is highNibble's.
func Hash128(t *decl.Type, highNibble byte, purpose, postfix string) Tag {
	return Reduce(sha256.Sum256([]byte(Feed(t, purpose, postfix))), highNibble)
}

// Reduce folds a SHA-256 digest into a tag.
func Reduce(digest [sha256.Size]byte, highNibble byte) Tag {
	var tag Tag
	tag[0] = (highNibble & 0xF0) | (digest[3] & 0x0F)
	n := copy(tag[1:], digest[7:17])
	copy(tag[1+n:], digest[26:31])
	return tag
}

// CallPurpose selects the purpose TypeHash uses for t: signal connection,
// oneway or twoway for functions, plain type identity otherwise.
func CallPurpose(t *decl.Type) Purpose {
	fn, ok := t.Payload().(*decl.Function)
	if !ok {
		return PurposeType
	}
	rt := requireReturn(fn, "TypeHash")
	switch {
	case fn.IsSignal():
		return PurposeSigCon
	case rt.Storage() == storage.Void:
		return PurposeOneway
	default:
		return PurposeTwoway
	}
}

// TypeHash is the identity tag of t. For functions the tag class follows the
// call kind; calling it before the return type is set raises a fault.
func TypeHash(t *decl.Type) Tag {
	p := CallPurpose(t)
	return Hash128(t, p.HighNibble, p.Tag, "")
}

// TwowayHash is the reply-expecting call tag of function t. A non-empty
// special mints an auxiliary tag for an alternate calling convention.
func TwowayHash(t *decl.Type, special string) Tag {
	if fn, ok := t.Payload().(*decl.Function); ok {
		requireReturn(fn, "TwowayHash")
	}
	return Hash128(t, PurposeTwoway.HighNibble, TwowayTag(special), "")
}

// TwowayTag returns the purpose string TwowayHash feeds for special.
func TwowayTag(special string) string {
	if special == "" {
		return PurposeTwoway.Tag
	}
	return PurposeTwoway.Tag + "/" + special
}

// PropertyHash is the getter or setter tag of field on t.
func PropertyHash(t *decl.Type, field decl.Field, setter bool) Tag {
	p := PropertyPurpose(setter)
	return Hash128(t, p.HighNibble, p.Tag, PropertyPostfix(field))
}

// PropertyPurpose returns the setter or getter purpose.
func PropertyPurpose(setter bool) Purpose {
	if setter {
		return PurposeSetter
	}
	return PurposeGetter
}

// PropertyPostfix is the feed suffix identifying field.
func PropertyPostfix(field decl.Field) string {
	return "::" + field.Ident + " " + field.Type.FullName()
}

func requireReturn(fn *decl.Function, op string) *decl.Type {
	rt := fn.Return()
	if rt == nil {
		decl.Raise(decl.FaultReturnMissing, fn.Decl().FullName(), "%s before the return type was set", op)
	}
	return rt
}

func isAlnum(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
