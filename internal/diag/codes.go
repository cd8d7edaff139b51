package diag

import (
	"fmt"

	"aidacc/internal/decl"
)

// Severity orders diagnostics; a build fails on any SevError.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{SevInfo: "INFO", SevWarning: "WARNING", SevError: "ERROR"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}

// Code is an AIDnnnn diagnostic code. The thousands digit names the stage
// that reports it; nnn000 is the stage's informational code.
type Code uint16

const (
	UnknownCode Code = 0

	// input documents
	LoadInfo       Code = 1000
	LoadFailed     Code = 1001
	LoadReadFailed Code = 1002

	// declaration graph faults, DeclFault + decl.FaultCode
	DeclInfo             Code = 2000
	DeclFault            Code = 2001
	DeclInvalidStorage   Code = 2002
	DeclStorageMismatch  Code = 2003
	DeclRedeclared       Code = 2004
	DeclReturnReassigned Code = 2005
	DeclReturnMissing    Code = 2006
	DeclOwnerReassigned  Code = 2007
	DeclNilDecl          Code = 2008
	DeclFrozen           Code = 2009
	DeclRebound          Code = 2010

	// backends
	BackendInfo    Code = 3000
	BackendConfig  Code = 3001
	BackendFailed  Code = 3002
	BackendUnknown Code = 3003
	BackendOutput  Code = 3004

	// tag ledger; its problems never invalidate generated artifacts
	LedgerInfo        Code = 4000
	LedgerCollision   Code = 4001
	LedgerDrift       Code = 4002
	LedgerUnavailable Code = 4003

	// project manifest
	ProjInfo            Code = 5000
	ProjInvalidManifest Code = 5001
	ProjNoInputs        Code = 5002
)

var codeTitles = map[Code]string{
	UnknownCode:          "Unknown error",
	LoadInfo:             "Input information",
	LoadFailed:           "Input document rejected",
	LoadReadFailed:       "Input file cannot be read",
	DeclInfo:             "Declaration information",
	DeclFault:            "Declaration fault",
	DeclInvalidStorage:   "Storage kind outside the closed set",
	DeclStorageMismatch:  "Payload accessed through the wrong storage kind",
	DeclRedeclared:       "Name already declared in namespace",
	DeclReturnReassigned: "Function return type assigned twice",
	DeclReturnMissing:    "Function has no return type",
	DeclOwnerReassigned:  "Method already owned by an interface",
	DeclNilDecl:          "Missing declaration",
	DeclFrozen:           "Unit is frozen",
	DeclRebound:          "Declaration already bound to a namespace",
	BackendInfo:          "Backend information",
	BackendConfig:        "Backend configuration rejected",
	BackendFailed:        "Backend failed",
	BackendUnknown:       "Unknown backend",
	BackendOutput:        "Artifact cannot be written",
	LedgerInfo:           "Ledger information",
	LedgerCollision:      "Tag collides with a recorded feed",
	LedgerDrift:          "Tag of a recorded feed changed",
	LedgerUnavailable:    "Tag ledger unavailable",
	ProjInfo:             "Project information",
	ProjInvalidManifest:  "Invalid aidacc.toml",
	ProjNoInputs:         "No input documents",
}

func (c Code) ID() string { return fmt.Sprintf("AID%04d", int(c)) }

func (c Code) Stage() int { return int(c) / 1000 }

func (c Code) Title() string {
	if t, ok := codeTitles[c]; ok {
		return t
	}
	return codeTitles[UnknownCode]
}

// Severity is the default severity of c: stage info codes are SevInfo,
// ledger codes SevWarning and everything else SevError.
func (c Code) Severity() Severity {
	switch {
	case c != UnknownCode && c%1000 == 0:
		return SevInfo
	case c.Stage() == LedgerInfo.Stage():
		return SevWarning
	}
	return SevError
}

// At builds a diagnostic of c at its default severity.
func (c Code) At(primary decl.Loc, msg string) Diagnostic {
	return New(c.Severity(), c, primary, msg)
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// ForFault maps a declaration fault onto its diagnostic code.
func ForFault(c decl.FaultCode) Code {
	return DeclFault + Code(c)
}
