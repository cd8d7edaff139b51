package decl

import (
	"errors"
	"fmt"
)

// ErrFault matches every structural fault via errors.Is.
var ErrFault = errors.New("structural fault")

// FaultCode classifies programming errors detected while building or hashing
// the declaration graph.
type FaultCode uint8

const (
	FaultUnknown FaultCode = iota
	FaultInvalidStorage
	FaultStorageMismatch
	FaultRedeclared
	FaultReturnReassigned
	FaultReturnMissing
	FaultOwnerReassigned
	FaultNilDecl
	FaultFrozen
	FaultRebound
)

func (c FaultCode) String() string {
	switch c {
	case FaultInvalidStorage:
		return "invalid-storage"
	case FaultStorageMismatch:
		return "storage-mismatch"
	case FaultRedeclared:
		return "redeclared"
	case FaultReturnReassigned:
		return "return-reassigned"
	case FaultReturnMissing:
		return "return-missing"
	case FaultOwnerReassigned:
		return "owner-reassigned"
	case FaultNilDecl:
		return "nil-decl"
	case FaultFrozen:
		return "frozen"
	case FaultRebound:
		return "rebound"
	default:
		return "unknown"
	}
}

// Fault is a structural fault. Faults are raised with panic and must not be
// treated as ordinary control flow: the compilation unit that produced one is
// no longer consistent and has to be discarded.
type Fault struct {
	Code    FaultCode
	Subject string
	Msg     string
}

func (f *Fault) Error() string {
	if f.Subject == "" {
		return fmt.Sprintf("%s: %s", f.Code, f.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", f.Code, f.Subject, f.Msg)
}

// Is makes every *Fault match ErrFault.
func (f *Fault) Is(target error) bool { return target == ErrFault }

// Raise panics with a *Fault.
func Raise(code FaultCode, subject, format string, args ...any) {
	panic(&Fault{Code: code, Subject: subject, Msg: fmt.Sprintf(format, args...)})
}

// Catch converts a fault panic into an error. It must be deferred directly:
//
//	defer decl.Catch(&err)
//
// Panics that are not faults keep unwinding.
func Catch(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if f, ok := r.(*Fault); ok {
		*err = f
		return
	}
	panic(r)
}

// Guard runs fn and returns the fault it raised, if any.
func Guard(fn func()) (err error) {
	defer Catch(&err)
	fn()
	return nil
}

// AsFault extracts the *Fault from err.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
