package medqrng

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrEnvironmentInit = errors.New("COM apartment initialization failed")
	ErrDeviceCreate    = errors.New("device object creation failed")
	ErrMemberNotFound  = errors.New("member not found")
	ErrInvoke          = errors.New("invoke failed")
	ErrUnexpectedType  = errors.New("unexpected variant type")
	ErrBoundsQuery     = errors.New("array bounds query failed")
	ErrArrayLock       = errors.New("array lock failed")
	ErrSessionClosed   = errors.New("session closed")
)

// Status is a raw HRESULT reported by the driver.
type Status uint32

// HRESULTs the package checks for or reports.
const (
	StatusOK            Status = 0x00000000
	StatusFalse         Status = 0x00000001
	StatusFail          Status = 0x80004005
	StatusNotImpl       Status = 0x80004001
	StatusInvalidArg    Status = 0x80070057
	StatusClassNotReg   Status = 0x80040154
	StatusUnknownName   Status = 0x80020006
	StatusMemberMissing Status = 0x80020003
	StatusBadVarType    Status = 0x80020008
	StatusChangedMode   Status = 0x80010106
)

func (s Status) Error() string { return fmt.Sprintf("HRESULT 0x%08X", uint32(s)) }

// Code returns the HRESULT, matching go-ole's OleError.
func (s Status) Code() uintptr { return uintptr(s) }

// Failed reports whether s has the severity bit set.
func (s Status) Failed() bool { return int32(s) < 0 }

// statusOf extracts the HRESULT carried by a driver error, or StatusFail when
// the error carries none.
func statusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var coder interface{ Code() uintptr }
	if errors.As(err, &coder) {
		return Status(coder.Code())
	}
	return StatusFail
}

// Error describes a failed session, invoke or conversion.
type Error struct {
	Kind   error  // one of the Err* kinds
	Member string // automation member name, empty for session errors
	Status Status // raw driver status, zero when the failure is local
	Detail string
	Err    error // underlying driver error, if any
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Member != "" {
		msg = e.Member + ": " + msg
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Status != StatusOK {
		msg += fmt.Sprintf(": 0x%08X", uint32(e.Status))
	}
	return "medqrng: " + msg
}

// Is matches the error's kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func driverError(kind error, member string, err error) *Error {
	return &Error{Kind: kind, Member: member, Status: statusOf(err), Err: err}
}

// withMember fills in the member name on codec errors, which are produced
// without knowing which call returned the variant.
func withMember(err error, member string) error {
	var e *Error
	if errors.As(err, &e) && e.Member == "" {
		e.Member = member
	}
	return err
}
