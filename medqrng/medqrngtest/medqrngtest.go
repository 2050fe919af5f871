// Package medqrngtest provides an in-memory QWQNG driver for tests. A Driver
// is a medqrng.Backend; its objects answer member calls from a handler table
// and count apartment entries, object releases and array locks.
package medqrngtest

import (
	"sort"
	"unicode/utf16"
	"unsafe"

	"github.com/Thiagojm/medqrng_go/medqrng"
)

// Handler answers one member call.
type Handler func(kind medqrng.InvokeKind, args []medqrng.Variant) (medqrng.Variant, error)

// Call records one dispatched invocation.
type Call struct {
	Member string
	Kind   medqrng.InvokeKind
	Args   []medqrng.Variant
}

// Driver is a fake COM environment holding one registered class.
type Driver struct {
	// InitErr and CreateErr make the next Initialize or Create fail.
	InitErr   error
	CreateErr error

	// CLSID requested by the last Create.
	CLSID string

	Inits    int
	Uninits  int
	Creates  int
	Releases int // dispatcher releases
	Cleared  int // result variant releases
	Calls    []Call

	handlers map[string]Handler
	ids      map[string]int32
}

// New returns a driver with no members.
func New() *Driver {
	return &Driver{handlers: make(map[string]Handler), ids: make(map[string]int32)}
}

// Handle registers member name. DISPIDs are assigned in registration order
// starting at 1.
func (d *Driver) Handle(name string, h Handler) {
	if _, ok := d.ids[name]; !ok {
		d.ids[name] = int32(len(d.ids) + 1)
	}
	d.handlers[name] = h
}

// Return registers member name as always returning v.
func (d *Driver) Return(name string, v medqrng.Variant) {
	d.Handle(name, func(medqrng.InvokeKind, []medqrng.Variant) (medqrng.Variant, error) {
		return v, nil
	})
}

// Fail registers member name as always failing with st.
func (d *Driver) Fail(name string, st medqrng.Status) {
	d.Handle(name, func(medqrng.InvokeKind, []medqrng.Variant) (medqrng.Variant, error) {
		return medqrng.Variant{}, st
	})
}

// Members lists registered member names.
func (d *Driver) Members() []string {
	names := make([]string, 0, len(d.handlers))
	for n := range d.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Depth is the number of apartment entries not yet balanced by a leave.
func (d *Driver) Depth() int { return d.Inits - d.Uninits }

func (d *Driver) Initialize() error {
	if d.InitErr != nil {
		return d.InitErr
	}
	d.Inits++
	return nil
}

func (d *Driver) Uninitialize() { d.Uninits++ }

func (d *Driver) Create(clsid string) (medqrng.Dispatcher, error) {
	d.CLSID = clsid
	if d.CreateErr != nil {
		return nil, d.CreateErr
	}
	d.Creates++
	return &object{d: d}, nil
}

type object struct {
	d *Driver
}

func (o *object) IDOfName(name string) (int32, error) {
	id, ok := o.d.ids[name]
	if !ok {
		return 0, medqrng.StatusUnknownName
	}
	return id, nil
}

func (o *object) Invoke(id int32, kind medqrng.InvokeKind, args []medqrng.Variant) (medqrng.Variant, error) {
	for name, want := range o.d.ids {
		if want != id {
			continue
		}
		o.d.Calls = append(o.d.Calls, Call{Member: name, Kind: kind, Args: append([]medqrng.Variant(nil), args...)})
		v, err := o.d.handlers[name](kind, args)
		if err != nil {
			return v, err
		}
		return v.WithRelease(func() { o.d.Cleared++ }), nil
	}
	return medqrng.Variant{}, medqrng.StatusMemberMissing
}

func (o *object) Release() { o.d.Releases++ }

// Array is a fake SAFEARRAY. Set the error fields to make the matching call
// fail.
type Array struct {
	Lower, Upper int32

	LowerErr, UpperErr, LockErr error

	Locks, Unlocks int

	data unsafe.Pointer
}

// Bytes returns a VT_ARRAY|VT_UI1 variant over data with the given lower
// bound.
func Bytes(lower int32, data []byte) (medqrng.Variant, *Array) {
	a := &Array{Lower: lower, Upper: lower + int32(len(data)) - 1}
	if len(data) > 0 {
		a.data = unsafe.Pointer(&data[0])
	}
	return medqrng.NewArray(medqrng.TagUI1, a), a
}

// Floats returns a VT_ARRAY|VT_R4 variant over data with the given lower
// bound.
func Floats(lower int32, data []float32) (medqrng.Variant, *Array) {
	a := &Array{Lower: lower, Upper: lower + int32(len(data)) - 1}
	if len(data) > 0 {
		a.data = unsafe.Pointer(&data[0])
	}
	return medqrng.NewArray(medqrng.TagR4, a), a
}

func (a *Array) LowerBound() (int32, error) { return a.Lower, a.LowerErr }

func (a *Array) UpperBound() (int32, error) { return a.Upper, a.UpperErr }

func (a *Array) Lock() (unsafe.Pointer, error) {
	if a.LockErr != nil {
		return nil, a.LockErr
	}
	a.Locks++
	return a.data, nil
}

func (a *Array) Unlock() { a.Unlocks++ }

// Balanced reports whether every lock was released.
func (a *Array) Balanced() bool { return a.Locks == a.Unlocks }

// String is a fake BSTR.
type String struct {
	units []uint16
}

// BSTR returns a VT_BSTR variant holding s.
func BSTR(s string) medqrng.Variant {
	return medqrng.NewString(&String{units: utf16.Encode([]rune(s))})
}

// RawBSTR returns a VT_BSTR variant holding arbitrary code units, including
// unpaired surrogates.
func RawBSTR(units ...uint16) medqrng.Variant {
	return medqrng.NewString(&String{units: units})
}

// NullBSTR returns a VT_BSTR variant with a null string pointer.
func NullBSTR() medqrng.Variant { return medqrng.NewString(nil) }

func (s *String) Len() int { return len(s.units) }

func (s *String) Data() *uint16 {
	if len(s.units) == 0 {
		return nil
	}
	return &s.units[0]
}
