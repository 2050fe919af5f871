package medqrng

import (
	"fmt"
	"math"
	"unsafe"
)

// Tag is the VARTYPE discriminator of a Variant.
type Tag uint16

// VARTYPE values understood by the codec.
const (
	TagEmpty Tag = 0x0000
	TagI4    Tag = 0x0003 // 32-bit signed integer
	TagR4    Tag = 0x0004 // 32-bit float
	TagR8    Tag = 0x0005 // 64-bit float
	TagBSTR  Tag = 0x0008 // length-prefixed UTF-16 string
	TagUI1   Tag = 0x0011 // unsigned byte
	TagArray Tag = 0x2000 // SAFEARRAY flag, combined with an element tag
)

// IsArray reports whether the SAFEARRAY flag is set.
func (t Tag) IsArray() bool { return t&TagArray != 0 }

// Elem returns the tag with the array flag cleared.
func (t Tag) Elem() Tag { return t &^ TagArray }

func (t Tag) String() string {
	var name string
	switch t.Elem() {
	case TagEmpty:
		name = "VT_EMPTY"
	case TagI4:
		name = "VT_I4"
	case TagR4:
		name = "VT_R4"
	case TagR8:
		name = "VT_R8"
	case TagBSTR:
		name = "VT_BSTR"
	case TagUI1:
		name = "VT_UI1"
	default:
		name = fmt.Sprintf("VT(0x%X)", uint16(t.Elem()))
	}
	if t.IsArray() {
		return "VT_ARRAY|" + name
	}
	return name
}

// ArrayHandle is a one-dimensional SAFEARRAY owned by the driver.
//
// Lock pins the backing buffer and returns the address of the element at the
// lower bound. Every successful Lock is paired with exactly one Unlock.
type ArrayHandle interface {
	LowerBound() (int32, error)
	UpperBound() (int32, error)
	Lock() (unsafe.Pointer, error)
	Unlock()
}

// StringHandle is a BSTR owned by the driver. Data returns nil for a null
// string; Len is the length in UTF-16 code units.
type StringHandle interface {
	Len() int
	Data() *uint16
}

// Variant is a tagged value exchanged with the driver. Its payload is only
// readable through the Decode functions, which check the tag first.
type Variant struct {
	tag     Tag
	bits    uint64
	str     StringHandle
	arr     ArrayHandle
	release func()
}

// NewInt32 returns a VT_I4 variant.
func NewInt32(v int32) Variant {
	return Variant{tag: TagI4, bits: uint64(uint32(v))}
}

// Int32Arg builds the single integer argument passed to RandBytes and
// Diagnostics.
func Int32Arg(v int32) Variant { return NewInt32(v) }

// NewFloat64 returns a VT_R8 variant.
func NewFloat64(v float64) Variant {
	return Variant{tag: TagR8, bits: math.Float64bits(v)}
}

// NewFloat32 returns a VT_R4 variant.
func NewFloat32(v float32) Variant {
	return Variant{tag: TagR4, bits: uint64(math.Float32bits(v))}
}

// NewString returns a VT_BSTR variant. A nil handle is a null BSTR.
func NewString(h StringHandle) Variant {
	return Variant{tag: TagBSTR, str: h}
}

// NewArray returns a SAFEARRAY variant whose elements carry the elem tag.
func NewArray(elem Tag, h ArrayHandle) Variant {
	return Variant{tag: TagArray | elem.Elem(), arr: h}
}

// NewRaw returns a variant with an arbitrary tag and an 8-byte scalar payload.
// Backends use it for tags the codec has no constructor for.
func NewRaw(tag Tag, bits uint64) Variant {
	return Variant{tag: tag, bits: bits}
}

// Tag returns the variant's type tag.
func (v Variant) Tag() Tag { return v.tag }

// WithRelease returns a copy of v that runs fn on Release.
func (v Variant) WithRelease(fn func()) Variant {
	v.release = fn
	return v
}

// Release frees driver storage referenced by the variant. The variant and any
// handles it carries must not be used afterwards.
func (v Variant) Release() {
	if v.release != nil {
		v.release()
	}
}

func (v Variant) String() string {
	switch v.tag {
	case TagI4:
		return fmt.Sprintf("%s(%d)", v.tag, int32(uint32(v.bits)))
	case TagR8:
		return fmt.Sprintf("%s(%g)", v.tag, math.Float64frombits(v.bits))
	case TagR4:
		return fmt.Sprintf("%s(%g)", v.tag, math.Float32frombits(uint32(v.bits)))
	}
	return v.tag.String()
}
