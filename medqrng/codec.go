package medqrng

import (
	"math"
	"unsafe"

	"golang.org/x/text/encoding/unicode"
)

// Value is a decoded variant. The concrete types are Int32Value,
// Float64Value, Float32Value, StringValue, BytesValue, Float32sValue and
// EmptyValue.
type Value interface {
	Tag() Tag
	isValue()
}

type (
	Int32Value    int32
	Float64Value  float64
	Float32Value  float32
	StringValue   string
	BytesValue    []byte
	Float32sValue []float32
	EmptyValue    struct{}
)

func (Int32Value) Tag() Tag    { return TagI4 }
func (Float64Value) Tag() Tag  { return TagR8 }
func (Float32Value) Tag() Tag  { return TagR4 }
func (StringValue) Tag() Tag   { return TagBSTR }
func (BytesValue) Tag() Tag    { return TagArray | TagUI1 }
func (Float32sValue) Tag() Tag { return TagArray | TagR4 }
func (EmptyValue) Tag() Tag    { return TagEmpty }

func (Int32Value) isValue()    {}
func (Float64Value) isValue()  {}
func (Float32Value) isValue()  {}
func (StringValue) isValue()   {}
func (BytesValue) isValue()    {}
func (Float32sValue) isValue() {}
func (EmptyValue) isValue()    {}

// Decode converts v into the Value matching its tag.
func Decode(v Variant) (Value, error) {
	switch v.tag {
	case TagEmpty:
		return EmptyValue{}, nil
	case TagI4:
		n, err := DecodeInt32(v)
		return Int32Value(n), err
	case TagR8:
		f, err := DecodeFloat64(v)
		return Float64Value(f), err
	case TagR4:
		f, err := DecodeFloat32(v)
		return Float32Value(f), err
	case TagBSTR:
		s, err := DecodeString(v)
		return StringValue(s), err
	case TagArray | TagUI1:
		b, err := DecodeBytes(v)
		if err != nil {
			return nil, err
		}
		return BytesValue(b), nil
	case TagArray | TagR4:
		f, err := DecodeFloat32s(v)
		if err != nil {
			return nil, err
		}
		return Float32sValue(f), nil
	}
	return nil, &Error{Kind: ErrUnexpectedType, Detail: "unsupported " + v.tag.String()}
}

// DecodeInt32 reads a VT_I4 variant.
func DecodeInt32(v Variant) (int32, error) {
	if err := expect(v, TagI4); err != nil {
		return 0, err
	}
	return int32(uint32(v.bits)), nil
}

// DecodeFloat64 reads a VT_R8 variant.
func DecodeFloat64(v Variant) (float64, error) {
	if err := expect(v, TagR8); err != nil {
		return 0, err
	}
	return math.Float64frombits(v.bits), nil
}

// DecodeFloat32 reads a VT_R4 variant.
func DecodeFloat32(v Variant) (float32, error) {
	if err := expect(v, TagR4); err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v.bits)), nil
}

// DecodeBytes copies a VT_ARRAY|VT_UI1 variant.
func DecodeBytes(v Variant) ([]byte, error) {
	return copyArray[byte](v, TagUI1)
}

// DecodeFloat32s copies a VT_ARRAY|VT_R4 variant.
func DecodeFloat32s(v Variant) ([]float32, error) {
	return copyArray[float32](v, TagR4)
}

// DecodeString copies a VT_BSTR variant. A null BSTR decodes to "". Invalid
// UTF-16 is replaced with U+FFFD rather than failing.
func DecodeString(v Variant) (string, error) {
	if err := expect(v, TagBSTR); err != nil {
		return "", err
	}
	if v.str == nil {
		return "", nil
	}
	p := v.str.Data()
	n := v.str.Len()
	if p == nil || n <= 0 {
		return "", nil
	}
	// BSTRs are little-endian UTF-16 on every Windows target.
	raw := unsafe.Slice((*byte)(unsafe.Pointer(p)), 2*n)
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
	if err != nil {
		return "", &Error{Kind: ErrUnexpectedType, Detail: "decoding BSTR", Err: err}
	}
	return string(out), nil
}

func expect(v Variant, want Tag) error {
	if v.tag != want {
		return &Error{Kind: ErrUnexpectedType, Detail: "got " + v.tag.String() + ", want " + want.String()}
	}
	return nil
}

// copyArray copies a locked SAFEARRAY into a fresh slice. The lock is held
// only for the copy.
func copyArray[T byte | float32](v Variant, elem Tag) ([]T, error) {
	if err := expect(v, TagArray|elem); err != nil {
		return nil, err
	}
	if v.arr == nil {
		return nil, &Error{Kind: ErrBoundsQuery, Detail: "nil SAFEARRAY"}
	}
	lower, err := v.arr.LowerBound()
	if err != nil {
		return nil, &Error{Kind: ErrBoundsQuery, Detail: "lower bound", Status: statusOf(err), Err: err}
	}
	upper, err := v.arr.UpperBound()
	if err != nil {
		return nil, &Error{Kind: ErrBoundsQuery, Detail: "upper bound", Status: statusOf(err), Err: err}
	}
	count := int64(upper) - int64(lower) + 1
	if count < 0 {
		return nil, &Error{Kind: ErrBoundsQuery, Detail: "upper bound below lower bound"}
	}
	return lockAndCopy[T](v.arr, int(count))
}

func lockAndCopy[T byte | float32](h ArrayHandle, count int) ([]T, error) {
	p, err := h.Lock()
	if err != nil {
		return nil, &Error{Kind: ErrArrayLock, Status: statusOf(err), Err: err}
	}
	defer h.Unlock()

	out := make([]T, count)
	if count == 0 {
		return out, nil
	}
	if p == nil {
		return nil, &Error{Kind: ErrArrayLock, Detail: "nil data pointer"}
	}
	copy(out, unsafe.Slice((*T)(p), count))
	return out, nil
}
