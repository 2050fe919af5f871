package medqrngtest

import (
	"github.com/Thiagojm/medqrng_go/medqrng"
)

// Fixed values served by QNG.
const (
	Serial      = "QWR4A003"
	RandInt32   = int32(-123456789)
	RandUniform = 0.625
	RandNormal  = -1.5
)

// RuntimeInfo is the block served for RuntimeInfo.
var RuntimeInfo = []float32{1.5, 2.25, 0, 4096}

// Pattern returns n bytes counting up from seed.
func Pattern(seed byte, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + byte(i)
	}
	return b
}

// QNG returns a driver implementing every QWQNG member with deterministic
// data. RandBytes(n) serves Pattern(0, n) and Diagnostics(code) serves four
// bytes starting at code.
func QNG() *Driver {
	d := New()
	d.Return(medqrng.MemberRandInt32, medqrng.NewInt32(RandInt32))
	d.Return(medqrng.MemberRandUniform, medqrng.NewFloat64(RandUniform))
	d.Return(medqrng.MemberRandNormal, medqrng.NewFloat64(RandNormal))
	d.Return(medqrng.MemberDeviceID, BSTR(Serial))
	d.Handle(medqrng.MemberRuntimeInfo, func(medqrng.InvokeKind, []medqrng.Variant) (medqrng.Variant, error) {
		v, _ := Floats(0, append([]float32(nil), RuntimeInfo...))
		return v, nil
	})
	d.Handle(medqrng.MemberRandBytes, func(kind medqrng.InvokeKind, args []medqrng.Variant) (medqrng.Variant, error) {
		n, err := intArg(kind, medqrng.InvokePropertyGet, args)
		if err != nil {
			return medqrng.Variant{}, err
		}
		v, _ := Bytes(0, Pattern(0, int(n)))
		return v, nil
	})
	d.Handle(medqrng.MemberDiagnostics, func(kind medqrng.InvokeKind, args []medqrng.Variant) (medqrng.Variant, error) {
		code, err := intArg(kind, medqrng.InvokeMethod, args)
		if err != nil {
			return medqrng.Variant{}, err
		}
		v, _ := Bytes(0, Pattern(byte(code), 4))
		return v, nil
	})
	empty := func(kind medqrng.InvokeKind, _ []medqrng.Variant) (medqrng.Variant, error) {
		if kind != medqrng.InvokeMethod {
			return medqrng.Variant{}, medqrng.StatusMemberMissing
		}
		return medqrng.NewRaw(medqrng.TagEmpty, 0), nil
	}
	d.Handle(medqrng.MemberClear, empty)
	d.Handle(medqrng.MemberReset, empty)
	return d
}

// intArg checks the dispatch kind and returns the single VT_I4 argument.
func intArg(kind, want medqrng.InvokeKind, args []medqrng.Variant) (int32, error) {
	if kind != want {
		return 0, medqrng.StatusMemberMissing
	}
	if len(args) != 1 {
		return 0, medqrng.Status(0x8002000E) // DISP_E_BADPARAMCOUNT
	}
	n, err := medqrng.DecodeInt32(args[0])
	if err != nil || n < 0 {
		return 0, medqrng.StatusBadVarType
	}
	return n, nil
}
