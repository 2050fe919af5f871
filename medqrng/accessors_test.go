package medqrng_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Thiagojm/medqrng_go/medqrng"
	"github.com/Thiagojm/medqrng_go/medqrng/medqrngtest"
)

func open(t *testing.T, d *medqrngtest.Driver) *medqrng.DeviceSession {
	t.Helper()
	s, err := medqrng.Open(medqrng.WithBackend(d))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestAccessors(t *testing.T) {
	d := medqrngtest.QNG()
	s := open(t, d)

	n, err := s.RandInt32()
	if err != nil || n != medqrngtest.RandInt32 {
		t.Fatalf("RandInt32 = %d, %v", n, err)
	}
	u, err := s.RandUniform()
	if err != nil || u != medqrngtest.RandUniform {
		t.Fatalf("RandUniform = %g, %v", u, err)
	}
	g, err := s.RandNormal()
	if err != nil || g != medqrngtest.RandNormal {
		t.Fatalf("RandNormal = %g, %v", g, err)
	}
	b, err := s.RandBytes(16)
	if err != nil || !reflect.DeepEqual(b, medqrngtest.Pattern(0, 16)) {
		t.Fatalf("RandBytes = %v, %v", b, err)
	}
	id, err := s.DeviceID()
	if err != nil || id != medqrngtest.Serial {
		t.Fatalf("DeviceID = %q, %v", id, err)
	}
	info, err := s.RuntimeInfo()
	if err != nil || !reflect.DeepEqual(info, medqrngtest.RuntimeInfo) {
		t.Fatalf("RuntimeInfo = %v, %v", info, err)
	}
	dx, err := s.Diagnostics(0x15)
	if err != nil || !reflect.DeepEqual(dx, medqrngtest.Pattern(0x15, 4)) {
		t.Fatalf("Diagnostics = %v, %v", dx, err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if d.Cleared != len(d.Calls) {
		t.Fatalf("released %d of %d results", d.Cleared, len(d.Calls))
	}
}

func TestAccessorDispatchKinds(t *testing.T) {
	d := medqrngtest.QNG()
	s := open(t, d)

	if _, err := s.RandBytes(3); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Diagnostics(7); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}

	want := []struct {
		member string
		kind   medqrng.InvokeKind
		arg    int32
		nargs  int
	}{
		{medqrng.MemberRandBytes, medqrng.InvokePropertyGet, 3, 1},
		{medqrng.MemberDiagnostics, medqrng.InvokeMethod, 7, 1},
		{medqrng.MemberClear, medqrng.InvokeMethod, 0, 0},
	}
	if len(d.Calls) != len(want) {
		t.Fatalf("calls = %d, want %d", len(d.Calls), len(want))
	}
	for i, w := range want {
		c := d.Calls[i]
		if c.Member != w.member || c.Kind != w.kind || len(c.Args) != w.nargs {
			t.Fatalf("call %d = %s %v %d args, want %s %v %d args", i, c.Member, c.Kind, len(c.Args), w.member, w.kind, w.nargs)
		}
		if w.nargs == 0 {
			continue
		}
		if c.Args[0].Tag() != medqrng.TagI4 {
			t.Fatalf("call %d arg tag = %v, want VT_I4", i, c.Args[0].Tag())
		}
		if got, _ := medqrng.DecodeInt32(c.Args[0]); got != w.arg {
			t.Fatalf("call %d arg = %d, want %d", i, got, w.arg)
		}
	}
}

func TestRandBytesTenFromDriverBuffer(t *testing.T) {
	data := []byte{0x3A, 0x01, 0xFF, 0x80, 0x00, 0x7E, 0x42, 0x99, 0x10, 0xC3}
	var arr *medqrngtest.Array
	d := medqrngtest.New()
	d.Handle(medqrng.MemberRandBytes, func(medqrng.InvokeKind, []medqrng.Variant) (medqrng.Variant, error) {
		var v medqrng.Variant
		v, arr = medqrngtest.Bytes(0, data)
		return v, nil
	})
	s := open(t, d)

	got, err := s.RandBytes(10)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	if arr.Lower != 0 || arr.Upper != 9 {
		t.Fatalf("bounds = [%d,%d], want [0,9]", arr.Lower, arr.Upper)
	}
	if !reflect.DeepEqual(got, data) {
		t.Fatalf("got %x, want %x", got, data)
	}
	if arr.Locks != 1 || arr.Unlocks != 1 {
		t.Fatalf("locks/unlocks = %d/%d, want 1/1", arr.Locks, arr.Unlocks)
	}
}

func TestDeviceIDNullString(t *testing.T) {
	d := medqrngtest.New()
	d.Return(medqrng.MemberDeviceID, medqrngtest.NullBSTR())
	s := open(t, d)

	id, err := s.DeviceID()
	if err != nil {
		t.Fatalf("DeviceID: %v", err)
	}
	if id != "" {
		t.Fatalf("DeviceID = %q, want empty", id)
	}
}

func TestRandInt32UnexpectedType(t *testing.T) {
	d := medqrngtest.New()
	d.Return(medqrng.MemberRandInt32, medqrng.NewFloat64(0.5))
	s := open(t, d)

	_, err := s.RandInt32()
	if !errors.Is(err, medqrng.ErrUnexpectedType) {
		t.Fatalf("err = %v, want ErrUnexpectedType", err)
	}
	var e *medqrng.Error
	if !errors.As(err, &e) || e.Member != medqrng.MemberRandInt32 {
		t.Fatalf("err = %v, want member %s", err, medqrng.MemberRandInt32)
	}
	if d.Cleared != 1 {
		t.Fatalf("result released %d times, want 1", d.Cleared)
	}
}

func TestMemberNotFound(t *testing.T) {
	d := medqrngtest.New()
	s := open(t, d)

	_, err := s.RandUniform()
	if !errors.Is(err, medqrng.ErrMemberNotFound) {
		t.Fatalf("err = %v, want ErrMemberNotFound", err)
	}
	var e *medqrng.Error
	if !errors.As(err, &e) {
		t.Fatalf("err is %T", err)
	}
	if e.Member != medqrng.MemberRandUniform || e.Status != medqrng.StatusUnknownName {
		t.Fatalf("member=%q status=%v", e.Member, e.Status)
	}
	if len(d.Calls) != 0 {
		t.Fatalf("invoked %d times after failed resolve", len(d.Calls))
	}
}

func TestInvokeFailed(t *testing.T) {
	d := medqrngtest.New()
	d.Fail(medqrng.MemberReset, medqrng.StatusFail)
	s := open(t, d)

	err := s.Reset()
	if !errors.Is(err, medqrng.ErrInvoke) {
		t.Fatalf("err = %v, want ErrInvoke", err)
	}
	var e *medqrng.Error
	if !errors.As(err, &e) || e.Member != medqrng.MemberReset || e.Status != medqrng.StatusFail {
		t.Fatalf("err = %v", err)
	}
	want := "medqrng: Reset: invoke failed: 0x80004005"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestArrayLockReleasedOnAccessorFailure(t *testing.T) {
	var arr *medqrngtest.Array
	d := medqrngtest.New()
	d.Handle(medqrng.MemberRuntimeInfo, func(medqrng.InvokeKind, []medqrng.Variant) (medqrng.Variant, error) {
		var v medqrng.Variant
		v, arr = medqrngtest.Floats(0, nil)
		arr.Upper = 8
		return v, nil
	})
	s := open(t, d)

	if _, err := s.RuntimeInfo(); !errors.Is(err, medqrng.ErrArrayLock) {
		t.Fatalf("err = %v, want ErrArrayLock", err)
	}
	if arr.Locks != 1 || arr.Unlocks != 1 {
		t.Fatalf("locks/unlocks = %d/%d, want 1/1", arr.Locks, arr.Unlocks)
	}
}

func TestInvokerGeneralPath(t *testing.T) {
	d := medqrngtest.New()
	d.Handle("Sum", func(_ medqrng.InvokeKind, args []medqrng.Variant) (medqrng.Variant, error) {
		var total int32
		for _, a := range args {
			n, err := medqrng.DecodeInt32(a)
			if err != nil {
				return medqrng.Variant{}, medqrng.StatusBadVarType
			}
			total += n
		}
		return medqrng.NewInt32(total), nil
	})
	s := open(t, d)
	inv := s.Invoker()

	id, err := inv.Resolve("Sum")
	if err != nil || id != 1 {
		t.Fatalf("Resolve = %d, %v", id, err)
	}
	v, err := inv.CallMethod("Sum", medqrng.Int32Arg(2), medqrng.Int32Arg(3), medqrng.Int32Arg(4))
	if err != nil {
		t.Fatalf("CallMethod: %v", err)
	}
	defer v.Release()
	if got, err := medqrng.DecodeInt32(v); err != nil || got != 9 {
		t.Fatalf("Sum = %d, %v", got, err)
	}

	_, err = inv.GetProperty("Sum", medqrng.NewFloat64(1))
	if !errors.Is(err, medqrng.ErrInvoke) || !errors.Is(err, medqrng.StatusBadVarType) {
		t.Fatalf("err = %v, want ErrInvoke wrapping DISP_E_BADVARTYPE", err)
	}
}
