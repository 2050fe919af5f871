//go:build windows

package medqrng

import (
	"errors"
	"math"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"
)

// go-ole keeps its SAFEARRAY helpers unexported, so the array handle calls
// oleaut32 directly.
var (
	modOleaut32               = windows.NewLazySystemDLL("oleaut32.dll")
	procSafeArrayGetLBound    = modOleaut32.NewProc("SafeArrayGetLBound")
	procSafeArrayGetUBound    = modOleaut32.NewProc("SafeArrayGetUBound")
	procSafeArrayAccessData   = modOleaut32.NewProc("SafeArrayAccessData")
	procSafeArrayUnaccessData = modOleaut32.NewProc("SafeArrayUnaccessData")
)

func defaultBackend() Backend { return comBackend{} }

type comBackend struct{}

func (comBackend) Initialize() error {
	err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED)
	if err == nil {
		return nil
	}
	// S_FALSE: already initialized on this thread, still needs one
	// CoUninitialize.
	var oleErr *ole.OleError
	if errors.As(err, &oleErr) && Status(oleErr.Code()) == StatusFalse {
		return nil
	}
	return err
}

func (comBackend) Uninitialize() { ole.CoUninitialize() }

func (comBackend) Create(clsid string) (Dispatcher, error) {
	guid := ole.NewGUID(clsid)
	if guid == nil {
		return nil, StatusInvalidArg
	}
	unknown, err := ole.CreateInstance(guid, ole.IID_IUnknown)
	if err != nil {
		return nil, err
	}
	defer unknown.Release()

	disp, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return nil, err
	}
	return &comDispatcher{disp: disp}, nil
}

// comDispatcher owns one IDispatch reference.
type comDispatcher struct {
	disp *ole.IDispatch
}

func (d *comDispatcher) IDOfName(name string) (int32, error) {
	return d.disp.GetSingleIDOfName(name)
}

func (d *comDispatcher) Invoke(id int32, kind InvokeKind, args []Variant) (Variant, error) {
	params := make([]interface{}, len(args))
	for i, a := range args {
		p, err := toParam(a)
		if err != nil {
			return Variant{}, err
		}
		params[i] = p
	}
	res, err := d.disp.Invoke(id, int16(kind), params...)
	if err != nil {
		if res != nil {
			_ = ole.VariantClear(res)
		}
		return Variant{}, err
	}
	return fromVariant(res), nil
}

func (d *comDispatcher) Release() {
	if d.disp != nil {
		d.disp.Release()
		d.disp = nil
	}
}

// toParam maps an argument to the Go type go-ole marshals to the same tag.
func toParam(v Variant) (interface{}, error) {
	switch v.tag {
	case TagI4:
		return int32(uint32(v.bits)), nil
	case TagR8:
		return math.Float64frombits(v.bits), nil
	case TagR4:
		return math.Float32frombits(uint32(v.bits)), nil
	case TagUI1:
		return uint8(v.bits), nil
	}
	return nil, StatusBadVarType
}

// fromVariant takes ownership of res. The returned variant's Release clears
// it.
func fromVariant(res *ole.VARIANT) Variant {
	tag := Tag(res.VT)
	var v Variant
	switch {
	case tag == TagBSTR:
		v = NewString(bstr{p: *(**uint16)(unsafe.Pointer(&res.Val))})
	case tag.IsArray():
		v = NewArray(tag.Elem(), safeArray{psa: *(**ole.SafeArray)(unsafe.Pointer(&res.Val))})
	default:
		v = NewRaw(tag, uint64(res.Val))
	}
	return v.WithRelease(func() { _ = ole.VariantClear(res) })
}

type bstr struct {
	p *uint16
}

func (b bstr) Len() int {
	if b.p == nil {
		return 0
	}
	return int(ole.SysStringLen((*int16)(unsafe.Pointer(b.p))))
}

func (b bstr) Data() *uint16 { return b.p }

type safeArray struct {
	psa *ole.SafeArray
}

func (a safeArray) LowerBound() (int32, error) {
	return a.bound(procSafeArrayGetLBound)
}

func (a safeArray) UpperBound() (int32, error) {
	return a.bound(procSafeArrayGetUBound)
}

func (a safeArray) bound(proc *windows.LazyProc) (int32, error) {
	if a.psa == nil {
		return 0, StatusInvalidArg
	}
	var b int32
	hr, _, _ := proc.Call(uintptr(unsafe.Pointer(a.psa)), 1, uintptr(unsafe.Pointer(&b)))
	if st := Status(hr); st.Failed() {
		return 0, st
	}
	return b, nil
}

func (a safeArray) Lock() (unsafe.Pointer, error) {
	if a.psa == nil {
		return nil, StatusInvalidArg
	}
	var data unsafe.Pointer
	hr, _, _ := procSafeArrayAccessData.Call(uintptr(unsafe.Pointer(a.psa)), uintptr(unsafe.Pointer(&data)))
	if st := Status(hr); st.Failed() {
		return nil, st
	}
	return data, nil
}

func (a safeArray) Unlock() {
	_, _, _ = procSafeArrayUnaccessData.Call(uintptr(unsafe.Pointer(a.psa)))
}
