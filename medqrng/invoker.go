package medqrng

import (
	"go.uber.org/zap"
)

// MemberID is a DISPID returned by name resolution.
type MemberID int32

// InvokeKind selects the IDispatch::Invoke flags.
type InvokeKind uint16

const (
	InvokeMethod      InvokeKind = 0x1 // DISPATCH_METHOD
	InvokePropertyGet InvokeKind = 0x2 // DISPATCH_PROPERTYGET
)

func (k InvokeKind) String() string {
	switch k {
	case InvokeMethod:
		return "method"
	case InvokePropertyGet:
		return "propget"
	}
	return "invoke"
}

// Dispatcher is the late-bound surface of an automation object.
//
// Invoke receives args in declaration order; reversing them into COM's
// right-to-left rgvarg layout is the backend's job. Release drops the
// reference the dispatcher owns and is called exactly once.
type Dispatcher interface {
	IDOfName(name string) (int32, error)
	Invoke(id int32, kind InvokeKind, args []Variant) (Variant, error)
	Release()
}

// Invoker resolves member names and dispatches calls. Names are resolved on
// every call.
type Invoker struct {
	disp Dispatcher
	log  *zap.Logger
}

// NewInvoker wraps d. A nil logger disables logging.
func NewInvoker(d Dispatcher, log *zap.Logger) *Invoker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Invoker{disp: d, log: log}
}

// Resolve maps name to its DISPID.
func (in *Invoker) Resolve(name string) (MemberID, error) {
	id, err := in.disp.IDOfName(name)
	if err != nil {
		in.log.Debug("resolve failed", zap.String("member", name), zap.Error(err))
		return 0, driverError(ErrMemberNotFound, name, err)
	}
	return MemberID(id), nil
}

// GetProperty reads property name with optional indexed arguments.
func (in *Invoker) GetProperty(name string, args ...Variant) (Variant, error) {
	return in.invoke(name, InvokePropertyGet, args)
}

// CallMethod calls method name.
func (in *Invoker) CallMethod(name string, args ...Variant) (Variant, error) {
	return in.invoke(name, InvokeMethod, args)
}

func (in *Invoker) invoke(name string, kind InvokeKind, args []Variant) (Variant, error) {
	id, err := in.Resolve(name)
	if err != nil {
		return Variant{}, err
	}
	res, err := in.disp.Invoke(int32(id), kind, args)
	if err != nil {
		in.log.Debug("invoke failed",
			zap.String("member", name),
			zap.Int32("dispid", int32(id)),
			zap.Stringer("kind", kind),
			zap.Error(err))
		res.Release()
		return Variant{}, driverError(ErrInvoke, name, err)
	}
	in.log.Debug("invoke",
		zap.String("member", name),
		zap.Int32("dispid", int32(id)),
		zap.Stringer("kind", kind),
		zap.Int("args", len(args)),
		zap.Stringer("result", res.Tag()))
	return res, nil
}
