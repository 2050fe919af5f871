package medqrng

import (
	"runtime"

	"go.uber.org/zap"
)

// CLSID is the class identifier registered by the QWQNG driver.
const CLSID = "{D7A1BFCF-9A30-45AF-A5E4-2CAF0A344938}"

// Backend enters and leaves the COM apartment and creates automation
// objects. The default backend uses go-ole on Windows.
type Backend interface {
	// Initialize enters a single-threaded apartment on the calling thread.
	Initialize() error
	// Uninitialize leaves the apartment entered by a successful Initialize.
	Uninitialize()
	// Create instantiates clsid and returns its IDispatch interface.
	Create(clsid string) (Dispatcher, error)
}

type options struct {
	backend Backend
	clsid   string
	log     *zap.Logger
}

// Option configures Open.
type Option func(*options)

// WithBackend replaces the platform COM backend.
func WithBackend(b Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithCLSID overrides the class identifier passed to the backend.
func WithCLSID(clsid string) Option {
	return func(o *options) { o.clsid = clsid }
}

// WithLogger sets the session logger. Sessions log at debug level only.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// DeviceSession owns one automation object and the apartment it lives in.
// It is not safe for concurrent use; call it only from the goroutine that
// called Open.
type DeviceSession struct {
	backend Backend
	disp    Dispatcher
	inv     *Invoker
	log     *zap.Logger
	closed  bool
}

// Open enters the apartment and creates the QWQNG object. If creation fails
// the apartment is left before returning.
func Open(opts ...Option) (*DeviceSession, error) {
	o := options{backend: defaultBackend(), clsid: CLSID, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	// STA objects are bound to the thread that created them.
	runtime.LockOSThread()
	if err := o.backend.Initialize(); err != nil {
		runtime.UnlockOSThread()
		o.log.Debug("apartment entry failed", zap.Error(err))
		return nil, driverError(ErrEnvironmentInit, "", err)
	}
	o.log.Debug("apartment entered")

	disp, err := o.backend.Create(o.clsid)
	if err != nil {
		o.backend.Uninitialize()
		runtime.UnlockOSThread()
		o.log.Debug("device create failed", zap.String("clsid", o.clsid), zap.Error(err))
		e := driverError(ErrDeviceCreate, "", err)
		e.Detail = o.clsid
		return nil, e
	}
	o.log.Debug("device created", zap.String("clsid", o.clsid))

	return &DeviceSession{
		backend: o.backend,
		disp:    disp,
		inv:     NewInvoker(disp, o.log),
		log:     o.log,
	}, nil
}

// Close releases the automation object and leaves the apartment. Calls after
// the first are no-ops.
func (s *DeviceSession) Close() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	s.disp.Release()
	s.backend.Uninitialize()
	runtime.UnlockOSThread()
	s.log.Debug("session closed")
}

// Invoker exposes the session's late-bound call path.
func (s *DeviceSession) Invoker() *Invoker { return s.inv }

func (s *DeviceSession) check(member string) error {
	if s.closed {
		return &Error{Kind: ErrSessionClosed, Member: member}
	}
	return nil
}
