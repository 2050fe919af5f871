//go:build !windows

package medqrng

import "errors"

var errNoCOM = errors.New("COM automation is only available on windows")

func defaultBackend() Backend { return unsupportedBackend{} }

// unsupportedBackend fails apartment entry, so Open reports
// ErrEnvironmentInit.
type unsupportedBackend struct{}

func (unsupportedBackend) Initialize() error { return errNoCOM }

func (unsupportedBackend) Uninitialize() {}

func (unsupportedBackend) Create(string) (Dispatcher, error) { return nil, errNoCOM }
