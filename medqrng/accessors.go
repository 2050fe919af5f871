package medqrng

// Automation member names registered by the QWQNG type library.
const (
	MemberRandInt32   = "RandInt32"
	MemberRandUniform = "RandUniform"
	MemberRandNormal  = "RandNormal"
	MemberRandBytes   = "RandBytes"
	MemberDeviceID    = "DeviceId"
	MemberRuntimeInfo = "RuntimeInfo"
	MemberDiagnostics = "Diagnostics"
	MemberClear       = "Clear"
	MemberReset       = "Reset"
)

// RandInt32 returns a random 32-bit integer.
func (s *DeviceSession) RandInt32() (int32, error) {
	return get(s, MemberRandInt32, InvokePropertyGet, DecodeInt32)
}

// RandUniform returns a uniform random double in [0,1).
func (s *DeviceSession) RandUniform() (float64, error) {
	return get(s, MemberRandUniform, InvokePropertyGet, DecodeFloat64)
}

// RandNormal returns a standard normal random double.
func (s *DeviceSession) RandNormal() (float64, error) {
	return get(s, MemberRandNormal, InvokePropertyGet, DecodeFloat64)
}

// RandBytes returns length random bytes.
func (s *DeviceSession) RandBytes(length int32) ([]byte, error) {
	return get(s, MemberRandBytes, InvokePropertyGet, DecodeBytes, Int32Arg(length))
}

// DeviceID returns the device serial number.
func (s *DeviceSession) DeviceID() (string, error) {
	return get(s, MemberDeviceID, InvokePropertyGet, DecodeString)
}

// RuntimeInfo returns the driver's runtime statistics block.
func (s *DeviceSession) RuntimeInfo() ([]float32, error) {
	return get(s, MemberRuntimeInfo, InvokePropertyGet, DecodeFloat32s)
}

// Diagnostics runs diagnostic code on the device and returns its raw output.
// Unlike the other accessors it is dispatched as a method.
func (s *DeviceSession) Diagnostics(code int32) ([]byte, error) {
	return get(s, MemberDiagnostics, InvokeMethod, DecodeBytes, Int32Arg(code))
}

// Clear discards the driver's buffered random data.
func (s *DeviceSession) Clear() error {
	return s.call(MemberClear)
}

// Reset resets the device.
func (s *DeviceSession) Reset() error {
	return s.call(MemberReset)
}

func (s *DeviceSession) call(member string) error {
	_, err := get(s, member, InvokeMethod, func(Variant) (struct{}, error) {
		return struct{}{}, nil
	})
	return err
}

// get performs one dispatch and decodes the result. The result variant is
// released after decoding whether or not the decode succeeded.
func get[T any](s *DeviceSession, member string, kind InvokeKind, decode func(Variant) (T, error), args ...Variant) (T, error) {
	var zero T
	if err := s.check(member); err != nil {
		return zero, err
	}
	res, err := s.inv.invoke(member, kind, args)
	if err != nil {
		return zero, err
	}
	defer res.Release()

	out, err := decode(res)
	if err != nil {
		return zero, withMember(err, member)
	}
	return out, nil
}
