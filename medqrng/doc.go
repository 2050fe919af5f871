// Package medqrng reads random data from a MED/ComScire quantum random number
// generator through the vendor's COM automation object (QWQNG). Every
// accessor resolves a member name on the object's IDispatch interface, invokes
// it, and converts the returned VARIANT into a Go value.
//
// The automation object lives in a single-threaded apartment. Open locks the
// calling goroutine to its OS thread, and the returned DeviceSession must only
// be used from that goroutine until Close. Driver calls block until the driver
// returns; there is no timeout.
//
//	s, err := medqrng.Open()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer s.Close()
//	buf, err := s.RandBytes(32)
package medqrng
