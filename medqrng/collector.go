package medqrng

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ReadBits reads bitCount bits from the device and returns them packed
// MSB-first. Unused trailing bits of the final byte are zero.
func (s *DeviceSession) ReadBits(bitCount int) ([]byte, error) {
	if bitCount <= 0 {
		return nil, errors.New("bitCount must be positive")
	}
	byteCount := (bitCount + 7) / 8
	if byteCount > math.MaxInt32 {
		return nil, errors.New("bitCount exceeds a single RandBytes request")
	}
	data, err := s.RandBytes(int32(byteCount))
	if err != nil {
		return nil, err
	}
	if len(data) != byteCount {
		return nil, fmt.Errorf("%s returned %d bytes, want %d", MemberRandBytes, len(data), byteCount)
	}
	extraBits := (8 - (bitCount % 8)) % 8
	if extraBits != 0 && len(data) > 0 {
		data[len(data)-1] &= byte(0xFF << extraBits)
	}
	return data, nil
}

// CollectBitsAtInterval reads bitCount bits immediately and then once per
// interval, passing each batch to onBatch. It runs on the calling goroutine
// and returns ctx.Err() on cancellation or the first read error.
//
// A read already in progress is not interrupted by cancellation.
func (s *DeviceSession) CollectBitsAtInterval(ctx context.Context, bitCount int, interval time.Duration, onBatch func([]byte)) error {
	if bitCount <= 0 {
		return errors.New("bitCount must be positive")
	}
	if interval <= 0 {
		return errors.New("interval must be positive")
	}
	if onBatch == nil {
		return errors.New("onBatch callback must not be nil")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		b, err := s.ReadBits(bitCount)
		if err != nil {
			return err
		}
		onBatch(b)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
