package sample

import "github.com/itohio/goohm/pkg/ohm"

// Downsample decimates readings to at most maxPoints for display.
// Destination-based: reuses dst when it has the capacity, otherwise
// allocates. Returns the destination slice. When len(readings) <= maxPoints
// it copies everything through unchanged.
func Downsample(dst []ohm.Reading, readings []ohm.Reading, maxPoints int) []ohm.Reading {
	if len(readings) <= maxPoints {
		if cap(dst) >= len(readings) {
			dst = dst[:len(readings)]
			copy(dst, readings)
			return dst
		}
		result := make([]ohm.Reading, len(readings))
		copy(result, readings)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]ohm.Reading, 0, maxPoints)
	}

	// Simple decimation at a fractional stride
	step := float64(len(readings)) / float64(maxPoints)
	for i := range maxPoints {
		idx := int(float64(i) * step)
		if idx < len(readings) {
			dst = append(dst, readings[idx])
		}
	}

	return dst
}
