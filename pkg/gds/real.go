package gds

import (
	"encoding/binary"
	"math"

	"github.com/arthur-debert/gdsmerge/pkg/errors"
)

const mantissaBits = 56

// DecodeReal8 converts an 8-byte GDSII real (sign bit, excess-64 base-16
// exponent, 56-bit mantissa) to a float64.
func DecodeReal8(b []byte) float64 {
	bits := binary.BigEndian.Uint64(b)
	mantissa := bits & (1<<mantissaBits - 1)
	if mantissa == 0 {
		return 0
	}
	exp := int((bits>>mantissaBits)&0x7F) - 64
	v := float64(mantissa) / (1 << mantissaBits) * math.Pow(16, float64(exp))
	if bits>>63 != 0 {
		v = -v
	}
	return v
}

// EncodeReal8 converts a float64 to an 8-byte GDSII real.
func EncodeReal8(v float64) ([]byte, error) {
	out := make([]byte, 8)
	if v == 0 {
		return out, nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, errors.Newf(errors.ErrInvalidInput, "cannot encode %v as a GDSII real", v)
	}
	orig := v
	var sign uint64
	if v < 0 {
		sign = 1
		v = -v
	}
	exp := 64
	for v >= 1 {
		v /= 16
		exp++
	}
	for v < 1.0/16 {
		v *= 16
		exp--
	}
	mantissa := uint64(math.Round(v * (1 << mantissaBits)))
	if mantissa >= 1<<mantissaBits {
		mantissa >>= 4
		exp++
	}
	if exp < 0 || exp > 0x7F {
		return nil, errors.Newf(errors.ErrInvalidInput, "%g is out of range for a GDSII real", orig)
	}
	binary.BigEndian.PutUint64(out, sign<<63|uint64(exp)<<mantissaBits|mantissa)
	return out, nil
}
