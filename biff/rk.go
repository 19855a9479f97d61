package biff

import "math"

// DecodeRK decodes a 32-bit RK-packed number (spec §4.5.2): bit 1
// selects integer vs IEEE-754-fraction encoding, bit 0 selects a
// /100 scale factor applied after decoding.
func DecodeRK(rk uint32) float64 {
	isInt := rk&0x02 != 0
	is100 := rk&0x01 != 0
	var v float64
	if isInt {
		v = float64(int32(rk) >> 2)
	} else {
		bits := uint64(rk) &^ 0x3
		v = math.Float64frombits(bits << 32)
	}
	if is100 {
		v /= 100
	}
	return v
}
