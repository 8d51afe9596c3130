package protocol

import (
	"fmt"
	"math"
)

// Temperatures travel as a single byte at half-degree resolution:
// the byte is twice the Celsius value.
const (
	// MinTemperature is the lowest Celsius value a temperature byte can carry
	MinTemperature = 0.0

	// MaxTemperature is the highest Celsius value a temperature byte can carry
	MaxTemperature = 127.5
)

// TemperatureToByte converts a Celsius value into its wire byte.
// The product is truncated toward zero, so 22.7 encodes as 45 (22.5°C).
// Values outside [MinTemperature, MaxTemperature] are clamped.
func TemperatureToByte(celsius float64) byte {
	v := int(celsius * 2)
	if v < 0 {
		return 0
	}
	if v > 0xFF {
		return 0xFF
	}
	return byte(v)
}

// TemperatureFromByte converts a wire byte into a Celsius value.
func TemperatureFromByte(b byte) float64 {
	t := float64(b >> 1)
	if b&1 == 1 {
		t += 0.5
	}
	return t
}

// CheckRange verifies that celsius lies inside the inclusive range described
// by the min and max wire bytes reported by the controller. NaN and the
// infinities are always out of range.
func CheckRange(zone Zone, celsius float64, minByte, maxByte byte) error {
	lo := TemperatureFromByte(minByte)
	hi := TemperatureFromByte(maxByte)
	if math.IsNaN(celsius) || math.IsInf(celsius, 0) || celsius < lo || celsius > hi {
		return &RangeError{Zone: zone, Value: celsius, Min: lo, Max: hi}
	}
	return nil
}

// FormatTemperature renders a wire byte as "22.5 °C"
func FormatTemperature(b byte) string {
	return fmt.Sprintf("%.1f °C", TemperatureFromByte(b))
}
