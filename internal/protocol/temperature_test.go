package protocol

import (
	"errors"
	"math"
	"testing"
)

func TestTemperatureByteRoundTrip(t *testing.T) {
	for i := 0; i <= 0xFF; i++ {
		b := byte(i)
		if got := TemperatureToByte(TemperatureFromByte(b)); got != b {
			t.Errorf("TemperatureToByte(TemperatureFromByte(%d)) = %d", b, got)
		}
	}
}

func TestTemperatureHalfDegreeRoundTrip(t *testing.T) {
	for i := 0; i <= 0xFF; i++ {
		c := float64(i) / 2
		if got := TemperatureFromByte(TemperatureToByte(c)); got != c {
			t.Errorf("TemperatureFromByte(TemperatureToByte(%.1f)) = %.1f", c, got)
		}
	}
}

func TestTemperatureToByte(t *testing.T) {
	tests := []struct {
		name    string
		celsius float64
		want    byte
	}{
		{"zero", 0, 0},
		{"half degree", 22.5, 45},
		{"whole degree", 60, 120},
		{"truncates down", 22.7, 45},
		{"truncates just below half", 22.4, 44},
		{"max", 127.5, 255},
		{"clamps negative", -3, 0},
		{"clamps high", 200, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TemperatureToByte(tt.celsius); got != tt.want {
				t.Errorf("TemperatureToByte(%v) = %d, want %d", tt.celsius, got, tt.want)
			}
		})
	}
}

func TestTemperatureFromByte(t *testing.T) {
	tests := []struct {
		b    byte
		want float64
	}{
		{0, 0},
		{1, 0.5},
		{44, 22},
		{45, 22.5},
		{255, 127.5},
	}

	for _, tt := range tests {
		if got := TemperatureFromByte(tt.b); got != tt.want {
			t.Errorf("TemperatureFromByte(%d) = %v, want %v", tt.b, got, tt.want)
		}
	}
}

func TestCheckRange(t *testing.T) {
	// 5.0 to 30.0 °C
	const lo, hi = 10, 60

	tests := []struct {
		name    string
		celsius float64
		wantErr bool
	}{
		{"inside", 22.5, false},
		{"lower bound inclusive", 5, false},
		{"upper bound inclusive", 30, false},
		{"below", 4.5, true},
		{"above", 35, true},
		{"NaN", math.NaN(), true},
		{"positive infinity", math.Inf(1), true},
		{"negative infinity", math.Inf(-1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRange(ZoneRoom, tt.celsius, lo, hi)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckRange(%v) error = %v, wantErr %v", tt.celsius, err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, ErrOutOfRange) {
				t.Errorf("error %v should wrap ErrOutOfRange", err)
			}
			var rangeErr *RangeError
			if !errors.As(err, &rangeErr) {
				t.Fatalf("error should be *RangeError, got %T", err)
			}
			if rangeErr.Min != 5 || rangeErr.Max != 30 {
				t.Errorf("range = [%v, %v], want [5, 30]", rangeErr.Min, rangeErr.Max)
			}
		})
	}
}
