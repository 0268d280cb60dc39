package mecom

import (
	"math"
	"testing"
)

func TestCRC16(t *testing.T) {
	// CRC-CCITT with zero seed over the standard check string.
	if got := crc16([]byte("123456789")); got != 0x31C3 {
		t.Errorf("crc16 = %04X, want 31C3", got)
	}
	if got := crc16(nil); got != 0 {
		t.Errorf("crc16(empty) = %04X, want 0000", got)
	}
}

func TestParseFloat32Hex(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    float64
		wantErr bool
	}{
		{name: "25 celsius", payload: "41C80000", want: 25.0},
		{name: "negative", payload: "C1200000", want: -10.0},
		{name: "zero", payload: "00000000", want: 0},
		{name: "too short", payload: "41C8", wantErr: true},
		{name: "not hex", payload: "41C8ZZ00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFloat32Hex(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFloat32Hex(%q) error = %v, wantErr %v", tt.payload, err, tt.wantErr)
			}
			if err == nil && math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("parseFloat32Hex(%q) = %v, want %v", tt.payload, got, tt.want)
			}
		})
	}
}
