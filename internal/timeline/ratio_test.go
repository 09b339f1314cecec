package timeline

import (
	"math"
	"testing"
)

func TestStretchRatio(t *testing.T) {
	tests := []struct {
		name       string
		original   int
		target     int
		wantRatio  float64
		wantApply  bool
		checkRatio bool
	}{
		{"clamped above cap", 2000, 1000, ClampedRatio, true, true},
		{"exactly threshold", 1050, 1000, 1.05, false, true},
		{"just above threshold", 1060, 1000, 1.06, true, true},
		{"slower than slot", 900, 1000, 0.9, true, true},
		{"within slack below", 960, 1000, 0.96, false, true},
		{"exact cap not clamped", 1500, 1000, 1.5, true, true},
		{"zero target", 1000, 0, 1, false, true},
		{"zero original", 0, 1000, 1, false, true},
		{"negative target", 1000, -5, 1, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratio, apply := StretchRatio(tt.original, tt.target)
			if apply != tt.wantApply {
				t.Fatalf("apply = %v want %v (ratio %v)", apply, tt.wantApply, ratio)
			}
			if tt.checkRatio && math.Abs(ratio-tt.wantRatio) > 1e-9 {
				t.Fatalf("ratio = %v want %v", ratio, tt.wantRatio)
			}
		})
	}
}
