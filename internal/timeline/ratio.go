package timeline

import "math"

const (
	// StretchThreshold is the relative length difference below which a clip
	// is left untouched.
	StretchThreshold = 0.05
	// MaxRatio is the largest speed-up applied as computed; anything above
	// it is replaced by ClampedRatio.
	MaxRatio     = 1.5
	ClampedRatio = 1.27

	ratioEpsilon = 1e-9
)

// StretchRatio returns the tempo factor that fits an originalMs clip into a
// targetMs slot and whether it should be applied. Ratios above MaxRatio are
// clamped to ClampedRatio rather than compressed further.
func StretchRatio(originalMs, targetMs int) (float64, bool) {
	if originalMs <= 0 || targetMs <= 0 {
		return 1, false
	}
	ratio := float64(originalMs) / float64(targetMs)
	if ratio > MaxRatio {
		return ClampedRatio, true
	}
	if math.Abs(1-ratio) > StretchThreshold+ratioEpsilon {
		return ratio, true
	}
	return ratio, false
}
