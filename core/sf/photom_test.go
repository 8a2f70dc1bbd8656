package sf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMagErrAtLimitingDepth checks the defining property of the model:
// a source exactly at the five-sigma depth has a ~0.2 mag uncertainty.
func TestMagErrAtLimitingDepth(t *testing.T) {
	for _, band := range []string{"u", "g", "r", "i", "z", "y"} {
		got := MagErr(24.0, 24.0, band)
		assert.InDelta(t, 0.2, got, 1e-3, "band %s", band)
	}
}

// TestMagErrMonotonicInMag verifies fainter sources carry larger errors.
func TestMagErrMonotonicInMag(t *testing.T) {
	prev := 0.0
	for mag := 20.0; mag <= 26.0; mag += 0.5 {
		got := MagErr(mag, 24.5, "r")
		assert.Greater(t, got, prev, "mag %v", mag)
		prev = got
	}
}

// TestMagErrBrightFloor checks that very bright sources bottom out near
// the systematic floor.
func TestMagErrBrightFloor(t *testing.T) {
	got := MagErr(15.0, 24.5, "g")
	assert.InDelta(t, 0.005, got, 5e-4)
}

// TestMagErrUnknownBand falls back to the default gamma rather than
// failing.
func TestMagErrUnknownBand(t *testing.T) {
	got := MagErr(24.0, 24.0, "w")
	assert.InDelta(t, 0.2, got, 1e-3)
}
