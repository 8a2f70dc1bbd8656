package sf

import "math"

// sysErr is the systematic photometric error floor in magnitudes.
const sysErr = 0.005

// gammaByBand holds the per-band sky-brightness/readout term of the
// LSST photometric error model (Ivezic et al. 2019, Table 2).
var gammaByBand = map[string]float64{
	"u": 0.038,
	"g": 0.039,
	"r": 0.039,
	"i": 0.039,
	"z": 0.039,
	"y": 0.039,
}

// MagErr returns the expected photometric uncertainty, in magnitudes,
// of a source of magnitude mag observed in band at a visit with
// five-sigma limiting depth m5. This is the column the original
// pipeline stacks onto each visit before the metric runs:
//
//	x = 10^(0.4 (mag - m5))
//	sigma_rand^2 = (0.04 - gamma) x + gamma x^2
//	sigma^2 = sigma_sys^2 + sigma_rand^2
func MagErr(mag, m5 float64, band string) float64 {
	gamma, ok := gammaByBand[band]
	if !ok {
		gamma = 0.039
	}
	x := math.Pow(10, 0.4*(mag-m5))
	randVar := (0.04-gamma)*x + gamma*x*x
	return math.Sqrt(sysErr*sysErr + randVar)
}
