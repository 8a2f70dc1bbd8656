// Package sf implements the structure-function error estimator: a pure
// computation over one sky location's observation table. It performs no
// I/O and holds no state, so it is safe to call from any number of
// goroutines at once.
package sf

import (
	"fmt"
	"math"
	"sort"

	"github.com/opsimtools/sferror/schema"
)

// BadValue marks a pixel with no meaningful metric value, e.g. fewer
// than two usable visits. The metric itself is strictly positive, so
// the sentinel is distinguishable from every legitimate result.
const BadValue = -666.0

// emptyBinCount stands in for a zero histogram count so the 1/sqrt(n)
// term stays finite. A documented approximation, not a statistical
// treatment of empty bins.
const emptyBinCount = 0.01

// madScale converts a median absolute deviation into a consistent
// estimate of the standard deviation of a normal distribution,
// 1/Phi^-1(3/4).
const madScale = 1.4826022185056018

// Params configures one structure-function error computation.
type Params struct {
	BinEdges   []float64 // time-gap histogram edges in days, strictly increasing
	BinWeights []float64 // weight per bin, len(BinEdges)-1 entries
	AllGaps    bool      // pair every two visits instead of consecutive visits only
	MinExpTime float64   // visits at or below this exposure time (seconds) are dropped
}

// DefaultParams returns the canonical configuration: ten
// logarithmically spaced bins from 1 to 3650 days with uniform weight
// 0.1, all pairwise gaps, and the 5.1 s short-exposure cutoff.
func DefaultParams() Params {
	weights := make([]float64, 10)
	for i := range weights {
		weights[i] = 0.1
	}
	return Params{
		BinEdges:   LogSpacedEdges(10, 1, 3650),
		BinWeights: weights,
		AllGaps:    true,
		MinExpTime: 5.1,
	}
}

// LogSpacedEdges returns bins+1 logarithmically spaced edges from lo to
// hi inclusive.
func LogSpacedEdges(bins int, lo, hi float64) []float64 {
	edges := make([]float64, bins+1)
	logLo, logHi := math.Log10(lo), math.Log10(hi)
	step := (logHi - logLo) / float64(bins)
	for i := range edges {
		edges[i] = math.Pow(10, logLo+float64(i)*step)
	}
	// pin the endpoints so repeated float work cannot drift them
	edges[0] = lo
	edges[bins] = hi
	return edges
}

// Validate checks the caller contract on the bin grid. A violation is a
// configuration error for that call, never a panic.
func (p Params) Validate() error {
	if len(p.BinEdges) < 2 {
		return fmt.Errorf("need at least 2 bin edges, got %d", len(p.BinEdges))
	}
	for i := 1; i < len(p.BinEdges); i++ {
		if p.BinEdges[i] <= p.BinEdges[i-1] {
			return fmt.Errorf("bin edges must be strictly increasing: edge[%d]=%v, edge[%d]=%v",
				i-1, p.BinEdges[i-1], i, p.BinEdges[i])
		}
	}
	if len(p.BinWeights) != len(p.BinEdges)-1 {
		return fmt.Errorf("bin weights length %d does not match %d bins",
			len(p.BinWeights), len(p.BinEdges)-1)
	}
	return nil
}

// Compute evaluates the structure-function error metric over one
// observation table.
//
// Visits with exposure time at or below p.MinExpTime are dropped first.
// If fewer than two visits remain the result is BadValue, not an error.
// Time gaps between visits are histogrammed against p.BinEdges (gaps
// outside the grid are silently dropped, matching the original
// behavior); empty bins are regularized to a count of 0.01. The
// photometric error variance enters through robust statistics, the
// median and the MAD-based standard deviation of the squared magnitude
// errors, so a handful of outlier visits cannot dominate the estimate.
//
// The only error returned is a Params contract violation.
func Compute(obs []schema.Observation, p Params) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	times := make([]float64, 0, len(obs))
	errVar := make([]float64, 0, len(obs))
	for _, o := range obs {
		if o.ExpTime <= p.MinExpTime {
			continue
		}
		times = append(times, o.MJD)
		errVar = append(errVar, o.MagErr*o.MagErr)
	}
	if len(times) < 2 {
		return BadValue, nil
	}
	sort.Float64s(times)

	gaps := timeGaps(times, p.AllGaps)
	counts := histogram(gaps, p.BinEdges)

	errVarMu := median(errVar)
	errVarStd := madStd(errVar)

	var metric float64
	for i, n := range counts {
		if n == 0 {
			n = emptyBinCount
		}
		metric += p.BinWeights[i] * 2 * (errVarMu + errVarStd/math.Sqrt(n))
	}
	return metric, nil
}

// timeGaps returns the positive pairwise time differences of the sorted
// times: all n(n-1)/2 unordered pairs when allGaps is set, otherwise
// the n-1 consecutive differences. Duplicate timestamps produce zero
// gaps, which are excluded in all-pairs mode just as the original
// drops the non-positive half of the difference matrix.
func timeGaps(times []float64, allGaps bool) []float64 {
	n := len(times)
	if !allGaps {
		gaps := make([]float64, n-1)
		for i := 1; i < n; i++ {
			gaps[i-1] = times[i] - times[i-1]
		}
		return gaps
	}
	gaps := make([]float64, 0, n*(n-1)/2)
	for i := 1; i < n; i++ {
		for j := 0; j < i; j++ {
			if d := times[i] - times[j]; d > 0 {
				gaps = append(gaps, d)
			}
		}
	}
	return gaps
}

// histogram bins values against the given edges with half-open bins
// [e_i, e_i+1) and a closed last bin, the numpy convention. Values
// outside the grid are dropped.
func histogram(values, edges []float64) []float64 {
	last := len(edges) - 1
	counts := make([]float64, last)
	for _, v := range values {
		if v < edges[0] || v > edges[last] {
			continue
		}
		if v == edges[last] {
			counts[last-1]++
			continue
		}
		i := sort.SearchFloat64s(edges, v)
		if i < len(edges) && edges[i] == v {
			counts[i]++
		} else {
			counts[i-1]++
		}
	}
	return counts
}

// median returns the sample median with midpoint interpolation for an
// even count. The input is not modified.
func median(values []float64) float64 {
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// madStd is the median-absolute-deviation estimate of the standard
// deviation. Identical inputs legitimately yield 0.
func madStd(values []float64) float64 {
	mu := median(values)
	dev := make([]float64, len(values))
	for i, v := range values {
		dev[i] = math.Abs(v - mu)
	}
	return madScale * median(dev)
}
