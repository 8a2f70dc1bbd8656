package opsim

import (
	"context"
	"fmt"
	"sort"

	"github.com/opsimtools/sferror/schema"
)

// MockSource is an in-memory Source for tests: canned observations per
// run, with the band constraint applied the way the real source does.
type MockSource struct {
	Visits map[string][]schema.Observation // keyed by run name
	Err    error                           // returned from every call when set
}

var _ Source = (*MockSource)(nil) // Compile-time check

// Runs lists the keys of the canned visit map.
func (m *MockSource) Runs(_ context.Context) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	runs := make([]string, 0, len(m.Visits))
	for run := range m.Visits {
		runs = append(runs, run)
	}
	sort.Strings(runs)
	return runs, nil
}

// Observations filters the canned visits by band.
func (m *MockSource) Observations(_ context.Context, run string, q Query) ([]schema.Observation, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	visits, ok := m.Visits[run]
	if !ok {
		return nil, fmt.Errorf("unknown run %s", run)
	}
	var out []schema.Observation
	for _, o := range visits {
		if o.Band == q.Band {
			out = append(out, o)
		}
	}
	return out, nil
}
