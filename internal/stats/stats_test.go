package stats

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/epigraph/internal/epidemic"
)

// exponentialTimeline returns steps 0..steps with Infectious growing as base*e^(rate*t).
func exponentialTimeline(nodes int, base, rate float64, steps int) []epidemic.Snapshot {
	out := make([]epidemic.Snapshot, 0, steps+1)
	for t := 0; t <= steps; t++ {
		inf := int(math.Round(base * math.Exp(rate*float64(t))))
		out = append(out, epidemic.Snapshot{
			Step:        t,
			Susceptible: nodes - inf,
			Infectious:  inf,
		})
	}
	return out
}

func TestGrowthRate_RecoversExponentialRate(t *testing.T) {
	const nodes = 100_000_000
	timeline := exponentialTimeline(nodes, 1e6, 0.05, 40)

	w := GrowthRate(timeline, nodes, 20)

	require.True(t, w.Defined)
	assert.InDelta(t, 0.05, w.Value, 1e-6)
	assert.Equal(t, 0, w.From)
	assert.Equal(t, 20, w.To)
}

func TestGrowthRate_PicksSteepestWindow(t *testing.T) {
	const nodes = 100
	// sqrt(100) = 10; only positions with I > 10 qualify.
	timeline := []epidemic.Snapshot{
		{Step: 0, Infectious: 11},
		{Step: 1, Infectious: 20},
		{Step: 2, Infectious: 22},
		{Step: 3, Infectious: 80},
	}

	w := GrowthRate(timeline, nodes, 2)

	require.True(t, w.Defined)
	assert.InDelta(t, math.Log(4)/2, w.Value, 1e-12)
	assert.Equal(t, 1, w.From)
	assert.Equal(t, 3, w.To)
}

func TestGrowthRate_CountsExposedInRatio(t *testing.T) {
	timeline := []epidemic.Snapshot{
		{Step: 0, Exposed: 5, Infectious: 20},
		{Step: 1, Exposed: 50, Infectious: 50},
	}

	w := GrowthRate(timeline, 100, 1)

	require.True(t, w.Defined)
	assert.InDelta(t, math.Log(4), w.Value, 1e-12)
}

func TestGrowthRate_Undefined(t *testing.T) {
	tests := []struct {
		name     string
		timeline []epidemic.Snapshot
		nodes    int
		ival     int
	}{
		{"below noise floor", exponentialTimeline(1_000_000, 10, 0.1, 60), 1_000_000, 20},
		{"window past end", exponentialTimeline(100, 50, 0.01, 10), 100, 20},
		{"empty timeline", nil, 100, 20},
		{"non-positive interval", exponentialTimeline(100, 50, 0.01, 30), 100, 0},
		{"collapse to zero", []epidemic.Snapshot{{Step: 0, Infectious: 50}, {Step: 1}}, 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := GrowthRate(tt.timeline, tt.nodes, tt.ival)
			assert.False(t, w.Defined)
			assert.Equal(t, Window{}, w)
		})
	}
}

func TestReproductionNumber_RecoversGenerationalGrowth(t *testing.T) {
	generations := []int{1_000_000, 2_000_000, 4_000_000, 8_000_000}

	w := ReproductionNumber(generations, 100_000_000, 2)

	require.True(t, w.Defined)
	assert.InDelta(t, 2.0, w.Value, 1e-12)
	assert.Equal(t, 0, w.From)
	assert.Equal(t, 2, w.To)
}

func TestReproductionNumber_SkipsSmallGenerations(t *testing.T) {
	// sqrt(400) = 20: generation 0 (5) is below the floor even though its ratio is largest.
	generations := []int{5, 21, 500, 21, 21}

	w := ReproductionNumber(generations, 400, 2)

	require.True(t, w.Defined)
	assert.InDelta(t, 1.0, w.Value, 1e-12)
	assert.Equal(t, 1, w.From)
}

func TestReproductionNumber_Undefined(t *testing.T) {
	assert.False(t, ReproductionNumber([]int{3, 9, 27}, 10_000, 2).Defined)
	assert.False(t, ReproductionNumber([]int{500, 900}, 100, 2).Defined)
	assert.False(t, ReproductionNumber(nil, 100, 2).Defined)
}

func TestCompute(t *testing.T) {
	timeline := []epidemic.Snapshot{
		{Step: 0, Susceptible: 99, Exposed: 1},
		{Step: 1, Susceptible: 97, Exposed: 2, Infectious: 1},
		{Step: 2, Susceptible: 97, Infectious: 2, Recovered: 1},
		{Step: 3, Susceptible: 97, Recovered: 3},
	}
	tally := epidemic.Tally{
		TotalAttempted: 7,
		TotalActual:    2,
		PeakInfected:   epidemic.Peak{Count: 3, Step: 1, AttackRate: 0.03},
		PeakInfectious: epidemic.Peak{Count: 2, Step: 2, AttackRate: 0.03},
		PeakAttempted:  epidemic.StepPeak{Count: 4, Step: 1},
		PeakActual:     epidemic.StepPeak{Count: 2, Step: 1},
	}

	r := Compute(100, timeline, []int{1, 2}, tally)

	assert.Equal(t, 100, r.Nodes)
	assert.Equal(t, 3, r.Steps)
	assert.InDelta(t, 0.03, r.FinalAttackRate, 1e-12)
	assert.Equal(t, PeakFraction{Fraction: 0.03, Step: 1, AttackRate: 0.03}, r.PeakInfected)
	assert.Equal(t, PeakFraction{Fraction: 0.02, Step: 2, AttackRate: 0.03}, r.PeakInfectious)
	assert.Equal(t, 7, r.TotalAttempted)
	assert.Equal(t, 2, r.TotalActual)
	assert.Equal(t, tally.PeakAttempted, r.PeakAttempted)
	assert.Equal(t, tally.PeakActual, r.PeakActual)
	assert.False(t, r.GrowthRate.Defined)
	assert.False(t, r.ReproductionNumber.Defined)
}

func TestCompute_EmptyPopulation(t *testing.T) {
	r := Compute(0, []epidemic.Snapshot{{Step: 0}}, nil, epidemic.Tally{})

	assert.Equal(t, 0, r.Steps)
	assert.Zero(t, r.FinalAttackRate)
	assert.False(t, r.GrowthRate.Defined)
	assert.False(t, math.IsNaN(r.PeakInfected.Fraction))
}

func TestWindow_MarshalJSON(t *testing.T) {
	undefined, err := json.Marshal(Window{Value: 123})
	require.NoError(t, err)
	assert.JSONEq(t, `{"defined":false}`, string(undefined))

	defined, err := json.Marshal(Window{Value: 1.5, From: 2, To: 4, Defined: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":1.5,"from":2,"to":4,"defined":true}`, string(defined))

	var back Window
	require.NoError(t, json.Unmarshal(defined, &back))
	assert.Equal(t, Window{Value: 1.5, From: 2, To: 4, Defined: true}, back)
}
