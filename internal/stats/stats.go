// Package stats derives summary epidemiological statistics from a finished run.
// Everything here is a pure function of the timeline, the generation table and
// the tally tracked by the engine.
package stats

import (
	"encoding/json"
	"math"

	"github.com/nvandessel/epigraph/internal/constants"
	"github.com/nvandessel/epigraph/internal/epidemic"
)

// Window is a statistic estimated over a fixed window, such as a growth rate
// over a step interval. Defined is false when no window qualified; Value is
// then meaningless and must not be reported.
type Window struct {
	Value   float64 `json:"value"`
	From    int     `json:"from"`
	To      int     `json:"to"`
	Defined bool    `json:"defined"`
}

// MarshalJSON omits Value and the interval for undefined windows.
func (w Window) MarshalJSON() ([]byte, error) {
	if !w.Defined {
		return []byte(`{"defined":false}`), nil
	}
	type plain Window
	return json.Marshal(plain(w))
}

// PeakFraction is a peak count expressed as a population fraction.
type PeakFraction struct {
	Fraction   float64 `json:"fraction"`
	Step       int     `json:"step"`
	AttackRate float64 `json:"attack_rate"`
}

// Report is the summary of one simulation run.
type Report struct {
	Nodes              int               `json:"nodes"`
	Steps              int               `json:"steps"`
	FinalAttackRate    float64           `json:"final_attack_rate"`
	PeakInfected       PeakFraction      `json:"peak_infected"`
	PeakInfectious     PeakFraction      `json:"peak_infectious"`
	TotalAttempted     int               `json:"total_attempted"`
	TotalActual        int               `json:"total_actual"`
	PeakAttempted      epidemic.StepPeak `json:"peak_attempted"`
	PeakActual         epidemic.StepPeak `json:"peak_actual"`
	GrowthRate         Window            `json:"growth_rate"`
	ReproductionNumber Window            `json:"reproduction_number"`
}

// Compute builds the Report for a finished run using the standard windows.
func Compute(nodes int, timeline []epidemic.Snapshot, generations []int, tally epidemic.Tally) Report {
	r := Report{
		Nodes:              nodes,
		TotalAttempted:     tally.TotalAttempted,
		TotalActual:        tally.TotalActual,
		PeakAttempted:      tally.PeakAttempted,
		PeakActual:         tally.PeakActual,
		GrowthRate:         GrowthRate(timeline, nodes, constants.SlopeInterval),
		ReproductionNumber: ReproductionNumber(generations, nodes, constants.RepNumInterval),
	}

	if len(timeline) > 0 {
		r.Steps = timeline[len(timeline)-1].Step
	}
	if nodes <= 0 {
		return r
	}

	n := float64(nodes)
	if len(timeline) > 0 {
		r.FinalAttackRate = float64(timeline[len(timeline)-1].Recovered) / n
	}
	r.PeakInfected = PeakFraction{
		Fraction:   float64(tally.PeakInfected.Count) / n,
		Step:       tally.PeakInfected.Step,
		AttackRate: tally.PeakInfected.AttackRate,
	}
	r.PeakInfectious = PeakFraction{
		Fraction:   float64(tally.PeakInfectious.Count) / n,
		Step:       tally.PeakInfectious.Step,
		AttackRate: tally.PeakInfectious.AttackRate,
	}
	return r
}

// GrowthRate estimates the per-step exponential growth rate of the active
// (Exposed+Infectious) population as ln(r)/ival, where r is the largest ratio
// active(t+ival)/active(t) over timeline positions t whose Infectious count
// exceeds sqrt(nodes). Windows that would run past the end are skipped.
func GrowthRate(timeline []epidemic.Snapshot, nodes, ival int) Window {
	if ival <= 0 {
		return Window{}
	}
	floor := math.Sqrt(float64(nodes))

	best, from, to, found := 0.0, 0, 0, false
	for t := 0; t+ival < len(timeline); t++ {
		cur := timeline[t]
		if float64(cur.Infectious) <= floor {
			continue
		}
		ratio := float64(timeline[t+ival].Active()) / float64(cur.Active())
		if !found || ratio > best {
			best, from, to, found = ratio, cur.Step, timeline[t+ival].Step, true
		}
	}
	if !found || best <= 0 {
		return Window{}
	}
	return Window{Value: math.Log(best) / float64(ival), From: from, To: to, Defined: true}
}

// ReproductionNumber estimates the per-generation reproduction number as
// r^(1/ival), where r is the largest ratio counts[g+ival]/counts[g] over
// generations whose count exceeds sqrt(nodes).
func ReproductionNumber(generations []int, nodes, ival int) Window {
	if ival <= 0 {
		return Window{}
	}
	floor := math.Sqrt(float64(nodes))

	best, from, found := 0.0, 0, false
	for g := 0; g+ival < len(generations); g++ {
		if float64(generations[g]) <= floor {
			continue
		}
		ratio := float64(generations[g+ival]) / float64(generations[g])
		if !found || ratio > best {
			best, from, found = ratio, g, true
		}
	}
	if !found || best <= 0 {
		return Window{}
	}
	return Window{Value: math.Pow(best, 1/float64(ival)), From: from, To: from + ival, Defined: true}
}
