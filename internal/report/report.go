// Package report serializes simulation results as tab-separated text and JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nvandessel/epigraph/internal/epidemic"
	"github.com/nvandessel/epigraph/internal/stats"
)

// File names written by WriteFiles.
const (
	TimelineFile    = "timeline.tsv"
	GenerationsFile = "generations.tsv"
	SummaryFile     = "summary.tsv"
)

// Undefined is written in place of a window statistic that could not be estimated.
const Undefined = "undefined"

// tsvWriter writes tab-separated rows and keeps the first error.
type tsvWriter struct {
	w   io.Writer
	err error
}

func (t *tsvWriter) row(fields ...string) {
	if t.err != nil {
		return
	}
	for i, f := range fields {
		if i > 0 {
			if _, t.err = io.WriteString(t.w, "\t"); t.err != nil {
				return
			}
		}
		if _, t.err = io.WriteString(t.w, f); t.err != nil {
			return
		}
	}
	_, t.err = io.WriteString(t.w, "\n")
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

// WriteTimeline writes one "step S E I R" row per snapshot.
func WriteTimeline(w io.Writer, timeline []epidemic.Snapshot) error {
	t := &tsvWriter{w: w}
	for _, s := range timeline {
		t.row(itoa(s.Step), itoa(s.Susceptible), itoa(s.Exposed), itoa(s.Infectious), itoa(s.Recovered))
	}
	return t.err
}

// WriteGenerations writes one "g count" row per generation.
func WriteGenerations(w io.Writer, generations []int) error {
	t := &tsvWriter{w: w}
	for g, count := range generations {
		t.row(itoa(g), itoa(count))
	}
	return t.err
}

// WriteSummary writes one row per named statistic.
func WriteSummary(w io.Writer, seed uint64, r stats.Report) error {
	t := &tsvWriter{w: w}
	t.row("seed", strconv.FormatUint(seed, 10))
	t.row("nodes", itoa(r.Nodes))
	t.row("steps", itoa(r.Steps))
	t.row("final_attack_rate", ftoa(r.FinalAttackRate))
	t.row("peak_infected", ftoa(r.PeakInfected.Fraction), itoa(r.PeakInfected.Step), ftoa(r.PeakInfected.AttackRate))
	t.row("peak_infectious", ftoa(r.PeakInfectious.Fraction), itoa(r.PeakInfectious.Step), ftoa(r.PeakInfectious.AttackRate))
	t.row("total_attempted", itoa(r.TotalAttempted))
	t.row("total_actual", itoa(r.TotalActual))
	t.row("peak_attempted", itoa(r.PeakAttempted.Count), itoa(r.PeakAttempted.Step))
	t.row("peak_actual", itoa(r.PeakActual.Count), itoa(r.PeakActual.Step))
	t.row(windowRow("growth_rate", r.GrowthRate)...)
	t.row(windowRow("reproduction_number", r.ReproductionNumber)...)
	return t.err
}

func windowRow(name string, w stats.Window) []string {
	if !w.Defined {
		return []string{name, Undefined}
	}
	return []string{name, ftoa(w.Value), itoa(w.From), itoa(w.To)}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteFiles writes the timeline, generation and summary tables into dir,
// creating it if needed.
func WriteFiles(dir string, seed uint64, timeline []epidemic.Snapshot, generations []int, r stats.Report) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	writers := []struct {
		name  string
		write func(io.Writer) error
	}{
		{TimelineFile, func(w io.Writer) error { return WriteTimeline(w, timeline) }},
		{GenerationsFile, func(w io.Writer) error { return WriteGenerations(w, generations) }},
		{SummaryFile, func(w io.Writer) error { return WriteSummary(w, seed, r) }},
	}

	for _, wr := range writers {
		if err := writeFile(filepath.Join(dir, wr.name), wr.write); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	return nil
}
