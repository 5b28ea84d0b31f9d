package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/nvandessel/epigraph/internal/stats"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(24)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00"))
)

// summaryView is what printSummary needs from a live or stored run.
type summaryView struct {
	RunID       string
	Seed        uint64
	Edges       int
	MeanDegree  float64
	SeedsPlaced int
	Truncated   bool
	Report      stats.Report
}

func printSummary(w io.Writer, v summaryView) {
	r := v.Report
	row := func(label, format string, args ...any) {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(label), fmt.Sprintf(format, args...))
	}

	fmt.Fprintln(w, titleStyle.Render("Simulation summary"))
	if v.RunID != "" {
		row("Run", "%s", v.RunID)
	}
	row("Seed", "%d", v.Seed)
	row("Population", "%d", r.Nodes)
	if v.MeanDegree > 0 {
		row("Edges", "%d (mean degree %.2f)", v.Edges, v.MeanDegree)
	} else {
		row("Edges", "%d", v.Edges)
	}
	if v.SeedsPlaced > 0 {
		row("Seeds placed", "%d", v.SeedsPlaced)
	}
	row("Steps", "%d", r.Steps)
	if v.Truncated {
		fmt.Fprintf(w, "  %s\n", warnStyle.Render("stopped at max_steps before the epidemic ended"))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Outcome"))
	row("Final attack rate", "%.4f", r.FinalAttackRate)
	row("Peak infected", "%.4f at step %d (attack rate %.4f)",
		r.PeakInfected.Fraction, r.PeakInfected.Step, r.PeakInfected.AttackRate)
	row("Peak infectious", "%.4f at step %d (attack rate %.4f)",
		r.PeakInfectious.Fraction, r.PeakInfectious.Step, r.PeakInfectious.AttackRate)
	row("Transmissions", "%d attempted, %d actual", r.TotalAttempted, r.TotalActual)
	row("Busiest step", "%d attempted at step %d, %d actual at step %d",
		r.PeakAttempted.Count, r.PeakAttempted.Step, r.PeakActual.Count, r.PeakActual.Step)
	row("Growth rate", "%s", formatWindow(r.GrowthRate, "steps"))
	row("Reproduction number", "%s", formatWindow(r.ReproductionNumber, "generations"))
}

func formatWindow(w stats.Window, unit string) string {
	if !w.Defined {
		return "undefined"
	}
	return fmt.Sprintf("%.4f (%s %d-%d)", w.Value, unit, w.From, w.To)
}
