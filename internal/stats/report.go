package stats

import (
	"fmt"
	"strings"
)

// ReportName returns the report filename of a snapshot step.
func ReportName(step int) string {
	return fmt.Sprintf("stats_step_%04d.txt", step)
}

// Format renders r as the fixed-width text report.
func Format(r Record) string {
	var b strings.Builder
	b.WriteString("# ================================================= #\n")
	fmt.Fprintf(&b, "#           Statistics for 1755 - Step %04d         #\n", r.Step)
	fmt.Fprintf(&b, "#           Sim Time: %10.2f min             #\n", r.Time/60)
	b.WriteString("# ================================================= #\n\n")

	b.WriteString("--- ELEVATION & WAVES ---\n")
	fmt.Fprintf(&b, "Absolute Max Eta (Wet):   %10.4f m\n", r.MaxEta)
	fmt.Fprintf(&b, "Max Wave Crest (Ocean):   %10.4f m\n", r.MaxCrest)
	fmt.Fprintf(&b, "Max Wave Trough (Eta):    %10.4f m\n", r.MinEta)
	fmt.Fprintf(&b, "Mean Positive Elevation:  %10.4f m\n\n", r.MeanPositiveEta)

	b.WriteString("--- INUNDATION (Land) ---\n")
	fmt.Fprintf(&b, "Max Flow Depth (h):       %10.4f m\n", r.MaxFlowDepth)
	fmt.Fprintf(&b, "Max Run-up Elevation (B): %10.4f m\n", r.MaxRunup)
	fmt.Fprintf(&b, "Total Area Inundated:     %10.4e m^2\n\n", r.InundatedArea)

	b.WriteString("--- DYNAMICS ---\n")
	fmt.Fprintf(&b, "Max Velocity:             %10.4f m/s\n", r.MaxVelocity)
	fmt.Fprintf(&b, "Max Momentum Flux:        %10.4f m^3/s^2\n", r.MaxMomentumFlux)
	fmt.Fprintf(&b, "Mean Direction (U, V):    %.3f, %.3f\n", r.MeanU, r.MeanV)
	return b.String()
}
