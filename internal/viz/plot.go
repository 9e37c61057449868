package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/rrk/internal/ode"
	"github.com/san-kum/rrk/internal/sim"
)

// PlotEntropy charts the entropy drift e(y)-e(y0) along a trajectory.
// The series is rescaled to a readable magnitude and the scale goes
// into the caption.
func PlotEntropy(result *sim.Result, fn ode.EntropyFn, width, height int) string {
	if len(result.States) == 0 {
		return ""
	}

	base, err := fn(result.States[0])
	if err != nil {
		return ""
	}

	drift := make([]float64, 0, len(result.States))
	for _, y := range result.States {
		e, err := fn(y)
		if err != nil {
			continue
		}
		drift = append(drift, e-base)
	}
	if len(drift) < 2 {
		return ""
	}

	scale, exp := rescale(drift)
	caption := "entropy drift"
	if exp != 0 {
		caption = fmt.Sprintf("entropy drift ×1e%d", exp)
	}
	return asciigraph.Plot(scale,
		asciigraph.Height(height), asciigraph.Width(width),
		asciigraph.Precision(3), asciigraph.Caption(caption))
}

// PlotParam charts the relaxation parameter of each accepted step.
func PlotParam(result *sim.Result, width, height int) string {
	if len(result.Params) < 2 {
		return ""
	}
	return asciigraph.Plot(result.Params,
		asciigraph.Height(height), asciigraph.Width(width),
		asciigraph.Precision(6), asciigraph.Caption("relaxation parameter r"))
}

// PlotComponent charts one state component over time.
func PlotComponent(result *sim.Result, idx, width, height int) string {
	if len(result.States) < 2 || idx < 0 || idx >= len(result.States[0]) {
		return ""
	}
	series := make([]float64, len(result.States))
	for i, y := range result.States {
		series[i] = y[idx]
	}
	return asciigraph.Plot(series,
		asciigraph.Height(height), asciigraph.Width(width),
		asciigraph.Precision(3), asciigraph.Caption(fmt.Sprintf("x%d", idx)))
}

// rescale maps a series to the range where its largest magnitude lands
// in [1, 10), returning the rescaled series and the power of ten taken
// out.
func rescale(series []float64) ([]float64, int) {
	maxAbs := 0.0
	for _, v := range series {
		if a := math.Abs(v); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 || (maxAbs >= 1 && maxAbs < 10) {
		return series, 0
	}

	exp := int(math.Floor(math.Log10(maxAbs)))
	factor := math.Pow(10, float64(-exp))
	out := make([]float64, len(series))
	for i, v := range series {
		out[i] = v * factor
	}
	return out, exp
}

// Summary renders a styled block of run statistics.
func Summary(title string, relaxed bool, result *sim.Result) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(strings.ToUpper(title)) + "\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}

	row("Steps", fmt.Sprintf("%d", result.Steps))
	row("Rejects", fmt.Sprintf("%d", result.ErrRejects))
	row("Fn evals", fmt.Sprintf("%d", result.FnEvals))
	if len(result.Times) > 0 {
		row("Final time", fmt.Sprintf("%.4f", result.Times[len(result.Times)-1]))
	}

	if relaxed {
		st := result.RelaxStats
		b.WriteString(subtleStyle.Render("relaxation") + "\n")
		row("Entropy evals", fmt.Sprintf("%d", st.FnEvals))
		row("Gradient evals", fmt.Sprintf("%d", st.JacEvals))
		row("Solver iters", fmt.Sprintf("%d", st.SolverIters))
		if st.TotalFails > 0 {
			row("Failures", fmt.Sprintf("%d (solver %d, bounds %d)",
				st.TotalFails, st.SolverFails, st.BoundFails))
		}
	}

	for name, value := range result.Metrics {
		row(name, fmt.Sprintf("%.6g", value))
	}

	return b.String()
}
