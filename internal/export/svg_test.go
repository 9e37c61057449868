package export

import (
	"math"
	"strings"
	"testing"
)

func TestTimeSeriesSVG(t *testing.T) {
	times := make([]float64, 50)
	wave := make([]float64, 50)
	flat := make([]float64, 50)
	for i := range times {
		times[i] = float64(i) * 0.1
		wave[i] = math.Sin(times[i])
		flat[i] = 0.25
	}

	svg := TimeSeriesSVG(times, []Series{
		{Name: "x0", Values: wave},
		{Name: "x1", Color: "#123456", Values: flat},
	}, 400, 200)

	if !strings.HasPrefix(svg, "<?xml") {
		t.Fatal("missing xml header")
	}
	if !strings.Contains(svg, `width="400"`) {
		t.Error("missing width attribute")
	}
	if got := strings.Count(svg, "<path"); got != 2 {
		t.Errorf("expected 2 paths, got %d", got)
	}
	if !strings.Contains(svg, ">x0</text>") || !strings.Contains(svg, ">x1</text>") {
		t.Error("missing series labels")
	}
	if !strings.Contains(svg, "#123456") {
		t.Error("explicit series color not used")
	}
	if strings.Contains(svg, "NaN") {
		t.Error("chart contains NaN coordinates")
	}
	if !strings.HasSuffix(svg, "</svg>") {
		t.Error("unterminated document")
	}
}

func TestTimeSeriesSVGConstant(t *testing.T) {
	svg := TimeSeriesSVG([]float64{0, 1, 2}, []Series{{Name: "r", Values: []float64{1, 1, 1}}}, 300, 100)
	if svg == "" {
		t.Fatal("expected chart for constant series")
	}
	if strings.Contains(svg, "NaN") {
		t.Error("degenerate range produced NaN")
	}
}

func TestTimeSeriesSVGTooShort(t *testing.T) {
	if svg := TimeSeriesSVG([]float64{0}, []Series{{Values: []float64{1}}}, 300, 100); svg != "" {
		t.Error("expected empty output for single sample")
	}
}

func TestPhaseSVG(t *testing.T) {
	xs := make([]float64, 60)
	ys := make([]float64, 60)
	for i := range xs {
		angle := float64(i) * 2 * math.Pi / 60
		xs[i] = math.Cos(angle)
		ys[i] = math.Sin(angle)
	}

	svg := PhaseSVG(xs, ys, 300, 300, "")
	if !strings.Contains(svg, "<path") {
		t.Fatal("missing trajectory path")
	}
	if !strings.Contains(svg, DefaultPalette[0]) {
		t.Error("default color not applied")
	}
	if strings.Contains(svg, "NaN") {
		t.Error("chart contains NaN coordinates")
	}
}

func TestPhaseSVGMismatched(t *testing.T) {
	if svg := PhaseSVG([]float64{0, 1}, []float64{0}, 300, 300, ""); svg != "" {
		t.Error("expected empty output for mismatched lengths")
	}
}
