package integrators

import (
	"fmt"
	"sort"
	"strings"
)

// Tableau is the Butcher tableau of an explicit Runge-Kutta method,
// optionally carrying an embedded lower-order weight row for error
// estimation.
type Tableau struct {
	Name          string
	Order         int
	EmbeddedOrder int // 0 when the method has no embedding

	A    [][]float64 // stage coefficients, row i consumes stages 0..i-1
	B    []float64   // solution weights
	BHat []float64   // embedded weights, nil for fixed-step methods
	C    []float64   // stage abscissae
}

// Stages returns the number of stages, including any FSAL stage.
func (t Tableau) Stages() int { return len(t.B) }

// Adaptive reports whether the tableau carries an embedded error
// estimate.
func (t Tableau) Adaptive() bool { return t.BHat != nil }

// Euler is the forward Euler method. First order, fixed step.
func Euler() Tableau {
	return Tableau{
		Name:  "euler",
		Order: 1,
		A:     [][]float64{{}},
		B:     []float64{1},
		C:     []float64{0},
	}
}

// HeunEuler is the 2(1) pair of Heun's method with an embedded Euler
// estimate. The cheapest adaptive method here; useful when entropy
// relaxation, not accuracy, limits the step.
func HeunEuler() Tableau {
	return Tableau{
		Name:          "heun-euler",
		Order:         2,
		EmbeddedOrder: 1,
		A: [][]float64{
			{},
			{1.0},
		},
		B:    []float64{1.0 / 2.0, 1.0 / 2.0},
		BHat: []float64{1.0, 0.0},
		C:    []float64{0, 1.0},
	}
}

// BogackiShampine is the 3(2) FSAL pair.
func BogackiShampine() Tableau {
	return Tableau{
		Name:          "bogacki-shampine",
		Order:         3,
		EmbeddedOrder: 2,
		A: [][]float64{
			{},
			{1.0 / 2.0},
			{0, 3.0 / 4.0},
			{2.0 / 9.0, 1.0 / 3.0, 4.0 / 9.0},
		},
		B:    []float64{2.0 / 9.0, 1.0 / 3.0, 4.0 / 9.0, 0},
		BHat: []float64{7.0 / 24.0, 1.0 / 4.0, 1.0 / 3.0, 1.0 / 8.0},
		C:    []float64{0, 1.0 / 2.0, 3.0 / 4.0, 1.0},
	}
}

// ClassicRK4 is the classical fourth-order method. Fixed step.
func ClassicRK4() Tableau {
	return Tableau{
		Name:  "rk4",
		Order: 4,
		A: [][]float64{
			{},
			{1.0 / 2.0},
			{0, 1.0 / 2.0},
			{0, 0, 1.0},
		},
		B: []float64{1.0 / 6.0, 1.0 / 3.0, 1.0 / 3.0, 1.0 / 6.0},
		C: []float64{0, 1.0 / 2.0, 1.0 / 2.0, 1.0},
	}
}

// DormandPrince is the 5(4) FSAL pair behind most general-purpose
// adaptive integrators. The last stage evaluates the derivative at the
// proposed solution.
func DormandPrince() Tableau {
	return Tableau{
		Name:          "dormand-prince",
		Order:         5,
		EmbeddedOrder: 4,
		A: [][]float64{
			{},
			{1.0 / 5.0},
			{3.0 / 40.0, 9.0 / 40.0},
			{44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0},
			{19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0},
			{9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0},
			{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0},
		},
		B:    []float64{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0, 0},
		BHat: []float64{5179.0 / 57600.0, 0, 7571.0 / 16695.0, 393.0 / 640.0, -92097.0 / 339200.0, 187.0 / 2100.0, 1.0 / 40.0},
		C:    []float64{0, 1.0 / 5.0, 3.0 / 10.0, 4.0 / 5.0, 8.0 / 9.0, 1.0, 1.0},
	}
}

var tableaus = map[string]func() Tableau{
	"euler":            Euler,
	"heun-euler":       HeunEuler,
	"bogacki-shampine": BogackiShampine,
	"rk4":              ClassicRK4,
	"dormand-prince":   DormandPrince,
}

// ByName returns the tableau registered under name. Underscores are
// accepted in place of hyphens.
func ByName(name string) (Tableau, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "_", "-")
	mk, ok := tableaus[key]
	if !ok {
		return Tableau{}, fmt.Errorf("unknown method %q (have: %s)", name, strings.Join(Names(), ", "))
	}
	return mk(), nil
}

// Names lists the registered methods in stable order.
func Names() []string {
	names := make([]string, 0, len(tableaus))
	for name := range tableaus {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
