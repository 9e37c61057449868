package relax

import (
	"fmt"
	"math"
)

// bracketTries bounds each direction of the geometric bracket search.
const bracketTries = 10

var machEps = math.Nextafter(1, 2) - 1

// brentSolver finds the relaxation parameter with a bracketing search
// followed by Brent's hybrid of bisection, secant and inverse quadratic
// interpolation. Slower than Newton per step but converges for any
// residual with a sign change near the seed, which covers the poorly
// conditioned Jacobians Newton trips over near r=1.
type brentSolver struct {
	cfg *Config
}

func (s *brentSolver) solve(ev *evaluator, seed float64) (float64, error) {
	// Phase A: walk xa down and xb up geometrically until the residual
	// changes sign across [xa, xb]. A residual already inside ResTol is
	// the root; take it without refining.
	xa := 0.9 * seed
	fa := 0.0
	bracketed := false
	for i := 0; i < bracketTries; i++ {
		f, err := ev.residual(xa)
		if err != nil {
			return seed, err
		}
		if math.Abs(f) < s.cfg.ResTol {
			return xa, nil
		}
		if f <= 0 {
			fa = f
			bracketed = true
			break
		}
		xa *= 0.9
	}
	if !bracketed {
		return seed, fmt.Errorf("%w: no nonpositive residual found below r=%g", ErrSolverDiverged, seed)
	}

	xb := 1.1 * seed
	fb := 0.0
	bracketed = false
	for i := 0; i < bracketTries; i++ {
		f, err := ev.residual(xb)
		if err != nil {
			return seed, err
		}
		if math.Abs(f) < s.cfg.ResTol {
			return xb, nil
		}
		if f >= 0 {
			fb = f
			bracketed = true
			break
		}
		xb *= 1.1
	}
	if !bracketed {
		return seed, fmt.Errorf("%w: no nonnegative residual found above r=%g", ErrSolverDiverged, seed)
	}

	return s.refine(ev, xa, fa, xb, fb)
}

// refine is the classical Brent iteration on a valid bracket. fb tracks
// the best estimate; fc sits on the other side of the root.
func (s *brentSolver) refine(ev *evaluator, xa, fa, xb, fb float64) (float64, error) {
	xc, fc := xb, fb
	var d, e float64 // current and previous step widths

	for i := 0; i < s.cfg.MaxIters; i++ {
		// Re-bracket when fb and fc land on the same side. The sign
		// tests are exact on purpose: fuzzing them breaks the
		// bisection fallback on near-zero residuals.
		if (fb > 0 && fc > 0) || (fb < 0 && fc < 0) {
			xc, fc = xa, fa
			d = xb - xa
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			xa, fa = xb, fb
			xb, fb = xc, fc
			xc, fc = xa, fa
		}

		tol := 2*machEps*math.Abs(xb) + 0.5*(s.cfg.RelTol*math.Abs(xb)+s.cfg.AbsTol)
		xm := 0.5 * (xc - xb)
		if math.Abs(xm) <= tol || math.Abs(fb) < s.cfg.ResTol {
			return xb, nil
		}
		ev.stats.SolverIters++

		if math.Abs(e) >= tol && math.Abs(fa) > math.Abs(fb) {
			// Interpolate: secant with two distinct points, inverse
			// quadratic with three.
			var p, q float64
			t := fb / fa
			if xa == xc {
				p = 2 * xm * t
				q = 1 - t
			} else {
				q = fa / fc
				r := fb / fc
				p = t * (2*xm*q*(q-r) - (xb-xa)*(r-1))
				q = (q - 1) * (r - 1) * (t - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)

			// Keep the interpolated step conservative, otherwise fall
			// back to bisection.
			min1 := 3*xm*q - math.Abs(tol*q)
			min2 := math.Abs(e * q)
			if 2*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		xa, fa = xb, fb
		if math.Abs(d) > tol {
			xb += d
		} else {
			xb += math.Copysign(tol, xm)
		}

		f, err := ev.residual(xb)
		if err != nil {
			return xb, err
		}
		fb = f
	}

	return xb, ErrIterationLimit
}
