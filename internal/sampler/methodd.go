package sampler

import (
	"math"

	"github.com/TheSirC/vitte/internal/random"
)

// #region steps
// step is the state of the Method D acceptance-rejection loop.
type step uint8

const (
	stepSelectMethod step = iota
	stepPropose
	stepFastAccept
	stepSlowAccept
	stepCommit
)

// #endregion steps

// #region planner
// planner produces Method D skips one selection at a time. It owns no
// population state; the automaton passes a snapshot in and commits the result.
type planner struct {
	alpha int64
	src   random.Source
	stats *Stats
}

// plan runs one pass of the Method D state machine. When SelectMethod hands
// the run elsewhere, plan returns the method to continue with and draws
// nothing. Otherwise it returns the accepted skip and MethodD.
//
// The propose/reject cycle has no iteration cap: it ends with probability 1
// and capping it would bias the sample.
func (pl *planner) plan(p population) (int64, Method, error) {
	var (
		nr  = float64(p.remaining)
		n   = float64(p.target)
		qu1 = float64(p.qu1)

		inv      float64 // 1/(n'-1)
		u, x, y1 float64
		floorX   float64
	)

	state := stepSelectMethod
	for {
		switch state {
		case stepSelectMethod:
			if p.target == 1 {
				return 0, MethodFinal, nil
			}
			if p.useMethodA(pl.alpha) {
				return 0, MethodA, nil
			}
			e, err := exponent(p.target)
			if err != nil {
				return 0, MethodD, err
			}
			inv = e
			state = stepPropose

		case stepPropose:
			u = pl.src.Uniform()
			for {
				x = nr * pl.src.Beta(n)
				if x < qu1 {
					break
				}
				pl.stats.Resamples++
			}
			floorX = math.Floor(x)
			state = stepFastAccept

		case stepFastAccept:
			y1 = math.Pow(u*nr/qu1, inv)
			vp := y1 * (1 - x/nr) * (qu1 / (qu1 - floorX))
			if vp <= 1 {
				pl.stats.FastAccepts++
				state = stepCommit
			} else {
				state = stepSlowAccept
			}

		case stepSlowAccept:
			if slowAccept(nr, n, qu1, x, floorX, y1, inv) {
				pl.stats.SlowAccepts++
				state = stepCommit
			} else {
				pl.stats.Rejections++
				state = stepPropose
			}

		case stepCommit:
			// The only place the real-valued candidate becomes a count.
			return int64(floorX), MethodD, nil
		}
	}
}

// #endregion planner

// #region accept-tests
// exponent returns 1/(n-1). It is undefined for n <= 1, which SelectMethod
// routes to the final draw before any candidate is proposed.
func exponent(n int64) (float64, error) {
	if n <= 1 {
		return 0, ErrArithmeticDegenerate
	}
	return 1 / float64(n-1), nil
}

// slowAccept is the exact acceptance test, run when the squeeze in
// stepFastAccept fails. y2 telescopes over N'-1 down to limit.
func slowAccept(nr, n, qu1, x, floorX, y1, inv float64) bool {
	var bottom, limit float64
	if n-1 > floorX {
		bottom = nr - n
		limit = nr - floorX
	} else {
		bottom = nr - floorX - 1
		limit = qu1
	}

	top := nr - 1
	y2 := 1.0
	for t := nr - 1; t >= limit; t-- {
		y2 *= top / bottom
		top--
		bottom--
	}
	return 1/(1-x/nr) >= y1*math.Pow(y2, inv)
}

// #endregion accept-tests
