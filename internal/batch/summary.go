package batch

import (
	"errors"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/contactkeval/option-pricer/internal/models"
	"github.com/contactkeval/option-pricer/internal/pricing"
)

// boundTolerance is the slack, relative to spot, allowed on the no-arbitrage
// bounds to absorb the normal CDF approximation error.
const boundTolerance = 1e-9

var ErrResultMismatch = errors.New("result does not match batch")

// SideStats describes the price distribution of one option side over the
// non-degenerate contracts of a batch. Min, Max and Mean are 0 when Count is 0.
type SideStats struct {
	Count      int     `json:"count"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Violations int     `json:"bound_violations"`
}

// Summary aggregates a Result.
type Summary struct {
	Total      int       `json:"total"`
	Degenerate int       `json:"degenerate"`
	Calls      SideStats `json:"calls"`
	Puts       SideStats `json:"puts"`
}

// Summarize computes per-side statistics of res.Prices.
//
// Contracts whose inputs are degenerate (see pricing.Degenerate) are counted
// but excluded from the statistics, since their 0 price is a sentinel rather
// than a value. A call outside [0, S], a put outside [0, K·e^(-rT)], or a NaN
// or infinite price counts as a bound violation.
func Summarize(batch *models.OptionBatch, underlying models.Underlying, market models.MarketParams, res *Result) (*Summary, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%w: nil result", ErrResultMismatch)
	}
	if len(res.Prices) != batch.Len() {
		return nil, fmt.Errorf("%w: %d prices for %d contracts", ErrResultMismatch, len(res.Prices), batch.Len())
	}

	S := underlying.Spot
	tol := boundTolerance * math.Abs(S)
	sum := &Summary{Total: batch.Len()}

	var calls, puts stats.Float64Data
	for i, p := range res.Prices {
		K, T, sigma := batch.Strike[i], batch.TimeToExpiry[i], batch.ImpliedVolatility[i]
		if pricing.Degenerate(S, K, T, sigma) {
			sum.Degenerate++
			continue
		}

		// non-finite prices count as violations but stay out of the statistics
		finite := !math.IsNaN(p) && !math.IsInf(p, 0)
		switch batch.Side[i] {
		case models.Call:
			if finite {
				calls = append(calls, p)
			}
			if !finite || outside(p, 0, S, tol) {
				sum.Calls.Violations++
			}
		case models.Put:
			if finite {
				puts = append(puts, p)
			}
			if !finite || outside(p, 0, K*math.Exp(-market.Rate*T), tol) {
				sum.Puts.Violations++
			}
		}
	}

	var err error
	if sum.Calls, err = describe(calls, sum.Calls.Violations); err != nil {
		return nil, fmt.Errorf("call statistics: %w", err)
	}
	if sum.Puts, err = describe(puts, sum.Puts.Violations); err != nil {
		return nil, fmt.Errorf("put statistics: %w", err)
	}
	return sum, nil
}

func outside(p, lo, hi, tol float64) bool {
	return p < lo-tol || p > hi+tol
}

func describe(data stats.Float64Data, violations int) (SideStats, error) {
	out := SideStats{Count: data.Len(), Violations: violations}
	if out.Count == 0 {
		return out, nil
	}

	var err error
	if out.Min, err = data.Min(); err != nil {
		return out, err
	}
	if out.Max, err = data.Max(); err != nil {
		return out, err
	}
	if out.Mean, err = data.Mean(); err != nil {
		return out, err
	}
	if out.StdDev, err = data.StandardDeviation(); err != nil {
		return out, err
	}
	return out, nil
}
