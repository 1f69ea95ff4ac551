package pricing

import "math"

// D1 returns the standardized moneyness
//
//	(ln(S/K) + (r + σ²/2)·T) / (σ·√T)
//
// i.e. how many standard deviations the risk-adjusted log-price sits above
// the strike at expiry.
//
// D1 returns 0 when sigma <= 0 or T <= 0. It does not guard S or K: a
// non-positive strike propagates NaN or ±Inf from the logarithm. Use the
// guarded entry points (Price and the Greeks) for untrusted inputs.
func D1(S, K, r, T, sigma float64) float64 {
	if sigma <= 0 || T <= 0 {
		return 0
	}

	logMoneyness := math.Log(S / K)
	carry := (r + 0.5*sigma*sigma) * T
	volSqrtT := sigma * math.Sqrt(T)

	return (logMoneyness + carry) / volSqrtT
}

// D2 returns the forward-adjusted moneyness d1 - σ·√T. It is derived from
// D1, never recomputed independently, and follows the same guard.
func D2(S, K, r, T, sigma float64) float64 {
	if sigma <= 0 || T <= 0 {
		return 0
	}
	return D1(S, K, r, T, sigma) - sigma*math.Sqrt(T)
}

// Moneyness carries d1 and d2 for one contract so several formulas can share
// them. The zero value is the degenerate result for sigma <= 0 or T <= 0.
type Moneyness struct {
	D1       float64
	D2       float64
	VolSqrtT float64 // σ·√T
	SqrtT    float64 // √T
}

// NewMoneyness computes d1 and d2 once. The values are identical to calling
// D1 and D2 separately.
func NewMoneyness(S, K, r, T, sigma float64) Moneyness {
	if sigma <= 0 || T <= 0 {
		return Moneyness{}
	}

	sqrtT := math.Sqrt(T)
	d1 := D1(S, K, r, T, sigma)
	return Moneyness{
		D1:       d1,
		D2:       d1 - sigma*sqrtT,
		VolSqrtT: sigma * sqrtT,
		SqrtT:    sqrtT,
	}
}
