package pricing

import (
	"math"

	"github.com/contactkeval/option-pricer/internal/models"
)

// All Greeks below take (S, K, r, T, sigma) in the same order as Price and
// return 0 for degenerate inputs (see Degenerate). Each one recomputes d1/d2;
// use Evaluate when several values are needed for the same contract.

// DeltaCall is ∂C/∂S = Φ(d1).
func DeltaCall(S, K, r, T, sigma float64) float64 {
	if Degenerate(S, K, T, sigma) {
		return 0
	}
	return deltaCallFrom(NewMoneyness(S, K, r, T, sigma))
}

// Gamma is ∂²V/∂S² = φ(d1) / (S·σ·√T). It is the same for calls and puts.
func Gamma(S, K, r, T, sigma float64) float64 {
	if Degenerate(S, K, T, sigma) {
		return 0
	}
	return gammaFrom(S, NewMoneyness(S, K, r, T, sigma))
}

// Vega is ∂V/∂σ = S·φ(d1)·√T, per unit of volatility (not per 1%). It is the
// same for calls and puts.
func Vega(S, K, r, T, sigma float64) float64 {
	if Degenerate(S, K, T, sigma) {
		return 0
	}
	return vegaFrom(S, NewMoneyness(S, K, r, T, sigma))
}

// ThetaCall is the call's time decay per year:
//
//	-(S·φ(d1)·σ) / (2√T) - r·K·e^(-rT)·Φ(d2)
func ThetaCall(S, K, r, T, sigma float64) float64 {
	return Theta(models.Call, S, K, r, T, sigma)
}

// ThetaPut is the put's time decay per year:
//
//	-(S·φ(d1)·σ) / (2√T) + r·K·e^(-rT)·Φ(-d2)
func ThetaPut(S, K, r, T, sigma float64) float64 {
	return Theta(models.Put, S, K, r, T, sigma)
}

// Theta dispatches to the call or put theta.
func Theta(side models.OptionSide, S, K, r, T, sigma float64) float64 {
	if Degenerate(S, K, T, sigma) {
		return 0
	}
	return thetaFrom(side, S, K, r, T, sigma, NewMoneyness(S, K, r, T, sigma))
}

// RhoCall is ∂C/∂r = K·T·e^(-rT)·Φ(d2), per unit of rate.
func RhoCall(S, K, r, T, sigma float64) float64 {
	return Rho(models.Call, S, K, r, T, sigma)
}

// RhoPut is ∂P/∂r = -K·T·e^(-rT)·Φ(-d2), per unit of rate.
func RhoPut(S, K, r, T, sigma float64) float64 {
	return Rho(models.Put, S, K, r, T, sigma)
}

// Rho dispatches to the call or put rho.
func Rho(side models.OptionSide, S, K, r, T, sigma float64) float64 {
	if Degenerate(S, K, T, sigma) {
		return 0
	}
	return rhoFrom(side, K, r, T, NewMoneyness(S, K, r, T, sigma))
}

//
// ==========================
// Shared-moneyness evaluation
// ==========================
//

// Quote is the price and first-order Greeks of one contract.
//
// Delta is only populated for calls; there is no put delta in this kernel and
// puts carry 0.
type Quote struct {
	Side  models.OptionSide `json:"side"`
	D1    float64           `json:"d1"`
	D2    float64           `json:"d2"`
	Price float64           `json:"price"`
	Delta float64           `json:"delta"`
	Gamma float64           `json:"gamma"`
	Vega  float64           `json:"vega"`
	Theta float64           `json:"theta"`
	Rho   float64           `json:"rho"`
}

// Evaluate computes d1/d2 once and derives the price and every Greek from
// them. Each field matches the standalone function of the same name.
// Degenerate inputs return a zero Quote with only Side set.
func Evaluate(side models.OptionSide, S, K, r, T, sigma float64) Quote {
	q := Quote{Side: side}
	if Degenerate(S, K, T, sigma) {
		return q
	}

	m := NewMoneyness(S, K, r, T, sigma)
	q.D1 = m.D1
	q.D2 = m.D2
	q.Price = priceFrom(side, S, K, r, T, m)
	if side == models.Call {
		q.Delta = deltaCallFrom(m)
	}
	q.Gamma = gammaFrom(S, m)
	q.Vega = vegaFrom(S, m)
	q.Theta = thetaFrom(side, S, K, r, T, sigma, m)
	q.Rho = rhoFrom(side, K, r, T, m)
	return q
}

// EvaluateOption is Evaluate for a scalar contract.
func EvaluateOption(o models.Option, underlying models.Underlying, market models.MarketParams) Quote {
	return Evaluate(o.Side, underlying.Spot, o.Strike, market.Rate, o.TimeToExpiry, o.ImpliedVolatility)
}

func deltaCallFrom(m Moneyness) float64 {
	return NormCDF(m.D1)
}

func gammaFrom(S float64, m Moneyness) float64 {
	return NormPDF(m.D1) / (S * m.VolSqrtT)
}

func vegaFrom(S float64, m Moneyness) float64 {
	return S * NormPDF(m.D1) * m.SqrtT
}

func thetaFrom(side models.OptionSide, S, K, r, T, sigma float64, m Moneyness) float64 {
	discountedStrike := K * math.Exp(-r*T)
	timeDecay := -(S * NormPDF(m.D1) * sigma) / (2 * m.SqrtT)

	switch side {
	case models.Call:
		return timeDecay - r*discountedStrike*NormCDF(m.D2)
	case models.Put:
		return timeDecay + r*discountedStrike*NormCDF(-m.D2)
	}
	return 0
}

func rhoFrom(side models.OptionSide, K, r, T float64, m Moneyness) float64 {
	discountedStrike := K * math.Exp(-r*T)

	switch side {
	case models.Call:
		return discountedStrike * T * NormCDF(m.D2)
	case models.Put:
		return -discountedStrike * T * NormCDF(-m.D2)
	}
	return 0
}
