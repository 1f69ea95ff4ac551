// Package pricing implements the closed-form Black-Scholes kernel for
// European options: the normal distribution helpers, standardized moneyness
// (d1/d2), call/put prices and the first-order Greeks.
//
// Every function is pure. Inputs are passed by value, nothing is cached and
// nothing is logged, so any function may be called concurrently from any
// number of goroutines.
//
// Degenerate inputs never produce an error. Price and every Greek return 0
// when the spot, strike, volatility or time to expiry is not strictly
// positive. A 0 result is therefore ambiguous between "worthless" and
// "invalid input"; callers that need to tell the two apart must validate
// beforehand.
package pricing

import (
	"math"

	"github.com/contactkeval/option-pricer/internal/models"
)

// Degenerate reports whether the guarded entry points would short-circuit to
// 0 for these inputs.
func Degenerate(S, K, T, sigma float64) bool {
	return S <= 0 || K <= 0 || T <= 0 || sigma <= 0
}

// Price calculates the price of a European option using the Black-Scholes model.
//
// Parameters:
//   - side: models.Call or models.Put
//   - S: spot price of the underlying asset
//   - K: strike price of the option
//   - r: continuously compounded risk-free rate (annual)
//   - T: time to expiry in years
//   - sigma: volatility of the underlying asset (annual, as a decimal)
//
// Returns:
//
//	The theoretical price. Returns 0 when S, K, T or sigma is zero or negative.
//
// Formulas:
//
//	call = S·Φ(d1) - K·e^(-rT)·Φ(d2)
//	put  = K·e^(-rT)·Φ(-d2) - S·Φ(-d1)
func Price(side models.OptionSide, S, K, r, T, sigma float64) float64 {
	if Degenerate(S, K, T, sigma) {
		return 0
	}
	return priceFrom(side, S, K, r, T, NewMoneyness(S, K, r, T, sigma))
}

// PriceCall is Price for a call.
func PriceCall(S, K, r, T, sigma float64) float64 {
	return Price(models.Call, S, K, r, T, sigma)
}

// PricePut is Price for a put.
func PricePut(S, K, r, T, sigma float64) float64 {
	return Price(models.Put, S, K, r, T, sigma)
}

// PriceAt prices contract i of a batch against the shared underlying and
// market. The contract's own implied volatility is used; market.Volatility is
// ignored. The caller must keep i within the validated batch length.
func PriceAt(i int, batch *models.OptionBatch, underlying models.Underlying, market models.MarketParams) float64 {
	return Price(
		batch.Side[i],
		underlying.Spot,
		batch.Strike[i],
		market.Rate,
		batch.TimeToExpiry[i],
		batch.ImpliedVolatility[i],
	)
}

// PriceOption prices a single contract.
func PriceOption(o models.Option, underlying models.Underlying, market models.MarketParams) float64 {
	return Price(o.Side, underlying.Spot, o.Strike, market.Rate, o.TimeToExpiry, o.ImpliedVolatility)
}

// priceFrom evaluates the closed form from precomputed moneyness. Inputs are
// assumed non-degenerate. A side outside the enum prices to 0.
func priceFrom(side models.OptionSide, S, K, r, T float64, m Moneyness) float64 {
	discountedStrike := K * math.Exp(-r*T)

	switch side {
	case models.Call:
		return S*NormCDF(m.D1) - discountedStrike*NormCDF(m.D2)
	case models.Put:
		return discountedStrike*NormCDF(-m.D2) - S*NormCDF(-m.D1)
	}
	return 0
}
