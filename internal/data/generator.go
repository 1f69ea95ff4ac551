// Package data produces option batches: synthetic contracts for benchmarks and
// tests, and CSV files for batches prepared elsewhere.
package data

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/contactkeval/option-pricer/internal/models"
	"github.com/contactkeval/option-pricer/internal/pricing"
)

var (
	ErrInvalidExpression    = errors.New("invalid strike expression")
	ErrInvalidGeneratorSpec = errors.New("invalid generator spec")
)

const (
	UniformStrikes   = "uniform"
	LognormalStrikes = "lognormal"
)

// GeneratorSpec describes the contracts Generate draws.
//
// StrikeMin and StrikeMax are arithmetic expressions over the variable `spot`,
// e.g. "0.6 * spot". Every other range is half open: [min, max).
type GeneratorSpec struct {
	Count              int     `yaml:"count"`
	Seed               int64   `yaml:"seed"`
	StrikeMin          string  `yaml:"strike_min"`
	StrikeMax          string  `yaml:"strike_max"`
	StrikeDistribution string  `yaml:"strike_distribution"`
	StrikeVol          float64 `yaml:"strike_vol"`
	IVMin              float64 `yaml:"iv_min"`
	IVMax              float64 `yaml:"iv_max"`
	TTEMin             float64 `yaml:"tte_min"`
	TTEMax             float64 `yaml:"tte_max"`
}

// DefaultGeneratorSpec returns the benchmark ranges: strikes within 40% of
// spot, volatility 15% to 40%, expiry 0.1 to 3 years.
func DefaultGeneratorSpec() GeneratorSpec {
	return GeneratorSpec{
		Count:              1_000_000,
		Seed:               42,
		StrikeMin:          "0.6 * spot",
		StrikeMax:          "1.4 * spot",
		StrikeDistribution: UniformStrikes,
		StrikeVol:          0.2,
		IVMin:              0.15,
		IVMax:              0.40,
		TTEMin:             0.1,
		TTEMax:             3.0,
	}
}

// Validate checks counts and ranges. Strike expressions are checked by Generate,
// since they need a spot.
func (s GeneratorSpec) Validate() error {
	switch {
	case s.Count < 0:
		return fmt.Errorf("%w: count %d", ErrInvalidGeneratorSpec, s.Count)
	case s.IVMin > s.IVMax:
		return fmt.Errorf("%w: iv range [%v, %v)", ErrInvalidGeneratorSpec, s.IVMin, s.IVMax)
	case s.TTEMin > s.TTEMax:
		return fmt.Errorf("%w: tte range [%v, %v)", ErrInvalidGeneratorSpec, s.TTEMin, s.TTEMax)
	}

	switch strings.ToLower(s.StrikeDistribution) {
	case "", UniformStrikes:
	case LognormalStrikes:
		if s.StrikeVol <= 0 {
			return fmt.Errorf("%w: strike_vol must be positive for lognormal strikes", ErrInvalidGeneratorSpec)
		}
	default:
		return fmt.Errorf("%w: strike distribution %q", ErrInvalidGeneratorSpec, s.StrikeDistribution)
	}
	return nil
}

// Generate draws spec.Count contracts against underlying. Even indices are
// calls and odd indices puts. The output depends only on spec and spot.
//
// Parameters:
//   - spec: ranges and seed
//   - underlying: spot used to resolve the strike expressions
//
// Returns:
//   - *models.OptionBatch: the generated contracts
//   - error: ErrInvalidGeneratorSpec or ErrInvalidExpression
func Generate(spec GeneratorSpec, underlying models.Underlying) (*models.OptionBatch, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	lo, err := EvalStrikeExpr(spec.StrikeMin, underlying.Spot)
	if err != nil {
		return nil, err
	}
	hi, err := EvalStrikeExpr(spec.StrikeMax, underlying.Spot)
	if err != nil {
		return nil, err
	}
	if lo > hi {
		return nil, fmt.Errorf("%w: strike range [%v, %v)", ErrInvalidGeneratorSpec, lo, hi)
	}

	rng := rand.New(rand.NewSource(spec.Seed))
	lognormal := strings.EqualFold(spec.StrikeDistribution, LognormalStrikes)

	batch := models.NewOptionBatch(spec.Count)
	for i := 0; i < spec.Count; i++ {
		var strike float64
		if lognormal {
			strike = lognormalStrike(rng, underlying.Spot, spec.StrikeVol, lo, hi)
		} else {
			strike = uniform(rng, lo, hi)
		}

		side := models.Call
		if i%2 == 1 {
			side = models.Put
		}

		batch.Append(models.Option{
			Strike:            strike,
			ImpliedVolatility: uniform(rng, spec.IVMin, spec.IVMax),
			TimeToExpiry:      uniform(rng, spec.TTEMin, spec.TTEMax),
			Side:              side,
		})
	}
	return batch, nil
}

// EvalStrikeExpr evaluates a strike expression with `spot` bound to the given
// value. A plain number is a valid expression.
func EvalStrikeExpr(expr string, spot float64) (float64, error) {
	evalExpr, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidExpression, expr, err)
	}

	result, err := evalExpr.Evaluate(map[string]interface{}{"spot": spot})
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidExpression, expr, err)
	}

	f, ok := result.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q evaluated to %v", ErrInvalidExpression, expr, result)
	}
	return f, nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// lognormalStrike samples spot·exp(vol·z), z standard normal via the inverse
// CDF, clamped into [lo, hi].
func lognormalStrike(rng *rand.Rand, spot, vol, lo, hi float64) float64 {
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}
	k := spot * math.Exp(vol*pricing.NormInv(u))
	return math.Min(math.Max(k, lo), hi)
}
