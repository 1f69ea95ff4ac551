// Package batch evaluates the pricing kernel over a whole OptionBatch.
//
// Contracts are independent, so the index range is cut into fixed-size chunks
// and the chunks are priced concurrently. Each chunk writes only its own
// slice window of the preallocated result columns, which keeps result[i]
// aligned with input[i] regardless of scheduling.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/contactkeval/option-pricer/internal/logger"
	"github.com/contactkeval/option-pricer/internal/models"
	"github.com/contactkeval/option-pricer/internal/pricing"
)

// DefaultChunkSize is the number of contracts a worker prices between
// cancellation checks.
const DefaultChunkSize = 1 << 16

var (
	ErrInvalidOptions = errors.New("invalid batch options")
	ErrCancelled      = errors.New("batch cancelled")
)

// Options tunes a Run. Zero values pick defaults.
type Options struct {
	Workers   int  // concurrent chunks, default runtime.GOMAXPROCS(0)
	ChunkSize int  // contracts per chunk, default DefaultChunkSize
	Greeks    bool // also fill Result.Greeks
	RunID     string
}

func (o Options) withDefaults() (Options, error) {
	if o.Workers < 0 || o.ChunkSize < 0 {
		return o, fmt.Errorf("%w: workers=%d chunk_size=%d", ErrInvalidOptions, o.Workers, o.ChunkSize)
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.ChunkSize == 0 {
		o.ChunkSize = DefaultChunkSize
	}
	return o, nil
}

// GreekColumns holds one Greek per contract, indexed like the input batch.
// Delta is only defined for calls; put rows hold 0.
type GreekColumns struct {
	Delta []float64
	Gamma []float64
	Vega  []float64
	Theta []float64
	Rho   []float64
}

func newGreekColumns(n int) *GreekColumns {
	return &GreekColumns{
		Delta: make([]float64, n),
		Gamma: make([]float64, n),
		Vega:  make([]float64, n),
		Theta: make([]float64, n),
		Rho:   make([]float64, n),
	}
}

// Result is the output of Run. Prices[i] and every Greeks column at i belong
// to contract i of the input batch.
type Result struct {
	Prices  []float64
	Greeks  *GreekColumns // nil unless Options.Greeks
	Elapsed time.Duration
	Workers int
	Chunks  int
}

// Run prices every contract of batch against the shared underlying and market.
//
// Parameters:
//   - ctx: cancellation is honoured between chunks, never inside one
//   - batch: validated structure-of-arrays contracts
//   - underlying: shared spot
//   - market: shared rate; market.Volatility is not used, each contract has its own
//   - opts: worker and chunk tuning
//
// Returns:
//   - *Result: prices (and Greeks when requested) in input order
//   - error: batch validation failure, invalid options, or ErrCancelled
func Run(
	ctx context.Context,
	batch *models.OptionBatch,
	underlying models.Underlying,
	market models.MarketParams,
	opts Options,
) (*Result, error) {

	if err := batch.Validate(); err != nil {
		return nil, err
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	n := batch.Len()
	chunks := (n + opts.ChunkSize - 1) / opts.ChunkSize
	res := &Result{
		Prices:  make([]float64, n),
		Workers: opts.Workers,
		Chunks:  chunks,
	}
	if opts.Greeks {
		res.Greeks = newGreekColumns(n)
	}

	log := logger.WithFields(logrus.Fields{"run_id": opts.RunID})
	log.Debugf("event=batch_started n=%d workers=%d chunks=%d greeks=%t", n, opts.Workers, chunks, opts.Greeks)

	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for c := 0; c < chunks; c++ {
		lo := c * opts.ChunkSize
		hi := min(lo+opts.ChunkSize, n)

		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if opts.Greeks {
				evaluateRange(lo, hi, batch, underlying, market, res)
			} else {
				priceRange(lo, hi, batch, underlying, market, res.Prices)
			}
			log.Tracef("event=chunk_done lo=%d hi=%d", lo, hi)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	res.Elapsed = time.Since(start)
	log.Debugf("event=batch_done n=%d elapsed=%s", n, res.Elapsed)
	return res, nil
}

func priceRange(lo, hi int, batch *models.OptionBatch, underlying models.Underlying, market models.MarketParams, out []float64) {
	for i := lo; i < hi; i++ {
		out[i] = pricing.PriceAt(i, batch, underlying, market)
	}
}

func evaluateRange(lo, hi int, batch *models.OptionBatch, underlying models.Underlying, market models.MarketParams, res *Result) {
	for i := lo; i < hi; i++ {
		q := pricing.Evaluate(
			batch.Side[i],
			underlying.Spot,
			batch.Strike[i],
			market.Rate,
			batch.TimeToExpiry[i],
			batch.ImpliedVolatility[i],
		)
		res.Prices[i] = q.Price
		res.Greeks.Delta[i] = q.Delta
		res.Greeks.Gamma[i] = q.Gamma
		res.Greeks.Vega[i] = q.Vega
		res.Greeks.Theta[i] = q.Theta
		res.Greeks.Rho[i] = q.Rho
	}
}
