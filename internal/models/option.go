// Package models holds the plain value types shared by the pricing kernel,
// the batch driver and the data/report layers.
//
// Every value here is built once by the caller and then only read. Nothing in
// this module mutates a MarketParams, Underlying or OptionBatch after
// construction.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// Typed errors allow callers and tests to detect failure categories
// without string matching.
var (
	ErrInvalidOptionSide = errors.New("invalid option side")
	ErrMismatchedLengths = errors.New("option batch arrays have mismatched lengths")
	ErrIndexOutOfRange   = errors.New("option batch index out of range")
)

//
// ==========================
// Option side
// ==========================
//

// OptionSide selects which closed-form branch is evaluated.
type OptionSide uint8

const (
	Call OptionSide = iota // right to buy at strike
	Put                    // right to sell at strike
)

func (s OptionSide) String() string {
	switch s {
	case Call:
		return "call"
	case Put:
		return "put"
	}
	return fmt.Sprintf("OptionSide(%d)", uint8(s))
}

// ParseOptionSide accepts "call", "c", "put" or "p" in any case.
func ParseOptionSide(s string) (OptionSide, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidOptionSide, s)
}

// MarshalText implements encoding.TextMarshaler.
func (s OptionSide) MarshalText() ([]byte, error) {
	if s != Call && s != Put {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOptionSide, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *OptionSide) UnmarshalText(text []byte) error {
	side, err := ParseOptionSide(string(text))
	if err != nil {
		return err
	}
	*s = side
	return nil
}

//
// ==========================
// Market and underlying
// ==========================
//

// MarketParams is the market regime shared by a whole batch.
//
// Rate and DividendYield may be negative. DividendYield is carried for
// completeness but no formula reads it. Volatility is the default σ used by
// single-contract quotes when the contract does not carry its own.
type MarketParams struct {
	Rate          float64 `json:"rate" yaml:"rate"`
	DividendYield float64 `json:"dividend_yield" yaml:"dividend_yield"`
	Volatility    float64 `json:"volatility" yaml:"volatility"`
}

// Underlying is the asset every contract in a batch is written on.
type Underlying struct {
	Symbol string  `json:"symbol" yaml:"symbol"`
	Spot   float64 `json:"spot" yaml:"spot"`
}

//
// ==========================
// Contracts
// ==========================
//

// Option is a single contract.
type Option struct {
	Strike            float64    `json:"strike"`
	ImpliedVolatility float64    `json:"implied_volatility"`
	TimeToExpiry      float64    `json:"time_to_expiry"` // years
	Side              OptionSide `json:"side"`
}

// OptionBatch stores contracts column-wise: element i of every slice
// describes contract i.
type OptionBatch struct {
	Strike            []float64
	ImpliedVolatility []float64
	TimeToExpiry      []float64 // years
	Side              []OptionSide
}

// NewOptionBatch returns an empty batch with room for capacity contracts.
func NewOptionBatch(capacity int) *OptionBatch {
	return &OptionBatch{
		Strike:            make([]float64, 0, capacity),
		ImpliedVolatility: make([]float64, 0, capacity),
		TimeToExpiry:      make([]float64, 0, capacity),
		Side:              make([]OptionSide, 0, capacity),
	}
}

// Append adds one contract to the end of every column.
func (b *OptionBatch) Append(o Option) {
	b.Strike = append(b.Strike, o.Strike)
	b.ImpliedVolatility = append(b.ImpliedVolatility, o.ImpliedVolatility)
	b.TimeToExpiry = append(b.TimeToExpiry, o.TimeToExpiry)
	b.Side = append(b.Side, o.Side)
}

// Len is the number of contracts. It is only meaningful after Validate
// succeeds.
func (b *OptionBatch) Len() int {
	return len(b.Strike)
}

// Validate checks that all four columns have the same length.
func (b *OptionBatch) Validate() error {
	n := len(b.Strike)
	if len(b.ImpliedVolatility) != n || len(b.TimeToExpiry) != n || len(b.Side) != n {
		return fmt.Errorf(
			"%w: strike=%d implied_volatility=%d time_to_expiry=%d side=%d",
			ErrMismatchedLengths, n, len(b.ImpliedVolatility), len(b.TimeToExpiry), len(b.Side),
		)
	}
	return nil
}

// At returns contract i as a scalar value. The caller must keep i in range.
func (b *OptionBatch) At(i int) Option {
	return Option{
		Strike:            b.Strike[i],
		ImpliedVolatility: b.ImpliedVolatility[i],
		TimeToExpiry:      b.TimeToExpiry[i],
		Side:              b.Side[i],
	}
}

// Lookup is the bounds-checked form of At.
func (b *OptionBatch) Lookup(i int) (Option, error) {
	if err := b.Validate(); err != nil {
		return Option{}, err
	}
	if i < 0 || i >= b.Len() {
		return Option{}, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, i, b.Len())
	}
	return b.At(i), nil
}
