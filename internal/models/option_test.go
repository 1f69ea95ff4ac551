package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseOptionSide(t *testing.T) {
	tests := []struct {
		in       string
		expected OptionSide
	}{
		{"call", Call},
		{"CALL", Call},
		{" c ", Call},
		{"put", Put},
		{"P", Put},
	}

	for _, tc := range tests {
		side, err := ParseOptionSide(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.expected, side, tc.in)
	}

	_, err := ParseOptionSide("straddle")
	assert.ErrorIs(t, err, ErrInvalidOptionSide)
}

func TestOptionSideText(t *testing.T) {
	b, err := json.Marshal([]OptionSide{Call, Put})
	require.NoError(t, err)
	assert.Equal(t, `["call","put"]`, string(b))

	var sides []OptionSide
	require.NoError(t, json.Unmarshal([]byte(`["put","c"]`), &sides))
	assert.Equal(t, []OptionSide{Put, Call}, sides)

	var fromYAML struct {
		Side OptionSide `yaml:"side"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("side: put\n"), &fromYAML))
	assert.Equal(t, Put, fromYAML.Side)

	_, err = OptionSide(7).MarshalText()
	assert.ErrorIs(t, err, ErrInvalidOptionSide)
	assert.Equal(t, "OptionSide(7)", OptionSide(7).String())
}

func TestOptionBatchAppendAndAt(t *testing.T) {
	b := NewOptionBatch(2)
	b.Append(Option{Strike: 90, ImpliedVolatility: 0.2, TimeToExpiry: 0.5, Side: Call})
	b.Append(Option{Strike: 110, ImpliedVolatility: 0.3, TimeToExpiry: 1.5, Side: Put})

	require.NoError(t, b.Validate())
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, Option{Strike: 110, ImpliedVolatility: 0.3, TimeToExpiry: 1.5, Side: Put}, b.At(1))

	_, err := b.Lookup(2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = b.Lookup(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestOptionBatchValidateMismatch(t *testing.T) {
	b := &OptionBatch{
		Strike:            []float64{100, 100},
		ImpliedVolatility: []float64{0.2},
		TimeToExpiry:      []float64{1, 1},
		Side:              []OptionSide{Call, Put},
	}

	err := b.Validate()
	assert.ErrorIs(t, err, ErrMismatchedLengths)

	_, err = b.Lookup(0)
	assert.ErrorIs(t, err, ErrMismatchedLengths)
}
