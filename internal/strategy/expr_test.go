package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalStrike(t *testing.T) {
	tests := map[string]float64{
		"TARGET*0.97":        194,
		"current + 5":        105,
		"SPOT - 2.5":         97.5,
		"182.5":              182.5,
		"(TARGET+CURRENT)/2": 150,
	}
	for expr, want := range tests {
		got, err := EvalStrike(expr, 100, 200)
		require.NoError(t, err, expr)
		assert.InDelta(t, want, got, 1e-9, expr)
	}
}

func TestEvalStrike_Invalid(t *testing.T) {
	for _, expr := range []string{"", "   ", "TARGET >", "TARGET > 1", "FOO*2", "CURRENT-200", "0"} {
		_, err := EvalStrike(expr, 100, 200)
		assert.ErrorIs(t, err, ErrInvalidStrikeExpression, expr)
		assert.ErrorIs(t, err, ErrInvalidInput, expr)
	}
}

func TestEvalStrikePtr(t *testing.T) {
	v, err := EvalStrikePtr("", 100, 200)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = EvalStrikePtr("TARGET", 100, 200)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 200.0, *v)
}

func TestSharedOverridesFromExprs(t *testing.T) {
	o, err := SharedOverridesFromExprs(100, 200, "TARGET*0.9", "", "CURRENT", "")
	require.NoError(t, err)

	assert.Equal(t, 180.0, *o.LongCall.LongCall)
	assert.Equal(t, 180.0, *o.IronCondor.LongCall)
	assert.Nil(t, o.BullCallSpread.ShortCall)
	assert.Equal(t, 100.0, *o.BearPutSpread.LongPut)
	assert.Nil(t, o.IronCondor.ShortPut)

	_, err = SharedOverridesFromExprs(100, 200, "", "", "", "NOPE")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
