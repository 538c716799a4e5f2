package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticProvider_ChainIsDeterministic(t *testing.T) {
	p := NewSyntheticProvider(SyntheticConfig{Spot: map[string]float64{"spy": 600}, AsOf: tradeDate})
	q := ChainQuery{Underlying: "SPY", Expiration: expiryDate, Type: Call}

	a, err := p.GetOptionChain(context.Background(), q)
	require.NoError(t, err)
	b, err := p.GetOptionChain(context.Background(), q)
	require.NoError(t, err)

	require.NotEmpty(t, a)
	assert.Equal(t, a, b)

	// spot 600 lists every 10, spanning 300..900
	assert.Equal(t, 300.0, a[0].Strike)
	assert.Equal(t, 900.0, a[len(a)-1].Strike)
	for _, e := range a {
		assert.Equal(t, Call, e.Type)
		assert.Equal(t, "SPY", e.Underlying)
	}
}

func TestSyntheticProvider_PutChainAndStrikeFilter(t *testing.T) {
	p := NewSyntheticProvider(SyntheticConfig{DefaultSpot: 100, AsOf: tradeDate})

	chain, err := p.GetOptionChain(context.Background(), ChainQuery{
		Underlying: "XYZ", Expiration: expiryDate, Type: Put, Strike: 105,
	})
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, Put, chain[0].Type)
	assert.Equal(t, "O:XYZ250321P00105000", chain[0].InstrumentID)
}

func TestSyntheticProvider_NoExpirationIsEmpty(t *testing.T) {
	p := NewSyntheticProvider(SyntheticConfig{})
	chain, err := p.GetOptionChain(context.Background(), ChainQuery{Underlying: "SPY"})
	require.NoError(t, err)
	assert.Empty(t, chain)
	assert.NotNil(t, chain)
}

func TestSyntheticProvider_PreviousClose(t *testing.T) {
	p := NewSyntheticProvider(SyntheticConfig{DefaultSpot: 100, AsOf: tradeDate})
	ctx := context.Background()

	itm, err := p.GetPreviousClose(ctx, OptionSymbolFromParts("XYZ", expiryDate, Call, 90))
	require.NoError(t, err)
	otm, err := p.GetPreviousClose(ctx, OptionSymbolFromParts("XYZ", expiryDate, Call, 110))
	require.NoError(t, err)
	assert.Greater(t, itm, otm)
	assert.GreaterOrEqual(t, otm, 0.01)

	_, err = p.GetPreviousClose(ctx, "not-a-symbol")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSyntheticProvider_ExpiredQuotesAtIntrinsic(t *testing.T) {
	p := NewSyntheticProvider(SyntheticConfig{DefaultSpot: 100, AsOf: expiryDate.Add(24 * time.Hour)})

	v, err := p.GetPreviousClose(context.Background(), OptionSymbolFromParts("XYZ", expiryDate, Put, 104))
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)
}

func TestOptionSymbolRoundTrip(t *testing.T) {
	sym := OptionSymbolFromParts("spy", expiryDate, Put, 597.5)
	assert.Equal(t, "O:SPY250321P00597500", sym)

	e, err := ParseOptionSymbol(sym)
	require.NoError(t, err)
	assert.Equal(t, "SPY", e.Underlying)
	assert.Equal(t, Put, e.Type)
	assert.Equal(t, 597.5, e.Strike)
	assert.True(t, e.Expiration.Equal(expiryDate))
}

func TestClosestEntry(t *testing.T) {
	chain := []ChainEntry{{Strike: 95}, {Strike: 100}, {Strike: 105}}

	e, ok := ClosestEntry(chain, 102)
	require.True(t, ok)
	assert.Equal(t, 100.0, e.Strike)

	// equidistant: first listed wins
	e, _ = ClosestEntry(chain, 97.5)
	assert.Equal(t, 95.0, e.Strike)

	_, ok = ClosestEntry(nil, 100)
	assert.False(t, ok)
}

func TestParseContractType(t *testing.T) {
	for in, want := range map[string]ContractType{"call": Call, "C": Call, " Put ": Put, "p": Put} {
		got, err := ParseContractType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseContractType("straddle")
	assert.Error(t, err)
}
