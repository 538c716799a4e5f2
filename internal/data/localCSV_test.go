package data

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLocalFileProvider_ReadsCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, pricesFile, "underlying,date,close\nSPY,2025-02-21,596.12\n")
	writeFile(t, dir, chainsFile, `underlying,expiration,type,strike,ticker,prev_close
SPY,2025-03-21,call,595,,7.25
SPY,2025-03-21,call,600,O:SPY250321C00600000,4.80
SPY,2025-03-21,put,595,,6.10
SPY,bad-date,put,600,,1
`)

	p := NewLocalFileDataProvider(dir, nil)
	ctx := context.Background()

	price, err := p.GetCurrentPrice(ctx, "spy", tradeDate)
	require.NoError(t, err)
	assert.Equal(t, 596.12, price)

	calls, err := p.GetOptionChain(ctx, ChainQuery{Underlying: "SPY", Expiration: expiryDate, Type: Call})
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, "O:SPY250321C00595000", calls[0].InstrumentID)

	puts, err := p.GetOptionChain(ctx, ChainQuery{Underlying: "SPY", Expiration: expiryDate, Type: Put})
	require.NoError(t, err)
	require.Len(t, puts, 1)

	v, err := p.GetPreviousClose(ctx, "O:SPY250321C00600000")
	require.NoError(t, err)
	assert.Equal(t, 4.80, v)
}

func TestLocalFileProvider_MissingWithoutSecondary(t *testing.T) {
	p := NewLocalFileDataProvider(t.TempDir(), nil)
	ctx := context.Background()

	_, err := p.GetCurrentPrice(ctx, "SPY", tradeDate)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = p.GetPreviousClose(ctx, "O:SPY250321C00600000")
	assert.ErrorIs(t, err, ErrNoData)

	chain, err := p.GetOptionChain(ctx, ChainQuery{Underlying: "SPY", Expiration: expiryDate})
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestLocalFileProvider_FallsBackToSecondary(t *testing.T) {
	synth := NewSyntheticProvider(SyntheticConfig{DefaultSpot: 42, AsOf: tradeDate})
	p := NewLocalFileDataProvider(t.TempDir(), synth)
	ctx := context.Background()

	assert.Equal(t, synth, p.Secondary())

	price, err := p.GetCurrentPrice(ctx, "QQQ", tradeDate)
	require.NoError(t, err)
	assert.Equal(t, 42.0, price)

	chain, err := p.GetOptionChain(ctx, ChainQuery{Underlying: "QQQ", Expiration: expiryDate, Type: Call})
	require.NoError(t, err)
	assert.NotEmpty(t, chain)
}
