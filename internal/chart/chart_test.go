package chart

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-picker/internal/payoff"
)

func TestBounds(t *testing.T) {
	lo, hi := Bounds(100, 135)
	assert.Equal(t, 75.0, lo)
	assert.Equal(t, 168.75, hi)

	lo, hi = Bounds(100, 50)
	assert.Equal(t, 37.5, lo)
	assert.Equal(t, 125.0, hi)
}

func TestSample(t *testing.T) {
	fn, _ := payoff.LongCall(100, 5)
	pts := Sample(fn, 80, 120, 5)

	require.Len(t, pts, 5)
	assert.Equal(t, []float64{80, 90, 100, 110, 120}, prices(pts))
	assert.Equal(t, -5.0, pts[0].Profit)
	assert.Equal(t, 15.0, pts[4].Profit)

	// reversed bounds and tiny n
	pts = Sample(fn, 120, 80, 1)
	require.Len(t, pts, 2)
	assert.Equal(t, 80.0, pts[0].Price)
	assert.Equal(t, 120.0, pts[1].Price)
}

func TestSample_EndpointExact(t *testing.T) {
	fn, _ := payoff.LongPut(100, 5)
	pts := Sample(fn, 0.1, 0.7, DefaultPoints)
	assert.Len(t, pts, DefaultPoints)
	assert.Equal(t, 0.7, pts[len(pts)-1].Price)
}

func TestRenderASCII(t *testing.T) {
	fn, _ := payoff.LongCall(100, 5)

	var buf bytes.Buffer
	err := RenderASCII(&buf, fn, Options{Title: "Long Call", Current: 100, Target: 135, Width: 40, Height: 10})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// title + grid + axis + price labels + legend + target profit
	require.Len(t, lines, 1+10+4)
	assert.Equal(t, "Long Call", lines[0])
	assert.Equal(t, "Profit at target price: 30.00", lines[len(lines)-1])

	grid := lines[1:11]
	assert.Contains(t, grid[0], "*", "max profit on top row")
	assert.Contains(t, grid[9], "*", "max loss on bottom row")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(grid[9]), "-5.00"))
	// the curve covers the current marker on the bottom row only
	for _, line := range grid[:9] {
		assert.Contains(t, line, "|")
	}
	assert.Contains(t, lines[12], "75.00")
	assert.Contains(t, lines[12], "168.75")
}

func TestRenderASCII_Flat(t *testing.T) {
	var buf bytes.Buffer
	err := RenderASCII(&buf, func(float64) float64 { return 0 }, Options{Current: 100, Target: 100})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Profit at target price: 0.00")
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestRenderASCII_WriteError(t *testing.T) {
	fn, _ := payoff.LongCall(100, 5)
	assert.Error(t, RenderASCII(failWriter{}, fn, Options{Current: 100, Target: 120}))
}

func prices(pts []Point) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.Price
	}
	return out
}

func TestRenderASCII_ExplicitRange(t *testing.T) {
	fn, _ := payoff.BullCallSpread(100, 110, 5, 2)

	var buf bytes.Buffer
	require.NoError(t, RenderASCII(&buf, fn, Options{Low: 90, High: 120, Width: 31, Height: 7}))

	out := buf.String()
	assert.Contains(t, out, "90.00")
	assert.Contains(t, out, "120.00")
	assert.NotContains(t, out, "Profit at target price")
	assert.NotContains(t, out, "|")
}
