package payoff

import (
	"math"
	"sort"

	json "github.com/goccy/go-json"
)

// Func maps an underlying price at expiration to strategy profit.
type Func func(price float64) float64

// Combine returns the aggregate payoff of legs. The slice is copied, so
// later changes by the caller do not affect the returned function.
func Combine(legs []Leg) Func {
	fixed := make([]Leg, len(legs))
	copy(fixed, legs)

	return func(price float64) float64 {
		total := 0.0
		for _, l := range fixed {
			total += l.Profit(price)
		}
		return total
	}
}

// NetCost is the cash needed to open legs: long premiums paid minus short
// premiums received. Negative values are credits.
func NetCost(legs []Leg) float64 {
	cost := 0.0
	for _, l := range legs {
		if l.IsLong {
			cost += l.Premium
		} else {
			cost -= l.Premium
		}
	}
	return Round2(cost)
}

// Summary describes the shape of a payoff over prices in [0, +Inf).
// Breakevens lists the prices where profit crosses or touches zero; a
// payoff that is zero everywhere reports none.
type Summary struct {
	MaxProfit  float64   `json:"max_profit"`
	MaxLoss    float64   `json:"max_loss"`
	Breakevens []float64 `json:"breakevens"`
}

// UnboundedProfit reports whether profit grows without limit.
func (s Summary) UnboundedProfit() bool { return math.IsInf(s.MaxProfit, 1) }

// UnboundedLoss reports whether loss grows without limit.
func (s Summary) UnboundedLoss() bool { return math.IsInf(s.MaxLoss, -1) }

// MarshalJSON encodes infinite extremes as null plus an unbounded flag,
// since JSON has no representation for Inf.
func (s Summary) MarshalJSON() ([]byte, error) {
	type wire struct {
		MaxProfit       *float64  `json:"max_profit"`
		MaxLoss         *float64  `json:"max_loss"`
		UnboundedProfit bool      `json:"unbounded_profit"`
		UnboundedLoss   bool      `json:"unbounded_loss"`
		Breakevens      []float64 `json:"breakevens"`
	}
	w := wire{
		UnboundedProfit: s.UnboundedProfit(),
		UnboundedLoss:   s.UnboundedLoss(),
		Breakevens:      s.Breakevens,
	}
	if !w.UnboundedProfit {
		v := s.MaxProfit
		w.MaxProfit = &v
	}
	if !w.UnboundedLoss {
		v := s.MaxLoss
		w.MaxLoss = &v
	}
	return json.Marshal(w)
}

// Summarize computes max profit, max loss and breakevens of legs.
//
// The payoff is linear between consecutive strikes, so extremes can only
// occur at zero, at a strike, or at infinity when the slope beyond the
// highest strike is non-zero.
func Summarize(legs []Leg) Summary {
	fn := Combine(legs)

	points := kinks(legs)
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = fn(p)
	}

	s := Summary{MaxProfit: values[0], MaxLoss: values[0]}
	for _, v := range values[1:] {
		s.MaxProfit = math.Max(s.MaxProfit, v)
		s.MaxLoss = math.Min(s.MaxLoss, v)
	}

	tail := tailSlope(legs)
	switch {
	case tail > 0:
		s.MaxProfit = math.Inf(1)
	case tail < 0:
		s.MaxLoss = math.Inf(-1)
	}

	s.Breakevens = breakevens(points, values, tail)
	s.MaxProfit = roundFinite(s.MaxProfit)
	s.MaxLoss = roundFinite(s.MaxLoss)
	return s
}

// kinks returns 0 followed by the distinct positive strikes, ascending.
func kinks(legs []Leg) []float64 {
	seen := map[float64]bool{0: true}
	out := []float64{0}
	for _, l := range legs {
		if l.Strike > 0 && !seen[l.Strike] {
			seen[l.Strike] = true
			out = append(out, l.Strike)
		}
	}
	sort.Float64s(out)
	return out
}

// tailSlope is the payoff slope above the highest strike: only calls
// contribute there.
func tailSlope(legs []Leg) float64 {
	slope := 0.0
	for _, l := range legs {
		if l.IsCall {
			slope += l.sign()
		}
	}
	return slope
}

func breakevens(points, values []float64, tail float64) []float64 {
	out := []float64{}
	if tail == 0 && allZero(values) {
		// flat at zero: every price breaks even, no point is reported
		return out
	}
	add := func(x float64) {
		x = Round2(x)
		if n := len(out); n > 0 && out[n-1] == x {
			return
		}
		out = append(out, x)
	}

	for i := range points {
		if values[i] == 0 {
			add(points[i])
			continue
		}
		if i+1 < len(points) && values[i]*values[i+1] < 0 {
			// linear interpolation on the segment
			a, b := points[i], points[i+1]
			add(a + (b-a)*values[i]/(values[i]-values[i+1]))
		}
	}

	last := len(points) - 1
	if tail != 0 && values[last] != 0 && values[last]*tail < 0 {
		add(points[last] - values[last]/tail)
	}
	return out
}

func allZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}

func roundFinite(x float64) float64 {
	if math.IsInf(x, 0) {
		return x
	}
	return Round2(x)
}
