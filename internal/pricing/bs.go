// Package pricing holds the closed-form option value used to fabricate
// offline quotes. It is not used to value strategies.
package pricing

import "math"

// Inputs describe a European option for BlackScholes.
type Inputs struct {
	IsCall bool
	Spot   float64
	Strike float64
	Years  float64 // time to expiry
	Rate   float64 // annual risk-free rate
	Vol    float64 // annual volatility, as a decimal
}

// Intrinsic is the exercise value at the current spot.
func (in Inputs) Intrinsic() float64 {
	if in.IsCall {
		return math.Max(0, in.Spot-in.Strike)
	}
	return math.Max(0, in.Strike-in.Spot)
}

// BlackScholes values in. Expired contracts, or a zero volatility, are
// worth their intrinsic value.
func BlackScholes(in Inputs) float64 {
	if in.Years <= 0 || in.Vol <= 0 || in.Spot <= 0 || in.Strike <= 0 {
		return in.Intrinsic()
	}

	sqrtT := math.Sqrt(in.Years)
	d1 := (math.Log(in.Spot/in.Strike) + (in.Rate+0.5*in.Vol*in.Vol)*in.Years) / (in.Vol * sqrtT)
	d2 := d1 - in.Vol*sqrtT
	discounted := in.Strike * math.Exp(-in.Rate*in.Years)

	if in.IsCall {
		return in.Spot*normCDF(d1) - discounted*normCDF(d2)
	}
	return discounted*normCDF(-d2) - in.Spot*normCDF(-d1)
}

func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}
