// Package payoff models option legs and their profit at expiration.
//
// A payoff Func maps a hypothetical underlying price at expiration to the
// signed profit of a fixed set of legs. Values are intrinsic only: there is
// no time value, volatility or discounting.
package payoff

import (
	"fmt"
	"math"
)

// Leg is one option contract held in a strategy.
type Leg struct {
	Strike  float64 `json:"strike"`
	IsCall  bool    `json:"is_call"`
	IsLong  bool    `json:"is_long"`
	Premium float64 `json:"premium"`
}

// NewLeg builds a leg with strike and premium rounded to cents.
func NewLeg(strike float64, isCall, isLong bool, premium float64) Leg {
	return Leg{
		Strike:  Round2(strike),
		IsCall:  isCall,
		IsLong:  isLong,
		Premium: Round2(premium),
	}
}

// Intrinsic returns the exercise value of the leg at price.
func (l Leg) Intrinsic(price float64) float64 {
	if l.IsCall {
		return math.Max(0, price-l.Strike)
	}
	return math.Max(0, l.Strike-price)
}

// Profit returns the leg's profit at expiration when the underlying
// settles at price. Long legs pay the premium, short legs collect it.
func (l Leg) Profit(price float64) float64 {
	sign := l.sign()
	return sign*l.Intrinsic(price) - sign*l.Premium
}

func (l Leg) sign() float64 {
	if l.IsLong {
		return 1
	}
	return -1
}

// Side returns "long" or "short".
func (l Leg) Side() string {
	if l.IsLong {
		return "long"
	}
	return "short"
}

// Kind returns "call" or "put".
func (l Leg) Kind() string {
	if l.IsCall {
		return "call"
	}
	return "put"
}

func (l Leg) String() string {
	return fmt.Sprintf("Leg(strike=%.2f, %s, %s, premium=%.2f)", l.Strike, l.Kind(), l.Side(), l.Premium)
}

// Round2 rounds x to 2 decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
