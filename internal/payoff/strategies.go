package payoff

// The constructors below build the leg list of a strategy family and its
// aggregate payoff. Strike ordering is the caller's concern: any order is
// accepted and the payoff is still well defined.

// LongCall buys one call.
func LongCall(strike, premium float64) (Func, []Leg) {
	return build(NewLeg(strike, true, true, premium))
}

// LongPut buys one put.
func LongPut(strike, premium float64) (Func, []Leg) {
	return build(NewLeg(strike, false, true, premium))
}

// BullCallSpread buys a call at longStrike and sells one at shortStrike.
// The conventional debit spread has longStrike < shortStrike.
func BullCallSpread(longStrike, shortStrike, longPremium, shortPremium float64) (Func, []Leg) {
	return build(
		NewLeg(longStrike, true, true, longPremium),
		NewLeg(shortStrike, true, false, shortPremium),
	)
}

// BearPutSpread buys a put at longStrike and sells one at shortStrike.
// The conventional debit spread has longStrike > shortStrike.
func BearPutSpread(longStrike, shortStrike, longPremium, shortPremium float64) (Func, []Leg) {
	return build(
		NewLeg(longStrike, false, true, longPremium),
		NewLeg(shortStrike, false, false, shortPremium),
	)
}

// IronCondor sells a put and a call around the expected price and buys
// protective wings beyond them. Legs are returned in the order
// long put, short put, short call, long call; ascending strikes by
// convention.
func IronCondor(
	longPutStrike, shortPutStrike, shortCallStrike, longCallStrike float64,
	longPutPremium, shortPutPremium, shortCallPremium, longCallPremium float64,
) (Func, []Leg) {
	return build(
		NewLeg(longPutStrike, false, true, longPutPremium),
		NewLeg(shortPutStrike, false, false, shortPutPremium),
		NewLeg(shortCallStrike, true, false, shortCallPremium),
		NewLeg(longCallStrike, true, true, longCallPremium),
	)
}

func build(legs ...Leg) (Func, []Leg) {
	return Combine(legs), legs
}
