package strategy

// Per-family strike overrides. A nil field keeps the ladder default
// derived from the target price.

// LongCallStrikes overrides the Long Call strike.
type LongCallStrikes struct {
	LongCall *float64 `json:"long_call,omitempty"`
}

// BullCallSpreadStrikes overrides the Bull Call Spread strikes.
type BullCallSpreadStrikes struct {
	LongCall  *float64 `json:"long_call,omitempty"`
	ShortCall *float64 `json:"short_call,omitempty"`
}

// IronCondorStrikes overrides the Iron Condor strikes.
type IronCondorStrikes struct {
	LongPut   *float64 `json:"long_put,omitempty"`
	ShortPut  *float64 `json:"short_put,omitempty"`
	ShortCall *float64 `json:"short_call,omitempty"`
	LongCall  *float64 `json:"long_call,omitempty"`
}

// BearPutSpreadStrikes overrides the Bear Put Spread strikes.
type BearPutSpreadStrikes struct {
	LongPut  *float64 `json:"long_put,omitempty"`
	ShortPut *float64 `json:"short_put,omitempty"`
}

// LongPutStrikes overrides the Long Put strike.
type LongPutStrikes struct {
	LongPut *float64 `json:"long_put,omitempty"`
}

// Overrides groups the per-family records.
type Overrides struct {
	LongCall       LongCallStrikes       `json:"long_call"`
	BullCallSpread BullCallSpreadStrikes `json:"bull_call_spread"`
	IronCondor     IronCondorStrikes     `json:"iron_condor"`
	BearPutSpread  BearPutSpreadStrikes  `json:"bear_put_spread"`
	LongPut        LongPutStrikes        `json:"long_put"`
}

// Strike returns a pointer to v, for filling override fields.
func Strike(v float64) *float64 { return &v }

// SharedOverrides applies each value to every family that has that leg.
// Any argument may be nil.
func SharedOverrides(longCall, shortCall, longPut, shortPut *float64) Overrides {
	return Overrides{
		LongCall:       LongCallStrikes{LongCall: longCall},
		BullCallSpread: BullCallSpreadStrikes{LongCall: longCall, ShortCall: shortCall},
		IronCondor:     IronCondorStrikes{LongPut: longPut, ShortPut: shortPut, ShortCall: shortCall, LongCall: longCall},
		BearPutSpread:  BearPutSpreadStrikes{LongPut: longPut, ShortPut: shortPut},
		LongPut:        LongPutStrikes{LongPut: longPut},
	}
}

func (o Overrides) all() []*float64 {
	return []*float64{
		o.LongCall.LongCall,
		o.BullCallSpread.LongCall, o.BullCallSpread.ShortCall,
		o.IronCondor.LongPut, o.IronCondor.ShortPut, o.IronCondor.ShortCall, o.IronCondor.LongCall,
		o.BearPutSpread.LongPut, o.BearPutSpread.ShortPut,
		o.LongPut.LongPut,
	}
}

func strikeOr(override *float64, def float64) float64 {
	if override != nil {
		return *override
	}
	return def
}
