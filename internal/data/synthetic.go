package data

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/contactkeval/option-picker/internal/logger"
	"github.com/contactkeval/option-picker/internal/pricing"
)

// SyntheticConfig shapes the fabricated market.
type SyntheticConfig struct {
	Spot        map[string]float64 // per-underlying spot, upper-case keys
	DefaultSpot float64            // used when an underlying is not in Spot
	Volatility  float64            // annualised, e.g. 0.25
	Rate        float64            // risk-free rate
	Width       float64            // listed strikes span spot*(1±Width)
	AsOf        time.Time          // valuation date; zero means now
}

// synthDataProvider implements Data Provider generating deterministic
// synthetic chains, for offline use and demos.
type synthDataProvider struct {
	cfg SyntheticConfig
}

func NewSyntheticProvider(cfg SyntheticConfig) Provider {
	if cfg.DefaultSpot <= 0 {
		cfg.DefaultSpot = 100
	}
	if cfg.Volatility <= 0 {
		cfg.Volatility = 0.25
	}
	if cfg.Width <= 0 {
		cfg.Width = 0.5
	}
	spot := make(map[string]float64, len(cfg.Spot))
	for k, v := range cfg.Spot {
		spot[strings.ToUpper(k)] = v
	}
	cfg.Spot = spot
	return &synthDataProvider{cfg: cfg}
}

func (synthDataProv *synthDataProvider) Secondary() Provider {
	return nil
}

func (synthDataProv *synthDataProvider) spot(underlying string) float64 {
	if v, ok := synthDataProv.cfg.Spot[strings.ToUpper(underlying)]; ok && v > 0 {
		return v
	}
	return synthDataProv.cfg.DefaultSpot
}

func (synthDataProv *synthDataProvider) GetCurrentPrice(ctx context.Context, underlying string, date time.Time) (float64, error) {
	return synthDataProv.spot(underlying), nil
}

func (synthDataProv *synthDataProvider) GetOptionChain(ctx context.Context, q ChainQuery) ([]ChainEntry, error) {
	out := []ChainEntry{}
	if q.Expiration.IsZero() {
		return out, nil
	}

	spot := synthDataProv.spot(q.Underlying)
	step := strikeInterval(spot)
	lo := math.Max(step, math.Ceil(spot*(1-synthDataProv.cfg.Width)/step)*step)
	hi := math.Floor(spot*(1+synthDataProv.cfg.Width)/step) * step

	types := []ContractType{Call, Put}
	if q.Type != "" {
		types = []ContractType{q.Type}
	}

	for _, typ := range types {
		for i := 0; ; i++ {
			k := math.Round((lo+float64(i)*step)*100) / 100
			if k > hi {
				break
			}
			if q.Strike > 0 && math.Abs(k-q.Strike) > 1e-9 {
				continue
			}
			out = append(out, ChainEntry{
				InstrumentID: OptionSymbolFromParts(q.Underlying, q.Expiration, typ, k),
				Underlying:   strings.ToUpper(q.Underlying),
				Expiration:   q.Expiration,
				Strike:       k,
				Type:         typ,
			})
		}
	}

	logger.Tracef("event=synthetic_chain query=%q contracts=%d", q.String(), len(out))
	return out, nil
}

func (synthDataProv *synthDataProvider) GetPreviousClose(ctx context.Context, instrumentID string) (float64, error) {
	entry, err := ParseOptionSymbol(instrumentID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoData, err)
	}

	asOf := synthDataProv.cfg.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	years := entry.Expiration.Sub(asOf).Hours() / 24 / 365.25

	price := pricing.BlackScholes(pricing.Inputs{
		IsCall: entry.Type == Call,
		Spot:   synthDataProv.spot(entry.Underlying),
		Strike: entry.Strike,
		Years:  years,
		Rate:   synthDataProv.cfg.Rate,
		Vol:    synthDataProv.cfg.Volatility,
	})

	// quotes never go below one tick
	return math.Max(0.01, math.Round(price*100)/100), nil
}
