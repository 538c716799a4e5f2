package strategy

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/contactkeval/option-picker/internal/data"
	"github.com/contactkeval/option-picker/internal/logger"
	"github.com/contactkeval/option-picker/internal/payoff"
)

// Market is the contract context a selection is priced in.
type Market struct {
	Provider   data.Provider
	Underlying string
	Expiration time.Time
	AsOf       time.Time // quote date; zero means today
}

func (m Market) validate() error {
	switch {
	case m.Provider == nil:
		return fmt.Errorf("%w: no market data provider", ErrInvalidInput)
	case m.Underlying == "":
		return fmt.Errorf("%w: no underlying", ErrInvalidInput)
	case m.Expiration.IsZero():
		return fmt.Errorf("%w: no expiration", ErrInvalidInput)
	}
	return nil
}

func (m Market) asOf() time.Time {
	if m.AsOf.IsZero() {
		return time.Now().UTC().Truncate(24 * time.Hour)
	}
	return m.AsOf
}

// CurrentPrice returns the underlying close on the market's quote date.
func (m Market) CurrentPrice(ctx context.Context) (float64, error) {
	if m.Provider == nil || m.Underlying == "" {
		return 0, fmt.Errorf("%w: market needs a provider and an underlying", ErrInvalidInput)
	}
	date := m.asOf()
	price, err := m.Provider.GetCurrentPrice(ctx, m.Underlying, date)
	if err != nil {
		return 0, fmt.Errorf("%w: current price of %s on %s: %w", ErrDataUnavailable, m.Underlying, date.Format(data.DateLayout), err)
	}
	if !positive(price) {
		return 0, fmt.Errorf("%w: current price of %s on %s is %v", ErrDataUnavailable, m.Underlying, date.Format(data.DateLayout), price)
	}
	return price, nil
}

// Request describes one selection.
type Request struct {
	Current   float64
	Target    float64
	Strategy  Name // empty selects by price ratio
	Overrides Overrides

	// SnapToListed builds legs at the matched listed strike instead of the
	// requested one.
	SnapToListed bool
}

// Contract is the listed instrument a leg was priced from.
type Contract struct {
	InstrumentID string            `json:"instrument_id"`
	Strike       float64           `json:"strike"`
	Type         data.ContractType `json:"type"`
	Long         bool              `json:"long"`
	Premium      float64           `json:"premium"`
}

// Result is a fully priced strategy. Legs and Contracts share order.
type Result struct {
	Name      Name         `json:"strategy"`
	Payoff    payoff.Func  `json:"-"`
	NetCost   float64      `json:"net_cost"`
	Legs      []payoff.Leg `json:"legs"`
	Contracts []Contract   `json:"contracts"`
}

// Selector picks and prices strategies. The zero value looks premiums up
// sequentially in leg order.
type Selector struct {
	// Parallel fetches leg premiums concurrently. Results and errors are
	// the same as the sequential lookup.
	Parallel bool
}

// Select runs a sequential Selector.
func Select(ctx context.Context, m Market, req Request) (*Result, error) {
	return Selector{}.Select(ctx, m, req)
}

// Select picks a family for req, resolves every leg premium through the
// market's provider and builds the payoff. Any failed lookup aborts the
// whole selection.
func (s Selector) Select(ctx context.Context, m Market, req Request) (*Result, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	explicit, err := req.validate()
	if err != nil {
		return nil, err
	}

	name := Choose(explicit, req.Current, req.Target)
	specs := ladder(name, req.Target, req.Overrides)

	logger.Debugf("event=strategy_chosen name=%q underlying=%s current=%.2f target=%.2f legs=%d",
		name, m.Underlying, req.Current, req.Target, len(specs))

	chains := &chainSet{market: m, calls: map[data.ContractType]*chainCall{}}
	legs := make([]payoff.Leg, len(specs))
	contracts := make([]Contract, len(specs))

	resolve := func(ctx context.Context, i int) error {
		leg, c, err := resolveLeg(ctx, m, chains, specs[i], req.SnapToListed)
		if err != nil {
			return err
		}
		legs[i], contracts[i] = leg, c
		return nil
	}

	if s.Parallel {
		errs := make([]error, len(specs))
		p := pool.New().WithMaxGoroutines(len(specs)).WithContext(ctx)
		for i := range specs {
			p.Go(func(ctx context.Context) error {
				errs[i] = resolve(ctx, i)
				return errs[i]
			})
		}
		_ = p.Wait()
		if err := firstErr(errs); err != nil {
			return nil, err
		}
	} else {
		for i := range specs {
			if err := resolve(ctx, i); err != nil {
				return nil, err
			}
		}
	}

	res := &Result{
		Name:      name,
		Payoff:    payoff.Combine(legs),
		NetCost:   payoff.NetCost(legs),
		Legs:      legs,
		Contracts: contracts,
	}
	logger.Infof("event=strategy_built name=%q underlying=%s net_cost=%.2f", name, m.Underlying, res.NetCost)
	return res, nil
}

// validate checks req and returns the canonical form of req.Strategy.
func (req Request) validate() (Name, error) {
	if !positive(req.Current) {
		return "", fmt.Errorf("%w: current price %v", ErrInvalidInput, req.Current)
	}
	if !positive(req.Target) {
		return "", fmt.Errorf("%w: target price %v", ErrInvalidInput, req.Target)
	}
	name, err := ParseName(string(req.Strategy))
	if err != nil {
		return "", err
	}
	for _, v := range req.Overrides.all() {
		if v != nil && !positive(*v) {
			return "", fmt.Errorf("%w: strike override %v", ErrInvalidInput, *v)
		}
	}
	return name, nil
}

// legSpec is a leg before its premium is known.
type legSpec struct {
	strike float64
	typ    data.ContractType
	long   bool
}

// ladder returns the legs of a family in result order, with default
// strikes derived from target unless overridden.
func ladder(name Name, target float64, o Overrides) []legSpec {
	switch name {
	case LongCall:
		return []legSpec{
			{strikeOr(o.LongCall.LongCall, target*0.95), data.Call, true},
		}
	case BullCallSpread:
		return []legSpec{
			{strikeOr(o.BullCallSpread.LongCall, target*0.95), data.Call, true},
			{strikeOr(o.BullCallSpread.ShortCall, target*1.05), data.Call, false},
		}
	case IronCondor:
		return []legSpec{
			{strikeOr(o.IronCondor.LongPut, target*0.90), data.Put, true},
			{strikeOr(o.IronCondor.ShortPut, target*0.95), data.Put, false},
			{strikeOr(o.IronCondor.ShortCall, target*1.05), data.Call, false},
			{strikeOr(o.IronCondor.LongCall, target*1.10), data.Call, true},
		}
	case BearPutSpread:
		return []legSpec{
			{strikeOr(o.BearPutSpread.LongPut, target*1.05), data.Put, true},
			{strikeOr(o.BearPutSpread.ShortPut, target*0.95), data.Put, false},
		}
	}
	return []legSpec{
		{strikeOr(o.LongPut.LongPut, target*1.05), data.Put, true},
	}
}

func resolveLeg(ctx context.Context, m Market, chains *chainSet, spec legSpec, snap bool) (payoff.Leg, Contract, error) {
	unavailable := func(reason string, err error) error {
		return &DataUnavailableError{Strike: payoff.Round2(spec.strike), Type: spec.typ, Reason: reason, Err: err}
	}

	chain, err := chains.get(ctx, spec.typ)
	if err != nil {
		return payoff.Leg{}, Contract{}, unavailable("option chain lookup failed", err)
	}
	entry, ok := data.ClosestEntry(chain, spec.strike)
	if !ok {
		return payoff.Leg{}, Contract{}, unavailable("empty option chain", nil)
	}

	premium, err := m.Provider.GetPreviousClose(ctx, entry.InstrumentID)
	if err != nil {
		return payoff.Leg{}, Contract{}, unavailable("no previous close for "+entry.InstrumentID, err)
	}
	if !positive(premium) {
		return payoff.Leg{}, Contract{}, unavailable(fmt.Sprintf("previous close for %s is %v", entry.InstrumentID, premium), nil)
	}

	strike := spec.strike
	if snap {
		strike = entry.Strike
	}
	leg := payoff.NewLeg(strike, spec.typ == data.Call, spec.long, premium)

	logger.Tracef("event=leg_priced requested=%.2f listed=%.2f instrument=%s premium=%.2f",
		spec.strike, entry.Strike, entry.InstrumentID, leg.Premium)

	return leg, Contract{
		InstrumentID: entry.InstrumentID,
		Strike:       entry.Strike,
		Type:         entry.Type,
		Long:         spec.long,
		Premium:      leg.Premium,
	}, nil
}

// chainSet fetches each side of the chain at most once per selection.
type chainSet struct {
	market Market

	mu    sync.Mutex
	calls map[data.ContractType]*chainCall
}

type chainCall struct {
	once    sync.Once
	entries []data.ChainEntry
	err     error
}

func (c *chainSet) get(ctx context.Context, typ data.ContractType) ([]data.ChainEntry, error) {
	c.mu.Lock()
	call, ok := c.calls[typ]
	if !ok {
		call = &chainCall{}
		c.calls[typ] = call
	}
	c.mu.Unlock()

	call.once.Do(func() {
		call.entries, call.err = c.market.Provider.GetOptionChain(ctx, data.ChainQuery{
			Underlying: c.market.Underlying,
			Expiration: c.market.Expiration,
			Type:       typ,
			AsOf:       c.market.AsOf,
		})
	})
	return call.entries, call.err
}

// firstErr returns the error of the earliest failing leg.
func firstErr(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func positive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
