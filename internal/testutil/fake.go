// Package testutil holds shared test doubles and golden-file helpers.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/contactkeval/option-picker/internal/data"
)

// FakeProvider is an in-memory data.Provider. It is safe for concurrent use.
type FakeProvider struct {
	mu sync.Mutex

	spot      map[string]float64
	contracts []data.ChainEntry
	closes    map[string]float64

	// Injected failures, returned before any lookup.
	SpotErr  error
	ChainErr map[data.ContractType]error
	CloseErr map[string]error

	SpotCalls  int
	ChainCalls int
	CloseCalls int
	Queries    []data.ChainQuery
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		spot:     map[string]float64{},
		closes:   map[string]float64{},
		ChainErr: map[data.ContractType]error{},
		CloseErr: map[string]error{},
	}
}

// SetSpot sets the close returned for underlying on every date.
func (f *FakeProvider) SetSpot(underlying string, price float64) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spot[strings.ToUpper(underlying)] = price
	return f
}

// AddContract lists a contract and its previous close and returns its
// instrument id. A negative premium lists the contract with no close.
func (f *FakeProvider) AddContract(underlying string, expiry time.Time, typ data.ContractType, strike, premium float64) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := data.OptionSymbolFromParts(underlying, expiry, typ, strike)
	f.contracts = append(f.contracts, data.ChainEntry{
		InstrumentID: id,
		Underlying:   strings.ToUpper(underlying),
		Expiration:   expiry,
		Strike:       strike,
		Type:         typ,
	})
	if premium >= 0 {
		f.closes[id] = premium
	}
	return id
}

// AddLadder lists calls and puts at every strike with the same premium.
func (f *FakeProvider) AddLadder(underlying string, expiry time.Time, premium float64, strikes ...float64) {
	for _, typ := range []data.ContractType{data.Call, data.Put} {
		for _, k := range strikes {
			f.AddContract(underlying, expiry, typ, k, premium)
		}
	}
}

func (f *FakeProvider) Secondary() data.Provider { return nil }

func (f *FakeProvider) GetCurrentPrice(ctx context.Context, underlying string, date time.Time) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SpotCalls++

	if f.SpotErr != nil {
		return 0, f.SpotErr
	}
	if v, ok := f.spot[strings.ToUpper(underlying)]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("fake spot %s: %w", underlying, data.ErrNoData)
}

func (f *FakeProvider) GetOptionChain(ctx context.Context, q data.ChainQuery) ([]data.ChainEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ChainCalls++
	f.Queries = append(f.Queries, q)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.ChainErr[q.Type]; err != nil {
		return nil, err
	}

	out := []data.ChainEntry{}
	for _, e := range f.contracts {
		if e.Underlying != strings.ToUpper(q.Underlying) || !e.Expiration.Equal(q.Expiration) {
			continue
		}
		if q.Type != "" && e.Type != q.Type {
			continue
		}
		if q.Strike > 0 && e.Strike != q.Strike {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *FakeProvider) GetPreviousClose(ctx context.Context, instrumentID string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CloseCalls++

	if err := f.CloseErr[instrumentID]; err != nil {
		return 0, err
	}
	if v, ok := f.closes[instrumentID]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("fake previous close %s: %w", instrumentID, data.ErrNoData)
}
