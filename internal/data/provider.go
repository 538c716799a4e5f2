package data

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by every provider.
const DateLayout = "2006-01-02"

// ErrNoData reports that a lookup succeeded but returned nothing.
var ErrNoData = errors.New("no data")

// ContractType is the side of the option chain.
type ContractType string

const (
	Call ContractType = "call"
	Put  ContractType = "put"
)

// ParseContractType accepts "call", "put", "c", "p" in any case.
func ParseContractType(s string) (ContractType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return "", fmt.Errorf("unknown contract type %q", s)
}

// Provider supplies market data.
//
// Chains with no listed contracts are returned as an empty slice and a nil
// error. Missing prices are reported with an error wrapping ErrNoData.
type Provider interface {
	Secondary() Provider
	GetCurrentPrice(ctx context.Context, underlying string, date time.Time) (float64, error)
	GetOptionChain(ctx context.Context, q ChainQuery) ([]ChainEntry, error)
	GetPreviousClose(ctx context.Context, instrumentID string) (float64, error)
}

// ChainQuery selects option contracts of one underlying and expiration.
type ChainQuery struct {
	Underlying string
	Expiration time.Time
	Strike     float64 // zero means all strikes
	Type       ContractType
	AsOf       time.Time // zero means today
}

func (q ChainQuery) String() string {
	return fmt.Sprintf("%s %s %s strike=%.2f", strings.ToUpper(q.Underlying), q.Expiration.Format(DateLayout), q.Type, q.Strike)
}

// ChainEntry is a single listed contract.
type ChainEntry struct {
	InstrumentID string       `json:"instrument_id"`
	Underlying   string       `json:"underlying"`
	Expiration   time.Time    `json:"expiration"`
	Strike       float64      `json:"strike"`
	Type         ContractType `json:"type"`
}

// --------------------------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------------------------

// OptionSymbolFromParts: OCC-like formatter
func OptionSymbolFromParts(underlying string, expiryDate time.Time, optionType ContractType, strike float64) string {
	// OCC: <root><YYMMDD><C|P><strike*1000 padded to 8 digits>
	expDt := expiryDate.UTC().Format("060102")
	optType := "C"
	if optionType == Put {
		optType = "P"
	}
	strikeInt := int(math.Round(strike * 1000))
	strFmt := fmt.Sprintf("%08d", strikeInt)
	return fmt.Sprintf("O:%s%s%s%s", strings.ToUpper(underlying), expDt, optType, strFmt)
}

var occSymbol = regexp.MustCompile(`^O:([A-Z.]+)(\d{6})([CP])(\d{8})$`)

// ParseOptionSymbol is the inverse of OptionSymbolFromParts.
func ParseOptionSymbol(symbol string) (ChainEntry, error) {
	m := occSymbol.FindStringSubmatch(strings.ToUpper(symbol))
	if m == nil {
		return ChainEntry{}, fmt.Errorf("malformed option symbol %q", symbol)
	}

	expiry, err := time.Parse("060102", m[2])
	if err != nil {
		return ChainEntry{}, fmt.Errorf("option symbol %q expiry: %w", symbol, err)
	}

	milli, err := strconv.Atoi(m[4])
	if err != nil {
		return ChainEntry{}, fmt.Errorf("option symbol %q strike: %w", symbol, err)
	}

	typ := Call
	if m[3] == "P" {
		typ = Put
	}

	return ChainEntry{
		InstrumentID: strings.ToUpper(symbol),
		Underlying:   m[1],
		Expiration:   expiry,
		Strike:       float64(milli) / 1000,
		Type:         typ,
	}, nil
}

// ClosestEntry returns the entry whose strike is nearest to target.
// On ties the earliest entry in chain order wins.
func ClosestEntry(chain []ChainEntry, target float64) (ChainEntry, bool) {
	if len(chain) == 0 {
		return ChainEntry{}, false
	}
	best := chain[0]
	bestDist := math.Abs(best.Strike - target)
	for _, e := range chain[1:] {
		if d := math.Abs(e.Strike - target); d < bestDist {
			best, bestDist = e, d
		}
	}
	return best, true
}

// strikeInterval picks a listing interval for synthetic chains based on
// the underlying price level.
func strikeInterval(price float64) float64 {
	switch {
	case price < 25:
		return 0.5
	case price < 100:
		return 1
	case price < 500:
		return 5
	case price < 2000:
		return 10
	}
	return 50
}
