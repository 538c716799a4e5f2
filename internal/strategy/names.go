package strategy

import (
	"fmt"
	"strings"
)

// Name identifies a strategy family.
type Name string

const (
	LongCall       Name = "Long Call"
	BullCallSpread Name = "Bull Call Spread"
	IronCondor     Name = "Iron Condor"
	BearPutSpread  Name = "Bear Put Spread"
	LongPut        Name = "Long Put"
)

// Names lists every family in selection priority order.
var Names = []Name{LongCall, BullCallSpread, IronCondor, BearPutSpread, LongPut}

// ParseName accepts a family name in any case, with spaces, dashes or
// underscores between words. The empty string parses to the empty Name,
// which lets Choose pick by price ratio.
func ParseName(s string) (Name, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	norm := strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(s))
	norm = strings.Join(strings.Fields(norm), " ")
	for _, n := range Names {
		if strings.ToLower(string(n)) == norm {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: unknown strategy %q", ErrInvalidInput, s)
}

// Choose applies the selection policy. Each band is tried in priority
// order; a band matches when it is the explicit choice, or when no
// explicit choice was given and its price ratio holds. Without an explicit
// name the bands partition the real line, and target == 0.7*current falls
// to Long Put.
func Choose(explicit Name, current, target float64) Name {
	auto := explicit == ""
	switch {
	case explicit == LongCall || (auto && target > current*1.3):
		return LongCall
	case explicit == BullCallSpread || (auto && target > current*1.1):
		return BullCallSpread
	case explicit == IronCondor || (auto && target > current*0.9):
		return IronCondor
	case explicit == BearPutSpread || (auto && target > current*0.7):
		return BearPutSpread
	}
	return LongPut
}
