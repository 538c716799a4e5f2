package data

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/contactkeval/option-picker/internal/logger"
)

const (
	pricesFile = "prices.csv"
	chainsFile = "chains.csv"
)

// priceRow is one line of prices.csv.
type priceRow struct {
	Underlying string `csv:"underlying"`
	Date       string `csv:"date"`
	Close      string `csv:"close"`
}

// chainRow is one line of chains.csv.
type chainRow struct {
	Underlying string `csv:"underlying"`
	Expiration string `csv:"expiration"`
	Type       string `csv:"type"`
	Strike     string `csv:"strike"`
	Ticker     string `csv:"ticker"`
	PrevClose  string `csv:"prev_close"`
}

// localFileDataProvider implements Data Provider from local CSV files.
// Lookups that find nothing locally fall through to secondary.
type localFileDataProvider struct {
	dir       string
	secondary Provider

	loadOnce sync.Once
	loadErr  error
	prices   map[string]float64 // UNDERLYING|date
	chains   []ChainEntry
	closes   map[string]float64 // instrument id
}

// NewLocalFileDataProvider convenience constructor.
func NewLocalFileDataProvider(dir string, secondary Provider) *localFileDataProvider {
	return &localFileDataProvider{dir: dir, secondary: secondary}
}

func (localFileDataProv *localFileDataProvider) Secondary() Provider {
	return localFileDataProv.secondary
}

func (localFileDataProv *localFileDataProvider) GetCurrentPrice(ctx context.Context, underlying string, date time.Time) (float64, error) {
	if err := localFileDataProv.load(); err != nil {
		return 0, err
	}

	if v, ok := localFileDataProv.prices[priceKey(underlying, date)]; ok {
		return v, nil
	}
	if localFileDataProv.secondary != nil {
		return localFileDataProv.secondary.GetCurrentPrice(ctx, underlying, date)
	}
	return 0, fmt.Errorf("local price %s %s: %w", underlying, date.Format(DateLayout), ErrNoData)
}

func (localFileDataProv *localFileDataProvider) GetOptionChain(ctx context.Context, q ChainQuery) ([]ChainEntry, error) {
	if err := localFileDataProv.load(); err != nil {
		return nil, err
	}

	out := []ChainEntry{}
	for _, e := range localFileDataProv.chains {
		if !strings.EqualFold(e.Underlying, q.Underlying) || !e.Expiration.Equal(q.Expiration) {
			continue
		}
		if q.Type != "" && e.Type != q.Type {
			continue
		}
		if q.Strike > 0 && math.Abs(e.Strike-q.Strike) > 1e-9 {
			continue
		}
		out = append(out, e)
	}

	if len(out) == 0 && localFileDataProv.secondary != nil {
		logger.Debugf("event=local_chain_miss query=%q", q.String())
		return localFileDataProv.secondary.GetOptionChain(ctx, q)
	}
	return out, nil
}

func (localFileDataProv *localFileDataProvider) GetPreviousClose(ctx context.Context, instrumentID string) (float64, error) {
	if err := localFileDataProv.load(); err != nil {
		return 0, err
	}

	if v, ok := localFileDataProv.closes[strings.ToUpper(instrumentID)]; ok {
		return v, nil
	}
	if localFileDataProv.secondary != nil {
		return localFileDataProv.secondary.GetPreviousClose(ctx, instrumentID)
	}
	return 0, fmt.Errorf("local previous close %s: %w", instrumentID, ErrNoData)
}

// load reads both CSV files once. A missing file is treated as empty.
func (localFileDataProv *localFileDataProvider) load() error {
	localFileDataProv.loadOnce.Do(func() {
		localFileDataProv.prices = map[string]float64{}
		localFileDataProv.closes = map[string]float64{}

		var prices []*priceRow
		if err := readCSV(filepath.Join(localFileDataProv.dir, pricesFile), &prices); err != nil {
			localFileDataProv.loadErr = err
			return
		}
		for _, row := range prices {
			date, err := time.Parse(DateLayout, strings.TrimSpace(row.Date))
			if err != nil {
				continue
			}
			px, err := strconv.ParseFloat(strings.TrimSpace(row.Close), 64)
			if err != nil {
				continue
			}
			localFileDataProv.prices[priceKey(row.Underlying, date)] = px
		}

		var chains []*chainRow
		if err := readCSV(filepath.Join(localFileDataProv.dir, chainsFile), &chains); err != nil {
			localFileDataProv.loadErr = err
			return
		}
		for _, row := range chains {
			entry, err := row.entry()
			if err != nil {
				logger.Debugf("event=skip_chain_row ticker=%s err=%v", row.Ticker, err)
				continue
			}
			localFileDataProv.chains = append(localFileDataProv.chains, entry)

			if s := strings.TrimSpace(row.PrevClose); s != "" {
				if v, err := strconv.ParseFloat(s, 64); err == nil {
					localFileDataProv.closes[entry.InstrumentID] = v
				}
			}
		}

		logger.Infof("loaded local data dir=%s prices=%d contracts=%d", localFileDataProv.dir, len(localFileDataProv.prices), len(localFileDataProv.chains))
	})
	return localFileDataProv.loadErr
}

func (row *chainRow) entry() (ChainEntry, error) {
	expiry, err := time.Parse(DateLayout, strings.TrimSpace(row.Expiration))
	if err != nil {
		return ChainEntry{}, err
	}
	typ, err := ParseContractType(row.Type)
	if err != nil {
		return ChainEntry{}, err
	}
	strike, err := strconv.ParseFloat(strings.TrimSpace(row.Strike), 64)
	if err != nil {
		return ChainEntry{}, err
	}

	ticker := strings.ToUpper(strings.TrimSpace(row.Ticker))
	if ticker == "" {
		ticker = OptionSymbolFromParts(row.Underlying, expiry, typ, strike)
	}

	return ChainEntry{
		InstrumentID: ticker,
		Underlying:   strings.ToUpper(strings.TrimSpace(row.Underlying)),
		Expiration:   expiry,
		Strike:       strike,
		Type:         typ,
	}, nil
}

func readCSV(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.UnmarshalFile(f, out); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func priceKey(underlying string, date time.Time) string {
	return strings.ToUpper(strings.TrimSpace(underlying)) + "|" + date.Format(DateLayout)
}
