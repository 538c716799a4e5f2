package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/contactkeval/option-picker/internal/logger"
)

// cacheDataProvider is a read-through SQLite cache in front of secondary.
// Empty chains and missing prices are never cached.
type cacheDataProvider struct {
	db        *sql.DB
	ttl       time.Duration // zero never expires
	secondary Provider
	now       func() time.Time
}

// NewCacheDataProvider opens (or creates) the cache database at path.
func NewCacheDataProvider(path string, ttl time.Duration, secondary Provider) (*cacheDataProvider, error) {
	if secondary == nil {
		return nil, errors.New("cache provider needs a secondary provider")
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	db.SetMaxOpenConns(4)

	c := &cacheDataProvider{db: db, ttl: ttl, secondary: secondary, now: time.Now}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	logger.Infof("quote cache enabled path=%s ttl=%s", path, ttl)
	return c, nil
}

func (c *cacheDataProvider) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS spot_prices (
		underlying TEXT NOT NULL,
		date TEXT NOT NULL,
		price REAL NOT NULL,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY (underlying, date)
	);

	CREATE TABLE IF NOT EXISTS option_chains (
		query_key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS previous_closes (
		instrument_id TEXT PRIMARY KEY,
		price REAL NOT NULL,
		fetched_at INTEGER NOT NULL
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (c *cacheDataProvider) Close() error {
	return c.db.Close()
}

func (c *cacheDataProvider) Secondary() Provider {
	return c.secondary
}

func (c *cacheDataProvider) fresh(fetchedAt int64) bool {
	if c.ttl <= 0 {
		return true
	}
	return c.now().Sub(time.Unix(fetchedAt, 0)) < c.ttl
}

func (c *cacheDataProvider) GetCurrentPrice(ctx context.Context, underlying string, date time.Time) (float64, error) {
	key := strings.ToUpper(underlying)
	day := date.Format(DateLayout)

	var price float64
	var fetchedAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT price, fetched_at FROM spot_prices WHERE underlying = ? AND date = ?`, key, day,
	).Scan(&price, &fetchedAt)
	switch {
	case err == nil && c.fresh(fetchedAt):
		logger.Tracef("event=cache_hit kind=spot underlying=%s date=%s", key, day)
		return price, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		logger.Errorf("event=cache_read_failed kind=spot err=%v", err)
	}

	price, err = c.secondary.GetCurrentPrice(ctx, underlying, date)
	if err != nil {
		return 0, err
	}

	c.exec(ctx, `INSERT OR REPLACE INTO spot_prices (underlying, date, price, fetched_at) VALUES (?, ?, ?, ?)`,
		key, day, price, c.now().Unix())
	return price, nil
}

func (c *cacheDataProvider) GetOptionChain(ctx context.Context, q ChainQuery) ([]ChainEntry, error) {
	key := chainKey(q)

	var payload string
	var fetchedAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM option_chains WHERE query_key = ?`, key,
	).Scan(&payload, &fetchedAt)
	if err == nil && c.fresh(fetchedAt) {
		var chain []ChainEntry
		if err := json.Unmarshal([]byte(payload), &chain); err == nil {
			logger.Tracef("event=cache_hit kind=chain key=%s contracts=%d", key, len(chain))
			return chain, nil
		}
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logger.Errorf("event=cache_read_failed kind=chain err=%v", err)
	}

	chain, err := c.secondary.GetOptionChain(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return chain, nil
	}

	b, err := json.Marshal(chain)
	if err == nil {
		c.exec(ctx, `INSERT OR REPLACE INTO option_chains (query_key, payload, fetched_at) VALUES (?, ?, ?)`,
			key, string(b), c.now().Unix())
	}
	return chain, nil
}

func (c *cacheDataProvider) GetPreviousClose(ctx context.Context, instrumentID string) (float64, error) {
	key := strings.ToUpper(instrumentID)

	var price float64
	var fetchedAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT price, fetched_at FROM previous_closes WHERE instrument_id = ?`, key,
	).Scan(&price, &fetchedAt)
	switch {
	case err == nil && c.fresh(fetchedAt):
		logger.Tracef("event=cache_hit kind=prev_close instrument=%s", key)
		return price, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		logger.Errorf("event=cache_read_failed kind=prev_close err=%v", err)
	}

	price, err = c.secondary.GetPreviousClose(ctx, instrumentID)
	if err != nil {
		return 0, err
	}

	c.exec(ctx, `INSERT OR REPLACE INTO previous_closes (instrument_id, price, fetched_at) VALUES (?, ?, ?)`,
		key, price, c.now().Unix())
	return price, nil
}

// exec writes to the cache; failures are logged and otherwise ignored.
func (c *cacheDataProvider) exec(ctx context.Context, query string, args ...any) {
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		logger.Errorf("event=cache_write_failed err=%v", err)
	}
}

func chainKey(q ChainQuery) string {
	parts := []string{
		strings.ToUpper(q.Underlying),
		q.Expiration.Format(DateLayout),
		string(q.Type),
		strconv.FormatFloat(q.Strike, 'f', -1, 64),
	}
	if !q.AsOf.IsZero() {
		parts = append(parts, q.AsOf.Format(DateLayout))
	}
	return strings.Join(parts, "|")
}
