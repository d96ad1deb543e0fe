package prices

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/qstudy/internal/contracts"
	"github.com/wonny/qstudy/pkg/redis"
)

// Cache is the subset of pkg/redis.Cache the provider needs
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachedProvider serves aligned prices from cache before asking the wrapped provider.
// Cache failures are logged and never fail the request.
type CachedProvider struct {
	next  contracts.PriceProvider
	cache Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachedProvider wraps next with cache
func NewCachedProvider(next contracts.PriceProvider, cache Cache, ttl time.Duration, log zerolog.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = redis.TTLDaily
	}
	return &CachedProvider{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   log.With().Str("component", "prices.cache").Logger(),
	}
}

// GetAlignedPrices implements contracts.PriceProvider
func (p *CachedProvider) GetAlignedPrices(ctx context.Context, symbols []contracts.Symbol, start, end time.Time, fields []contracts.Field) (contracts.PriceData, error) {
	key := redis.PricePanelKey(toStrings(symbols), start, end, fieldStrings(fields))

	var cached contracts.PriceData
	found, err := p.cache.Get(ctx, key, &cached)
	if err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("price cache read failed")
	}
	if found {
		p.log.Debug().Str("key", key).Msg("price cache hit")
		return inUTC(cached), nil
	}

	data, err := p.next.GetAlignedPrices(ctx, symbols, start, end, fields)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("price cache write failed")
	}
	return data, nil
}

// SymbolsFromList implements contracts.PriceProvider
func (p *CachedProvider) SymbolsFromList(ctx context.Context, listName string) ([]contracts.Symbol, error) {
	key := redis.SymbolListKey(listName)

	var cached []contracts.Symbol
	found, err := p.cache.Get(ctx, key, &cached)
	if err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("symbol list cache read failed")
	}
	if found {
		return cached, nil
	}

	symbols, err := p.next.SymbolsFromList(ctx, listName)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, key, symbols, redis.TTLLong); err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("symbol list cache write failed")
	}
	return symbols, nil
}

// msgpack decodes timestamps in local time; the calendar is kept in UTC
func inUTC(data contracts.PriceData) contracts.PriceData {
	for _, panel := range data {
		if panel == nil {
			continue
		}
		for i, d := range panel.Dates {
			panel.Dates[i] = d.UTC()
		}
	}
	return data
}

func toStrings(symbols []contracts.Symbol) []string {
	out := make([]string, len(symbols))
	for i, s := range symbols {
		out[i] = string(s)
	}
	return out
}

func fieldStrings(fields []contracts.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}
