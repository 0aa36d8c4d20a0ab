package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// priceAPI is a fake CoinGecko simple/price endpoint
type priceAPI struct {
	server  *httptest.Server
	calls   atomic.Int32
	lastIDs atomic.Value
	status  int
	body    string
	delay   time.Duration
}

func newPriceAPI(t *testing.T, status int, body string) *priceAPI {
	api := &priceAPI{status: status, body: body}
	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.calls.Add(1)
		api.lastIDs.Store(r.URL.Query().Get("ids"))
		if api.delay > 0 {
			select {
			case <-time.After(api.delay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(api.status)
		w.Write([]byte(api.body))
	}))
	t.Cleanup(api.server.Close)
	return api
}

func newTestFetcher(api *priceAPI, cache *PriceCache, disabled bool) *PriceFetcher {
	cfg := config.PricesConfig{
		DisableAPICalls: disabled,
		Currency:        "usd",
		Timeout:         time.Second,
	}
	if api != nil {
		cfg.APIURL = api.server.URL
	}
	return NewPriceFetcher(cfg, cache, nil, zap.NewNop())
}

func TestFetchPrices_Success(t *testing.T) {
	api := newPriceAPI(t, http.StatusOK, `{"bitcoin":{"usd":50000},"ethereum":{"usd":3000}}`)
	clock := newFakeClock()
	cache := NewPriceCache(5*time.Minute, clock)
	fetcher := newTestFetcher(api, cache, false)

	prices, live := fetcher.FetchPrices(context.Background(), []string{"Ethereum", "Bitcoin", "bitcoin"})

	assert.Equal(t, map[string]float64{"bitcoin": 50000, "ethereum": 3000}, prices)
	assert.True(t, live)
	assert.Equal(t, int32(1), api.calls.Load(), "one batched request per call")
	assert.Equal(t, "bitcoin,ethereum", api.lastIDs.Load())

	price, fresh, ok := cache.Get("bitcoin")
	require.True(t, ok)
	assert.True(t, fresh)
	assert.Equal(t, 50000.0, price)
}

func TestFetchPrices_DisabledReturnsSentinel(t *testing.T) {
	api := newPriceAPI(t, http.StatusOK, `{"bitcoin":{"usd":50000}}`)
	cache := NewPriceCache(5*time.Minute, newFakeClock())
	fetcher := newTestFetcher(api, cache, true)

	prices, live := fetcher.FetchPrices(context.Background(), []string{"Bitcoin", "Ethereum"})

	assert.Equal(t, map[string]float64{"bitcoin": 1, "ethereum": 1}, prices)
	assert.False(t, live)
	assert.Equal(t, int32(0), api.calls.Load())

	_, _, ok := cache.Get("bitcoin")
	assert.False(t, ok, "disabled mode must not touch the cache")
}

func TestFetchPrices_FailureFallsBackToFreshCache(t *testing.T) {
	api := newPriceAPI(t, http.StatusInternalServerError, `{"error":"boom"}`)
	clock := newFakeClock()
	cache := NewPriceCache(5*time.Minute, clock)
	cache.Put("bitcoin", 50000, clock.Now())
	fetcher := newTestFetcher(api, cache, false)

	prices, live := fetcher.FetchPrices(context.Background(), []string{"bitcoin", "ethereum"})

	assert.Equal(t, map[string]float64{"bitcoin": 50000, "ethereum": 1}, prices)
	assert.False(t, live)
}

func TestFetchPrices_FailureIgnoresStaleCache(t *testing.T) {
	api := newPriceAPI(t, http.StatusTooManyRequests, ``)
	clock := newFakeClock()
	cache := NewPriceCache(5*time.Minute, clock)
	cache.Put("bitcoin", 50000, clock.Now())
	clock.Advance(6 * time.Minute)
	fetcher := newTestFetcher(api, cache, false)

	prices, live := fetcher.FetchPrices(context.Background(), []string{"bitcoin"})

	assert.Equal(t, map[string]float64{"bitcoin": FallbackPrice}, prices)
	assert.False(t, live)
}

func TestFetchPrices_MalformedBodies(t *testing.T) {
	bodies := map[string]string{
		"not json":        `<html>rate limited</html>`,
		"array":           `[{"id":"bitcoin","current_price":50000}]`,
		"string price":    `{"bitcoin":{"usd":"50000"}}`,
		"no usable entry": `{"bitcoin":{"eur":45000}}`,
		"empty object":    `{}`,
		"zero price":      `{"bitcoin":{"usd":0}}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			api := newPriceAPI(t, http.StatusOK, body)
			clock := newFakeClock()
			cache := NewPriceCache(5*time.Minute, clock)
			cache.Put("bitcoin", 42000, clock.Now())
			fetcher := newTestFetcher(api, cache, false)

			prices, live := fetcher.FetchPrices(context.Background(), []string{"bitcoin", "solana"})

			assert.Equal(t, map[string]float64{"bitcoin": 42000, "solana": 1}, prices)
			assert.False(t, live)
		})
	}
}

func TestFetchPrices_NetworkErrorFallsBack(t *testing.T) {
	api := newPriceAPI(t, http.StatusOK, `{}`)
	api.server.Close()
	cache := NewPriceCache(5*time.Minute, newFakeClock())
	fetcher := newTestFetcher(api, cache, false)

	prices, live := fetcher.FetchPrices(context.Background(), []string{"bitcoin"})

	assert.Equal(t, map[string]float64{"bitcoin": FallbackPrice}, prices)
	assert.False(t, live)
}

func TestFetchPrices_TimeoutFallsBack(t *testing.T) {
	api := newPriceAPI(t, http.StatusOK, `{"bitcoin":{"usd":50000}}`)
	api.delay = 2 * time.Second
	cache := NewPriceCache(5*time.Minute, newFakeClock())
	fetcher := NewPriceFetcher(config.PricesConfig{
		APIURL:   api.server.URL,
		Currency: "usd",
		Timeout:  50 * time.Millisecond,
	}, cache, nil, zap.NewNop())

	start := time.Now()
	prices, live := fetcher.FetchPrices(context.Background(), []string{"bitcoin"})

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, map[string]float64{"bitcoin": FallbackPrice}, prices)
	assert.False(t, live)
}

func TestFetchPrices_EmptyInput(t *testing.T) {
	api := newPriceAPI(t, http.StatusOK, `{}`)
	fetcher := newTestFetcher(api, NewPriceCache(time.Minute, nil), false)

	prices, live := fetcher.FetchPrices(context.Background(), nil)

	assert.Empty(t, prices)
	assert.False(t, live)
	assert.Equal(t, int32(0), api.calls.Load())
}
