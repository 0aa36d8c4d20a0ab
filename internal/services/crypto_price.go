package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/config"
	"go.uber.org/zap"
)

// FallbackPrice es el precio que se usa cuando no hay forma de conocer el real
const FallbackPrice = 1.0

var errNoUsablePrices = errors.New("no se encontraron precios para los activos solicitados")

// PriceFetcher obtiene precios en USD desde la API externa (CoinGecko simple/price)
// y degrada al caché o al precio de respaldo cuando la API falla
type PriceFetcher struct {
	cfg    config.PricesConfig
	cache  *PriceCache
	client *http.Client
	logger *zap.Logger
}

// NewPriceFetcher crea el fetcher; si client es nil se usa uno con el timeout configurado
func NewPriceFetcher(cfg config.PricesConfig, cache *PriceCache, client *http.Client, logger *zap.Logger) *PriceFetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &PriceFetcher{
		cfg:    cfg,
		cache:  cache,
		client: client,
		logger: logger,
	}
}

// FetchPrices devuelve el precio de cada activo, con el nombre en minúsculas como clave.
// Nunca devuelve error: si la API falla, cada nombre se resuelve desde el caché
// (si está fresco) o con FallbackPrice. live es true solo si los precios vienen
// de una respuesta de la API.
func (f *PriceFetcher) FetchPrices(ctx context.Context, names []string) (prices map[string]float64, live bool) {
	ids := distinctKeys(names)
	if len(ids) == 0 {
		return map[string]float64{}, false
	}

	// Con las llamadas deshabilitadas no se toca la red ni el caché
	if f.cfg.DisableAPICalls {
		f.logger.Debug("Llamadas a la API de precios deshabilitadas", zap.Int("assets", len(ids)))
		prices = make(map[string]float64, len(ids))
		for _, id := range ids {
			prices[id] = FallbackPrice
		}
		return prices, false
	}

	prices, err := f.fetchLive(ctx, ids)
	if err != nil {
		f.logger.Warn("API de precios no disponible, usando precios en caché",
			zap.Error(err),
			zap.Strings("assets", ids),
		)
		return f.fallback(ids), false
	}

	// El lote entero se escribe antes de devolverlo
	f.cache.PutAll(prices, f.cache.Now())

	f.logger.Debug("Precios obtenidos", zap.Int("assets", len(prices)))
	return prices, true
}

// fetchLive hace una sola petición para todo el lote
func (f *PriceFetcher) fetchLive(ctx context.Context, ids []string) (map[string]float64, error) {
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	u, err := url.Parse(f.cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("URL de la API de precios inválida: %w", err)
	}
	q := u.Query()
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", f.cfg.Currency)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error en la petición HTTP: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("la API de precios respondió %d", resp.StatusCode)
	}

	// Formato esperado: {"bitcoin": {"usd": 50000}}
	var result map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error decodificando JSON: %w", err)
	}

	prices := make(map[string]float64, len(result))
	for id, quotes := range result {
		price, ok := quotes[f.cfg.Currency]
		if !ok || price <= 0 {
			continue
		}
		prices[cacheKey(id)] = price
	}

	if len(prices) == 0 {
		return nil, errNoUsablePrices
	}
	return prices, nil
}

// fallback resuelve cada nombre desde el caché fresco o con el precio de respaldo
func (f *PriceFetcher) fallback(ids []string) map[string]float64 {
	prices := make(map[string]float64, len(ids))
	for _, id := range ids {
		if price, fresh, ok := f.cache.Get(id); ok && fresh {
			prices[id] = price
			continue
		}
		prices[id] = FallbackPrice
	}
	return prices
}

// distinctKeys normaliza, elimina duplicados y ordena los nombres para que la petición sea determinista
func distinctKeys(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	ids := make([]string, 0, len(names))
	for _, name := range names {
		key := cacheKey(name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ids = append(ids, key)
	}
	sort.Strings(ids)
	return ids
}
