package services

import (
	"strings"
	"sync"
	"time"
)

// Clock abstrae la hora actual para poder controlar el TTL en los tests
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock usa la hora real del sistema
var SystemClock Clock = systemClock{}

type cachedPrice struct {
	Price     float64
	Timestamp time.Time
}

// PriceCache guarda el último precio conocido por activo. Una entrada vencida no se
// borra: solo deja de considerarse fresca.
type PriceCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   Clock
	entries map[string]cachedPrice
}

// NewPriceCache crea un caché vacío con el TTL indicado
func NewPriceCache(ttl time.Duration, clock Clock) *PriceCache {
	if clock == nil {
		clock = SystemClock
	}
	return &PriceCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]cachedPrice),
	}
}

// cacheKey normaliza el nombre del activo; la búsqueda no distingue mayúsculas
func cacheKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get devuelve el precio guardado y si sigue dentro del TTL; ok es false si nunca se guardó
func (c *PriceCache) Get(name string) (price float64, fresh bool, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[cacheKey(name)]
	if !ok {
		return 0, false, false
	}
	return entry.Price, c.clock.Now().Sub(entry.Timestamp) < c.ttl, true
}

// Put sobrescribe la entrada del activo sin condiciones
func (c *PriceCache) Put(name string, price float64, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(name)] = cachedPrice{Price: price, Timestamp: at}
}

// PutAll guarda un lote completo bajo un solo lock, así ningún lector ve el lote a medias
func (c *PriceCache) PutAll(prices map[string]float64, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, price := range prices {
		c.entries[cacheKey(name)] = cachedPrice{Price: price, Timestamp: at}
	}
}

// Now expone el reloj del caché para que quienes escriben usen la misma hora
func (c *PriceCache) Now() time.Time {
	return c.clock.Now()
}
