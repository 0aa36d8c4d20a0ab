package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HoldingStore define las operaciones que necesitamos del repositorio de tenencias
type HoldingStore interface {
	FindByOwner(ctx context.Context, ownerID string) ([]models.Holding, error)
	FindByID(ctx context.Context, ownerID, id string) (*models.Holding, error)
	Create(ctx context.Context, h *models.Holding) error
	Update(ctx context.Context, h *models.Holding) error
	Delete(ctx context.Context, id string) error
}

// PriceSource resuelve precios actuales para un lote de activos; live indica que
// vienen de la API y no del caché o del precio de respaldo
type PriceSource interface {
	FetchPrices(ctx context.Context, names []string) (prices map[string]float64, live bool)
}

// PortfolioService valúa el portafolio de un usuario y media todas las modificaciones
type PortfolioService struct {
	store     HoldingStore
	prices    PriceSource
	cache     *PriceCache
	writeBack bool
	logger    *zap.Logger
}

// NewPortfolioService crea el servicio; con writeBack los precios obtenidos en cada lectura se guardan
func NewPortfolioService(store HoldingStore, prices PriceSource, cache *PriceCache, writeBack bool, logger *zap.Logger) *PortfolioService {
	return &PortfolioService{
		store:     store,
		prices:    prices,
		cache:     cache,
		writeBack: writeBack,
		logger:    logger,
	}
}

var hundred = decimal.NewFromInt(100)

// GetPortfolio carga las tenencias del usuario, las valúa con precios actuales y
// calcula el porcentaje de cada una sobre el total
func (s *PortfolioService) GetPortfolio(ctx context.Context, ownerID string) (*models.PortfolioSnapshot, error) {
	if ownerID == "" {
		return nil, models.ErrUnauthenticated
	}

	holdings, err := s.store.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	// Sin tenencias no hace falta consultar precios
	if len(holdings) == 0 {
		return buildSnapshot(holdings), nil
	}

	names := make([]string, len(holdings))
	for i, h := range holdings {
		names[i] = h.Name
	}
	prices, live := s.prices.FetchPrices(ctx, names)

	var changed []int
	for i := range holdings {
		h := &holdings[i]

		price, ok := prices[cacheKey(h.Name)]
		if !ok {
			// No debería pasar: FetchPrices cubre todos los nombres en el camino de respaldo
			price = h.Price()
		} else if h.PriceUSD == nil || *h.PriceUSD != price {
			p := price
			h.PriceUSD = &p
			changed = append(changed, i)
		}

		h.TotalValue = totalValue(h.Amount, price)
	}

	// Solo se guardan precios reales, nunca el de respaldo
	if s.writeBack && live {
		s.persistPrices(ctx, holdings, changed)
	}

	return buildSnapshot(holdings), nil
}

// AddHolding registra una tenencia nueva y siembra el caché con su precio
func (s *PortfolioService) AddHolding(ctx context.Context, ownerID string, in models.NewHoldingInput) (*models.Holding, error) {
	if ownerID == "" {
		return nil, models.ErrUnauthenticated
	}

	name := strings.TrimSpace(in.Name)
	symbol := strings.TrimSpace(in.Symbol)

	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name es obligatorio", models.ErrInvalidArgument)
	case symbol == "":
		return nil, fmt.Errorf("%w: symbol es obligatorio", models.ErrInvalidArgument)
	case in.Amount == nil:
		return nil, fmt.Errorf("%w: amount es obligatorio", models.ErrInvalidArgument)
	case in.PriceUSD == nil:
		return nil, fmt.Errorf("%w: price_usd es obligatorio", models.ErrInvalidArgument)
	case !isFinite(*in.Amount) || *in.Amount < 0:
		return nil, fmt.Errorf("%w: amount no puede ser negativo", models.ErrInvalidArgument)
	case !isFinite(*in.PriceUSD) || *in.PriceUSD < 0:
		return nil, fmt.Errorf("%w: price_usd no puede ser negativo", models.ErrInvalidArgument)
	}

	amount, price := *in.Amount, *in.PriceUSD
	holding := &models.Holding{
		OwnerID:    ownerID,
		Name:       name,
		Symbol:     symbol,
		Amount:     amount,
		PriceUSD:   &price,
		TotalValue: totalValue(amount, price),
	}

	if err := s.store.Create(ctx, holding); err != nil {
		return nil, err
	}

	// Las lecturas inmediatas encuentran el precio fresco
	if price > 0 {
		s.cache.Put(name, price, s.cache.Now())
	}

	s.logger.Info("Tenencia creada",
		zap.String("user_id", ownerID),
		zap.String("holding_id", holding.ID),
		zap.String("asset", name),
	)
	return holding, nil
}

// DeleteHolding elimina una tenencia del usuario; si no es suya responde NotFound
func (s *PortfolioService) DeleteHolding(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return models.ErrUnauthenticated
	}

	holding, err := s.store.FindByID(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, holding.ID); err != nil {
		return err
	}

	s.logger.Info("Tenencia eliminada", zap.String("user_id", ownerID), zap.String("holding_id", id))
	return nil
}

// UpdateAmount cambia la cantidad y recalcula el valor con el precio actual en caché o
// el guardado, sin consultar la API
func (s *PortfolioService) UpdateAmount(ctx context.Context, ownerID, id string, amount float64) (*models.Holding, error) {
	if ownerID == "" {
		return nil, models.ErrUnauthenticated
	}
	if !isFinite(amount) || amount < 0 {
		return nil, fmt.Errorf("%w: amount no puede ser negativo", models.ErrInvalidArgument)
	}

	holding, err := s.store.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	price, fresh, ok := s.cache.Get(holding.Name)
	if ok && fresh {
		holding.PriceUSD = &price
	}

	holding.Amount = amount
	holding.TotalValue = totalValue(amount, holding.Price())

	if err := s.store.Update(ctx, holding); err != nil {
		return nil, err
	}
	return holding, nil
}

// persistPrices guarda los precios refrescados; un fallo no invalida la lectura
func (s *PortfolioService) persistPrices(ctx context.Context, holdings []models.Holding, changed []int) {
	for _, i := range changed {
		h := holdings[i]
		if err := s.store.Update(ctx, &h); err != nil {
			s.logger.Warn("No se pudo guardar el precio actualizado",
				zap.String("holding_id", h.ID),
				zap.Error(err),
			)
		}
	}
}

// totalValue calcula amount * price redondeado a 8 decimales
func totalValue(amount, price float64) float64 {
	v, _ := decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(price)).Round(8).Float64()
	return v
}

// buildSnapshot asigna el porcentaje de cada tenencia y arma los datos del gráfico
func buildSnapshot(holdings []models.Holding) *models.PortfolioSnapshot {
	if holdings == nil {
		holdings = []models.Holding{}
	}

	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(decimal.NewFromFloat(h.TotalValue))
	}

	chart := models.PieChartData{
		Labels:   []string{},
		Values:   []string{},
		Currency: "USD",
	}

	for i := range holdings {
		h := &holdings[i]
		if total.IsPositive() {
			h.PortfolioPercentage = decimal.NewFromFloat(h.TotalValue).Div(total).Mul(hundred).StringFixed(2)
		} else {
			h.PortfolioPercentage = "0.00"
		}
		chart.Labels = append(chart.Labels, h.Symbol)
		chart.Values = append(chart.Values, h.PortfolioPercentage)
	}

	sum, _ := total.Round(8).Float64()
	return &models.PortfolioSnapshot{
		Holdings:   holdings,
		TotalValue: sum,
		ChartData:  chart,
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
