package models

import "time"

// Holding representa la cantidad de un activo cripto que posee un usuario
type Holding struct {
	ID                  string    `json:"id"`
	OwnerID             string    `json:"user_id"`
	Name                string    `json:"name"`   // Nombre canónico, se usa como clave de precio
	Symbol              string    `json:"symbol"` // Ticker, solo para mostrar
	Amount              float64   `json:"amount"`
	PriceUSD            *float64  `json:"price_usd"`                      // Nulo hasta la primera valuación
	TotalValue          float64   `json:"total_value"`                    // Amount * PriceUSD
	PortfolioPercentage string    `json:"portfolio_percentage,omitempty"` // Campo calculado, no almacenado
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Price devuelve el precio almacenado o 0 si todavía no tiene uno
func (h Holding) Price() float64 {
	if h.PriceUSD == nil {
		return 0
	}
	return *h.PriceUSD
}

// PortfolioSnapshot es la vista valuada del portafolio de un usuario, nunca se persiste
type PortfolioSnapshot struct {
	Holdings   []Holding    `json:"holdings"`
	TotalValue float64      `json:"total_value"` // Valor total actual en USD
	ChartData  PieChartData `json:"chart_data"`  // Datos formateados para el gráfico de torta
}

// PieChartData contiene los datos formateados para un gráfico de torta
type PieChartData struct {
	Labels   []string `json:"labels"`   // Etiquetas (símbolos)
	Values   []string `json:"values"`   // Porcentajes con dos decimales
	Currency string   `json:"currency"` // Moneda (USD)
}

// NewHoldingInput son los datos necesarios para registrar una tenencia
type NewHoldingInput struct {
	Name     string   `json:"name" binding:"required"`
	Symbol   string   `json:"symbol" binding:"required"`
	Amount   *float64 `json:"amount" binding:"required"`
	PriceUSD *float64 `json:"price_usd" binding:"required"`
}

// UpdateAmountInput es el cuerpo de PUT /assets/:id
type UpdateAmountInput struct {
	Amount *float64 `json:"amount" binding:"required"`
}
