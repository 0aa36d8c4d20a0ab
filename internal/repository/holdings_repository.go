package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/models"
	"github.com/google/uuid"
)

// HoldingsRepository maneja la persistencia de las tenencias de criptomonedas
type HoldingsRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewHoldingsRepository crea un nuevo repositorio de tenencias
func NewHoldingsRepository(db *sql.DB) *HoldingsRepository {
	return &HoldingsRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

const holdingColumns = `id, user_id, name, symbol, amount, price_usd, total_value, created_at, updated_at`

// FindByOwner obtiene todas las tenencias de un usuario en orden de creación
func (r *HoldingsRepository) FindByOwner(ctx context.Context, ownerID string) ([]models.Holding, error) {
	query := `
		SELECT ` + holdingColumns + `
		FROM crypto_assets
		WHERE user_id = $1
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error al obtener tenencias: %w", err)
	}
	defer rows.Close()

	holdings := []models.Holding{}
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("error escaneando tenencia: %w", err)
		}
		holdings = append(holdings, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return holdings, nil
}

// FindByID busca una tenencia por ID; el filtro por usuario es parte de la consulta
// para no revelar la existencia de tenencias de otros usuarios
func (r *HoldingsRepository) FindByID(ctx context.Context, ownerID, id string) (*models.Holding, error) {
	query := `
		SELECT ` + holdingColumns + `
		FROM crypto_assets
		WHERE id = $1 AND user_id = $2`

	h, err := scanHolding(r.db.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tenencia %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error al obtener tenencia: %w", err)
	}

	return h, nil
}

// Create inserta una tenencia nueva y le asigna ID y fechas
func (r *HoldingsRepository) Create(ctx context.Context, h *models.Holding) error {
	now := r.now()
	h.ID = uuid.NewString()
	h.CreatedAt = now
	h.UpdatedAt = now

	query := `
		INSERT INTO crypto_assets (` + holdingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		h.ID,
		h.OwnerID,
		h.Name,
		h.Symbol,
		h.Amount,
		nullFloat(h.PriceUSD),
		h.TotalValue,
		h.CreatedAt,
		h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error al crear tenencia: %w", err)
	}
	return nil
}

// Update guarda cantidad, precio y valor total de una tenencia existente
func (r *HoldingsRepository) Update(ctx context.Context, h *models.Holding) error {
	h.UpdatedAt = r.now()

	query := `
		UPDATE crypto_assets
		SET amount = $1, price_usd = $2, total_value = $3, updated_at = $4
		WHERE id = $5`

	res, err := r.db.ExecContext(ctx, query,
		h.Amount,
		nullFloat(h.PriceUSD),
		h.TotalValue,
		h.UpdatedAt,
		h.ID,
	)
	if err != nil {
		return fmt.Errorf("error al actualizar tenencia: %w", err)
	}

	return expectOneRow(res, h.ID)
}

// Delete elimina una tenencia de forma permanente
func (r *HoldingsRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM crypto_assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error al eliminar tenencia: %w", err)
	}

	return expectOneRow(res, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHolding(row rowScanner) (*models.Holding, error) {
	var h models.Holding
	var price sql.NullFloat64

	err := row.Scan(
		&h.ID,
		&h.OwnerID,
		&h.Name,
		&h.Symbol,
		&h.Amount,
		&price,
		&h.TotalValue,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if price.Valid {
		p := price.Float64
		h.PriceUSD = &p
	}
	return &h, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("tenencia %s: %w", id, models.ErrNotFound)
	}
	return nil
}
