package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// CreateUser guarda un usuario nuevo; la contraseña se recibe en texto plano y se guarda hasheada
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Password = string(hashedPassword)
	user.CreatedAt = time.Now().UTC()

	var expiresAt sql.NullTime
	if user.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: user.ExpiresAt.UTC(), Valid: true}
	}

	query := `
		INSERT INTO users (id, email, password, name, is_guest, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Password,
		user.Name,
		user.IsGuest,
		expiresAt,
		user.CreatedAt,
	)
	return err
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getUser(ctx, `SELECT id, email, password, name, is_guest, expires_at, created_at FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, `SELECT id, email, password, name, is_guest, expires_at, created_at FROM users WHERE email = $1`, email)
}

func (r *UserRepository) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	var expiresAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Password,
		&user.Name,
		&user.IsGuest,
		&expiresAt,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("usuario: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		user.ExpiresAt = &expiresAt.Time
	}
	return user, nil
}

// CheckPassword compara la contraseña recibida con el hash guardado
func CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
}

// DeleteExpiredGuests elimina los invitados vencidos junto con sus tenencias y devuelve cuántos se borraron
func (r *UserRepository) DeleteExpiredGuests(ctx context.Context, now time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now = now.UTC()

	// Primero las tenencias, para respetar la clave foránea
	deleteAssetsSQL := `
		DELETE FROM crypto_assets
		WHERE user_id IN (
			SELECT id FROM users WHERE is_guest = $1 AND expires_at < $2
		)`
	if _, err := tx.ExecContext(ctx, deleteAssetsSQL, true, now); err != nil {
		return 0, fmt.Errorf("error al eliminar tenencias de invitados: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE is_guest = $1 AND expires_at < $2`, true, now)
	if err != nil {
		return 0, fmt.Errorf("error al eliminar invitados: %w", err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}
