package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/database"
	"github.com/AgusMolinaCode/CryptoPortfolio_Api.git/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(f float64) *float64 { return &f }

func TestHoldingsRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewHoldingsRepository(openTestDB(t))

	btc := &models.Holding{OwnerID: "user-1", Name: "Bitcoin", Symbol: "BTC", Amount: 0.5, PriceUSD: ptr(100000), TotalValue: 50000}
	require.NoError(t, repo.Create(ctx, btc))
	assert.NotEmpty(t, btc.ID)
	assert.False(t, btc.CreatedAt.IsZero())

	got, err := repo.FindByID(ctx, "user-1", btc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", got.Name)
	assert.Equal(t, 0.5, got.Amount)
	require.NotNil(t, got.PriceUSD)
	assert.Equal(t, 100000.0, *got.PriceUSD)

	got.Amount = 1
	got.TotalValue = 100000
	require.NoError(t, repo.Update(ctx, got))

	got, err = repo.FindByID(ctx, "user-1", btc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Amount)
	assert.Equal(t, 100000.0, got.TotalValue)

	require.NoError(t, repo.Delete(ctx, btc.ID))

	_, err = repo.FindByID(ctx, "user-1", btc.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, btc.ID), models.ErrNotFound)
}

func TestHoldingsRepository_FindByIDChecksOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewHoldingsRepository(openTestDB(t))

	h := &models.Holding{OwnerID: "owner", Name: "Ethereum", Symbol: "ETH", Amount: 1}
	require.NoError(t, repo.Create(ctx, h))

	_, err := repo.FindByID(ctx, "intruder", h.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestHoldingsRepository_FindByOwnerOrderAndNullPrice(t *testing.T) {
	ctx := context.Background()
	repo := NewHoldingsRepository(openTestDB(t))

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	require.NoError(t, repo.Create(ctx, &models.Holding{OwnerID: "u", Name: "Bitcoin", Symbol: "BTC", Amount: 1}))
	require.NoError(t, repo.Create(ctx, &models.Holding{OwnerID: "u", Name: "Ethereum", Symbol: "ETH", Amount: 2, PriceUSD: ptr(3000), TotalValue: 6000}))
	require.NoError(t, repo.Create(ctx, &models.Holding{OwnerID: "other", Name: "Solana", Symbol: "SOL", Amount: 3}))

	holdings, err := repo.FindByOwner(ctx, "u")
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.Equal(t, "Bitcoin", holdings[0].Name)
	assert.Nil(t, holdings[0].PriceUSD)
	assert.Equal(t, "Ethereum", holdings[1].Name)

	empty, err := repo.FindByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	user := &models.User{Email: "jakob@mail.com", Name: "Jakob"}
	require.NoError(t, repo.CreateUser(ctx, user, "password"))
	assert.NotEmpty(t, user.ID)

	byEmail, err := repo.GetUserByEmail(ctx, "jakob@mail.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.True(t, CheckPassword(byEmail, "password"))
	assert.False(t, CheckPassword(byEmail, "wrong"))

	byID, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jakob", byID.Name)
	assert.False(t, byID.IsGuest)
	assert.Nil(t, byID.ExpiresAt)

	_, err = repo.GetUserByEmail(ctx, "missing@mail.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserRepository_DeleteExpiredGuests(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := NewUserRepository(db)
	holdings := NewHoldingsRepository(db)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Hour)
	active := now.Add(time.Hour)

	oldGuest := &models.User{Email: "old@guest.local", Name: "Guest", IsGuest: true, ExpiresAt: &expired}
	newGuest := &models.User{Email: "new@guest.local", Name: "Guest", IsGuest: true, ExpiresAt: &active}
	member := &models.User{Email: "member@mail.com", Name: "Member"}
	for _, u := range []*models.User{oldGuest, newGuest, member} {
		require.NoError(t, users.CreateUser(ctx, u, "secret"))
	}

	require.NoError(t, holdings.Create(ctx, &models.Holding{OwnerID: oldGuest.ID, Name: "Bitcoin", Symbol: "BTC", Amount: 1}))
	require.NoError(t, holdings.Create(ctx, &models.Holding{OwnerID: newGuest.ID, Name: "Bitcoin", Symbol: "BTC", Amount: 1}))

	count, err := users.DeleteExpiredGuests(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = users.GetUserByID(ctx, oldGuest.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	left, err := holdings.FindByOwner(ctx, oldGuest.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	kept, err := holdings.FindByOwner(ctx, newGuest.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	_, err = users.GetUserByID(ctx, member.ID)
	assert.NoError(t, err)
}
