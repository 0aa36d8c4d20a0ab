package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockGuestRepository is a mock implementation of GuestRepositoryInterface for testing
type MockGuestRepository struct {
	mock.Mock
}

func (m *MockGuestRepository) DeleteExpiredGuests(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func TestGuestCleaner_Cleanup(t *testing.T) {
	repo := new(MockGuestRepository)
	clock := newFakeClock()
	cleaner := NewGuestCleaner(time.Hour, repo, clock, zap.NewNop())

	repo.On("DeleteExpiredGuests", mock.Anything, clock.Now()).Return(int64(3), nil)

	removed, err := cleaner.Cleanup(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	at, last := cleaner.LastCleanup()
	assert.Equal(t, clock.Now(), at)
	assert.Equal(t, int64(3), last)
	repo.AssertExpectations(t)
}

func TestGuestCleaner_CleanupErrorKeepsPreviousRun(t *testing.T) {
	repo := new(MockGuestRepository)
	clock := newFakeClock()
	cleaner := NewGuestCleaner(time.Hour, repo, clock, zap.NewNop())

	repo.On("DeleteExpiredGuests", mock.Anything, mock.Anything).Return(int64(0), errors.New("database is locked"))

	_, err := cleaner.Cleanup(context.Background())

	assert.Error(t, err)
	at, removed := cleaner.LastCleanup()
	assert.True(t, at.IsZero())
	assert.Equal(t, int64(0), removed)
}

func TestGuestCleaner_StartRunsImmediatelyAndStops(t *testing.T) {
	repo := new(MockGuestRepository)
	cleaner := NewGuestCleaner(time.Hour, repo, newFakeClock(), zap.NewNop())

	called := make(chan struct{}, 1)
	repo.On("DeleteExpiredGuests", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		select {
		case called <- struct{}{}:
		default:
		}
	}).Return(int64(1), nil)

	cleaner.Start()
	// A second Start is a no-op
	cleaner.Start()

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("first cleanup pass did not run")
	}

	cleaner.Stop()
	cleaner.Stop()

	_, removed := cleaner.LastCleanup()
	assert.Equal(t, int64(1), removed)
}
