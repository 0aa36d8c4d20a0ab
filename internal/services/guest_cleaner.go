package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// GuestRepositoryInterface define las operaciones que necesitamos del repositorio de usuarios
type GuestRepositoryInterface interface {
	DeleteExpiredGuests(ctx context.Context, now time.Time) (int64, error)
}

// GuestCleaner elimina periódicamente las cuentas de invitado vencidas y sus tenencias
type GuestCleaner struct {
	interval    time.Duration
	repo        GuestRepositoryInterface
	clock       Clock
	logger      *zap.Logger
	isRunning   bool
	stopChan    chan struct{}
	done        chan struct{}
	mutex       sync.Mutex
	lastCleanup time.Time
	lastRemoved int64
}

// NewGuestCleaner crea un nuevo servicio de limpieza de invitados
func NewGuestCleaner(interval time.Duration, repo GuestRepositoryInterface, clock Clock, logger *zap.Logger) *GuestCleaner {
	if clock == nil {
		clock = SystemClock
	}
	return &GuestCleaner{
		interval: interval,
		repo:     repo,
		clock:    clock,
		logger:   logger,
	}
}

// Start inicia la limpieza periódica; la primera pasada se hace de inmediato
func (g *GuestCleaner) Start() {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.isRunning {
		return
	}

	g.isRunning = true
	g.stopChan = make(chan struct{})
	g.done = make(chan struct{})

	go func(stop, done chan struct{}) {
		defer close(done)

		ticker := time.NewTicker(g.interval)
		defer ticker.Stop()

		g.runOnce()

		for {
			select {
			case <-ticker.C:
				g.runOnce()
			case <-stop:
				return
			}
		}
	}(g.stopChan, g.done)

	g.logger.Info("Limpieza de invitados iniciada", zap.Duration("interval", g.interval))
}

// Stop detiene la limpieza y espera a que termine la pasada en curso
func (g *GuestCleaner) Stop() {
	g.mutex.Lock()
	if !g.isRunning {
		g.mutex.Unlock()
		return
	}
	g.isRunning = false
	close(g.stopChan)
	done := g.done
	g.mutex.Unlock()

	<-done
	g.logger.Info("Limpieza de invitados detenida")
}

func (g *GuestCleaner) runOnce() {
	if _, err := g.Cleanup(context.Background()); err != nil {
		g.logger.Error("Error al limpiar las cuentas de invitado", zap.Error(err))
	}
}

// Cleanup elimina los invitados vencidos ahora mismo y devuelve cuántos se borraron
func (g *GuestCleaner) Cleanup(ctx context.Context) (int64, error) {
	now := g.clock.Now()

	removed, err := g.repo.DeleteExpiredGuests(ctx, now)
	if err != nil {
		return 0, err
	}

	g.mutex.Lock()
	g.lastCleanup = now
	g.lastRemoved = removed
	g.mutex.Unlock()

	g.logger.Info("Cuentas de invitado vencidas eliminadas",
		zap.Int64("removed", removed),
		zap.Time("at", now),
	)
	return removed, nil
}

// LastCleanup devuelve la hora de la última limpieza y cuántos invitados se eliminaron
func (g *GuestCleaner) LastCleanup() (time.Time, int64) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	return g.lastCleanup, g.lastRemoved
}
