package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
)

// PressureMonitor decide cuándo y cuánto desalojar. Es dueño de los tunables:
// por debajo de Threshold marcos libres se hace una pasada de hasta PagesPerPass desalojos.
type PressureMonitor struct {
	mu       sync.Mutex
	tunables models.Tunables

	maxElapsed time.Duration
	freeFrames func() int
	swapOut    func() (int, error)
}

func NewPressureMonitor(t models.Tunables, maxElapsed time.Duration, freeFrames func() int, swapOut func() (int, error)) *PressureMonitor {
	return &PressureMonitor{
		tunables:   t,
		maxElapsed: maxElapsed,
		freeFrames: freeFrames,
		swapOut:    swapOut,
	}
}

func (pm *PressureMonitor) Tunables() models.Tunables {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.tunables
}

func (pm *PressureMonitor) SetTunables(t models.Tunables) error {
	if err := t.Validate(); err != nil {
		return err
	}
	pm.mu.Lock()
	pm.tunables = t
	pm.mu.Unlock()
	slog.Info("Tunables actualizados", "threshold", t.Threshold, "pages_per_pass", t.PagesPerPass)
	return nil
}

func (pm *PressureMonitor) UnderPressure() bool {
	return pm.freeFrames() < pm.Tunables().Threshold
}

// Relieve hace una pasada de desalojo si hay presión de memoria y devuelve los slots usados.
// Que no haya página elegible es transitorio (el barrido de bits de acceso las va liberando),
// así que se reintenta con backoff; el resto de los errores corta la pasada.
func (pm *PressureMonitor) Relieve(ctx context.Context) ([]int, error) {
	if !pm.UnderPressure() {
		return nil, nil
	}
	t := pm.Tunables()

	var slots []int
	for i := 0; i < t.PagesPerPass; i++ {
		slot, err := backoff.RetryNotifyWithData(pm.attempt, pm.newBackOff(ctx), func(err error, wait time.Duration) {
			slog.Debug("Reintentando desalojo", "error", err, "espera", wait)
		})
		if err != nil {
			slog.Warn("Pasada de desalojo interrumpida", "desalojadas", len(slots), "error", err)
			return slots, err
		}
		slots = append(slots, slot)
	}

	slog.Debug("Pasada de desalojo completa", "slots", slots, "marcos_libres", pm.freeFrames())
	return slots, nil
}

func (pm *PressureMonitor) attempt() (int, error) {
	slot, err := pm.swapOut()
	if err == nil {
		return slot, nil
	}
	if errors.Is(err, ErrNoEligiblePage) || errors.Is(err, ErrEntryNotPresent) {
		return -1, err
	}
	return -1, backoff.Permanent(err)
}

func (pm *PressureMonitor) newBackOff(ctx context.Context) backoff.BackOffContext {
	if pm.maxElapsed <= 0 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 100 * time.Millisecond
	b.MaxElapsedTime = pm.maxElapsed
	return backoff.WithContext(b, ctx)
}
