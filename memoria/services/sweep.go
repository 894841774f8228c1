package services

import (
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
)

// OnTimerTick es el hook de la interrupción de reloj. Solo la CPU que lleva el tiempo
// avanza los ticks y barre los bits de acceso; devuelve si barrió.
func (m *Memory) OnTimerTick(cpu int) bool {
	if cpu != m.cfg.TimekeeperCPU {
		return false
	}
	m.ticks.Add(1)
	m.ClearAccessedBits()
	return true
}

// ClearAccessedBits limpia PteA en todas las páginas residentes de todos los procesos vivos.
// Devuelve cuántas páginas tenían el bit prendido.
func (m *Memory) ClearAccessedBits() int {
	cleared := 0
	for _, p := range m.procs.Live() {
		p.Pages.Lock()
		p.Pages.Pages(func(_ uint32, pte *models.PTE) bool {
			if pte.Present() && pte.Accessed() {
				*pte &^= models.PteA
				cleared++
			}
			return true
		})
		p.Pages.Unlock()
	}
	if cleared > 0 {
		slog.Debug("Bits de acceso limpiados", "paginas", cleared, "tick", m.Ticks())
	}
	return cleared
}

func (m *Memory) Ticks() uint64 {
	return m.ticks.Load()
}
