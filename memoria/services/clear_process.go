package services

import (
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
)

// ClearMemoryProcess libera todo lo que el proceso tiene en memoria y en swap y lo saca de la tabla.
func (m *Memory) ClearMemoryProcess(pid int) error {
	p, err := m.procs.Lookup(pid)
	if err != nil {
		slog.Error(fmt.Sprintf("proceso PID %d no existe para ser eliminado", pid))
		return err
	}

	p.Pages.Lock()
	defer p.Pages.Unlock()

	freed, released := 0, 0
	p.Pages.Pages(func(_ uint32, pte *models.PTE) bool {
		switch entry := models.Decode(*pte).(type) {
		case models.Resident:
			m.frames.FreeFrame(int(entry.Frame))
			freed++
		case models.SwappedOut:
			if err := m.swap.Release(int(entry.Slot)); err != nil {
				slog.Warn("Slot inválido al limpiar proceso", "pid", pid, "slot", entry.Slot, "error", err)
			} else {
				released++
			}
		}
		return true
	})
	p.Pages.reset()

	metrics := m.procs.Info(p).Metrics
	m.procs.remove(pid)
	released += m.swap.ReleaseOwnedBy(pid)

	slog.Info(fmt.Sprintf("## PID: %d - Proceso Destruido - Métricas - Page Faults: %d; Swap Out: %d; Swap In: %d; Lec.Mem.: %d; Esc.Mem.: %d",
		pid, metrics.PageFaults, metrics.SwapsOut, metrics.SwapsIn, metrics.Reads, metrics.Writes))
	slog.Debug("Recursos liberados", "pid", pid, "marcos", freed, "slots", released)
	return nil
}
