package services

import (
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
)

// CreateProcess arma el espacio de direcciones de un proceso nuevo: reserva y mapea una página
// de usuario por cada página de size y lo da de alta en la tabla de procesos.
// Si no alcanzan los marcos se libera todo lo reservado.
func (m *Memory) CreateProcess(size uint32) (*Process, error) {
	pageSize := uint32(m.cfg.PageSize)
	pageCount := int((uint64(size) + uint64(pageSize) - 1) / uint64(pageSize))

	if free := m.frames.FreeFrames(); free < pageCount {
		err := fmt.Errorf("%w: se necesitan %d marcos y hay %d", ErrOutOfMemory, pageCount, free)
		slog.Error(err.Error())
		return nil, err
	}

	pages := NewAddressSpace(m.cfg.NumberOfLevels, m.cfg.EntriesPerPage, m.cfg.PageSize)
	assignedFrames := make([]int, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		frame, err := m.frames.AllocFrame()
		if err == nil {
			err = pages.MapPage(uint32(i)*pageSize, frame, models.PteU|models.PteW)
			assignedFrames = append(assignedFrames, frame)
		}
		if err != nil {
			slog.Error("Error asignando página", "pagina", i, "error", err)
			m.releaseFrames(assignedFrames)
			return nil, fmt.Errorf("falló la asignación de la página %d: %w", i, err)
		}
	}

	p := &Process{
		Size:  uint32(pageCount) * pageSize,
		Pages: pages,
		rss:   pageCount,
	}
	if err := m.procs.insert(p); err != nil {
		m.releaseFrames(assignedFrames)
		return nil, err
	}

	slog.Info(fmt.Sprintf("## PID: %d - Proceso Creado - Tamaño: %d", p.Pid, p.Size))
	slog.Debug("Proceso registrado", "pid", p.Pid, "paginas", pageCount, "marcos", assignedFrames)
	return p, nil
}

func (m *Memory) releaseFrames(frames []int) {
	for _, f := range frames {
		m.frames.FreeFrame(f)
	}
}
