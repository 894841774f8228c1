package services

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
)

// ErrProcessKilled el proceso está marcado para terminar y no puede acceder a memoria.
var ErrProcessKilled = errors.New("el proceso fue marcado como killed")

// Read lee size bytes desde la dirección lógica va del proceso.
func (m *Memory) Read(pid int, va uint32, size int) ([]byte, error) {
	buf := make([]byte, size)
	err := m.access(pid, va, buf, false)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Write escribe data a partir de la dirección lógica va del proceso.
func (m *Memory) Write(pid int, va uint32, data []byte) error {
	return m.access(pid, va, data, true)
}

// access hace lo que haría el hardware en cada página tocada: traducir, prender PteA
// (y PteD si escribe) y, si la página no está presente, levantar el page fault y reintentar.
func (m *Memory) access(pid int, va uint32, buf []byte, write bool) error {
	p, err := m.procs.Lookup(pid)
	if err != nil {
		return err
	}
	if m.procs.Killed(p) {
		return fmt.Errorf("%w: PID %d", ErrProcessKilled, pid)
	}

	p.Pages.Lock()
	defer p.Pages.Unlock()

	pageSize := p.Pages.PageSize()
	done := 0
	for done < len(buf) {
		addr := va + uint32(done)
		frame, err := m.translate(p, addr, write)
		if err != nil {
			return err
		}

		offset := addr - p.Pages.PageRoundDown(addr)
		physical := m.frames.Frame(frame)[offset:]
		chunk := min(len(buf)-done, int(pageSize-offset))
		if write {
			copy(physical, buf[done:done+chunk])
		} else {
			copy(buf[done:done+chunk], physical)
		}

		op := "Lectura"
		if write {
			op = "Escritura"
		}
		slog.Info(fmt.Sprintf("## PID: %d - %s - Dir. Física: %d - Tamaño: %d", pid, op, frame*int(pageSize)+int(offset), chunk))
		done += chunk
	}

	m.procs.UpdateMetrics(p, func(mt *models.Metrics) {
		if write {
			mt.Writes++
		} else {
			mt.Reads++
		}
	})
	return nil
}

// translate devuelve el marco de la página que contiene addr. Se llama con el lock tomado.
func (m *Memory) translate(p *Process, addr uint32, write bool) (int, error) {
	if addr >= p.Size {
		return -1, m.swapIn(p, addr)
	}

	pte := p.Pages.Walk(addr, false)
	if pte == nil || !pte.Present() {
		if err := m.swapIn(p, addr); err != nil {
			return -1, err
		}
		pte = p.Pages.Walk(addr, false)
	}

	*pte |= models.PteA
	if write {
		*pte |= models.PteD
	}
	return int(pte.Index()), nil
}
