package services

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
)

// Motivos de un page fault fatal. El proceso queda marcado como killed.
var (
	ErrFaultOutOfBounds  = errors.New("dirección fuera del espacio del proceso")
	ErrFaultNoEntry      = errors.New("no existe entrada para la dirección")
	ErrFaultPresent      = errors.New("fault sobre una página presente")
	ErrFaultBadSlot      = errors.New("índice de slot corrupto")
	ErrFaultDanglingSlot = errors.New("la entrada apunta a un slot libre o ajeno")
	ErrFaultNoFrame      = errors.New("no hay marco para traer la página")
	ErrFaultMapFailed    = errors.New("no se pudo instalar el mapeo")
	ErrFaultIO           = errors.New("error de disco leyendo el slot")
)

// FaultError es un page fault que no se pudo resolver.
type FaultError struct {
	Pid int
	Va  uint32
	Err error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("page fault PID %d va %#x: %v", e.Pid, e.Va, e.Err)
}

func (e *FaultError) Unwrap() error { return e.Err }

// HandlePageFault atiende un fault sobre una página no presente del proceso pid trayéndola del swap.
// Si el fault es fatal el proceso queda marcado como killed; terminarlo no es responsabilidad de memoria.
func (m *Memory) HandlePageFault(pid int, va uint32) error {
	p, err := m.procs.Lookup(pid)
	if err != nil {
		return err
	}

	p.Pages.Lock()
	err = m.swapIn(p, va)
	p.Pages.Unlock()

	return err
}

// swapIn se llama con el lock del espacio de direcciones tomado.
// Todas las validaciones se hacen antes de tocar estado compartido.
func (m *Memory) swapIn(p *Process, va uint32) error {
	m.procs.UpdateMetrics(p, func(mt *models.Metrics) { mt.PageFaults++ })

	fail := func(reason error) error {
		m.procs.MarkKilled(p)
		slog.Error(fmt.Sprintf("## PID: %d - Page Fault Fatal - Dirección: %#x - %v", p.Pid, va, reason))
		return &FaultError{Pid: p.Pid, Va: va, Err: reason}
	}

	if va >= p.Size {
		return fail(ErrFaultOutOfBounds)
	}
	page := p.Pages.PageRoundDown(va)

	pte := p.Pages.Walk(page, false)
	if pte == nil || *pte == 0 {
		return fail(ErrFaultNoEntry)
	}
	if pte.Present() {
		return fail(ErrFaultPresent)
	}

	entry, ok := models.Decode(*pte).(models.SwappedOut)
	if !ok || int(entry.Slot) >= m.swap.Len() {
		return fail(fmt.Errorf("%w: %d", ErrFaultBadSlot, pte.Index()))
	}
	slot := int(entry.Slot)

	info, err := m.swap.Validate(slot, p.Pid, page)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrFaultDanglingSlot, err))
	}

	frame, err := m.frames.AllocFrame()
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrFaultNoFrame, err))
	}

	if err := m.readPage(info.StartBlock, m.frames.Frame(frame)); err != nil {
		m.frames.FreeFrame(frame)
		return fail(fmt.Errorf("%w: %w", ErrFaultIO, err))
	}

	// El contenido ya está en el marco, el slot se puede reutilizar.
	if err := m.swap.Release(slot); err != nil {
		m.frames.FreeFrame(frame)
		return fail(fmt.Errorf("%w: %w", ErrFaultDanglingSlot, err))
	}

	if err := p.Pages.MapPage(page, frame, info.PagePerm); err != nil {
		m.frames.FreeFrame(frame)
		return fail(fmt.Errorf("%w: %w", ErrFaultMapFailed, err))
	}
	*pte &^= models.PteA

	m.procs.AddRss(p, 1)
	m.procs.UpdateMetrics(p, func(mt *models.Metrics) { mt.SwapsIn++ })

	slog.Info(fmt.Sprintf("## PID: %d - Swap In - Página: %#x - Slot: %d - Marco: %d", p.Pid, page, slot, frame))
	return nil
}
