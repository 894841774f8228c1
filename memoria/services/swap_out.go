package services

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
)

var (
	ErrNoEligibleProcess = errors.New("no hay procesos elegibles para desalojar")
	ErrNoEligiblePage    = errors.New("no hay páginas elegibles para desalojar")
	ErrEntryNotPresent   = errors.New("la página víctima ya no está presente")
	ErrSwapIO            = errors.New("error de disco escribiendo el slot")
)

// AttemptSwapOut es el punto de entrada para pedir un desalojo desde afuera del subsistema.
func (m *Memory) AttemptSwapOut() (int, error) {
	return m.SwapOutPage()
}

// SwapOutPage desaloja una página al swap y devuelve el slot usado.
// Ante cualquier error ninguna PTE, slot ni contador queda modificado.
func (m *Memory) SwapOutPage() (int, error) {
	victim := SelectVictimProcess(m.procs)
	if victim == nil {
		slog.Warn("Swap out: no hay proceso elegible")
		return -1, ErrNoEligibleProcess
	}

	as := victim.Pages
	as.Lock()
	defer as.Unlock()

	va, pte := SelectVictimPage(victim)
	if va >= victim.Size {
		slog.Debug("Swap out: el proceso no tiene páginas sin acceso reciente", "pid", victim.Pid)
		return -1, fmt.Errorf("%w: PID %d", ErrNoEligiblePage, victim.Pid)
	}
	if !pte.Present() {
		return -1, fmt.Errorf("%w: PID %d va %#x", ErrEntryNotPresent, victim.Pid, va)
	}

	slot, err := m.swap.Allocate()
	if err != nil {
		slog.Warn("Swap out: no hay slots libres", "pid", victim.Pid)
		return -1, err
	}
	slotInfo, err := m.swap.Record(slot, pte.Perm(), victim.Pid, va)
	if err != nil {
		m.releaseSlot(victim.Pid, slot)
		return -1, err
	}

	frame := int(pte.Index())
	if err := m.writePage(slotInfo.StartBlock, m.frames.Frame(frame)); err != nil {
		m.releaseSlot(victim.Pid, slot)
		slog.Error("Swap out: falló la escritura del slot", "pid", victim.Pid, "slot", slot, "error", err)
		return -1, fmt.Errorf("%w: slot %d: %w", ErrSwapIO, slot, err)
	}

	*pte = models.SwappedOut{Slot: uint32(slot)}.Encode()
	m.frames.FreeFrame(frame)
	m.procs.AddRss(victim, -1)
	m.procs.UpdateMetrics(victim, func(mt *models.Metrics) { mt.SwapsOut++ })

	slog.Info(fmt.Sprintf("## PID: %d - Swap Out - Página: %#x - Slot: %d", victim.Pid, va, slot))
	return slot, nil
}

// releaseSlot devuelve al pool un slot que no llegó a quedar apuntado por ninguna PTE.
func (m *Memory) releaseSlot(pid, slot int) {
	if err := m.swap.Release(slot); err != nil {
		slog.Warn("Slot inválido al deshacer swap out", "pid", pid, "slot", slot, "error", err)
	}
}

// writePage escribe la página en los bloques consecutivos desde start, una transacción por bloque.
func (m *Memory) writePage(start uint32, page []byte) error {
	blockSize := m.disk.BlockSize()
	for i := 0; i < m.swap.BlocksPerPage(); i++ {
		m.disk.BeginOp()
		err := m.disk.WriteBlock(start+uint32(i), page[i*blockSize:(i+1)*blockSize])
		m.disk.EndOp()
		if err != nil {
			return err
		}
	}
	return nil
}

// readPage es la inversa de writePage.
func (m *Memory) readPage(start uint32, page []byte) error {
	blockSize := m.disk.BlockSize()
	for i := 0; i < m.swap.BlocksPerPage(); i++ {
		m.disk.BeginOp()
		err := m.disk.ReadBlock(start+uint32(i), page[i*blockSize:(i+1)*blockSize])
		m.disk.EndOp()
		if err != nil {
			return err
		}
	}
	return nil
}
