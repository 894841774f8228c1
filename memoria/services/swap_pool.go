package services

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
)

var (
	ErrNoFreeSlots    = errors.New("no hay slots de swap libres")
	ErrSlotOutOfRange = errors.New("índice de slot fuera de rango")
	ErrSlotFree       = errors.New("el slot está libre")
	ErrSlotOwner      = errors.New("el slot pertenece a otra página")
)

// SwapPool es el arreglo fijo de slots de swap. Cada slot ocupa blocksPerPage bloques
// consecutivos a partir de su StartBlock. Todo acceso pasa por el lock del pool.
type SwapPool struct {
	mu            sync.Mutex
	slots         []models.SwapSlot
	blocksPerPage int
}

// NewSwapPool arma el pool con todos los slots libres.
func NewSwapPool(n, swapStart, blocksPerPage int) *SwapPool {
	sp := &SwapPool{
		slots:         make([]models.SwapSlot, n),
		blocksPerPage: blocksPerPage,
	}
	for i := range sp.slots {
		sp.slots[i] = models.SwapSlot{
			IsFree:     true,
			StartBlock: uint32(swapStart + i*blocksPerPage),
			Pid:        -1,
		}
	}
	return sp
}

// Allocate reserva el primer slot libre. El slot queda ocupado antes de soltar el lock.
func (sp *SwapPool) Allocate() (int, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	for i := range sp.slots {
		if sp.slots[i].IsFree {
			sp.slots[i].IsFree = false
			return i, nil
		}
	}
	return -1, ErrNoFreeSlots
}

// Record guarda los permisos y el dueño de la página que se va a escribir en el slot
// y devuelve una copia del slot registrado.
func (sp *SwapPool) Record(slot int, perm models.PTE, pid int, va uint32) (models.SwapSlot, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	s, err := sp.slotLocked(slot)
	if err != nil {
		return models.SwapSlot{}, err
	}
	if s.IsFree {
		return models.SwapSlot{}, fmt.Errorf("%w: %d", ErrSlotFree, slot)
	}
	s.PagePerm = perm
	s.Pid = pid
	s.VirtualAddress = va
	return *s, nil
}

// Validate comprueba que el slot esté ocupado por la página (pid, va) y devuelve una copia.
// No lo libera: el contenido se tiene que leer antes de que otro lo pueda reutilizar.
func (sp *SwapPool) Validate(slot int, pid int, va uint32) (models.SwapSlot, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	s, err := sp.slotLocked(slot)
	if err != nil {
		return models.SwapSlot{}, err
	}
	if s.IsFree {
		return models.SwapSlot{}, fmt.Errorf("%w: %d", ErrSlotFree, slot)
	}
	if s.Pid != pid || s.VirtualAddress != va {
		return models.SwapSlot{}, fmt.Errorf("%w: slot %d es de PID %d va %#x", ErrSlotOwner, slot, s.Pid, s.VirtualAddress)
	}
	return *s, nil
}

// Release devuelve el slot al pool y limpia el dueño.
func (sp *SwapPool) Release(slot int) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	s, err := sp.slotLocked(slot)
	if err != nil {
		return err
	}
	sp.clearLocked(s)
	return nil
}

// ReleaseOwnedBy libera todos los slots del proceso y devuelve cuántos eran.
func (sp *SwapPool) ReleaseOwnedBy(pid int) int {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	released := 0
	for i := range sp.slots {
		if !sp.slots[i].IsFree && sp.slots[i].Pid == pid {
			sp.clearLocked(&sp.slots[i])
			released++
		}
	}
	return released
}

func (sp *SwapPool) Get(slot int) (models.SwapSlot, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	s, err := sp.slotLocked(slot)
	if err != nil {
		return models.SwapSlot{}, err
	}
	return *s, nil
}

func (sp *SwapPool) Len() int { return len(sp.slots) }

func (sp *SwapPool) BlocksPerPage() int { return sp.blocksPerPage }

func (sp *SwapPool) Used() int {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	used := 0
	for _, s := range sp.slots {
		if !s.IsFree {
			used++
		}
	}
	return used
}

// Snapshot copia los slots ocupados.
func (sp *SwapPool) Snapshot() []models.SlotInfo {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	var infos []models.SlotInfo
	for i, s := range sp.slots {
		if !s.IsFree {
			infos = append(infos, models.SlotInfo{Index: i, SwapSlot: s})
		}
	}
	return infos
}

func (sp *SwapPool) slotLocked(slot int) (*models.SwapSlot, error) {
	if slot < 0 || slot >= len(sp.slots) {
		return nil, fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	return &sp.slots[slot], nil
}

func (sp *SwapPool) clearLocked(s *models.SwapSlot) {
	s.IsFree = true
	s.PagePerm = 0
	s.Pid = -1
	s.VirtualAddress = 0
}
