package services

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/dustin/go-humanize"
)

// ErrOutOfMemory no quedan marcos libres
var ErrOutOfMemory = errors.New("no hay marcos libres disponibles")

// FrameAllocator es el asignador de marcos físicos que usa el subsistema de swap.
type FrameAllocator interface {
	AllocFrame() (int, error)
	FreeFrame(frame int)
	Frame(frame int) []byte
	FreeFrames() int
	TotalFrames() int
}

// PhysicalMemory es la memoria de usuario dividida en marcos de PageSize bytes.
type PhysicalMemory struct {
	mu         sync.Mutex
	pageSize   int
	total      uint
	userMemory []byte
	used       *bitset.BitSet
}

func NewPhysicalMemory(memorySize, pageSize int) *PhysicalMemory {
	total := uint(memorySize / pageSize)
	slog.Debug("Memoria inicializada", "tamanio", humanize.IBytes(uint64(memorySize)), "marcos", total)
	return &PhysicalMemory{
		pageSize:   pageSize,
		total:      total,
		userMemory: make([]byte, memorySize),
		used:       bitset.New(total),
	}
}

// AllocFrame reserva el primer marco libre y lo devuelve en cero.
func (pm *PhysicalMemory) AllocFrame() (int, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	frame, ok := pm.used.NextClear(0)
	if !ok || frame >= pm.total {
		return -1, ErrOutOfMemory
	}
	pm.used.Set(frame)
	clear(pm.frameLocked(int(frame)))
	return int(frame), nil
}

func (pm *PhysicalMemory) FreeFrame(frame int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if frame < 0 || uint(frame) >= pm.total || !pm.used.Test(uint(frame)) {
		slog.Error("Liberación de marco inválida", "marco", frame)
		return
	}
	pm.used.Clear(uint(frame))
}

// Frame devuelve el contenido del marco. El slice apunta a la memoria de usuario.
func (pm *PhysicalMemory) Frame(frame int) []byte {
	return pm.frameLocked(frame)
}

func (pm *PhysicalMemory) frameLocked(frame int) []byte {
	start := frame * pm.pageSize
	return pm.userMemory[start : start+pm.pageSize]
}

func (pm *PhysicalMemory) FreeFrames() int {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return int(pm.total - pm.used.Count())
}

func (pm *PhysicalMemory) TotalFrames() int {
	return int(pm.total)
}
