package services

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/utils/disk"
)

// ErrSwapDevice el disco no tiene la forma que necesita el área de swap
var ErrSwapDevice = errors.New("el dispositivo de swap no alcanza para los slots configurados")

// Memory junta las piezas del subsistema de memoria virtual: marcos, tablas de páginas,
// tabla de procesos, pool de swap y el disco.
type Memory struct {
	cfg      models.Config
	frames   FrameAllocator
	procs    *ProcessTable
	swap     *SwapPool
	disk     disk.BlockDevice
	pressure *PressureMonitor

	ticks atomic.Uint64
}

// NewMemory valida la configuración y levanta el subsistema sobre el disco dado.
// Todos los slots arrancan libres.
func NewMemory(cfg models.Config, dev disk.BlockDevice) (*Memory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dev.BlockSize() != cfg.BlockSize {
		return nil, fmt.Errorf("%w: block_size del disco %d, configurado %d", ErrSwapDevice, dev.BlockSize(), cfg.BlockSize)
	}
	if dev.Blocks() < cfg.SwapBlocks() {
		return nil, fmt.Errorf("%w: tiene %d bloques y se necesitan %d", ErrSwapDevice, dev.Blocks(), cfg.SwapBlocks())
	}

	m := &Memory{
		cfg:    cfg,
		frames: NewPhysicalMemory(cfg.MemorySize, cfg.PageSize),
		procs:  NewProcessTable(),
		swap:   NewSwapPool(cfg.SwapSlots, cfg.SwapStart, cfg.BlocksPerPage()),
		disk:   dev,
	}
	m.pressure = NewPressureMonitor(
		cfg.Tunables(),
		time.Duration(cfg.BackoffMaxElapsed)*time.Millisecond,
		m.frames.FreeFrames,
		m.AttemptSwapOut,
	)

	slog.Info("Subsistema de swap inicializado",
		"slots", cfg.SwapSlots,
		"bloques_por_slot", cfg.BlocksPerPage(),
		"area_swap", humanize.IBytes(uint64(cfg.SwapSlots)*uint64(cfg.PageSize)),
		"marcos", cfg.TotalFrames())
	return m, nil
}

func (m *Memory) Config() models.Config      { return m.cfg }
func (m *Memory) Frames() FrameAllocator     { return m.frames }
func (m *Memory) Processes() *ProcessTable   { return m.procs }
func (m *Memory) Swap() *SwapPool            { return m.swap }
func (m *Memory) Pressure() *PressureMonitor { return m.pressure }
func (m *Memory) Disk() disk.BlockDevice     { return m.disk }

// Stats resume marcos, slots y procesos.
func (m *Memory) Stats() models.MemoryStats {
	stats := models.MemoryStats{
		TotalFrames: m.frames.TotalFrames(),
		FreeFrames:  m.frames.FreeFrames(),
		TotalSlots:  m.swap.Len(),
		UsedSlots:   m.swap.Used(),
		PageSize:    m.cfg.PageSize,
		Ticks:       m.Ticks(),
		Tunables:    m.pressure.Tunables(),
	}
	for _, p := range m.procs.Live() {
		stats.Processes = append(stats.Processes, m.procs.Info(p))
	}
	return stats
}
