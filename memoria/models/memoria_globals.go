package models

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

type Config struct {
	PortMemory        int    `json:"port_memory" mapstructure:"port_memory"`
	MemorySize        int    `json:"memory_size" mapstructure:"memory_size"`
	PageSize          int    `json:"page_size" mapstructure:"page_size"`
	BlockSize         int    `json:"block_size" mapstructure:"block_size"`
	EntriesPerPage    int    `json:"entries_per_page" mapstructure:"entries_per_page"`
	NumberOfLevels    int    `json:"number_of_levels" mapstructure:"number_of_levels"`
	SwapFilePath      string `json:"swap_file_path" mapstructure:"swap_file_path"`
	SwapSlots         int    `json:"swap_slots" mapstructure:"swap_slots"`
	SwapStart         int    `json:"swap_start" mapstructure:"swap_start"`
	SwapDelay         int    `json:"swap_delay" mapstructure:"swap_delay"`
	LogLevel          string `json:"log_level" mapstructure:"log_level"`
	LogMaxSize        int    `json:"log_max_size" mapstructure:"log_max_size"`
	LogMaxBackups     int    `json:"log_max_backups" mapstructure:"log_max_backups"`
	DumpPath          string `json:"dump_path" mapstructure:"dump_path"`
	TickInterval      int    `json:"tick_interval" mapstructure:"tick_interval"`
	TimekeeperCPU     int    `json:"timekeeper_cpu" mapstructure:"timekeeper_cpu"`
	Threshold         int    `json:"threshold" mapstructure:"threshold"`
	PagesPerPass      int    `json:"pages_per_pass" mapstructure:"pages_per_pass"`
	BackoffMaxElapsed int    `json:"backoff_max_elapsed" mapstructure:"backoff_max_elapsed"`
}

var MemoryConfig = DefaultConfig()

// DefaultConfig devuelve la configuración con la que arranca memoria si el archivo no define un campo.
// Los valores de swap replican el layout del disco: 800 slots de 8 bloques desde el bloque 2.
func DefaultConfig() *Config {
	return &Config{
		PortMemory:        8002,
		MemorySize:        4 * 1024 * 1024,
		PageSize:          4096,
		BlockSize:         512,
		EntriesPerPage:    1024,
		NumberOfLevels:    2,
		SwapFilePath:      "./swapfile.bin",
		SwapSlots:         800,
		SwapStart:         2,
		SwapDelay:         0,
		LogLevel:          "INFO",
		LogMaxSize:        10,
		LogMaxBackups:     3,
		DumpPath:          "./dump_files/",
		TickInterval:      10,
		TimekeeperCPU:     0,
		Threshold:         100,
		PagesPerPass:      4,
		BackoffMaxElapsed: 500,
	}
}

var (
	ErrInvalidPageSize  = errors.New("page_size debe ser potencia de dos y múltiplo de block_size")
	ErrInvalidBlockSize = errors.New("block_size debe ser mayor a cero")
	ErrInvalidMemory    = errors.New("memory_size debe ser múltiplo de page_size")
	ErrInvalidGeometry  = errors.New("entries_per_page y number_of_levels deben ser mayores a cero")
	ErrInvalidSwap      = errors.New("swap_slots debe ser mayor a cero y swap_start no negativo")
)

// Validate verifica que la configuración sea coherente antes de levantar el subsistema.
func (c *Config) Validate() error {
	if c.BlockSize <= 0 {
		return ErrInvalidBlockSize
	}
	if c.PageSize <= 0 || bits.OnesCount(uint(c.PageSize)) != 1 || c.PageSize%c.BlockSize != 0 {
		return fmt.Errorf("%w: page_size=%d block_size=%d", ErrInvalidPageSize, c.PageSize, c.BlockSize)
	}
	if c.MemorySize <= 0 || c.MemorySize%c.PageSize != 0 {
		return fmt.Errorf("%w: memory_size=%d", ErrInvalidMemory, c.MemorySize)
	}
	// El número de marco tiene que entrar en los bits altos de la PTE.
	if c.TotalFrames()-1 > MaxPTEIndex {
		return fmt.Errorf("%w: %d marcos, la PTE admite %d", ErrInvalidMemory, c.TotalFrames(), MaxPTEIndex+1)
	}
	if c.EntriesPerPage <= 0 || c.NumberOfLevels <= 0 {
		return ErrInvalidGeometry
	}
	if c.SwapSlots <= 0 || c.SwapStart < 0 {
		return ErrInvalidSwap
	}
	// Lo mismo para el índice de slot de una página desalojada.
	if c.SwapSlots-1 > MaxPTEIndex {
		return fmt.Errorf("%w: %d slots, la PTE admite %d", ErrInvalidSwap, c.SwapSlots, MaxPTEIndex+1)
	}
	if blocks := c.swapBlocks(); blocks > math.MaxUint32 {
		return fmt.Errorf("%w: el área de swap necesita %d bloques", ErrInvalidSwap, blocks)
	}
	return c.Tunables().Validate()
}

// BlocksPerPage cantidad de bloques de disco que ocupa una página (8 con páginas de 4KB).
func (c *Config) BlocksPerPage() int {
	return c.PageSize / c.BlockSize
}

// TotalFrames cantidad de marcos de memoria física.
func (c *Config) TotalFrames() int {
	return c.MemorySize / c.PageSize
}

// SwapBlocks cantidad de bloques que tiene que tener el disco para alojar todos los slots.
// Validate garantiza que entra en 32 bits.
func (c *Config) SwapBlocks() uint32 {
	return uint32(c.swapBlocks())
}

func (c *Config) swapBlocks() uint64 {
	return uint64(c.SwapStart) + uint64(c.SwapSlots)*uint64(c.BlocksPerPage())
}

// Tunables extrae los parámetros de agresividad del desalojo.
func (c *Config) Tunables() Tunables {
	return Tunables{Threshold: c.Threshold, PagesPerPass: c.PagesPerPass}
}
