// Package disk modela el dispositivo de bloques donde vive el área de swap.
//
// Cada operación de bloque se envuelve en una transacción (BeginOp/EndOp),
// igual que el log del file system: una transacción a la vez, y lo que se
// escribió dentro de ella queda persistido al cerrarla.
package disk

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBlockSize es el tamaño de sector del disco.
const DefaultBlockSize = 512

var (
	// ErrBlockOutOfRange el número de bloque no existe en el dispositivo
	ErrBlockOutOfRange = errors.New("disk: block out of range")

	// ErrBufferSize el buffer no tiene exactamente un bloque
	ErrBufferSize = errors.New("disk: buffer must hold exactly one block")
)

// BlockDevice es lo que el subsistema de swap necesita del driver de disco.
type BlockDevice interface {
	BeginOp()
	EndOp()
	ReadBlock(blockno uint32, dst []byte) error
	WriteBlock(blockno uint32, src []byte) error
	BlockSize() int
	Blocks() uint32
	Close() error
}

// Stats cuenta las operaciones realizadas sobre el dispositivo.
type Stats struct {
	Reads        uint64 `json:"reads"`
	Writes       uint64 `json:"writes"`
	Transactions uint64 `json:"transactions"`
}

// Options configura un dispositivo.
type Options struct {
	BlockSize int
	Blocks    uint32
	Delay     time.Duration // retardo por operación de bloque
	Sync      bool          // fsync al cerrar cada transacción (solo FileDisk)
}

// device tiene lo común a los dos backends: el lock de transacción, los contadores y las validaciones.
type device struct {
	opts   Options
	opLock sync.Mutex

	reads  atomic.Uint64
	writes atomic.Uint64
	txns   atomic.Uint64
}

func (d *device) init(opts Options) {
	if opts.BlockSize <= 0 {
		opts.BlockSize = DefaultBlockSize
	}
	d.opts = opts
}

func (d *device) BeginOp() {
	d.opLock.Lock()
	d.txns.Add(1)
}

func (d *device) BlockSize() int { return d.opts.BlockSize }

func (d *device) Blocks() uint32 { return d.opts.Blocks }

// Stats devuelve una copia de los contadores.
func (d *device) Stats() Stats {
	return Stats{Reads: d.reads.Load(), Writes: d.writes.Load(), Transactions: d.txns.Load()}
}

func (d *device) check(blockno uint32, buf []byte) error {
	if blockno >= d.opts.Blocks {
		return fmt.Errorf("%w: %d (bloques: %d)", ErrBlockOutOfRange, blockno, d.opts.Blocks)
	}
	if len(buf) != d.opts.BlockSize {
		return fmt.Errorf("%w: %d bytes", ErrBufferSize, len(buf))
	}
	if d.opts.Delay > 0 {
		time.Sleep(d.opts.Delay)
	}
	return nil
}

func (d *device) offset(blockno uint32) int64 {
	return int64(blockno) * int64(d.opts.BlockSize)
}

// FileDisk guarda los bloques en un archivo (el swapfile).
type FileDisk struct {
	device
	file *os.File
}

// OpenFileDisk abre (o crea) el archivo y lo extiende para que tenga opts.Blocks bloques,
// así los bloques nunca escritos se leen como ceros.
func OpenFileDisk(path string, opts Options) (*FileDisk, error) {
	d := &FileDisk{}
	d.init(opts)

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("no se pudo abrir swapfile: %w", err)
	}

	size := d.offset(d.opts.Blocks)
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.Size() < size {
		if err := file.Truncate(size); err != nil {
			file.Close()
			return nil, fmt.Errorf("no se pudo dimensionar swapfile a %d bytes: %w", size, err)
		}
	}

	d.file = file
	slog.Debug("Swapfile abierto", "path", path, "bloques", d.opts.Blocks, "tamanio", size)
	return d, nil
}

func (d *FileDisk) EndOp() {
	defer d.opLock.Unlock()
	if d.opts.Sync {
		if err := d.file.Sync(); err != nil {
			slog.Error("Error sincronizando swapfile", "error", err)
		}
	}
}

func (d *FileDisk) ReadBlock(blockno uint32, dst []byte) error {
	if err := d.check(blockno, dst); err != nil {
		return err
	}
	n, err := d.file.ReadAt(dst, d.offset(blockno))
	if err != nil {
		return err
	}
	if n != len(dst) {
		return io.ErrUnexpectedEOF
	}
	d.reads.Add(1)
	return nil
}

func (d *FileDisk) WriteBlock(blockno uint32, src []byte) error {
	if err := d.check(blockno, src); err != nil {
		return err
	}
	n, err := d.file.WriteAt(src, d.offset(blockno))
	if err != nil {
		return err
	}
	if n != len(src) {
		return io.ErrShortWrite
	}
	d.writes.Add(1)
	return nil
}

func (d *FileDisk) Close() error {
	return d.file.Close()
}

// MemDisk es un disco en memoria, útil para tests.
type MemDisk struct {
	device
	data []byte
}

// NewMemDisk crea un disco en memoria con opts.Blocks bloques en cero.
func NewMemDisk(opts Options) *MemDisk {
	d := &MemDisk{}
	d.init(opts)
	d.data = make([]byte, d.offset(d.opts.Blocks))
	return d
}

func (d *MemDisk) EndOp() {
	d.opLock.Unlock()
}

func (d *MemDisk) ReadBlock(blockno uint32, dst []byte) error {
	if err := d.check(blockno, dst); err != nil {
		return err
	}
	off := d.offset(blockno)
	copy(dst, d.data[off:off+int64(len(dst))])
	d.reads.Add(1)
	return nil
}

func (d *MemDisk) WriteBlock(blockno uint32, src []byte) error {
	if err := d.check(blockno, src); err != nil {
		return err
	}
	off := d.offset(blockno)
	copy(d.data[off:off+int64(len(src))], src)
	d.writes.Add(1)
	return nil
}

func (d *MemDisk) Close() error { return nil }
