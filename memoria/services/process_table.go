package services

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
)

// NPROC cantidad de entradas de la tabla de procesos.
const NPROC = 64

var (
	ErrProcessTableFull = errors.New("la tabla de procesos está llena")
	ErrNoSuchProcess    = errors.New("el proceso no existe")
)

// Process es una entrada de la tabla de procesos. Pid, Size y Pages no cambian después del alta;
// el resto lo protege el lock de la tabla.
type Process struct {
	Pid   int
	Size  uint32
	Pages *AddressSpace

	state   models.ProcState
	rss     int
	killed  bool
	metrics models.Metrics
}

// ProcessTable es la tabla de procesos de tamaño fijo. Una entrada nil está sin usar.
type ProcessTable struct {
	mu      sync.Mutex
	procs   [NPROC]*Process
	nextPid int
}

func NewProcessTable() *ProcessTable {
	return &ProcessTable{nextPid: 1}
}

// insert da de alta un proceso ya armado y le asigna pid.
func (pt *ProcessTable) insert(p *Process) error {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	for i := range pt.procs {
		if pt.procs[i] == nil {
			p.Pid = pt.nextPid
			pt.nextPid++
			p.state = models.Runnable
			pt.procs[i] = p
			return nil
		}
	}
	return ErrProcessTableFull
}

// remove libera la entrada del proceso; desde ese momento queda sin usar.
func (pt *ProcessTable) remove(pid int) *Process {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	for i, p := range pt.procs {
		if p != nil && p.Pid == pid {
			pt.procs[i] = nil
			p.state = models.Unused
			return p
		}
	}
	return nil
}

func (pt *ProcessTable) Lookup(pid int) (*Process, error) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	for _, p := range pt.procs {
		if p != nil && p.Pid == pid {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: PID %d", ErrNoSuchProcess, pid)
}

// Live devuelve los procesos en uso ordenados por posición en la tabla.
func (pt *ProcessTable) Live() []*Process {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	live := make([]*Process, 0, NPROC)
	for _, p := range pt.procs {
		if p != nil && p.state != models.Unused {
			live = append(live, p)
		}
	}
	return live
}

// MarkKilled deja el proceso marcado para que el dueño del ciclo de vida lo termine.
func (pt *ProcessTable) MarkKilled(p *Process) {
	pt.mu.Lock()
	p.killed = true
	pt.mu.Unlock()
}

func (pt *ProcessTable) Killed(p *Process) bool {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return p.killed
}

func (pt *ProcessTable) AddRss(p *Process, delta int) {
	pt.mu.Lock()
	p.rss += delta
	pt.mu.Unlock()
}

func (pt *ProcessTable) Rss(p *Process) int {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return p.rss
}

func (pt *ProcessTable) SetState(p *Process, state models.ProcState) {
	pt.mu.Lock()
	p.state = state
	pt.mu.Unlock()
}

func (pt *ProcessTable) UpdateMetrics(p *Process, update func(*models.Metrics)) {
	pt.mu.Lock()
	update(&p.metrics)
	pt.mu.Unlock()
}

func (pt *ProcessTable) Info(p *Process) models.ProcessInfo {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return models.ProcessInfo{
		Pid:     p.Pid,
		State:   p.state.String(),
		Size:    p.Size,
		Rss:     p.rss,
		Killed:  p.killed,
		Metrics: p.metrics,
	}
}
