package models

import (
	"errors"
	"fmt"
)

// Limit es el máximo de páginas que se pueden desalojar en una pasada.
const Limit = 100

// SwapSlot describe una región fija de bloques de disco que aloja una página desalojada.
type SwapSlot struct {
	IsFree         bool   `json:"is_free"`
	PagePerm       PTE    `json:"page_perm"`
	StartBlock     uint32 `json:"start_block"`
	Pid            int    `json:"pid"`
	VirtualAddress uint32 `json:"va"`
}

// SlotInfo es un slot junto con su índice, para exponerlo hacia afuera.
type SlotInfo struct {
	Index int `json:"index"`
	SwapSlot
}

// Tunables controla cuán agresivo es el desalojo: por debajo de Threshold marcos libres
// se desalojan hasta PagesPerPass páginas.
type Tunables struct {
	Threshold    int `json:"threshold"`
	PagesPerPass int `json:"pages_per_pass"`
}

var ErrInvalidTunables = errors.New("tunables inválidos")

func (t Tunables) Validate() error {
	if t.Threshold < 0 {
		return fmt.Errorf("%w: threshold=%d", ErrInvalidTunables, t.Threshold)
	}
	if t.PagesPerPass < 1 || t.PagesPerPass > Limit {
		return fmt.Errorf("%w: pages_per_pass=%d fuera de [1, %d]", ErrInvalidTunables, t.PagesPerPass, Limit)
	}
	return nil
}
