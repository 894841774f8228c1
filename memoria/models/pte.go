package models

import "fmt"

// PTE es la palabra de la tabla de páginas tal como la ve el hardware (x86 de 32 bits).
//
//	31                          12 11       0
//	+------------------------------+---------+
//	| marco (residente) / slot     |  flags  |
//	+------------------------------+---------+
//
// Con PteP en 1 los bits altos son el número de marco; con PteP en 0 y la
// palabra distinta de cero, son el índice del slot de swap.
type PTE uint32

const (
	PteP PTE = 0x001 // present
	PteW PTE = 0x002 // writeable
	PteU PTE = 0x004 // user
	PteA PTE = 0x020 // accessed
	PteD PTE = 0x040 // dirty
	PteS PTE = 0x200 // swapped, bit disponible para software

	PteShift        = 12
	PteFlags    PTE = 1<<PteShift - 1
	MaxPTEIndex     = 1<<(32-PteShift) - 1
)

func (pte PTE) Present() bool  { return pte&PteP != 0 }
func (pte PTE) Accessed() bool { return pte&PteA != 0 }
func (pte PTE) Dirty() bool    { return pte&PteD != 0 }
func (pte PTE) Flags() PTE     { return pte & PteFlags }

// Perm son los bits de permiso que se guardan al desalojar: todos los flags menos presencia y swap.
func (pte PTE) Perm() PTE { return pte & PteFlags &^ (PteP | PteS) }

// Index son los bits altos: marco o slot según PteP.
func (pte PTE) Index() uint32 { return uint32(pte) >> PteShift }

func (pte PTE) String() string {
	return fmt.Sprintf("%#08x", uint32(pte))
}

// PageEntry es la vista tipada de una PTE. Solo se empaqueta en la frontera con la tabla de páginas.
type PageEntry interface {
	Encode() PTE
}

// Unmapped página nunca mapeada, la palabra es cero.
type Unmapped struct{}

// Resident página en memoria física.
type Resident struct {
	Frame uint32
	Perm  PTE
}

// SwappedOut página desalojada, el contenido está en el slot.
type SwappedOut struct {
	Slot uint32
}

func (Unmapped) Encode() PTE { return 0 }

func (r Resident) Encode() PTE {
	return PTE(r.Frame)<<PteShift | r.Perm.Perm() | PteP
}

func (s SwappedOut) Encode() PTE {
	return PTE(s.Slot)<<PteShift | PteS
}

// Decode traduce la palabra a su variante. Una palabra no presente y distinta de cero siempre es un slot.
func Decode(pte PTE) PageEntry {
	switch {
	case pte == 0:
		return Unmapped{}
	case pte.Present():
		return Resident{Frame: pte.Index(), Perm: pte.Perm()}
	default:
		return SwappedOut{Slot: pte.Index()}
	}
}
