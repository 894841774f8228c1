package services

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
)

var (
	// ErrAddressOutOfRange la dirección no entra en la geometría de la tabla
	ErrAddressOutOfRange = errors.New("dirección fuera del rango de la tabla de páginas")

	// ErrRemap se intentó mapear una página que ya está presente
	ErrRemap = errors.New("la página ya está mapeada")
)

// pageTableLevel es un nivel de la tabla multinivel. Los niveles intermedios tienen subtablas,
// las hojas tienen las PTE.
type pageTableLevel struct {
	subTables map[int]*pageTableLevel
	entries   []models.PTE
}

// AddressSpace es la tabla de páginas de un proceso.
//
// Cualquier transición de una PTE (desalojo, swap-in, limpieza del bit de acceso, traducción)
// se hace con el lock tomado. El orden de locks es: AddressSpace -> tabla de procesos -> pool de swap.
type AddressSpace struct {
	mu sync.Mutex

	root            *pageTableLevel
	levels          int
	entriesPerLevel int
	pageSize        uint32
	maxPages        uint64
}

// NewAddressSpace crea una tabla vacía con la geometría indicada.
func NewAddressSpace(levels, entriesPerLevel, pageSize int) *AddressSpace {
	as := &AddressSpace{
		levels:          levels,
		entriesPerLevel: entriesPerLevel,
		pageSize:        uint32(pageSize),
	}

	// Cantidad de páginas direccionables, saturando en 2^32.
	as.maxPages = 1
	for i := 0; i < levels && as.maxPages <= 1<<32; i++ {
		as.maxPages *= uint64(entriesPerLevel)
	}

	as.root = as.createPageTableLevel(levels == 1)
	return as
}

func (as *AddressSpace) createPageTableLevel(isLeaf bool) *pageTableLevel {
	if isLeaf {
		return &pageTableLevel{entries: make([]models.PTE, as.entriesPerLevel)}
	}
	return &pageTableLevel{subTables: make(map[int]*pageTableLevel)}
}

func (as *AddressSpace) Lock()   { as.mu.Lock() }
func (as *AddressSpace) Unlock() { as.mu.Unlock() }

func (as *AddressSpace) PageSize() uint32 { return as.pageSize }

// PageRoundDown alinea la dirección al inicio de su página.
func (as *AddressSpace) PageRoundDown(va uint32) uint32 {
	return va &^ (as.pageSize - 1)
}

// Walk devuelve la PTE de la página que contiene va. Si algún nivel intermedio no existe
// y create es false devuelve nil; con create en true crea los niveles que falten.
func (as *AddressSpace) Walk(va uint32, create bool) *models.PTE {
	pageNumber := uint64(va / as.pageSize)
	if pageNumber >= as.maxPages {
		return nil
	}

	indices := getPageIndices(int(pageNumber), as.levels, as.entriesPerLevel)

	current := as.root
	for level := 0; level < as.levels-1; level++ {
		next, exists := current.subTables[indices[level]]
		if !exists {
			if !create {
				return nil
			}
			next = as.createPageTableLevel(level == as.levels-2)
			current.subTables[indices[level]] = next
		}
		current = next
	}

	return &current.entries[indices[as.levels-1]]
}

// MapPage instala una página residente en va. Falla si la entrada ya está presente;
// una entrada no presente (desalojada) se sobreescribe.
func (as *AddressSpace) MapPage(va uint32, frame int, perm models.PTE) error {
	pte := as.Walk(va, true)
	if pte == nil {
		return fmt.Errorf("%w: %#x", ErrAddressOutOfRange, va)
	}
	if pte.Present() {
		return fmt.Errorf("%w: %#x", ErrRemap, va)
	}
	*pte = models.Resident{Frame: uint32(frame), Perm: perm}.Encode()
	return nil
}

// reset descarta todas las entradas.
func (as *AddressSpace) reset() {
	as.root = as.createPageTableLevel(as.levels == 1)
}

// De acuerdo a la cantidad de niveles de la tabla y la cantidad de entradas por nivel.
func getPageIndices(pageNumber int, levels int, entriesPerLevel int) []int {
	indices := make([]int, levels)
	for i := levels - 1; i >= 0; i-- {
		indices[i] = pageNumber % entriesPerLevel
		pageNumber /= entriesPerLevel
	}
	return indices
}

// Pages recorre en orden ascendente de dirección todas las entradas distintas de cero.
// Si fn devuelve false se corta el recorrido.
func (as *AddressSpace) Pages(fn func(va uint32, pte *models.PTE) bool) {
	as.visit(as.root, 0, 0, fn)
}

func (as *AddressSpace) visit(level *pageTableLevel, depth int, base uint64, fn func(uint32, *models.PTE) bool) bool {
	if depth == as.levels-1 {
		for i := range level.entries {
			if level.entries[i] == 0 {
				continue
			}
			va := uint32((base*uint64(as.entriesPerLevel) + uint64(i)) * uint64(as.pageSize))
			if !fn(va, &level.entries[i]) {
				return false
			}
		}
		return true
	}

	keys := make([]int, 0, len(level.subTables))
	for k := range level.subTables {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if !as.visit(level.subTables[k], depth+1, base*uint64(as.entriesPerLevel)+uint64(k), fn) {
			return false
		}
	}
	return true
}
