package services

import "github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"

// SelectVictimProcess elige el proceso con más páginas residentes; a igual rss gana el pid más chico.
// Devuelve nil si no hay ningún proceso elegible.
func SelectVictimProcess(pt *ProcessTable) *Process {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	var victim *Process
	for _, p := range pt.procs {
		if p == nil || p.state == models.Unused || p.Pid < 1 {
			continue
		}
		if victim == nil || p.rss > victim.rss || (p.rss == victim.rss && p.Pid < victim.Pid) {
			victim = p
		}
	}
	return victim
}

// SelectVictimPage recorre el espacio de usuario de p de a una página y devuelve la primera
// presente con el bit de acceso en cero. Si no encuentra ninguna, la dirección devuelta es >= p.Size.
// Se llama con el lock del espacio de direcciones tomado.
func SelectVictimPage(p *Process) (uint32, *models.PTE) {
	pageSize := uint64(p.Pages.PageSize())
	var va uint64
	for va = 0; va < uint64(p.Size); va += pageSize {
		pte := p.Pages.Walk(uint32(va), false)
		if pte != nil && pte.Present() && !pte.Accessed() {
			return uint32(va), pte
		}
	}
	return p.Size, nil
}
