package services

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/helpers"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
)

// ExecuteDumpMemory vuelca la imagen del proceso a <dump_path>/<pid>-<timestamp>.dmp.
// Las páginas desalojadas se leen directo del slot, sin traerlas a memoria.
func (m *Memory) ExecuteDumpMemory(pid int) (string, error) {
	slog.Info(fmt.Sprintf("## PID: %d - Memory Dump solicitado", pid))

	p, err := m.procs.Lookup(pid)
	if err != nil {
		return "", err
	}

	if err := helpers.CreateDirectory(m.cfg.DumpPath); err != nil {
		return "", err
	}
	dumpFilePath := filepath.Join(m.cfg.DumpPath, helpers.GetDumpName(pid))

	file, err := os.Create(dumpFilePath)
	if err != nil {
		slog.Error(fmt.Sprintf("error al crear archivo de dump: %v", err))
		return "", err
	}
	defer file.Close()

	if err := m.dumpProcess(p, file); err != nil {
		return "", err
	}

	slog.Info(fmt.Sprintf("## PID: %d - Memory Dump completado - Archivo: %s - Tamaño: %s", pid, dumpFilePath, humanize.IBytes(uint64(p.Size))))
	return dumpFilePath, nil
}

func (m *Memory) dumpProcess(p *Process, w io.Writer) error {
	p.Pages.Lock()
	defer p.Pages.Unlock()

	pageSize := p.Pages.PageSize()
	page := make([]byte, pageSize)
	for va := uint64(0); va < uint64(p.Size); va += uint64(pageSize) {
		clear(page)

		pte := p.Pages.Walk(uint32(va), false)
		if pte != nil {
			switch entry := models.Decode(*pte).(type) {
			case models.Resident:
				copy(page, m.frames.Frame(int(entry.Frame)))
			case models.SwappedOut:
				slot, err := m.swap.Get(int(entry.Slot))
				if err != nil {
					return fmt.Errorf("dump PID %d va %#x: %w", p.Pid, va, err)
				}
				if err := m.readPage(slot.StartBlock, page); err != nil {
					return fmt.Errorf("dump PID %d va %#x: %w", p.Pid, va, err)
				}
			}
		}

		if _, err := w.Write(page); err != nil {
			slog.Error("Fallo al escribir contenido en el archivo de dump")
			return fmt.Errorf("fallo al escribir datos al archivo de dump: %w", err)
		}
	}
	return nil
}

// RenderSlotTable imprime los slots ocupados.
func RenderSlotTable(w io.Writer, slots []models.SlotInfo, pageSize int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Swap Slots")
	t.SetStyle(table.StyleLight)
	// El footer por defecto va en mayúsculas y rompe las unidades de humanize (KiB).
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"Slot", "Bloque", "PID", "Página", "Permisos"})

	for _, s := range slots {
		t.AppendRow(table.Row{s.Index, s.StartBlock, s.Pid, fmt.Sprintf("%#x", s.VirtualAddress), s.PagePerm.String()})
	}

	t.AppendSeparator()
	t.AppendFooter(table.Row{"", "", "", "Ocupado", humanize.IBytes(uint64(len(slots) * pageSize))})
	t.Render()
}
