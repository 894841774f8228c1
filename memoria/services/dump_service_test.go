package services

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteDumpMemory(t *testing.T) {
	m, _ := newTestMemory(t)
	p := newTestProcess(t, m, 3)

	var want []byte
	for i := 0; i < 3; i++ {
		page := bytes.Repeat([]byte{byte('a' + i)}, testPageSize)
		require.NoError(t, m.Write(p.Pid, uint32(i*testPageSize), page))
		want = append(want, page...)
	}
	setAccessed(p, 0, 2)
	_, err := m.SwapOutPage()
	require.NoError(t, err)
	swapped := pteAt(p, testPageSize)

	path, err := m.ExecuteDumpMemory(p.Pid)
	require.NoError(t, err)
	assert.Equal(t, m.cfg.DumpPath, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "1-"))
	assert.Equal(t, ".dmp", filepath.Ext(path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.Equal(t, swapped, pteAt(p, testPageSize), "el dump no trae la página a memoria")
	assert.Equal(t, 1, m.swap.Used())

	_, err = m.ExecuteDumpMemory(99)
	assert.ErrorIs(t, err, ErrNoSuchProcess)
}

func TestRenderSlotTable(t *testing.T) {
	m, _ := newTestMemory(t)
	p := newTestProcess(t, m, 3)
	setAccessed(p, 0, 1)

	_, err := m.SwapOutPage()
	require.NoError(t, err)

	var out bytes.Buffer
	RenderSlotTable(&out, m.swap.Snapshot(), testPageSize)

	assert.Contains(t, out.String(), "0x2000")
	assert.Contains(t, out.String(), "Ocupado")
	assert.Contains(t, out.String(), "4.0 KiB")
	assert.NotContains(t, out.String(), "KIB")
}

func TestRenderSlotTable_FooterUnits(t *testing.T) {
	test := []struct {
		name  string
		slots int
		want  string
	}{
		{name: "sin slots", slots: 0, want: "0 B"},
		{name: "un slot", slots: 1, want: "4.0 KiB"},
		{name: "cuatro slots", slots: 4, want: "16 KiB"},
	}

	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			slots := make([]models.SlotInfo, tt.slots)
			for i := range slots {
				slots[i] = models.SlotInfo{Index: i, SwapSlot: models.SwapSlot{StartBlock: uint32(2 + i*8), Pid: 1, VirtualAddress: uint32(i * testPageSize), PagePerm: models.PteU}}
			}

			var out bytes.Buffer
			RenderSlotTable(&out, slots, testPageSize)
			assert.Contains(t, out.String(), tt.want)
		})
	}
}
