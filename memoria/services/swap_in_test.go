package services

import (
	"errors"
	"testing"

	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/utils/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setPTE(p *Process, va uint32, value models.PTE) {
	p.Pages.Lock()
	defer p.Pages.Unlock()
	*p.Pages.Walk(va, true) = value
}

func TestHandlePageFault_Fatal(t *testing.T) {
	test := []struct {
		name    string
		va      uint32
		setup   func(t *testing.T, m *Memory, p *Process)
		wantErr error
	}{
		{
			name:    "fuera del espacio del proceso",
			va:      2 * testPageSize,
			setup:   func(t *testing.T, m *Memory, p *Process) {},
			wantErr: ErrFaultOutOfBounds,
		},
		{
			name: "entrada en cero",
			va:   testPageSize,
			setup: func(t *testing.T, m *Memory, p *Process) {
				setPTE(p, testPageSize, 0)
			},
			wantErr: ErrFaultNoEntry,
		},
		{
			name:    "página presente",
			va:      0,
			setup:   func(t *testing.T, m *Memory, p *Process) {},
			wantErr: ErrFaultPresent,
		},
		{
			name: "slot fuera de rango",
			va:   testPageSize,
			setup: func(t *testing.T, m *Memory, p *Process) {
				setPTE(p, testPageSize, models.SwappedOut{Slot: 9999}.Encode())
			},
			wantErr: ErrFaultBadSlot,
		},
		{
			name: "slot 5 libre",
			va:   testPageSize,
			setup: func(t *testing.T, m *Memory, p *Process) {
				setPTE(p, testPageSize, models.SwappedOut{Slot: 5}.Encode())
			},
			wantErr: ErrFaultDanglingSlot,
		},
		{
			name: "slot de otro proceso",
			va:   testPageSize,
			setup: func(t *testing.T, m *Memory, p *Process) {
				slot, err := m.swap.Allocate()
				require.NoError(t, err)
				_, err = m.swap.Record(slot, models.PteU, p.Pid+1, testPageSize)
				require.NoError(t, err)
				setPTE(p, testPageSize, models.SwappedOut{Slot: uint32(slot)}.Encode())
			},
			wantErr: ErrFaultDanglingSlot,
		},
		{
			name: "sin marcos libres",
			va:   0,
			setup: func(t *testing.T, m *Memory, p *Process) {
				setAccessed(p, 1)
				_, err := m.SwapOutPage()
				require.NoError(t, err)
				for m.frames.FreeFrames() > 0 {
					_, err := m.frames.AllocFrame()
					require.NoError(t, err)
				}
			},
			wantErr: ErrFaultNoFrame,
		},
	}

	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestMemory(t)
			p := newTestProcess(t, m, 2)
			tt.setup(t, m, p)

			slotsBefore := m.swap.Snapshot()
			pteBefore := pteAt(p, p.Pages.PageRoundDown(tt.va))

			err := m.HandlePageFault(p.Pid, tt.va)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var fault *FaultError
			require.True(t, errors.As(err, &fault))
			assert.Equal(t, p.Pid, fault.Pid)
			assert.Equal(t, tt.va, fault.Va)

			assert.True(t, m.procs.Killed(p), "el proceso queda marcado")
			assert.Equal(t, slotsBefore, m.swap.Snapshot(), "el pool no cambia")
			assert.Equal(t, pteBefore, pteAt(p, p.Pages.PageRoundDown(tt.va)))
			assert.Equal(t, models.Runnable.String(), m.procs.Info(p).State, "memoria no termina procesos")
		})
	}
}

func TestHandlePageFault_ReadError(t *testing.T) {
	cfg := testConfig(t)
	dev := &failingDisk{BlockDevice: disk.NewMemDisk(disk.Options{BlockSize: cfg.BlockSize, Blocks: cfg.SwapBlocks()})}
	m, err := NewMemory(cfg, dev)
	require.NoError(t, err)
	p := newTestProcess(t, m, 2)
	setAccessed(p, 1)

	_, err = m.SwapOutPage()
	require.NoError(t, err)
	free := m.frames.FreeFrames()

	dev.failReads = true
	err = m.HandlePageFault(p.Pid, 0)
	assert.ErrorIs(t, err, ErrFaultIO)
	assert.True(t, m.procs.Killed(p))
	assert.Equal(t, free, m.frames.FreeFrames(), "el marco reservado se devuelve")
	assert.Equal(t, 1, m.swap.Used(), "el slot queda para la limpieza del proceso")
}

func TestHandlePageFault_NoSuchProcess(t *testing.T) {
	m, _ := newTestMemory(t)

	err := m.HandlePageFault(42, 0)
	assert.ErrorIs(t, err, ErrNoSuchProcess)

	var fault *FaultError
	assert.False(t, errors.As(err, &fault))
}
