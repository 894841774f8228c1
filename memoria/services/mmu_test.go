package services

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_ReadWrite(t *testing.T) {
	m, _ := newTestMemory(t)
	p := newTestProcess(t, m, 3)

	// Cruza el límite entre la página 0 y la 1.
	data := []byte("hola memoria")
	addr := uint32(testPageSize - 4)
	require.NoError(t, m.Write(p.Pid, addr, data))

	got, err := m.Read(p.Pid, addr, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, got)

	for _, va := range []uint32{0, testPageSize} {
		pte := pteAt(p, va)
		assert.True(t, pte.Accessed())
		assert.True(t, pte.Dirty())
	}
	assert.False(t, pteAt(p, 2*testPageSize).Accessed())

	metrics := m.procs.Info(p).Metrics
	assert.Equal(t, 1, metrics.Writes)
	assert.Equal(t, 1, metrics.Reads)
}

func TestMemory_ReadSwappedPage(t *testing.T) {
	m, _ := newTestMemory(t)
	p := newTestProcess(t, m, 2)

	content := bytes.Repeat([]byte{0xAB}, testPageSize)
	require.NoError(t, m.Write(p.Pid, 0, content))
	setAccessed(p, 1)

	_, err := m.SwapOutPage()
	require.NoError(t, err)
	require.False(t, pteAt(p, 0).Present())

	got, err := m.Read(p.Pid, 0, testPageSize)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	assert.True(t, pteAt(p, 0).Present())
	assert.True(t, pteAt(p, 0).Accessed(), "el acceso que causó el fault marca la página")
	assert.Equal(t, 1, m.procs.Info(p).Metrics.PageFaults)
	assert.Equal(t, 2, m.procs.Rss(p))
}

func TestMemory_AccessErrors(t *testing.T) {
	m, _ := newTestMemory(t)
	p := newTestProcess(t, m, 1)

	_, err := m.Read(99, 0, 1)
	assert.ErrorIs(t, err, ErrNoSuchProcess)

	err = m.Write(p.Pid, testPageSize-1, []byte{1, 2})
	assert.ErrorIs(t, err, ErrFaultOutOfBounds)
	var fault *FaultError
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, uint32(testPageSize), fault.Va)
	assert.True(t, m.procs.Killed(p))

	_, err = m.Read(p.Pid, 0, 1)
	assert.ErrorIs(t, err, ErrProcessKilled)
}
