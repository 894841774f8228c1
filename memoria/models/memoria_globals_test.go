package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	test := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "block size en cero", mutate: func(c *Config) { c.BlockSize = 0 }, wantErr: ErrInvalidBlockSize},
		{name: "page size no potencia de dos", mutate: func(c *Config) { c.PageSize = 3000 }, wantErr: ErrInvalidPageSize},
		{name: "page size no múltiplo de block size", mutate: func(c *Config) { c.BlockSize = 768 }, wantErr: ErrInvalidPageSize},
		{name: "memoria no múltiplo de página", mutate: func(c *Config) { c.MemorySize = 4097 }, wantErr: ErrInvalidMemory},
		{name: "geometría inválida", mutate: func(c *Config) { c.NumberOfLevels = 0 }, wantErr: ErrInvalidGeometry},
		{name: "sin slots", mutate: func(c *Config) { c.SwapSlots = 0 }, wantErr: ErrInvalidSwap},
		{name: "slots justo en el máximo de la PTE", mutate: func(c *Config) { c.SwapSlots = MaxPTEIndex + 1 }},
		{name: "slots que no entran en la PTE", mutate: func(c *Config) { c.SwapSlots = MaxPTEIndex + 2 }, wantErr: ErrInvalidSwap},
		{name: "área de swap sobre 32 bits", mutate: func(c *Config) { c.SwapStart = math.MaxUint32 }, wantErr: ErrInvalidSwap},
		{name: "marcos justo en el máximo de la PTE", mutate: func(c *Config) { c.MemorySize = (MaxPTEIndex + 1) * c.PageSize }},
		{name: "marcos que no entran en la PTE", mutate: func(c *Config) { c.MemorySize = (MaxPTEIndex + 2) * c.PageSize }, wantErr: ErrInvalidMemory},
		{name: "pages_per_pass sobre el límite", mutate: func(c *Config) { c.PagesPerPass = Limit + 1 }, wantErr: ErrInvalidTunables},
		{name: "threshold negativo", mutate: func(c *Config) { c.Threshold = -1 }, wantErr: ErrInvalidTunables},
	}

	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfig_SwapLayout(t *testing.T) {
	c := DefaultConfig()

	assert.Equal(t, 8, c.BlocksPerPage())
	assert.Equal(t, 1024, c.TotalFrames())
	assert.Equal(t, uint32(2+800*8), c.SwapBlocks())
	assert.Equal(t, Tunables{Threshold: 100, PagesPerPass: 4}, c.Tunables())
}

func TestConfig_PTEIndexRoundTrip(t *testing.T) {
	c := DefaultConfig()
	c.SwapSlots = MaxPTEIndex + 1
	c.MemorySize = (MaxPTEIndex + 1) * c.PageSize
	require.NoError(t, c.Validate())

	lastSlot := uint32(c.SwapSlots - 1)
	assert.Equal(t, SwappedOut{Slot: lastSlot}, Decode(SwappedOut{Slot: lastSlot}.Encode()))

	lastFrame := uint32(c.TotalFrames() - 1)
	assert.Equal(t, Resident{Frame: lastFrame, Perm: PteU | PteW}, Decode(Resident{Frame: lastFrame, Perm: PteU | PteW}.Encode()))
}
