package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/services"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/utils/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := *models.DefaultConfig()
	cfg.MemorySize = 8 * cfg.PageSize
	cfg.SwapSlots = 4
	cfg.Threshold = 100
	cfg.PagesPerPass = 1
	cfg.BackoffMaxElapsed = 0
	cfg.DumpPath = t.TempDir()

	mem, err := services.NewMemory(cfg, disk.NewMemDisk(disk.Options{BlockSize: cfg.BlockSize, Blocks: cfg.SwapBlocks()}))
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(mem))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestMemoryRoutes(t *testing.T) {
	srv := newTestServer(t)

	var created models.CreateProcessResponse
	require.Equal(t, http.StatusOK, doJSON(t, srv, "POST", "/memoria/procesos", models.CreateProcessRequest{Size: 8192}, &created))
	assert.Equal(t, models.CreateProcessResponse{PID: 1, Pages: 2}, created)

	data := []byte("contenido")
	require.Equal(t, http.StatusOK, doJSON(t, srv, "POST", "/memoria/escribir", models.WriteRequest{PID: 1, Address: 0x1000, Data: data}, nil))

	// La escritura marca la página 1, así que la víctima es la 0.
	var swapOut models.SwapOutResponse
	require.Equal(t, http.StatusOK, doJSON(t, srv, "POST", "/memoria/swapout", nil, &swapOut))
	assert.Equal(t, []int{0}, swapOut.Slots)

	var slots []models.SlotInfo
	require.Equal(t, http.StatusOK, doJSON(t, srv, "GET", "/memoria/swap", nil, &slots))
	require.Len(t, slots, 1)
	assert.Equal(t, uint32(0), slots[0].VirtualAddress)

	require.Equal(t, http.StatusOK, doJSON(t, srv, "POST", "/memoria/pagefault", models.FaultRequest{PID: 1, Address: 0}, nil))

	var read models.ReadResponse
	require.Equal(t, http.StatusOK, doJSON(t, srv, "POST", "/memoria/leer", models.ReadRequest{PID: 1, Address: 0x1000, Size: len(data)}, &read))
	assert.Equal(t, data, read.Data)

	var stats models.MemoryStats
	require.Equal(t, http.StatusOK, doJSON(t, srv, "GET", "/memoria/stats", nil, &stats))
	assert.Equal(t, 6, stats.FreeFrames)
	assert.Equal(t, models.DefaultConfig().PageSize, stats.PageSize)
	require.Len(t, stats.Processes, 1)
	assert.Equal(t, 1, stats.Processes[0].Metrics.SwapsIn)

	var dump models.DumpResponse
	require.Equal(t, http.StatusOK, doJSON(t, srv, "POST", "/memoria/dump", models.PIDRequest{PID: 1}, &dump))
	assert.NotEmpty(t, dump.Path)

	require.Equal(t, http.StatusOK, doJSON(t, srv, "POST", "/memoria/finalizar", models.PIDRequest{PID: 1}, nil))
	assert.Equal(t, http.StatusNotFound, doJSON(t, srv, "POST", "/memoria/finalizar", models.PIDRequest{PID: 1}, nil))
}

func TestMemoryRoutes_Errors(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusOK, doJSON(t, srv, "POST", "/memoria/procesos", models.CreateProcessRequest{Size: 4096}, nil))

	test := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{name: "proceso demasiado grande", method: "POST", path: "/memoria/procesos", body: models.CreateProcessRequest{Size: 1 << 20}, want: http.StatusInsufficientStorage},
		{name: "tunables inválidos", method: "PUT", path: "/memoria/tunables", body: models.Tunables{Threshold: 1, PagesPerPass: 0}, want: http.StatusBadRequest},
		{name: "fault sobre página presente", method: "POST", path: "/memoria/pagefault", body: models.FaultRequest{PID: 1, Address: 0}, want: http.StatusUnprocessableEntity},
		{name: "proceso killed", method: "POST", path: "/memoria/leer", body: models.ReadRequest{PID: 1, Address: 0, Size: 1}, want: http.StatusGone},
		{name: "proceso inexistente", method: "POST", path: "/memoria/leer", body: models.ReadRequest{PID: 7, Address: 0, Size: 1}, want: http.StatusNotFound},
		{name: "body inválido", method: "POST", path: "/memoria/escribir", body: "no es un objeto", want: http.StatusBadRequest},
		{name: "método incorrecto", method: "DELETE", path: "/memoria/swapout", want: http.StatusMethodNotAllowed},
	}

	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, doJSON(t, srv, tt.method, tt.path, tt.body, nil))
		})
	}
}

func TestTunablesRoutes(t *testing.T) {
	srv := newTestServer(t)

	var got models.Tunables
	require.Equal(t, http.StatusOK, doJSON(t, srv, "GET", "/memoria/tunables", nil, &got))
	assert.Equal(t, models.Tunables{Threshold: 100, PagesPerPass: 1}, got)

	want := models.Tunables{Threshold: 3, PagesPerPass: 10}
	require.Equal(t, http.StatusOK, doJSON(t, srv, "PUT", "/memoria/tunables", want, nil))
	require.Equal(t, http.StatusOK, doJSON(t, srv, "GET", "/memoria/tunables", nil, &got))
	assert.Equal(t, want, got)
}
