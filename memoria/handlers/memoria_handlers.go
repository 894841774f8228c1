package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/services"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/utils/web/handlers"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/utils/web/server"
)

// NewRouter arma las rutas del módulo de memoria.
func NewRouter(mem *services.Memory) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", handlers.HandshakeHandler("Bienvenido al módulo de Memoria"))
	mux.HandleFunc("GET /memoria", handlers.HandshakeHandler("Memoria en funcionamiento"))
	mux.HandleFunc("GET /memoria/stats", StatsHandler(mem))
	mux.HandleFunc("GET /memoria/tunables", GetTunablesHandler(mem))
	mux.HandleFunc("PUT /memoria/tunables", PutTunablesHandler(mem))

	mux.HandleFunc("POST /memoria/procesos", CreateProcessHandler(mem))
	mux.HandleFunc("POST /memoria/finalizar", EndProcessHandler(mem))
	mux.HandleFunc("POST /memoria/leer", ReadMemoryHandler(mem))
	mux.HandleFunc("POST /memoria/escribir", WriteMemoryHandler(mem))
	mux.HandleFunc("POST /memoria/dump", DumpMemoryHandler(mem))

	mux.HandleFunc("POST /memoria/swapout", SwapOutHandler(mem))
	mux.HandleFunc("POST /memoria/pagefault", PageFaultHandler(mem))
	mux.HandleFunc("GET /memoria/swap", SwapSlotsHandler(mem))

	return mux
}

func StatsHandler(mem *services.Memory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		server.SendJsonResponse(w, mem.Stats())
	}
}

func GetTunablesHandler(mem *services.Memory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		server.SendJsonResponse(w, mem.Pressure().Tunables())
	}
}

func PutTunablesHandler(mem *services.Memory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.Tunables
		if !decodeRequest(w, r, &req) {
			return
		}

		if err := mem.Pressure().SetTunables(req); err != nil {
			writeError(w, err)
			return
		}
		server.SendJsonResponse(w, req)
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		slog.Error("Invalid request", "path", r.URL.Path, "error", err)
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

// writeError traduce los errores del subsistema a un código HTTP.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var fault *services.FaultError

	switch {
	case errors.Is(err, services.ErrNoSuchProcess):
		status = http.StatusNotFound
	case errors.As(err, &fault):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrProcessKilled):
		status = http.StatusGone
	case errors.Is(err, models.ErrInvalidTunables):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrOutOfMemory),
		errors.Is(err, services.ErrProcessTableFull),
		errors.Is(err, services.ErrNoFreeSlots):
		status = http.StatusInsufficientStorage
	case errors.Is(err, services.ErrNoEligibleProcess),
		errors.Is(err, services.ErrNoEligiblePage),
		errors.Is(err, services.ErrEntryNotPresent):
		status = http.StatusConflict
	}

	slog.Debug("Request con error", "status", status, "error", err)
	server.SendJsonStatus(w, status, map[string]string{"error": err.Error()})
}
