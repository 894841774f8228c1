package handlers

import (
	"log/slog"
	"net/http"

	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/services"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/utils/web/server"
)

// SwapOutHandler dispara desalojos desde afuera. Con ?pass=true corre una pasada del monitor de presión
// (hasta pages_per_pass páginas, solo si hay presión); sin el parámetro desaloja una sola página.
func SwapOutHandler(mem *services.Memory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pass") == "true" {
			slots, err := mem.Pressure().Relieve(r.Context())
			resp := models.SwapOutResponse{Slots: slots}
			if err != nil {
				resp.Error = err.Error()
			}
			server.SendJsonResponse(w, resp)
			return
		}

		slot, err := mem.AttemptSwapOut()
		if err != nil {
			slog.Debug("Swap out fallido", "error", err)
			writeError(w, err)
			return
		}
		server.SendJsonResponse(w, models.SwapOutResponse{Slots: []int{slot}})
	}
}

// PageFaultHandler levanta un page fault como lo haría el trap de la CPU.
func PageFaultHandler(mem *services.Memory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.FaultRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		if err := mem.HandlePageFault(req.PID, req.Address); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func SwapSlotsHandler(mem *services.Memory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots := mem.Swap().Snapshot()
		if slots == nil {
			slots = []models.SlotInfo{}
		}
		server.SendJsonResponse(w, slots)
	}
}
