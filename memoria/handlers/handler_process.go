package handlers

import (
	"log/slog"
	"net/http"

	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/services"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/utils/web/server"
)

func CreateProcessHandler(mem *services.Memory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateProcessRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		p, err := mem.CreateProcess(req.Size)
		if err != nil {
			writeError(w, err)
			return
		}

		server.SendJsonResponse(w, models.CreateProcessResponse{
			PID:   p.Pid,
			Pages: int(p.Size / uint32(mem.Config().PageSize)),
		})
	}
}

func EndProcessHandler(mem *services.Memory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		//Recibe el PID del proceso a finalizar
		var req models.PIDRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		if err := mem.ClearMemoryProcess(req.PID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func ReadMemoryHandler(mem *services.Memory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.ReadRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.Size < 0 {
			http.Error(w, "Invalid size", http.StatusBadRequest)
			return
		}

		data, err := mem.Read(req.PID, req.Address, req.Size)
		if err != nil {
			writeError(w, err)
			return
		}
		server.SendJsonResponse(w, models.ReadResponse{Data: data})
	}
}

func WriteMemoryHandler(mem *services.Memory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.WriteRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		if err := mem.Write(req.PID, req.Address, req.Data); err != nil {
			writeError(w, err)
			return
		}
		slog.Debug("Escritura completada", "pid", req.PID, "address", req.Address, "bytes", len(req.Data))
		w.WriteHeader(http.StatusOK)
	}
}

func DumpMemoryHandler(mem *services.Memory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.PIDRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		path, err := mem.ExecuteDumpMemory(req.PID)
		if err != nil {
			writeError(w, err)
			return
		}
		server.SendJsonResponse(w, models.DumpResponse{Path: path})
	}
}
