package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// ShutdownTimeout es lo que se espera a que terminen los requests en curso al apagar el servidor.
const ShutdownTimeout = 5 * time.Second

// InitServer levanta el servidor y bloquea hasta que se cancele ctx o falle la escucha.
// Al cancelar ctx el servidor se apaga ordenadamente y retorna nil.
//
// Parámetros:
//   - ctx: contexto que controla la vida del servidor
//   - port: puerto donde se iniciará el servidor
//   - handler: rutas a servir, si es nil se usa http.DefaultServeMux
//
// Ejemplo:
//
//	func main() {
//		err := server.InitServer(ctx, models.MemoryConfig.PortMemory, mux)
//		if err != nil {
//			slog.Error("error initializing server", "error", err)
//			panic(err)
//		}
//	}
func InitServer(ctx context.Context, port int, handler http.Handler) error {
	addr := ":" + strconv.Itoa(port)
	srv := &http.Server{Addr: addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	slog.Info(fmt.Sprintf("Servidor escuchando en el puerto %d", port))

	select {
	case err := <-errCh:
		slog.Error("Error al escuchar en el puerto "+addr, "error", err)
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// SendJsonResponse retorna la respues del servidor en formato JSON
//
// Parámetros:
//   - writer: el http.ResponseWriter con el que se escribe la respuesta HTTP
//   - data: cualquier estructura de datos que querés enviar al cliente, se convierte automáticamente a JSON.
//
// Ejemplo:
//
//	func HandshakeHandler(message string) func(http.ResponseWriter, *http.Request) {
//		return func(writer http.ResponseWriter, request *http.Request) {
//			server.SendJsonResponse(writer, message)
//		}
//	}
func SendJsonResponse(writer http.ResponseWriter, data interface{}) {
	SendJsonStatus(writer, http.StatusOK, data)
}

// SendJsonStatus igual que SendJsonResponse pero con el código de estado indicado.
func SendJsonStatus(writer http.ResponseWriter, status int, data interface{}) {
	response, err := json.Marshal(data)
	if err != nil {
		http.Error(writer, "Error al convertir datos a JSON", http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	writer.Write(response)
}
