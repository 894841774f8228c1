package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotacion define cuándo se rota el archivo de log. Con valores en cero se usan los defaults de lumberjack.
type Rotacion struct {
	MaxSize    int // megabytes antes de rotar
	MaxBackups int // cantidad de archivos viejos que se conservan
}

// InitLogger permite loguear tanto en consola como en archivo según el nivel que se le pase.
//
// Parámetros:
//   - logPath: la ubicación donde se va encontrar el archivo
//   - logLevel: nivel de logueo, este dato viene definido en el archivo de config.
//   - rotacion: (opcional) límites de rotación del archivo
//
// Ejemplo:
//
//	func main() {
//		log.InitLogger("./test.log", "INFO")
//	}
func InitLogger(logPath string, logLevel string, rotacion ...Rotacion) io.Closer {
	var r Rotacion
	if len(rotacion) > 0 {
		r = rotacion[0]
	}

	// El archivo lo maneja lumberjack, que lo crea si no existe y lo rota al superar MaxSize.
	logFile := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    r.MaxSize,
		MaxBackups: r.MaxBackups,
	}

	// Usa io.MultiWriter para escribir a múltiples destinos: consola y archivo.
	multiWriter := io.MultiWriter(os.Stdout, logFile)

	level, err := convertStringToLogLevel(logLevel)

	handler := slog.NewTextHandler(multiWriter, &slog.HandlerOptions{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))

	// Escribimos en el log el warning que obtenemos por no setear el logLevel
	if err != nil {
		slog.Warn(err.Error())
	}

	slog.Debug("Se ha configurado correctamente el logger", "archivo", logPath, "nivel", level.String())
	return logFile
}

// convertStringToLogLevel modifica dinámicamente el nivel de log que deseamos tener en el sistema.
func convertStringToLogLevel(levelStr string) (slog.Level, error) {
	switch levelStr {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("No existe %s, se coloca INFO por defecto. ", levelStr)
	}
}
