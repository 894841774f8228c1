package helpers

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/utils/config"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/utils/disk"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/utils/log"
)

// crea un directorio en el path especificado.
func CreateDirectory(dir string) error {
	err := os.MkdirAll(dir, os.ModePerm)
	if err != nil {
		slog.Error(fmt.Sprintf("Error al crear el directorio %s: %v", dir, err))
		return err
	}

	slog.Debug(fmt.Sprintf("Directorio %s creado o ya existía.", dir))
	return nil
}

// InitMemory carga la configuración y levanta el logger. Devuelve el archivo de log para cerrarlo al salir.
func InitMemory(configPath string, logPath string) (io.Closer, error) {
	config.InitConfig(configPath, models.MemoryConfig)
	closer := log.InitLogger(logPath, models.MemoryConfig.LogLevel, log.Rotacion{
		MaxSize:    models.MemoryConfig.LogMaxSize,
		MaxBackups: models.MemoryConfig.LogMaxBackups,
	})

	if err := models.MemoryConfig.Validate(); err != nil {
		slog.Error("Configuración inválida", "error", err)
		return closer, err
	}

	slog.Debug(fmt.Sprintf("Port Memory: %d", models.MemoryConfig.PortMemory))
	if err := CreateDirectory(models.MemoryConfig.DumpPath); err != nil {
		return closer, err
	}
	return closer, nil
}

// OpenSwapDevice abre (o crea) el archivo de swap con el tamaño que necesitan los slots configurados.
func OpenSwapDevice(cfg *models.Config) (*disk.FileDisk, error) {
	slog.Debug(fmt.Sprintf("Swap: %s", cfg.SwapFilePath))
	return disk.OpenFileDisk(cfg.SwapFilePath, disk.Options{
		BlockSize: cfg.BlockSize,
		Blocks:    cfg.SwapBlocks(),
		Delay:     time.Duration(cfg.SwapDelay) * time.Millisecond,
	})
}

func GetDumpName(pid int) string {
	timestamp := time.Now().Format("20060102-150405.000")
	return fmt.Sprintf("%d-%s.dmp", pid, timestamp)
}
