package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	memoryHandler "github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/handlers"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/helpers"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/models"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/memoria/services"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/utils/config"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/utils/web/client"
	"github.com/sisoputnfrba/tp-2025-1c-memoria-swap/utils/web/server"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const (
	ConfigPath = "memoria/configs/memoria.json"
	LogPath    = "./logs/memoria.log"
)

var (
	configPath string
	logPath    string

	memoryHost string
	memoryPort int

	threshold    int
	pagesPerPass int
	fullPass     bool
)

var rootCmd = &cobra.Command{
	Use:          "memoria",
	Short:        "Módulo de memoria con paginación por demanda y swap",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Levanta el servidor de memoria y el reloj",
	RunE:  serve,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Muestra el estado de la memoria y los slots de swap ocupados",
	RunE:  status,
}

var swapOutCmd = &cobra.Command{
	Use:   "swapout",
	Short: "Pide un desalojo a una memoria en ejecución",
	RunE:  swapOut,
}

var configCmd = &cobra.Command{
	Use:     "config <clave> <valor> [<clave> <valor> ...]",
	Short:   "Actualiza claves del archivo de configuración",
	Example: "  memoria config swap_slots 1600 swap_file_path ./swap2.bin",
	Args:    pairArgs,
	RunE:    updateConfig,
}

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Cambia threshold y pages_per_pass en una memoria en ejecución",
	RunE:  tune,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ConfigPath, "archivo de configuración")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", LogPath, "archivo de log")

	for _, cmd := range []*cobra.Command{statusCmd, swapOutCmd, tuneCmd} {
		addClientFlags(cmd.Flags())
	}
	swapOutCmd.Flags().BoolVar(&fullPass, "pass", false, "correr una pasada completa del monitor de presión")
	tuneCmd.Flags().IntVar(&threshold, "threshold", models.DefaultConfig().Threshold, "marcos libres por debajo de los cuales se desaloja")
	tuneCmd.Flags().IntVar(&pagesPerPass, "pages-per-pass", models.DefaultConfig().PagesPerPass, "páginas a desalojar por pasada")

	rootCmd.AddCommand(serveCmd, statusCmd, swapOutCmd, tuneCmd, configCmd)
}

func addClientFlags(fs *pflag.FlagSet) {
	fs.StringVar(&memoryHost, "host", "127.0.0.1", "IP de memoria")
	fs.IntVar(&memoryPort, "port", models.DefaultConfig().PortMemory, "puerto de memoria")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(cmd *cobra.Command, args []string) error {
	logCloser, err := helpers.InitMemory(configPath, logPath)
	if logCloser != nil {
		defer logCloser.Close()
	}
	if err != nil {
		return err
	}
	cfg := models.MemoryConfig

	swapDevice, err := helpers.OpenSwapDevice(cfg)
	if err != nil {
		slog.Error(fmt.Sprintf("error abriendo el archivo de swap: %v", err))
		return err
	}
	defer swapDevice.Close()

	mem, err := services.NewMemory(*cfg, swapDevice)
	if err != nil {
		slog.Error(fmt.Sprintf("error inicializando memoria: %v", err))
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.InitServer(ctx, cfg.PortMemory, memoryHandler.NewRouter(mem))
	})
	g.Go(func() error {
		return runClock(ctx, mem, time.Duration(cfg.TickInterval)*time.Millisecond, cfg.TimekeeperCPU)
	})

	slog.Info("Memoria lista", "memoria", humanize.IBytes(uint64(cfg.MemorySize)), "swap", cfg.SwapFilePath)
	err = g.Wait()
	slog.Info("Memoria finalizada", "disco", swapDevice.Stats())
	return err
}

// runClock genera la interrupción de reloj: barrido de bits de acceso y, si hay presión, una pasada de desalojo.
func runClock(ctx context.Context, mem *services.Memory, interval time.Duration, cpu int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		mem.OnTimerTick(cpu)
		if !mem.Pressure().UnderPressure() {
			continue
		}
		if _, err := mem.Pressure().Relieve(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Debug("Pasada de desalojo sin completar", "error", err)
		}
	}
}

func status(cmd *cobra.Command, args []string) error {
	var stats models.MemoryStats
	if err := getJSON("memoria/stats", &stats); err != nil {
		return err
	}
	var slots []models.SlotInfo
	if err := getJSON("memoria/swap", &slots); err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Memoria")
	t.SetStyle(table.StyleLight)
	t.AppendRow(table.Row{"Marcos libres", fmt.Sprintf("%d / %d", stats.FreeFrames, stats.TotalFrames)})
	t.AppendRow(table.Row{"Slots ocupados", fmt.Sprintf("%d / %d", stats.UsedSlots, stats.TotalSlots)})
	t.AppendRow(table.Row{"Ticks", stats.Ticks})
	t.AppendRow(table.Row{"Threshold / Npg", fmt.Sprintf("%d / %d", stats.Tunables.Threshold, stats.Tunables.PagesPerPass)})
	t.Render()

	p := table.NewWriter()
	p.SetOutputMirror(os.Stdout)
	p.SetTitle("Procesos")
	p.SetStyle(table.StyleLight)
	p.AppendHeader(table.Row{"PID", "Estado", "Tamaño", "RSS", "Killed", "Faults", "Swap Out", "Swap In"})
	for _, proc := range stats.Processes {
		p.AppendRow(table.Row{proc.Pid, proc.State, humanize.IBytes(uint64(proc.Size)), proc.Rss, proc.Killed,
			proc.Metrics.PageFaults, proc.Metrics.SwapsOut, proc.Metrics.SwapsIn})
	}
	p.Render()

	services.RenderSlotTable(os.Stdout, slots, stats.PageSize)
	return nil
}

func swapOut(cmd *cobra.Command, args []string) error {
	query := "memoria/swapout"
	if fullPass {
		query += "?pass=true"
	}
	resp, err := client.DoRequest(memoryPort, memoryHost, "POST", query)
	if err != nil {
		printErrorBody(resp)
		return err
	}
	defer resp.Body.Close()

	var out models.SwapOutResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	fmt.Printf("Slots usados: %v\n", out.Slots)
	if out.Error != "" {
		fmt.Printf("Pasada interrumpida: %s\n", out.Error)
	}
	return nil
}

func tune(cmd *cobra.Command, args []string) error {
	t := models.Tunables{Threshold: threshold, PagesPerPass: pagesPerPass}
	if err := t.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(t)
	if err != nil {
		return err
	}

	resp, err := client.DoRequest(memoryPort, memoryHost, "PUT", "memoria/tunables", body)
	if err != nil {
		printErrorBody(resp)
		return err
	}
	defer resp.Body.Close()

	fmt.Printf("Tunables actualizados: threshold=%d pages_per_pass=%d\n", t.Threshold, t.PagesPerPass)
	return nil
}

func pairArgs(cmd *cobra.Command, args []string) error {
	if len(args) < 2 || len(args)%2 != 0 {
		return fmt.Errorf("se esperan pares clave valor, se recibieron %d argumentos", len(args))
	}
	return nil
}

func updateConfig(cmd *cobra.Command, args []string) error {
	updates := make(map[string]string, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		updates[args[i]] = args[i+1]
	}

	updated, err := config.UpdateConfig(configPath, updates, models.DefaultConfig())
	if err != nil {
		return err
	}
	for _, key := range updated {
		fmt.Printf("  %s: %s\n", key, updates[key])
	}
	fmt.Printf("El archivo %s ha sido actualizado correctamente.\n", configPath)
	return nil
}

func getJSON(query string, out any) error {
	resp, err := client.DoRequest(memoryPort, memoryHost, "GET", query)
	if err != nil {
		printErrorBody(resp)
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

func printErrorBody(resp *http.Response) {
	if resp == nil {
		return
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err == nil && buf.Len() > 0 {
		fmt.Fprintln(os.Stderr, buf.String())
	}
}
