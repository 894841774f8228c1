package models

// ProcState estado del proceso dentro de la tabla de procesos.
type ProcState int

const (
	Unused ProcState = iota
	Embryo
	Sleeping
	Runnable
	Running
	Zombie
)

func (s ProcState) String() string {
	switch s {
	case Unused:
		return "UNUSED"
	case Embryo:
		return "EMBRYO"
	case Sleeping:
		return "SLEEPING"
	case Runnable:
		return "RUNNABLE"
	case Running:
		return "RUNNING"
	case Zombie:
		return "ZOMBIE"
	default:
		return "UNKNOWN"
	}
}

type Metrics struct {
	PageFaults int `json:"page_faults"`
	SwapsOut   int `json:"swaps_out"`
	SwapsIn    int `json:"swaps_in"`
	Reads      int `json:"reads"`
	Writes     int `json:"writes"`
}

// ProcessInfo es la foto de un proceso que se devuelve por la API.
type ProcessInfo struct {
	Pid     int     `json:"pid"`
	State   string  `json:"state"`
	Size    uint32  `json:"size"`
	Rss     int     `json:"rss"`
	Killed  bool    `json:"killed"`
	Metrics Metrics `json:"metrics"`
}

// MemoryStats resumen del estado de la memoria.
type MemoryStats struct {
	TotalFrames int           `json:"total_frames"`
	FreeFrames  int           `json:"free_frames"`
	TotalSlots  int           `json:"total_slots"`
	UsedSlots   int           `json:"used_slots"`
	PageSize    int           `json:"page_size"`
	Ticks       uint64        `json:"ticks"`
	Tunables    Tunables      `json:"tunables"`
	Processes   []ProcessInfo `json:"processes"`
}
