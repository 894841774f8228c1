package models

type PIDRequest struct {
	PID int `json:"pid"`
}

type CreateProcessRequest struct {
	Size uint32 `json:"size"`
}

type CreateProcessResponse struct {
	PID   int `json:"pid"`
	Pages int `json:"pages"`
}

type ReadRequest struct {
	PID     int    `json:"pid"`
	Address uint32 `json:"address"`
	Size    int    `json:"size"`
}

type WriteRequest struct {
	PID     int    `json:"pid"`
	Address uint32 `json:"address"`
	Data    []byte `json:"data"`
}

type ReadResponse struct {
	Data []byte `json:"data"`
}

type FaultRequest struct {
	PID     int    `json:"pid"`
	Address uint32 `json:"address"`
}

type SwapOutResponse struct {
	Slots []int  `json:"slots"`
	Error string `json:"error,omitempty"`
}

type DumpResponse struct {
	Path string `json:"path"`
}
