package ipc

// Message types exchanged with the match orchestrator.
const (
	TypeHello   = "hello"
	TypeAck     = "ack"
	TypeTick    = "tick"
	TypeCommand = "command"
	TypeDestroy = "destroy"
	TypeEnd     = "end"
)

type HelloMessage struct {
	TankID  string       `json:"tankId"`
	Team    int          `json:"team"`
	Name    string       `json:"name"`
	Terrain *TerrainData `json:"terrain,omitempty"`
}

// TerrainData carries the static terrain grid, one category name per cell in
// row-major order. Optional: without it the agent falls back to the map file
// it was started with, or skips the corridor entirely.
type TerrainData struct {
	Cols     int      `json:"cols"`
	Rows     int      `json:"rows"`
	CellSize float64  `json:"cellSize"`
	Grid     []string `json:"grid"`
}

type AckMessage struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// EndMessage closes a match. It is informational only.
type EndMessage struct {
	DamageDealt float64 `json:"damageDealt"`
	TanksKilled int     `json:"tanksKilled"`
}
