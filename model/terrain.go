package model

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Jvsin/tank-agent-ai/geometry"
)

// TerrainType classifies one map tile. The classification matters only for
// deriving the bootstrap corridor and for seeding impassable cells.
type TerrainType byte

const (
	Grass   TerrainType = iota // open ground
	Road                       // open ground, fast
	Swamp                      // slows and damages
	Pothole                    // damaging road
	Water                      // damaging
	Wall                       // impassable
	Tree                       // impassable until destroyed
	Spike                      // anti-tank spike, impassable
)

var terrainNames = map[string]TerrainType{
	"grass":         Grass,
	"road":          Road,
	"swamp":         Swamp,
	"pothole":       Pothole,
	"potholeroad":   Pothole,
	"water":         Water,
	"wall":          Wall,
	"tree":          Tree,
	"spike":         Spike,
	"antitankspike": Spike,
}

var (
	ErrEmptyMap  = errors.New("terrain map is empty")
	ErrRaggedMap = errors.New("terrain map rows differ in width")
)

// ParseTerrainType maps a category name to its TerrainType, ignoring case.
func ParseTerrainType(name string) (TerrainType, bool) {
	t, ok := terrainNames[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Safe reports whether the category is open ground a corridor may run over.
func (t TerrainType) Safe() bool {
	return t == Grass || t == Road
}

// Impassable reports whether no vehicle can drive through the category.
func (t TerrainType) Impassable() bool {
	return t == Wall || t == Tree || t == Spike
}

// TerrainGrid is the static map shared by both teams. One grid cell covers a
// CellSize x CellSize square of world space.
type TerrainGrid struct {
	Cols     int
	Rows     int
	CellSize float64
	Grid     []TerrainType // row-major: Grid[row*Cols + col]
}

// At returns the terrain type at grid coordinates (col, row).
// Returns Wall for out-of-bounds coordinates.
func (g *TerrainGrid) At(col, row int) TerrainType {
	if col < 0 || col >= g.Cols || row < 0 || row >= g.Rows {
		return Wall
	}
	return g.Grid[row*g.Cols+col]
}

// CellCenter returns the world coordinates of the center of (col, row).
func (g *TerrainGrid) CellCenter(col, row int) geometry.Point {
	return geometry.Point{
		X: (float64(col) + 0.5) * g.CellSize,
		Y: (float64(row) + 0.5) * g.CellSize,
	}
}

// Width returns the world-space width of the map.
func (g *TerrainGrid) Width() float64 {
	return float64(g.Cols) * g.CellSize
}

// SafetyMask classifies every cell as safe or unsafe.
func (g *TerrainGrid) SafetyMask() SafetyMask {
	m := SafetyMask{Cols: g.Cols, Rows: g.Rows, CellSize: g.CellSize, Safe: make([]bool, len(g.Grid))}
	for i, t := range g.Grid {
		m.Safe[i] = t.Safe()
	}
	return m
}

// SafetyMask is the safe/unsafe view of a TerrainGrid.
type SafetyMask struct {
	Cols     int
	Rows     int
	CellSize float64
	Safe     []bool // row-major
}

// IsSafe reports whether (col, row) is safe. Out-of-bounds cells are unsafe.
func (m SafetyMask) IsSafe(col, row int) bool {
	if col < 0 || col >= m.Cols || row < 0 || row >= m.Rows {
		return false
	}
	return m.Safe[row*m.Cols+col]
}

// LoadTerrainCSV reads a map where each CSV field names a terrain category.
// Blank fields are ignored and unknown names are treated as walls.
func LoadTerrainCSV(r io.Reader, cellSize float64) (*TerrainGrid, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read terrain csv: %w", err)
	}

	var rows [][]TerrainType
	for _, rec := range records {
		var row []TerrainType
		for _, field := range rec {
			if strings.TrimSpace(field) == "" {
				continue
			}
			t, ok := ParseTerrainType(field)
			if !ok {
				t = Wall
			}
			row = append(row, t)
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, ErrEmptyMap
	}

	cols := len(rows[0])
	grid := &TerrainGrid{Cols: cols, Rows: len(rows), CellSize: cellSize, Grid: make([]TerrainType, 0, cols*len(rows))}
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d cells, want %d: %w", i, len(row), cols, ErrRaggedMap)
		}
		grid.Grid = append(grid.Grid, row...)
	}
	return grid, nil
}

// TerrainFromNames builds a grid from row-major category names, as carried by
// the hello handshake.
func TerrainFromNames(cols, rows int, cellSize float64, names []string) (*TerrainGrid, error) {
	if cols <= 0 || rows <= 0 {
		return nil, ErrEmptyMap
	}
	if len(names) != cols*rows {
		return nil, fmt.Errorf("grid has %d cells, want %dx%d: %w", len(names), cols, rows, ErrRaggedMap)
	}
	grid := &TerrainGrid{Cols: cols, Rows: rows, CellSize: cellSize, Grid: make([]TerrainType, len(names))}
	for i, name := range names {
		t, ok := ParseTerrainType(name)
		if !ok {
			t = Wall
		}
		grid.Grid[i] = t
	}
	return grid, nil
}
