package model

import (
	"errors"
	"strings"
	"testing"
)

func testGrid() *TerrainGrid {
	return &TerrainGrid{
		Cols:     4,
		Rows:     4,
		CellSize: 10,
		Grid: []TerrainType{
			Grass, Road, Water, Wall,
			Grass, Grass, Swamp, Tree,
			Spike, Pothole, Road, Road,
			Wall, Grass, Grass, Grass,
		},
	}
}

func TestTerrainGridAt(t *testing.T) {
	grid := testGrid()

	tests := []struct {
		col, row int
		want     TerrainType
	}{
		{0, 0, Grass},
		{2, 0, Water},
		{3, 1, Tree},
		{0, 2, Spike},
		{1, 2, Pothole},
		{3, 3, Grass},
	}
	for _, tc := range tests {
		got := grid.At(tc.col, tc.row)
		if got != tc.want {
			t.Errorf("At(%d, %d) = %d, want %d", tc.col, tc.row, got, tc.want)
		}
	}
}

func TestTerrainGridAtOutOfBounds(t *testing.T) {
	grid := testGrid()

	// Out-of-bounds should return Wall so nothing plans off the map.
	for _, c := range [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 4}} {
		if got := grid.At(c[0], c[1]); got != Wall {
			t.Errorf("At(%d, %d) = %d, want Wall", c[0], c[1], got)
		}
	}
}

func TestTerrainGridCellCenter(t *testing.T) {
	grid := testGrid()

	p := grid.CellCenter(0, 0)
	if p.X != 5 || p.Y != 5 {
		t.Errorf("CellCenter(0,0) = (%v,%v), want (5,5)", p.X, p.Y)
	}
	p = grid.CellCenter(1, 2)
	if p.X != 15 || p.Y != 25 {
		t.Errorf("CellCenter(1,2) = (%v,%v), want (15,25)", p.X, p.Y)
	}
	if grid.Width() != 40 {
		t.Errorf("Width() = %v, want 40", grid.Width())
	}
}

func TestTerrainTypeClassification(t *testing.T) {
	safe := map[TerrainType]bool{Grass: true, Road: true}
	impassable := map[TerrainType]bool{Wall: true, Tree: true, Spike: true}
	for _, tt := range []TerrainType{Grass, Road, Swamp, Pothole, Water, Wall, Tree, Spike} {
		if tt.Safe() != safe[tt] {
			t.Errorf("%d.Safe() = %v", tt, tt.Safe())
		}
		if tt.Impassable() != impassable[tt] {
			t.Errorf("%d.Impassable() = %v", tt, tt.Impassable())
		}
	}
}

func TestSafetyMask(t *testing.T) {
	mask := testGrid().SafetyMask()

	if !mask.IsSafe(0, 0) || !mask.IsSafe(1, 0) {
		t.Error("grass and road should be safe")
	}
	if mask.IsSafe(2, 0) || mask.IsSafe(3, 0) {
		t.Error("water and wall should be unsafe")
	}
	if mask.IsSafe(-1, 0) || mask.IsSafe(0, 9) {
		t.Error("out-of-bounds should be unsafe")
	}
}

func TestLoadTerrainCSV(t *testing.T) {
	src := "Grass, Road ,Water,\n Wall,tree,PotholeRoad\n\n"
	grid, err := LoadTerrainCSV(strings.NewReader(src), 10)
	if err != nil {
		t.Fatalf("LoadTerrainCSV: %v", err)
	}
	if grid.Cols != 3 || grid.Rows != 2 {
		t.Fatalf("size = %dx%d, want 3x2", grid.Cols, grid.Rows)
	}
	if grid.At(1, 0) != Road || grid.At(1, 1) != Tree || grid.At(2, 1) != Pothole {
		t.Errorf("unexpected grid contents: %v", grid.Grid)
	}
}

func TestLoadTerrainCSVErrors(t *testing.T) {
	if _, err := LoadTerrainCSV(strings.NewReader("\n\n"), 10); !errors.Is(err, ErrEmptyMap) {
		t.Errorf("empty map err = %v, want ErrEmptyMap", err)
	}
	if _, err := LoadTerrainCSV(strings.NewReader("grass,grass\ngrass\n"), 10); !errors.Is(err, ErrRaggedMap) {
		t.Errorf("ragged map err = %v, want ErrRaggedMap", err)
	}
}

func TestTerrainFromNames(t *testing.T) {
	grid, err := TerrainFromNames(2, 1, 10, []string{"road", "lava"})
	if err != nil {
		t.Fatalf("TerrainFromNames: %v", err)
	}
	if grid.At(0, 0) != Road || grid.At(1, 0) != Wall {
		t.Errorf("unexpected grid %v", grid.Grid)
	}
	if _, err := TerrainFromNames(2, 2, 10, []string{"road"}); !errors.Is(err, ErrRaggedMap) {
		t.Errorf("short grid err = %v, want ErrRaggedMap", err)
	}
}
