package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vrushabhzade/retro-game-project-sub001/internal/world"
)

// Floor is one dungeon floor layout loaded from YAML: a tile map plus spawn
// points. The layout content comes from an external generator; the engine
// only consumes what is loaded here.
type Floor struct {
	Name   string       `yaml:"name"`
	Rows   []string     `yaml:"rows"` // '#' wall, '.' floor
	Player SpawnPoint   `yaml:"player"`
	Spawns []FloorSpawn `yaml:"spawns"`
	Items  []string     `yaml:"items"` // starting inventory item IDs
}

type SpawnPoint struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type FloorSpawn struct {
	Kind string `yaml:"kind"`
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
}

func LoadFloor(path string) (*Floor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f Floor
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.Rows) == 0 {
		return nil, fmt.Errorf("floor %s: empty layout", path)
	}
	width := len(f.Rows[0])
	for i, row := range f.Rows {
		if len(row) != width {
			return nil, fmt.Errorf("floor %s: row %d width %d, want %d", path, i, len(row), width)
		}
	}
	return &f, nil
}

// Grid builds the walkability grid from the tile rows.
func (f *Floor) Grid() *world.Grid {
	rows := make([][]bool, len(f.Rows))
	for y, row := range f.Rows {
		rows[y] = make([]bool, len(row))
		for x, ch := range row {
			rows[y][x] = ch == '.'
		}
	}
	return world.NewGrid(rows)
}
