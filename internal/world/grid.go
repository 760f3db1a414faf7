package world

// Grid is the walkability map of one dungeon floor. The layout itself comes
// from an external generator; the engine only consumes the validity predicate.
type Grid struct {
	width, height int
	walkable      []bool
}

// NewGrid builds a grid from per-row walkability. Rows must be equal length.
func NewGrid(rows [][]bool) *Grid {
	g := &Grid{height: len(rows)}
	if g.height > 0 {
		g.width = len(rows[0])
	}
	g.walkable = make([]bool, g.width*g.height)
	for y, row := range rows {
		for x, ok := range row {
			if x < g.width {
				g.walkable[y*g.width+x] = ok
			}
		}
	}
	return g
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// Walkable reports whether the coordinate is inside the floor and passable.
func (g *Grid) Walkable(x, y int) bool {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return false
	}
	return g.walkable[y*g.width+x]
}

// Clone returns an independent copy.
func (g *Grid) Clone() *Grid {
	cp := &Grid{width: g.width, height: g.height}
	cp.walkable = append([]bool(nil), g.walkable...)
	return cp
}
