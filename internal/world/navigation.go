package world

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// CellKey addresses one navigation grid cell.
type CellKey struct {
	Col int
	Row int
}

// NavGrid is a uniform occupancy grid derived from static obstacles,
// covering the bounding box of all Things. It is rebuilt lazily and never
// mutated after construction.
type NavGrid struct {
	Origin    Vec2
	CellSize  float64
	Cols      int
	Rows      int
	Blocked   map[CellKey]struct{}
	Obstacles []Rect
	Signature string
}

// NavCache memoizes the most recently built grid. This is a single-slot
// memo keyed by signature, not a general cache: alternating parameters
// between calls will thrash it.
type NavCache struct {
	grid *NavGrid
}

// Grid returns the cached grid when the signature still matches, otherwise
// builds a fresh one and evicts the old.
func (c *NavCache) Grid(state *GameState, cellSize, padding float64) *NavGrid {
	bounds, _ := state.Bounds()
	obstacles := state.StaticObstacles()
	sig := gridSignature(cellSize, padding, bounds, obstacles)
	if c.grid != nil && c.grid.Signature == sig {
		return c.grid
	}
	c.grid = buildNavGrid(bounds, obstacles, cellSize, padding, sig)
	return c.grid
}

// gridSignature derives the cache key from the grid parameters, the world
// bounding box, and the sorted static obstacle rectangles.
func gridSignature(cellSize, padding float64, bounds Rect, obstacles []Rect) string {
	keys := make([]string, len(obstacles))
	for i, r := range obstacles {
		keys[i] = fmt.Sprintf("%g,%g,%g,%g", r.X, r.Y, r.Width, r.Height)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%g|%g|%g,%g,%g,%g", cellSize, padding, bounds.X, bounds.Y, bounds.Width, bounds.Height)
	for _, key := range keys {
		b.WriteByte('|')
		b.WriteString(key)
	}
	return b.String()
}

func buildNavGrid(bounds Rect, obstacles []Rect, cellSize, padding float64, sig string) *NavGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	cols := int(math.Ceil(bounds.Width / cellSize))
	rows := int(math.Ceil(bounds.Height / cellSize))
	if cols <= 0 {
		cols = 1
	}
	if rows <= 0 {
		rows = 1
	}

	grid := &NavGrid{
		Origin:    Vec2{X: bounds.X, Y: bounds.Y},
		CellSize:  cellSize,
		Cols:      cols,
		Rows:      rows,
		Blocked:   make(map[CellKey]struct{}),
		Obstacles: append([]Rect(nil), obstacles...),
		Signature: sig,
	}

	inflated := make([]Rect, len(obstacles))
	for i, r := range obstacles {
		inflated[i] = r.Inflate(padding)
	}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cell := grid.CellRect(CellKey{Col: col, Row: row})
			for _, r := range inflated {
				if RectsOverlap(cell, r) {
					grid.Blocked[CellKey{Col: col, Row: row}] = struct{}{}
					break
				}
			}
		}
	}
	return grid
}

// InBounds reports whether the cell lies within [0,Cols) x [0,Rows).
func (g *NavGrid) InBounds(c CellKey) bool {
	return g != nil && c.Col >= 0 && c.Row >= 0 && c.Col < g.Cols && c.Row < g.Rows
}

// IsBlocked reports whether the cell overlaps an inflated static obstacle.
func (g *NavGrid) IsBlocked(c CellKey) bool {
	_, blocked := g.Blocked[c]
	return blocked
}

// CellAt converts a world point to a cell key, clamped into grid bounds.
func (g *NavGrid) CellAt(p Vec2) CellKey {
	col := int(math.Floor((p.X - g.Origin.X) / g.CellSize))
	row := int(math.Floor((p.Y - g.Origin.Y) / g.CellSize))
	if col < 0 {
		col = 0
	}
	if col >= g.Cols {
		col = g.Cols - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= g.Rows {
		row = g.Rows - 1
	}
	return CellKey{Col: col, Row: row}
}

// CellCenter returns the world-space midpoint of a cell.
func (g *NavGrid) CellCenter(c CellKey) Vec2 {
	return Vec2{
		X: g.Origin.X + (float64(c.Col)+0.5)*g.CellSize,
		Y: g.Origin.Y + (float64(c.Row)+0.5)*g.CellSize,
	}
}

// CellRect returns the world-space rectangle a cell covers.
func (g *NavGrid) CellRect(c CellKey) Rect {
	return Rect{
		X:      g.Origin.X + float64(c.Col)*g.CellSize,
		Y:      g.Origin.Y + float64(c.Row)*g.CellSize,
		Width:  g.CellSize,
		Height: g.CellSize,
	}
}
