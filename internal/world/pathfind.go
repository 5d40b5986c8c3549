package world

import "math"

// neighborOffsets is the fixed 4-connected expansion order.
var neighborOffsets = [4]CellKey{
	{Col: 0, Row: -1},
	{Col: 1, Row: 0},
	{Col: 0, Row: 1},
	{Col: -1, Row: 0},
}

// FindPath runs A* over the grid's 4-connected cells with uniform edge cost
// and a Manhattan heuristic. Start and goal are world points; when either
// maps to a blocked cell, the nearest open cell substitutes for it. The
// result is the sequence of cell-center world points from start to goal
// inclusive, or nil when the goal is unreachable.
func FindPath(grid *NavGrid, start, goal Vec2) []Vec2 {
	if grid == nil || grid.Cols == 0 || grid.Rows == 0 {
		return nil
	}

	startCell := grid.CellAt(start)
	goalCell := grid.CellAt(goal)
	var ok bool
	if grid.IsBlocked(startCell) {
		if startCell, ok = nearestOpenCell(grid, startCell); !ok {
			return nil
		}
	}
	if grid.IsBlocked(goalCell) {
		if goalCell, ok = nearestOpenCell(grid, goalCell); !ok {
			return nil
		}
	}

	cells := astar(grid, startCell, goalCell)
	if cells == nil {
		return nil
	}
	points := make([]Vec2, len(cells))
	for i, cell := range cells {
		points[i] = grid.CellCenter(cell)
	}
	return points
}

// nearestOpenCell breadth-first-searches outward over blocked and unblocked
// cells alike until it reaches an open one.
func nearestOpenCell(grid *NavGrid, from CellKey) (CellKey, bool) {
	if !grid.InBounds(from) {
		return CellKey{}, false
	}
	visited := map[CellKey]struct{}{from: {}}
	queue := []CellKey{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if !grid.IsBlocked(current) {
			return current, true
		}
		for _, d := range neighborOffsets {
			next := CellKey{Col: current.Col + d.Col, Row: current.Row + d.Row}
			if !grid.InBounds(next) {
				continue
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return CellKey{}, false
}

type pathNode struct {
	cell   CellKey
	g      float64
	f      float64
	parent *pathNode
}

// astar expands nodes from a plain slice open set: the lowest f wins and
// ties resolve to the earliest entry, with no secondary key.
func astar(grid *NavGrid, start, goal CellKey) []CellKey {
	open := []*pathNode{{cell: start, f: manhattan(start, goal)}}
	gScore := map[CellKey]float64{start: 0}
	closed := make(map[CellKey]struct{})

	for len(open) > 0 {
		best := 0
		for i := 1; i < len(open); i++ {
			if open[i].f < open[best].f {
				best = i
			}
		}
		current := open[best]
		open = append(open[:best], open[best+1:]...)

		if _, seen := closed[current.cell]; seen {
			continue
		}
		closed[current.cell] = struct{}{}

		if current.cell == goal {
			return reconstructPath(current)
		}

		for _, d := range neighborOffsets {
			next := CellKey{Col: current.cell.Col + d.Col, Row: current.cell.Row + d.Row}
			if !grid.InBounds(next) || grid.IsBlocked(next) {
				continue
			}
			if _, seen := closed[next]; seen {
				continue
			}
			tentative := current.g + 1
			if prev, ok := gScore[next]; ok && tentative >= prev {
				continue
			}
			gScore[next] = tentative
			open = append(open, &pathNode{
				cell:   next,
				g:      tentative,
				f:      tentative + manhattan(next, goal),
				parent: current,
			})
		}
	}
	return nil
}

func reconstructPath(end *pathNode) []CellKey {
	cells := make([]CellKey, 0)
	for node := end; node != nil; node = node.parent {
		cells = append(cells, node.cell)
	}
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
	return cells
}

func manhattan(a, b CellKey) float64 {
	return math.Abs(float64(a.Col-b.Col)) + math.Abs(float64(a.Row-b.Row))
}
