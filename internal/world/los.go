package world

// HasLineOfSight reports whether the segment between two Things' centers
// clears every obstacle rectangle. Sight is lost when either endpoint lies
// inside an obstacle or the segment crosses any of its four edges.
func HasLineOfSight(a, b *Thing, obstacles []Rect) bool {
	p1 := a.Center()
	p2 := b.Center()
	for _, r := range obstacles {
		if r.ContainsPoint(p1) || r.ContainsPoint(p2) {
			return false
		}
		if segmentIntersectsRect(p1, p2, r) {
			return false
		}
	}
	return true
}

func segmentIntersectsRect(p1, p2 Vec2, r Rect) bool {
	topLeft := Vec2{X: r.X, Y: r.Y}
	topRight := Vec2{X: r.X + r.Width, Y: r.Y}
	bottomLeft := Vec2{X: r.X, Y: r.Y + r.Height}
	bottomRight := Vec2{X: r.X + r.Width, Y: r.Y + r.Height}

	return segmentsIntersect(p1, p2, topLeft, topRight) ||
		segmentsIntersect(p1, p2, topRight, bottomRight) ||
		segmentsIntersect(p1, p2, bottomRight, bottomLeft) ||
		segmentsIntersect(p1, p2, bottomLeft, topLeft)
}

// segmentsIntersect uses the orientation test, including the collinear
// on-segment cases.
func segmentsIntersect(p1, p2, p3, p4 Vec2) bool {
	o1 := orientation(p1, p2, p3)
	o2 := orientation(p1, p2, p4)
	o3 := orientation(p3, p4, p1)
	o4 := orientation(p3, p4, p2)

	if o1 != o2 && o3 != o4 {
		return true
	}
	if o1 == 0 && onSegment(p1, p3, p2) {
		return true
	}
	if o2 == 0 && onSegment(p1, p4, p2) {
		return true
	}
	if o3 == 0 && onSegment(p3, p1, p4) {
		return true
	}
	if o4 == 0 && onSegment(p3, p2, p4) {
		return true
	}
	return false
}

// orientation returns 0 for collinear points, 1 for clockwise, 2 for
// counterclockwise.
func orientation(a, b, c Vec2) int {
	val := (b.Y-a.Y)*(c.X-b.X) - (b.X-a.X)*(c.Y-b.Y)
	switch {
	case val == 0:
		return 0
	case val > 0:
		return 1
	default:
		return 2
	}
}

// onSegment reports whether q lies on the segment pr, assuming collinearity.
func onSegment(p, q, r Vec2) bool {
	return q.X <= maxf(p.X, r.X) && q.X >= minf(p.X, r.X) &&
		q.Y <= maxf(p.Y, r.Y) && q.Y >= minf(p.Y, r.Y)
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
