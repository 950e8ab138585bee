package geom

// Point2D is a position on the map plane.
type Point2D struct {
	X, Y float64
}

// Vec2D is a velocity in units per second.
type Vec2D struct {
	X, Y float64
}

// IsZero reports whether the vector has no magnitude on either axis.
func (v Vec2D) IsZero() bool {
	return v.X == 0 && v.Y == 0
}
