package model

import "math"

// RoadHalfWidth is how far a dog may stray from a road's centerline.
const RoadHalfWidth = 0.4

// Point is a grid coordinate. Road endpoints are always integral.
type Point struct {
	X, Y int
}

// Size is the extent of a rectangle on the grid.
type Size struct {
	Width, Height int
}

// Rectangle is an axis-aligned rectangle on the grid.
type Rectangle struct {
	Position Point
	Size     Size
}

// Offset is a rendering offset relative to a grid position.
type Offset struct {
	DX, DY int
}

// Road is an axis-aligned segment of the map's street grid.
type Road struct {
	Start Point
	End   Point
}

// NewHorizontalRoad builds a road running from start to (endX, start.Y).
func NewHorizontalRoad(start Point, endX int) Road {
	return Road{Start: start, End: Point{X: endX, Y: start.Y}}
}

// NewVerticalRoad builds a road running from start to (start.X, endY).
func NewVerticalRoad(start Point, endY int) Road {
	return Road{Start: start, End: Point{X: start.X, Y: endY}}
}

func (r Road) IsHorizontal() bool { return r.Start.Y == r.End.Y }

func (r Road) IsVertical() bool { return r.Start.X == r.End.X }

// Corridor bounds the road's centerline inflated by RoadHalfWidth on every
// side.
func (r Road) Corridor() Corridor {
	minX := math.Min(float64(r.Start.X), float64(r.End.X))
	maxX := math.Max(float64(r.Start.X), float64(r.End.X))
	minY := math.Min(float64(r.Start.Y), float64(r.End.Y))
	maxY := math.Max(float64(r.Start.Y), float64(r.End.Y))
	return Corridor{
		LeftX:  RoundToOneDecimal(minX - RoadHalfWidth),
		RightX: RoundToOneDecimal(maxX + RoadHalfWidth),
		UpY:    RoundToOneDecimal(minY - RoadHalfWidth),
		DownY:  RoundToOneDecimal(maxY + RoadHalfWidth),
	}
}

// Corridor is the walkable rectangle around a road. Y grows downward, so UpY
// is the smaller bound.
type Corridor struct {
	LeftX, RightX float64
	UpY, DownY    float64
}

// Contains reports whether (x, y) lies inside the corridor, borders included.
func (c Corridor) Contains(x, y float64) bool {
	return x >= c.LeftX && x <= c.RightX && y >= c.UpY && y <= c.DownY
}

// RoundToOneDecimal rounds to one decimal place. Applied only when a dog is
// snapped to a corridor wall; free motion is never rounded.
func RoundToOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
