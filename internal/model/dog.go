package model

import (
	"sort"
	"time"

	"github.com/dogpark/server/internal/geom"
)

// Direction is the way a dog faces. It is preserved when the dog stops.
type Direction byte

const (
	North Direction = iota
	South
	West
	East
)

// String renders the direction in the wire format used by the API.
func (d Direction) String() string {
	switch d {
	case South:
		return "D"
	case West:
		return "L"
	case East:
		return "R"
	default:
		return "U"
	}
}

// DirectionFromByte maps a serialized direction back; unknown values default
// to North.
func DirectionFromByte(b byte) Direction {
	if d := Direction(b); d <= East {
		return d
	}
	return North
}

// BagEntry is one item carried by a dog, keyed by the session-wide loot id it
// had on the ground.
type BagEntry struct {
	ID   uint64
	Type int
}

// Dog is one in-world avatar. Owned by its session and mutated only inside
// the serialization domain.
type Dog struct {
	Name    string
	Pos     geom.Point2D
	Speed   geom.Vec2D
	Dir     Direction
	Bag     []BagEntry
	Score   int
	InGame  time.Duration
	Standby time.Duration
}

// SetSpeed applies a move command. An empty direction stops the dog; facing
// is preserved in that case.
func (d *Dog) SetSpeed(move string, speed float64) {
	switch move {
	case "L":
		d.Speed = geom.Vec2D{X: -speed}
		d.Dir = West
	case "R":
		d.Speed = geom.Vec2D{X: speed}
		d.Dir = East
	case "U":
		d.Speed = geom.Vec2D{Y: -speed}
		d.Dir = North
	case "D":
		d.Speed = geom.Vec2D{Y: speed}
		d.Dir = South
	default:
		d.Speed = geom.Vec2D{}
	}
}

// PutInBag stores a picked-up item, keeping the bag ordered by loot id.
func (d *Dog) PutInBag(lootID uint64, lootType int) {
	i := sort.Search(len(d.Bag), func(i int) bool { return d.Bag[i].ID >= lootID })
	d.Bag = append(d.Bag, BagEntry{})
	copy(d.Bag[i+1:], d.Bag[i:])
	d.Bag[i] = BagEntry{ID: lootID, Type: lootType}
}

// EmptyBag clears the bag and returns what was in it.
func (d *Dog) EmptyBag() []BagEntry {
	contents := d.Bag
	d.Bag = nil
	return contents
}
