package model

import "github.com/dogpark/server/internal/geom"

// Loot is a pickupable item lying on a road. Destroyed on pickup; its id
// survives as the bag key.
type Loot struct {
	Type int
	Pos  geom.Point2D
}
