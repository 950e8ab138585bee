package model

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/dogpark/server/internal/geom"
)

// Collision widths. A dog sweeps a segment of half-width 0.3; loot is a
// point; an office is a disk of radius 0.25.
const (
	dogWidth    = 0.3
	lootWidth   = 0.0
	officeWidth = 0.25
)

// Session is the live state of one map: its dogs, its loot, and the id
// sequences for both. Mutated only inside the serialization domain.
type Session struct {
	m         *Map
	randomize bool
	gen       *LootGenerator
	rnd       *rand.Rand

	dogs       map[uint64]*Dog
	loot       map[uint64]*Loot
	nextDogID  uint64
	nextLootID uint64
}

// NewSession binds a session to its map. rnd drives spawn points, loot
// placement and the loot generator; seeding it makes the session
// deterministic.
func NewSession(m *Map, randomize bool, lootCfg LootGeneratorConfig, rnd *rand.Rand) *Session {
	return &Session{
		m:         m,
		randomize: randomize,
		gen:       NewLootGenerator(lootCfg, rnd),
		rnd:       rnd,
		dogs:      make(map[uint64]*Dog),
		loot:      make(map[uint64]*Loot),
	}
}

func (s *Session) Map() *Map { return s.m }

func (s *Session) Dog(id uint64) *Dog { return s.dogs[id] }

func (s *Session) DogCount() int { return len(s.dogs) }

func (s *Session) LootCount() int { return len(s.loot) }

func (s *Session) LootByID(id uint64) *Loot { return s.loot[id] }

// DogIDs returns the live dog ids in ascending order. This ordering defines
// gatherer indices during collision detection.
func (s *Session) DogIDs() []uint64 {
	ids := make([]uint64, 0, len(s.dogs))
	for id := range s.dogs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// LootIDs returns the live loot ids in ascending order; item indices during
// collision detection follow it.
func (s *Session) LootIDs() []uint64 {
	ids := make([]uint64, 0, len(s.loot))
	for id := range s.loot {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SpawnDog creates a dog at road 0's start, or at a uniformly random road
// position when spawn randomization is on. Returns the new dog's id.
func (s *Session) SpawnDog(name string) uint64 {
	var pos geom.Point2D
	if s.randomize {
		pos = s.randomRoadPoint()
	} else {
		start := s.m.Roads()[0].Start
		pos = geom.Point2D{X: float64(start.X), Y: float64(start.Y)}
	}
	id := s.nextDogID
	s.nextDogID++
	s.dogs[id] = &Dog{Name: name, Pos: pos, Dir: North}
	return id
}

// RemoveDog drops a retired dog from the session.
func (s *Session) RemoveDog(id uint64) {
	delete(s.dogs, id)
}

// Advance runs one simulation step: movement with corridor clamping, then
// idle accounting, then gathering. Returns the ids of dogs whose standby time
// crossed retireAfter this tick; the caller retires them after recording
// their final score. A dog due for retirement still gathers during this tick.
func (s *Session) Advance(dt time.Duration, retireAfter time.Duration) []uint64 {
	dtSec := dt.Seconds()
	dogIDs := s.DogIDs()
	gatherers := make([]geom.Gatherer, 0, len(dogIDs))
	var retired []uint64
	for _, id := range dogIDs {
		dog := s.dogs[id]
		start := dog.Pos
		idle := dog.Speed.IsZero()
		s.moveDog(dog, dtSec)
		if idle {
			if dog.Standby+dt >= retireAfter {
				// inGame freezes at exactly +retireAfter for the idle stretch.
				dog.InGame += retireAfter
				retired = append(retired, id)
			} else {
				dog.Standby += dt
			}
		} else {
			if dog.Standby != 0 {
				dog.InGame += dog.Standby
				dog.Standby = 0
			}
			dog.InGame += dt
		}
		gatherers = append(gatherers, geom.Gatherer{StartPos: start, EndPos: dog.Pos, Width: dogWidth})
	}
	s.gather(dogIDs, gatherers)
	return retired
}

// moveDog applies one tick of linear motion, clamped to the travel corridor
// of the road under the dog. At an intersection the matching-axis road wins;
// otherwise the crossing road's extent (±RoadHalfWidth) bounds the move. A
// dog that hits a wall is snapped to the rounded boundary and stopped.
func (s *Session) moveDog(dog *Dog, dtSec float64) {
	hor := s.m.FindHorRoad(dog.Pos.X, dog.Pos.Y)
	vert := s.m.FindVertRoad(dog.Pos.X, dog.Pos.Y)
	switch {
	case dog.Speed.X < 0:
		var limit float64
		if hor != nil {
			limit = math.Min(float64(hor.Start.X), float64(hor.End.X)) - RoadHalfWidth
		} else {
			limit = float64(vert.Start.X) - RoadHalfWidth
		}
		newX := dog.Pos.X + dog.Speed.X*dtSec
		if newX > limit {
			dog.Pos.X = newX
		} else {
			dog.Pos.X = RoundToOneDecimal(limit)
			dog.Speed = geom.Vec2D{}
		}
	case dog.Speed.X > 0:
		var limit float64
		if hor != nil {
			limit = math.Max(float64(hor.Start.X), float64(hor.End.X)) + RoadHalfWidth
		} else {
			limit = float64(vert.Start.X) + RoadHalfWidth
		}
		newX := dog.Pos.X + dog.Speed.X*dtSec
		if newX < limit {
			dog.Pos.X = newX
		} else {
			dog.Pos.X = RoundToOneDecimal(limit)
			dog.Speed = geom.Vec2D{}
		}
	case dog.Speed.Y < 0:
		var limit float64
		if vert != nil {
			limit = math.Min(float64(vert.Start.Y), float64(vert.End.Y)) - RoadHalfWidth
		} else {
			limit = float64(hor.Start.Y) - RoadHalfWidth
		}
		newY := dog.Pos.Y + dog.Speed.Y*dtSec
		if newY > limit {
			dog.Pos.Y = newY
		} else {
			dog.Pos.Y = RoundToOneDecimal(limit)
			dog.Speed = geom.Vec2D{}
		}
	case dog.Speed.Y > 0:
		var limit float64
		if vert != nil {
			limit = math.Max(float64(vert.Start.Y), float64(vert.End.Y)) + RoadHalfWidth
		} else {
			limit = float64(hor.Start.Y) + RoadHalfWidth
		}
		newY := dog.Pos.Y + dog.Speed.Y*dtSec
		if newY < limit {
			dog.Pos.Y = newY
		} else {
			dog.Pos.Y = RoundToOneDecimal(limit)
			dog.Speed = geom.Vec2D{}
		}
	}
}

// gather runs collision detection for the tick and applies pickups and
// deposits in canonical event order. Item indices cover loot first (in
// LootIDs order) and offices after.
func (s *Session) gather(dogIDs []uint64, gatherers []geom.Gatherer) {
	lootIDs := s.LootIDs()
	offices := s.m.Offices()
	items := make([]geom.Item, 0, len(lootIDs)+len(offices))
	for _, id := range lootIDs {
		items = append(items, geom.Item{Position: s.loot[id].Pos, Width: lootWidth})
	}
	for _, office := range offices {
		items = append(items, geom.Item{
			Position: geom.Point2D{X: float64(office.Position.X), Y: float64(office.Position.Y)},
			Width:    officeWidth,
		})
	}

	collected := make(map[int]bool)
	for _, ev := range geom.FindGatherEvents(items, gatherers) {
		dog := s.dogs[dogIDs[ev.GathererIndex]]
		if ev.ItemIndex < len(lootIDs) {
			if collected[ev.ItemIndex] || len(dog.Bag) >= s.m.BagCapacity() {
				continue
			}
			lootID := lootIDs[ev.ItemIndex]
			dog.PutInBag(lootID, s.loot[lootID].Type)
			delete(s.loot, lootID)
			collected[ev.ItemIndex] = true
		} else {
			contents := dog.EmptyBag()
			if len(contents) == 0 {
				continue
			}
			value := 0
			for _, entry := range contents {
				value += s.m.LootValue(entry.Type)
			}
			dog.Score += value
		}
	}
}

// SpawnLoot asks the generator for new items and places them uniformly along
// uniformly chosen roads with uniformly chosen types.
func (s *Session) SpawnLoot(dt time.Duration) {
	n := s.gen.Generate(dt, len(s.loot), len(s.dogs))
	for i := 0; i < n; i++ {
		lootType := 0
		if c := s.m.LootTypeCount(); c > 0 {
			lootType = s.rnd.Intn(c)
		}
		id := s.nextLootID
		s.nextLootID++
		s.loot[id] = &Loot{Type: lootType, Pos: s.randomRoadPoint()}
	}
}

func (s *Session) randomRoadPoint() geom.Point2D {
	roads := s.m.Roads()
	road := roads[s.rnd.Intn(len(roads))]
	if road.IsHorizontal() {
		lo := math.Min(float64(road.Start.X), float64(road.End.X))
		hi := math.Max(float64(road.Start.X), float64(road.End.X))
		return geom.Point2D{X: lo + s.rnd.Float64()*(hi-lo), Y: float64(road.Start.Y)}
	}
	lo := math.Min(float64(road.Start.Y), float64(road.End.Y))
	hi := math.Max(float64(road.Start.Y), float64(road.End.Y))
	return geom.Point2D{X: float64(road.Start.X), Y: lo + s.rnd.Float64()*(hi-lo)}
}

// Counters exposes the id sequences for state capture.
func (s *Session) Counters() (nextDogID, nextLootID uint64) {
	return s.nextDogID, s.nextLootID
}

// Restore replaces the session's live state wholesale. Used when loading a
// state file.
func (s *Session) Restore(dogs map[uint64]*Dog, loot map[uint64]*Loot, nextDogID, nextLootID uint64) {
	s.dogs = dogs
	s.loot = loot
	s.nextDogID = nextDogID
	s.nextLootID = nextLootID
}
