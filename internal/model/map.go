package model

import "fmt"

// Office is a fixed deposit point. Touching it with a non-empty bag converts
// the bag's contents to score.
type Office struct {
	ID       string
	Position Point
	Offset   Offset
}

// Building occupies part of the map for rendering. The simulation ignores it.
type Building struct {
	Bounds Rectangle
}

// Map is the immutable topology of one game map. Built once at config load;
// sessions hold a non-owning reference to it.
type Map struct {
	id          string
	name        string
	dogSpeed    float64
	bagCapacity int
	lootValues  []int

	roads     []Road
	buildings []Building
	offices   []Office
	officeIDs map[string]struct{}

	horRoads  []corridorRoad
	vertRoads []corridorRoad
}

type corridorRoad struct {
	road Road
	cor  Corridor
}

func NewMap(id, name string) *Map {
	return &Map{
		id:        id,
		name:      name,
		officeIDs: make(map[string]struct{}),
	}
}

func (m *Map) ID() string   { return m.id }
func (m *Map) Name() string { return m.name }

func (m *Map) SetDogSpeed(speed float64)  { m.dogSpeed = speed }
func (m *Map) SetBagCapacity(cap int)     { m.bagCapacity = cap }
func (m *Map) SetLootValues(values []int) { m.lootValues = values }

func (m *Map) DogSpeed() float64  { return m.dogSpeed }
func (m *Map) BagCapacity() int   { return m.bagCapacity }
func (m *Map) LootTypeCount() int { return len(m.lootValues) }

// LootValue returns the score awarded for depositing one item of the given
// type.
func (m *Map) LootValue(lootType int) int {
	return m.lootValues[lootType]
}

func (m *Map) Roads() []Road         { return m.roads }
func (m *Map) Buildings() []Building { return m.buildings }
func (m *Map) Offices() []Office     { return m.offices }

// AddRoad appends a road and precomputes its corridor for FindHorRoad /
// FindVertRoad lookups.
func (m *Map) AddRoad(road Road) {
	m.roads = append(m.roads, road)
	cr := corridorRoad{road: road, cor: road.Corridor()}
	if road.IsHorizontal() {
		m.horRoads = append(m.horRoads, cr)
	} else {
		m.vertRoads = append(m.vertRoads, cr)
	}
}

func (m *Map) AddBuilding(b Building) {
	m.buildings = append(m.buildings, b)
}

// AddOffice rejects duplicate office ids.
func (m *Map) AddOffice(o Office) error {
	if _, dup := m.officeIDs[o.ID]; dup {
		return fmt.Errorf("duplicate office %q on map %q", o.ID, m.id)
	}
	m.officeIDs[o.ID] = struct{}{}
	m.offices = append(m.offices, o)
	return nil
}

// FindHorRoad returns a horizontal road whose corridor contains (x, y), or
// nil. Maps are small; a linear scan is fine.
func (m *Map) FindHorRoad(x, y float64) *Road {
	for i := range m.horRoads {
		if m.horRoads[i].cor.Contains(x, y) {
			return &m.horRoads[i].road
		}
	}
	return nil
}

// FindVertRoad returns a vertical road whose corridor contains (x, y), or
// nil.
func (m *Map) FindVertRoad(x, y float64) *Road {
	for i := range m.vertRoads {
		if m.vertRoads[i].cor.Contains(x, y) {
			return &m.vertRoads[i].road
		}
	}
	return nil
}
