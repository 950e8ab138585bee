package model

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// DefaultRetireAfter is how long a dog may stand still before it retires.
const DefaultRetireAfter = 60 * time.Second

// Game holds every map and the session that exists per map. One Game per
// process; all mutation happens inside the serialization domain.
type Game struct {
	defaultSpeed       float64
	defaultBagCapacity int

	maps     []*Map
	mapIndex map[string]*Map
	sessions map[string]*Session

	lootCfg     LootGeneratorConfig
	retireAfter time.Duration
	randomize   bool
	autoTick    bool
	rnd         *rand.Rand
}

func NewGame() *Game {
	return &Game{
		defaultSpeed:       1.0,
		defaultBagCapacity: 3,
		mapIndex:           make(map[string]*Map),
		sessions:           make(map[string]*Session),
		retireAfter:        DefaultRetireAfter,
		rnd:                rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *Game) SetDefaultSpeed(speed float64)   { g.defaultSpeed = speed }
func (g *Game) SetDefaultBagCapacity(cap int)   { g.defaultBagCapacity = cap }
func (g *Game) DefaultSpeed() float64           { return g.defaultSpeed }
func (g *Game) DefaultBagCapacity() int         { return g.defaultBagCapacity }
func (g *Game) SetRandomize()                   { g.randomize = true }
func (g *Game) Randomize() bool                 { return g.randomize }
func (g *Game) SetAutoTick()                    { g.autoTick = true }
func (g *Game) IsAuto() bool                    { return g.autoTick }
func (g *Game) SetRetireAfter(d time.Duration)  { g.retireAfter = d }
func (g *Game) RetireAfter() time.Duration      { return g.retireAfter }
func (g *Game) SetLootConfig(c LootGeneratorConfig) { g.lootCfg = c }
func (g *Game) LootConfig() LootGeneratorConfig     { return g.lootCfg }

// SetRand replaces the randomness source feeding new sessions. Tests use it
// to make spawn points and loot generation reproducible.
func (g *Game) SetRand(rnd *rand.Rand) { g.rnd = rnd }

// AddMap registers a map; ids must be unique.
func (g *Game) AddMap(m *Map) error {
	if _, dup := g.mapIndex[m.ID()]; dup {
		return fmt.Errorf("map with id %q already exists", m.ID())
	}
	g.maps = append(g.maps, m)
	g.mapIndex[m.ID()] = m
	return nil
}

// Maps returns maps in config order.
func (g *Game) Maps() []*Map { return g.maps }

// FindMap returns nil for unknown ids.
func (g *Game) FindMap(id string) *Map { return g.mapIndex[id] }

// FindSession returns the live session for a map, or nil if nobody has
// joined it yet.
func (g *Game) FindSession(mapID string) *Session { return g.sessions[mapID] }

// FindOrCreateSession lazily creates the session on first join.
func (g *Game) FindOrCreateSession(mapID string) (*Session, error) {
	if s, ok := g.sessions[mapID]; ok {
		return s, nil
	}
	m := g.mapIndex[mapID]
	if m == nil {
		return nil, fmt.Errorf("no map with id %q", mapID)
	}
	s := NewSession(m, g.randomize, g.lootCfg, g.rnd)
	g.sessions[mapID] = s
	return s, nil
}

// SessionIDs returns the map ids with live sessions in stable order; the
// tick iterates sessions in this order.
func (g *Game) SessionIDs() []string {
	ids := make([]string, 0, len(g.sessions))
	for id := range g.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
