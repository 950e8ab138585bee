package app

import "sort"

// PlayerKey identifies a player by its stable (dog id, map id) pair. Tokens
// resolve through this key so that removing a player can never leave a
// dangling reference.
type PlayerKey struct {
	DogID uint64
	MapID string
}

// Player binds a user name to a dog in one map's session.
type Player struct {
	Name  string
	DogID uint64
	MapID string
}

func (p *Player) Key() PlayerKey {
	return PlayerKey{DogID: p.DogID, MapID: p.MapID}
}

// Players is the registry of live players. It exclusively owns them.
type Players struct {
	players map[PlayerKey]*Player
}

func NewPlayers() *Players {
	return &Players{players: make(map[PlayerKey]*Player)}
}

func (ps *Players) Add(p *Player) {
	ps.players[p.Key()] = p
}

func (ps *Players) Find(key PlayerKey) *Player {
	return ps.players[key]
}

func (ps *Players) Delete(key PlayerKey) {
	delete(ps.players, key)
}

// OnMap returns every live player on the given map, ordered by dog id.
func (ps *Players) OnMap(mapID string) []*Player {
	var out []*Player
	for _, p := range ps.players {
		if p.MapID == mapID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DogID < out[j].DogID })
	return out
}

// All returns every live player ordered by (map id, dog id); state capture
// relies on the stable order.
func (ps *Players) All() []*Player {
	out := make([]*Player, 0, len(ps.players))
	for _, p := range ps.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MapID != out[j].MapID {
			return out[i].MapID < out[j].MapID
		}
		return out[i].DogID < out[j].DogID
	})
	return out
}
