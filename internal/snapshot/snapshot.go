// Package snapshot saves and restores the whole game state: every session's
// dogs and loot, the player registry and the token table. The state file is
// gob; writes go through a temp file and a rename so a crash mid-write never
// leaves a truncated file behind.
package snapshot

import (
	"encoding/gob"
	"fmt"
	"os"
	"time"

	"github.com/dogpark/server/internal/app"
	"github.com/dogpark/server/internal/geom"
	"github.com/dogpark/server/internal/model"
)

type State struct {
	Sessions []SessionState
	Players  []PlayerState
	Tokens   []TokenState
}

type SessionState struct {
	MapID      string
	NextDogID  uint64
	NextLootID uint64
	Dogs       []DogState
	Loot       []LootState
}

type DogState struct {
	ID      uint64
	Name    string
	Pos     geom.Point2D
	Speed   geom.Vec2D
	Dir     model.Direction
	Bag     []model.BagEntry
	Score   int
	InGame  time.Duration
	Standby time.Duration
}

type LootState struct {
	ID   uint64
	Type int
	Pos  geom.Point2D
}

type PlayerState struct {
	Name  string
	DogID uint64
	MapID string
}

type TokenState struct {
	Token string
	DogID uint64
	MapID string
}

// Capture walks the live state into a plain value. Must run inside the
// serialization domain.
func Capture(game *model.Game, players *app.Players, tokens *app.PlayerTokens) State {
	var state State
	for _, mapID := range game.SessionIDs() {
		session := game.FindSession(mapID)
		nextDogID, nextLootID := session.Counters()
		ss := SessionState{MapID: mapID, NextDogID: nextDogID, NextLootID: nextLootID}
		for _, id := range session.DogIDs() {
			dog := session.Dog(id)
			bag := make([]model.BagEntry, len(dog.Bag))
			copy(bag, dog.Bag)
			ss.Dogs = append(ss.Dogs, DogState{
				ID:      id,
				Name:    dog.Name,
				Pos:     dog.Pos,
				Speed:   dog.Speed,
				Dir:     dog.Dir,
				Bag:     bag,
				Score:   dog.Score,
				InGame:  dog.InGame,
				Standby: dog.Standby,
			})
		}
		for _, id := range session.LootIDs() {
			loot := session.LootByID(id)
			ss.Loot = append(ss.Loot, LootState{ID: id, Type: loot.Type, Pos: loot.Pos})
		}
		state.Sessions = append(state.Sessions, ss)
	}
	for _, p := range players.All() {
		state.Players = append(state.Players, PlayerState{Name: p.Name, DogID: p.DogID, MapID: p.MapID})
	}
	for _, pair := range tokens.All() {
		state.Tokens = append(state.Tokens, TokenState{
			Token: string(pair.Token),
			DogID: pair.Key.DogID,
			MapID: pair.Key.MapID,
		})
	}
	return state
}

// Restore installs a loaded state into an empty game. Sessions are recreated
// against the current map set; a session referencing a map the config no
// longer has is an error.
func Restore(state State, game *model.Game, players *app.Players, tokens *app.PlayerTokens) error {
	for _, ss := range state.Sessions {
		session, err := game.FindOrCreateSession(ss.MapID)
		if err != nil {
			return fmt.Errorf("restore session: %w", err)
		}
		dogs := make(map[uint64]*model.Dog, len(ss.Dogs))
		for _, ds := range ss.Dogs {
			dogs[ds.ID] = &model.Dog{
				Name:    ds.Name,
				Pos:     ds.Pos,
				Speed:   ds.Speed,
				Dir:     ds.Dir,
				Bag:     ds.Bag,
				Score:   ds.Score,
				InGame:  ds.InGame,
				Standby: ds.Standby,
			}
		}
		loot := make(map[uint64]*model.Loot, len(ss.Loot))
		for _, ls := range ss.Loot {
			loot[ls.ID] = &model.Loot{Type: ls.Type, Pos: ls.Pos}
		}
		session.Restore(dogs, loot, ss.NextDogID, ss.NextLootID)
	}
	for _, ps := range state.Players {
		players.Add(&app.Player{Name: ps.Name, DogID: ps.DogID, MapID: ps.MapID})
	}
	for _, ts := range state.Tokens {
		tokens.Restore(app.Token(ts.Token), app.PlayerKey{DogID: ts.DogID, MapID: ts.MapID})
	}
	return nil
}

// Save writes the state atomically: temp file, fsync, rename.
func Save(path string, state State) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create state file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(state); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode state: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync state file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Load reads a state file written by Save.
func Load(path string) (State, error) {
	f, err := os.Open(path)
	if err != nil {
		return State{}, fmt.Errorf("open state file: %w", err)
	}
	defer f.Close()

	var state State
	if err := gob.NewDecoder(f).Decode(&state); err != nil {
		return State{}, fmt.Errorf("decode state file %s: %w", path, err)
	}
	return state, nil
}
