// Package app is the application façade: use-cases over the game model, the
// player registry and the token table. All mutation funnels through one
// mutex — the serialization domain that replaces the single-threaded
// executor of the simulation design.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dogpark/server/internal/data"
	"github.com/dogpark/server/internal/geom"
	"github.com/dogpark/server/internal/model"
	"github.com/dogpark/server/internal/persist"
)

// Records page bounds for the retirement leaderboard.
const (
	DefaultRecordsPage = 100
	MaxRecordsPage     = 100
)

var (
	ErrInvalidName     = errors.New("invalid user name")
	ErrMapNotFound     = errors.New("map not found")
	ErrInvalidMove     = errors.New("invalid move direction")
	ErrInvalidToken    = errors.New("authorization header is missing or malformed")
	ErrUnknownToken    = errors.New("player token has not been found")
	ErrAutoTick        = errors.New("tick is driven by the server timer")
	ErrInvalidArgument = errors.New("invalid argument")
)

// RetirementSink is the durable leaderboard contract. RecordRetirement must
// not return until the record is safe; implementations retry internally and
// surface only unrecoverable failures.
type RetirementSink interface {
	RecordRetirement(ctx context.Context, name string, score int, playSeconds float64) error
	QueryRetired(ctx context.Context, start, maxItems int) ([]persist.RetiredPlayerRow, error)
}

// Listener observes completed ticks; the snapshot writer hangs off it.
type Listener interface {
	OnTick(dt time.Duration)
}

// Hooks receives scripted game events. Optional.
type Hooks interface {
	OnJoin(name, mapID string)
	OnRetire(name string, score int, playSeconds float64)
}

type Application struct {
	mu      sync.Mutex
	game    *model.Game
	players *Players
	tokens  *PlayerTokens
	sink    RetirementSink
	extra   data.Extra

	listener Listener
	hooks    Hooks
	log      *zap.Logger
}

func New(game *model.Game, players *Players, tokens *PlayerTokens, sink RetirementSink, extra data.Extra, log *zap.Logger) *Application {
	return &Application{
		game:    game,
		players: players,
		tokens:  tokens,
		sink:    sink,
		extra:   extra,
		log:     log,
	}
}

// SetListener attaches the tick observer. Called once during wiring, before
// any tick runs.
func (a *Application) SetListener(l Listener) { a.listener = l }

// SetHooks attaches the scripting hooks. Called once during wiring.
func (a *Application) SetHooks(h Hooks) { a.hooks = h }

func (a *Application) IsAuto() bool { return a.game.IsAuto() }

// ListMaps returns all maps in config order. Maps are immutable after
// startup, so no lock is needed.
func (a *Application) ListMaps() []*model.Map {
	return a.game.Maps()
}

// GetMap returns a map and its loot-type metadata.
func (a *Application) GetMap(id string) (*model.Map, []data.LootType, error) {
	m := a.game.FindMap(id)
	if m == nil {
		return nil, nil, ErrMapNotFound
	}
	return m, a.extra[id], nil
}

// JoinResult is what a successful join hands back to the client.
type JoinResult struct {
	Token    Token
	PlayerID uint64
}

// JoinGame spawns a dog for the user on the requested map, creating the
// session on first join, and issues the auth token.
func (a *Application) JoinGame(userName, mapID string) (JoinResult, error) {
	if userName == "" {
		return JoinResult{}, ErrInvalidName
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.game.FindMap(mapID) == nil {
		return JoinResult{}, ErrMapNotFound
	}
	session, err := a.game.FindOrCreateSession(mapID)
	if err != nil {
		return JoinResult{}, err
	}
	dogID := session.SpawnDog(userName)
	player := &Player{Name: userName, DogID: dogID, MapID: mapID}
	a.players.Add(player)
	token := a.tokens.Issue(player.Key())

	if a.hooks != nil {
		a.hooks.OnJoin(userName, mapID)
	}
	return JoinResult{Token: token, PlayerID: dogID}, nil
}

// findPlayerLocked resolves the Authorization header to a live player.
func (a *Application) findPlayerLocked(authHeader string) (*Player, error) {
	token, ok := TokenFromAuthHeader(authHeader)
	if !ok {
		return nil, ErrInvalidToken
	}
	key, ok := a.tokens.Lookup(token)
	if !ok {
		return nil, ErrUnknownToken
	}
	player := a.players.Find(key)
	if player == nil {
		return nil, ErrUnknownToken
	}
	return player, nil
}

// PlayerInfo is one entry of the players listing.
type PlayerInfo struct {
	ID   uint64
	Name string
}

// ListPlayers returns every player sharing the caller's map.
func (a *Application) ListPlayers(authHeader string) ([]PlayerInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	player, err := a.findPlayerLocked(authHeader)
	if err != nil {
		return nil, err
	}
	peers := a.players.OnMap(player.MapID)
	out := make([]PlayerInfo, 0, len(peers))
	for _, p := range peers {
		out = append(out, PlayerInfo{ID: p.DogID, Name: p.Name})
	}
	return out, nil
}

// DogState is a read-only snapshot of one dog for the state response.
type DogState struct {
	ID    uint64
	Pos   geom.Point2D
	Speed geom.Vec2D
	Dir   model.Direction
	Bag   []model.BagEntry
	Score int
}

// LootState is a read-only snapshot of one ground item.
type LootState struct {
	ID   uint64
	Type int
	Pos  geom.Point2D
}

// GameState is the consistent post-tick view of the caller's session.
type GameState struct {
	Dogs []DogState
	Loot []LootState
}

// GetGameState captures the caller's session under the lock and returns
// plain values, so rendering happens without holding it.
func (a *Application) GetGameState(authHeader string) (GameState, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	player, err := a.findPlayerLocked(authHeader)
	if err != nil {
		return GameState{}, err
	}
	session := a.game.FindSession(player.MapID)

	var state GameState
	for _, id := range session.DogIDs() {
		dog := session.Dog(id)
		bag := make([]model.BagEntry, len(dog.Bag))
		copy(bag, dog.Bag)
		state.Dogs = append(state.Dogs, DogState{
			ID:    id,
			Pos:   dog.Pos,
			Speed: dog.Speed,
			Dir:   dog.Dir,
			Bag:   bag,
			Score: dog.Score,
		})
	}
	for _, id := range session.LootIDs() {
		loot := session.LootByID(id)
		state.Loot = append(state.Loot, LootState{ID: id, Type: loot.Type, Pos: loot.Pos})
	}
	return state, nil
}

// MovePlayer applies a move command to the caller's dog. An empty move stops
// the dog.
func (a *Application) MovePlayer(authHeader, move string) error {
	switch move {
	case "", "L", "R", "U", "D":
	default:
		return ErrInvalidMove
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	player, err := a.findPlayerLocked(authHeader)
	if err != nil {
		return err
	}
	session := a.game.FindSession(player.MapID)
	session.Dog(player.DogID).SetSpeed(move, session.Map().DogSpeed())
	return nil
}

// ManualTick serves the /game/tick endpoint; rejected when the server timer
// drives the simulation.
func (a *Application) ManualTick(dt time.Duration) error {
	if a.game.IsAuto() {
		return ErrAutoTick
	}
	return a.Tick(dt)
}

// Tick advances every session by dt: movement, idle accounting, gathering,
// retirement, loot generation — in that order per session. The snapshot
// listener is notified once, after all sessions have advanced.
func (a *Application) Tick(dt time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, mapID := range a.game.SessionIDs() {
		session := a.game.FindSession(mapID)
		retired := session.Advance(dt, a.game.RetireAfter())
		for _, dogID := range retired {
			if err := a.retireLocked(session, mapID, dogID); err != nil {
				return err
			}
		}
		session.SpawnLoot(dt)
	}
	if a.listener != nil {
		a.listener.OnTick(dt)
	}
	return nil
}

// retireLocked writes the leaderboard record, then removes the tokens, the
// player and finally the dog. The record must land before anything is torn
// down; a sink failure aborts the tick and the caller treats it as fatal.
func (a *Application) retireLocked(session *model.Session, mapID string, dogID uint64) error {
	dog := session.Dog(dogID)
	playSeconds := dog.InGame.Seconds()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.sink.RecordRetirement(ctx, dog.Name, dog.Score, playSeconds); err != nil {
		return err
	}
	if a.hooks != nil {
		a.hooks.OnRetire(dog.Name, dog.Score, playSeconds)
	}

	a.log.Info("dog retired",
		zap.String("name", dog.Name),
		zap.String("map", mapID),
		zap.Int("score", dog.Score),
		zap.Float64("play_seconds", playSeconds))

	key := PlayerKey{DogID: dogID, MapID: mapID}
	a.tokens.DropPlayer(key)
	a.players.Delete(key)
	session.RemoveDog(dogID)
	return nil
}

// ListRetired returns one leaderboard page. Read failures degrade to an
// empty page; the client sees a valid, if stale, leaderboard.
func (a *Application) ListRetired(ctx context.Context, start, maxItems int) ([]persist.RetiredPlayerRow, error) {
	if start < 0 || maxItems <= 0 || maxItems > MaxRecordsPage {
		return nil, ErrInvalidArgument
	}
	rows, err := a.sink.QueryRetired(ctx, start, maxItems)
	if err != nil {
		a.log.Error("query retired players", zap.Error(err))
		return []persist.RetiredPlayerRow{}, nil
	}
	return rows, nil
}

// Game exposes the model for state capture and restore. The snapshot
// listener runs inside the tick, already under the lock.
func (a *Application) Game() *model.Game { return a.game }
