package snapshot

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dogpark/server/internal/app"
	"github.com/dogpark/server/internal/geom"
	"github.com/dogpark/server/internal/model"
)

func testGame() *model.Game {
	game := model.NewGame()
	game.SetRand(rand.New(rand.NewSource(1)))
	m := model.NewMap("town", "Town")
	m.SetDogSpeed(3)
	m.SetBagCapacity(3)
	m.SetLootValues([]int{10, 20})
	m.AddRoad(model.NewHorizontalRoad(model.Point{X: 0, Y: 0}, 10))
	_ = game.AddMap(m)
	return game
}

func TestSaveLoadRoundTrip(t *testing.T) {
	game := testGame()
	players := app.NewPlayers()
	tokens := app.NewPlayerTokens()

	session, err := game.FindOrCreateSession("town")
	if err != nil {
		t.Fatal(err)
	}
	dogs := map[uint64]*model.Dog{
		0: {
			Name:    "Rex",
			Pos:     geom.Point2D{X: 3.5, Y: 0},
			Speed:   geom.Vec2D{X: 3},
			Dir:     model.East,
			Bag:     []model.BagEntry{{ID: 7, Type: 1}},
			Score:   30,
			InGame:  42 * time.Second,
			Standby: 5 * time.Second,
		},
	}
	loot := map[uint64]*model.Loot{
		8: {Type: 0, Pos: geom.Point2D{X: 6, Y: 0}},
	}
	session.Restore(dogs, loot, 1, 9)

	player := &app.Player{Name: "Rex", DogID: 0, MapID: "town"}
	players.Add(player)
	tok := tokens.Issue(player.Key())

	path := filepath.Join(t.TempDir(), "state")
	if err := Save(path, Capture(game, players, tokens)); err != nil {
		t.Fatal(err)
	}

	state, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	game2 := testGame()
	players2 := app.NewPlayers()
	tokens2 := app.NewPlayerTokens()
	if err := Restore(state, game2, players2, tokens2); err != nil {
		t.Fatal(err)
	}

	session2 := game2.FindSession("town")
	if session2 == nil {
		t.Fatal("session was not restored")
	}
	dog := session2.Dog(0)
	if dog == nil {
		t.Fatal("dog was not restored")
	}
	if dog.Name != "Rex" || dog.Score != 30 || dog.InGame != 42*time.Second || dog.Standby != 5*time.Second {
		t.Errorf("dog fields not preserved: %+v", dog)
	}
	if dog.Pos != (geom.Point2D{X: 3.5, Y: 0}) || dog.Speed != (geom.Vec2D{X: 3}) || dog.Dir != model.East {
		t.Errorf("dog motion not preserved: %+v", dog)
	}
	if len(dog.Bag) != 1 || dog.Bag[0] != (model.BagEntry{ID: 7, Type: 1}) {
		t.Errorf("bag not preserved: %+v", dog.Bag)
	}

	restoredLoot := session2.LootByID(8)
	if restoredLoot == nil || restoredLoot.Type != 0 || restoredLoot.Pos != (geom.Point2D{X: 6, Y: 0}) {
		t.Errorf("loot not preserved: %+v", restoredLoot)
	}
	nextDog, nextLoot := session2.Counters()
	if nextDog != 1 || nextLoot != 9 {
		t.Errorf("counters = (%d, %d), want (1, 9)", nextDog, nextLoot)
	}

	if p := players2.Find(app.PlayerKey{DogID: 0, MapID: "town"}); p == nil || p.Name != "Rex" {
		t.Errorf("player not restored: %+v", p)
	}
	if key, ok := tokens2.Lookup(tok); !ok || key != player.Key() {
		t.Error("token not restored")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state")
	if err := os.WriteFile(path, []byte("not a gob stream"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected an error for a corrupt state file")
	}
}

func TestRestoreUnknownMap(t *testing.T) {
	state := State{Sessions: []SessionState{{MapID: "atlantis"}}}
	game := testGame()
	if err := Restore(state, game, app.NewPlayers(), app.NewPlayerTokens()); err == nil {
		t.Error("expected an error for a session on a missing map")
	}
}

func TestSaveReplacesAtomically(t *testing.T) {
	game := testGame()
	players := app.NewPlayers()
	tokens := app.NewPlayerTokens()
	path := filepath.Join(t.TempDir(), "state")

	if err := Save(path, Capture(game, players, tokens)); err != nil {
		t.Fatal(err)
	}
	if err := Save(path, Capture(game, players, tokens)); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
	if _, err := Load(path); err != nil {
		t.Errorf("saved state does not load: %v", err)
	}
}
