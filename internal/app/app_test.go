package app

import (
	"context"
	"math/rand"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"

	"github.com/dogpark/server/internal/model"
	"github.com/dogpark/server/internal/persist"
)

type recordedRetirement struct {
	Name        string
	Score       int
	PlaySeconds float64
}

// memorySink keeps retirement records in memory, ordered like the real
// leaderboard query.
type memorySink struct {
	records []recordedRetirement
}

func (s *memorySink) RecordRetirement(_ context.Context, name string, score int, playSeconds float64) error {
	s.records = append(s.records, recordedRetirement{Name: name, Score: score, PlaySeconds: playSeconds})
	return nil
}

func (s *memorySink) QueryRetired(_ context.Context, start, maxItems int) ([]persist.RetiredPlayerRow, error) {
	out := []persist.RetiredPlayerRow{}
	for i := start; i < len(s.records) && len(out) < maxItems; i++ {
		r := s.records[i]
		out = append(out, persist.RetiredPlayerRow{Name: r.Name, Score: r.Score, PlayTime: r.PlaySeconds})
	}
	return out, nil
}

func testGame() *model.Game {
	game := model.NewGame()
	game.SetRand(rand.New(rand.NewSource(1)))
	m := model.NewMap("town", "Town")
	m.SetDogSpeed(3)
	m.SetBagCapacity(3)
	m.SetLootValues([]int{10})
	m.AddRoad(model.NewHorizontalRoad(model.Point{X: 0, Y: 0}, 10))
	_ = m.AddOffice(model.Office{ID: "o0", Position: model.Point{X: 6, Y: 0}})
	_ = game.AddMap(m)
	return game
}

func newTestApp(sink RetirementSink) *Application {
	return New(testGame(), NewPlayers(), NewPlayerTokens(), sink, nil, zap.NewNop())
}

func auth(tok Token) string { return "Bearer " + string(tok) }

func TestJoinGame(t *testing.T) {
	Convey("Given the application", t, func() {
		a := newTestApp(&memorySink{})

		Convey("When a user joins a known map", func() {
			res, err := a.JoinGame("Harry", "town")
			So(err, ShouldBeNil)

			Convey("Then a token and a player id come back", func() {
				So(len(res.Token), ShouldEqual, TokenLength)
				So(res.PlayerID, ShouldEqual, 0)
			})

			Convey("And the token authorizes further requests", func() {
				players, err := a.ListPlayers(auth(res.Token))
				So(err, ShouldBeNil)
				So(players, ShouldResemble, []PlayerInfo{{ID: 0, Name: "Harry"}})
			})

			Convey("And a second join gets a distinct id and token", func() {
				res2, err := a.JoinGame("Ron", "town")
				So(err, ShouldBeNil)
				So(res2.PlayerID, ShouldEqual, 1)
				So(res2.Token, ShouldNotEqual, res.Token)

				players, err := a.ListPlayers(auth(res.Token))
				So(err, ShouldBeNil)
				So(len(players), ShouldEqual, 2)
			})
		})

		Convey("When the name is empty", func() {
			_, err := a.JoinGame("", "town")
			So(err, ShouldEqual, ErrInvalidName)
		})

		Convey("When the map does not exist", func() {
			_, err := a.JoinGame("Harry", "atlantis")
			So(err, ShouldEqual, ErrMapNotFound)
		})
	})
}

func TestAuth(t *testing.T) {
	Convey("Given a joined player", t, func() {
		a := newTestApp(&memorySink{})
		res, err := a.JoinGame("Harry", "town")
		So(err, ShouldBeNil)

		Convey("A missing header is rejected", func() {
			_, err := a.ListPlayers("")
			So(err, ShouldEqual, ErrInvalidToken)
		})

		Convey("A malformed token is rejected", func() {
			_, err := a.ListPlayers("Bearer short")
			So(err, ShouldEqual, ErrInvalidToken)
		})

		Convey("A well-formed but unknown token is rejected", func() {
			_, err := a.ListPlayers("Bearer 0123456789abcdef0123456789abcdef")
			So(err, ShouldEqual, ErrUnknownToken)
		})

		Convey("The issued token resolves to the player", func() {
			state, err := a.GetGameState(auth(res.Token))
			So(err, ShouldBeNil)
			So(len(state.Dogs), ShouldEqual, 1)
		})
	})
}

func TestMoveAndTick(t *testing.T) {
	Convey("Given a joined player", t, func() {
		a := newTestApp(&memorySink{})
		res, err := a.JoinGame("Harry", "town")
		So(err, ShouldBeNil)

		Convey("When the player moves east and time passes", func() {
			So(a.MovePlayer(auth(res.Token), "R"), ShouldBeNil)
			So(a.Tick(2*time.Second), ShouldBeNil)

			state, err := a.GetGameState(auth(res.Token))
			So(err, ShouldBeNil)
			So(state.Dogs[0].Pos.X, ShouldAlmostEqual, 6)
			So(state.Dogs[0].Dir.String(), ShouldEqual, "R")
		})

		Convey("When the move direction is garbage", func() {
			So(a.MovePlayer(auth(res.Token), "N"), ShouldEqual, ErrInvalidMove)
		})

		Convey("When an empty move stops the dog", func() {
			So(a.MovePlayer(auth(res.Token), "R"), ShouldBeNil)
			So(a.MovePlayer(auth(res.Token), ""), ShouldBeNil)
			So(a.Tick(time.Second), ShouldBeNil)

			state, err := a.GetGameState(auth(res.Token))
			So(err, ShouldBeNil)
			So(state.Dogs[0].Speed.IsZero(), ShouldBeTrue)
		})

		Convey("When ticks are driven by the server timer", func() {
			a.Game().SetAutoTick()
			So(a.ManualTick(time.Second), ShouldEqual, ErrAutoTick)
		})
	})
}

func TestRetirementFlow(t *testing.T) {
	Convey("Given an idle player", t, func() {
		sink := &memorySink{}
		a := newTestApp(sink)
		res, err := a.JoinGame("Sleepy", "town")
		So(err, ShouldBeNil)

		Convey("When it stays idle past the retirement threshold", func() {
			for i := 0; i < 3; i++ {
				So(a.Tick(20*time.Second), ShouldBeNil)
			}

			Convey("Then the retirement is recorded with frozen play time", func() {
				So(len(sink.records), ShouldEqual, 1)
				So(sink.records[0].Name, ShouldEqual, "Sleepy")
				So(sink.records[0].Score, ShouldEqual, 0)
				So(sink.records[0].PlaySeconds, ShouldAlmostEqual, 60.0)
			})

			Convey("And the token no longer works", func() {
				_, err := a.ListPlayers(auth(res.Token))
				So(err, ShouldEqual, ErrUnknownToken)
			})

			Convey("And the dog is gone from the session", func() {
				session := a.Game().FindSession("town")
				So(session.DogCount(), ShouldEqual, 0)
			})
		})

		Convey("When it keeps moving", func() {
			So(a.MovePlayer(auth(res.Token), "R"), ShouldBeNil)
			So(a.Tick(time.Second), ShouldBeNil)
			So(a.Tick(time.Second), ShouldBeNil)

			Convey("Then nothing retires", func() {
				So(sink.records, ShouldBeEmpty)
			})
		})
	})
}

func TestListRetired(t *testing.T) {
	Convey("Given recorded retirements", t, func() {
		sink := &memorySink{records: []recordedRetirement{
			{Name: "a", Score: 30, PlaySeconds: 60},
			{Name: "b", Score: 20, PlaySeconds: 61},
			{Name: "c", Score: 10, PlaySeconds: 62},
		}}
		a := newTestApp(sink)
		ctx := context.Background()

		Convey("Pages come back as requested", func() {
			rows, err := a.ListRetired(ctx, 1, 2)
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 2)
			So(rows[0].Name, ShouldEqual, "b")
		})

		Convey("An oversized page is rejected", func() {
			_, err := a.ListRetired(ctx, 0, MaxRecordsPage+1)
			So(err, ShouldEqual, ErrInvalidArgument)
		})

		Convey("A negative start is rejected", func() {
			_, err := a.ListRetired(ctx, -1, 10)
			So(err, ShouldEqual, ErrInvalidArgument)
		})
	})
}

func TestTokens(t *testing.T) {
	Convey("Token parsing", t, func() {
		Convey("Accepts exactly 32 lowercase hex characters", func() {
			tok, ok := TokenFromAuthHeader("Bearer 0123456789abcdef0123456789abcdef")
			So(ok, ShouldBeTrue)
			So(tok, ShouldEqual, Token("0123456789abcdef0123456789abcdef"))
		})

		Convey("Rejects uppercase hex", func() {
			_, ok := TokenFromAuthHeader("Bearer 0123456789ABCDEF0123456789ABCDEF")
			So(ok, ShouldBeFalse)
		})

		Convey("Rejects wrong lengths", func() {
			_, ok := TokenFromAuthHeader("Bearer 0123456789abcdef")
			So(ok, ShouldBeFalse)
		})

		Convey("Rejects a missing Bearer prefix", func() {
			_, ok := TokenFromAuthHeader("0123456789abcdef0123456789abcdef")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Issued tokens", t, func() {
		tokens := NewPlayerTokens()
		key := PlayerKey{DogID: 1, MapID: "town"}
		tok := tokens.Issue(key)

		Convey("Are well-formed", func() {
			_, ok := TokenFromAuthHeader("Bearer " + string(tok))
			So(ok, ShouldBeTrue)
		})

		Convey("Resolve to their player until dropped", func() {
			got, ok := tokens.Lookup(tok)
			So(ok, ShouldBeTrue)
			So(got, ShouldResemble, key)

			tokens.DropPlayer(key)
			_, ok = tokens.Lookup(tok)
			So(ok, ShouldBeFalse)
		})
	})
}
