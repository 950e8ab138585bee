package snapshot

import (
	"time"

	"go.uber.org/zap"

	"github.com/dogpark/server/internal/app"
	"github.com/dogpark/server/internal/model"
)

// Listener saves the state after ticks. With a positive save period the save
// runs once the accumulated game time since the last save reaches it; with a
// zero period every tick is saved.
type Listener struct {
	game    *model.Game
	players *app.Players
	tokens  *app.PlayerTokens

	path       string
	savePeriod time.Duration
	sinceSave  time.Duration
	log        *zap.Logger
}

func NewListener(game *model.Game, players *app.Players, tokens *app.PlayerTokens, path string, savePeriod time.Duration, log *zap.Logger) *Listener {
	return &Listener{
		game:       game,
		players:    players,
		tokens:     tokens,
		path:       path,
		savePeriod: savePeriod,
		log:        log,
	}
}

// OnTick runs inside the tick, under the application lock. A failed save is
// logged and the game keeps running; the previous state file stays intact.
func (l *Listener) OnTick(dt time.Duration) {
	l.sinceSave += dt
	if l.savePeriod > 0 && l.sinceSave < l.savePeriod {
		return
	}
	l.sinceSave = 0
	if err := Save(l.path, Capture(l.game, l.players, l.tokens)); err != nil {
		l.log.Error("save state", zap.Error(err))
	}
}

// SaveNow writes the state unconditionally. Called at shutdown, after the
// tick loop has stopped.
func (l *Listener) SaveNow() error {
	return Save(l.path, Capture(l.game, l.players, l.tokens))
}
