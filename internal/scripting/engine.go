// Package scripting wraps a gopher-lua VM running the optional hook script.
// The script may define on_join(name, map_id) and on_retire(name, score,
// play_seconds); missing functions are simply skipped.
package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine holds the Lua VM. Called only from the serialization domain, so no
// locking of its own.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates the VM and runs the hook script once, letting it define
// its globals.
func NewEngine(scriptPath string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	if err := vm.DoFile(scriptPath); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load hook script %s: %w", scriptPath, err)
	}
	return &Engine{vm: vm, log: log}, nil
}

// OnJoin notifies the script of a player joining. Script errors are logged
// and never affect the game.
func (e *Engine) OnJoin(name, mapID string) {
	e.call("on_join", lua.LString(name), lua.LString(mapID))
}

// OnRetire notifies the script of a retirement.
func (e *Engine) OnRetire(name string, score int, playSeconds float64) {
	e.call("on_retire", lua.LString(name), lua.LNumber(score), lua.LNumber(playSeconds))
}

func (e *Engine) call(name string, args ...lua.LValue) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		e.log.Warn("lua hook error", zap.String("hook", name), zap.Error(err))
	}
}

func (e *Engine) Close() {
	e.vm.Close()
}
