// Package scripting hosts the Lua-scriptable collaborators: the hostile
// behavior policy and the AI-mentor hint source. Scripts supply the
// heuristics; the engine only marshals contexts in and decisions out.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/vrushabhzade/retro-game-project-sub001/internal/ai"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/system"
)

// Engine wraps a single gopher-lua VM. Single-goroutine access only (the
// game loop); never share across goroutines.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory tree. Missing subdirectories are skipped.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	for _, sub := range []string{"ai", "mentor"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) Close() {
	e.vm.Close()
}

// HasBehavior reports whether the scripts define decide_action.
func (e *Engine) HasBehavior() bool {
	return e.vm.GetGlobal("decide_action") != lua.LNil
}

// DecideAction calls Lua decide_action(ctx) for one hostile's turn. Returns
// ok=false when the function is missing or errors, so the caller can fall
// back to the built-in policy.
func (e *Engine) DecideAction(ctx ai.Context) (ai.EnemyAction, bool) {
	fn := e.vm.GetGlobal("decide_action")
	if fn == lua.LNil {
		return ai.EnemyAction{}, false
	}

	t := e.vm.NewTable()
	t.RawSetString("self_id", lua.LNumber(ctx.SelfID))
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	t.RawSetString("hp", lua.LNumber(ctx.HP))
	t.RawSetString("max_hp", lua.LNumber(ctx.MaxHP))
	t.RawSetString("offense", lua.LNumber(ctx.Offense))
	t.RawSetString("player_x", lua.LNumber(ctx.PlayerX))
	t.RawSetString("player_y", lua.LNumber(ctx.PlayerY))
	t.RawSetString("player_hp", lua.LNumber(ctx.PlayerHP))
	t.RawSetString("dist", lua.LNumber(ctx.Dist))
	t.RawSetString("can_attack", lua.LBool(ctx.CanAttack))

	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, t); err != nil {
		e.log.Error("lua decide_action error", zap.Error(err), zap.Int64("hostile", ctx.SelfID))
		return ai.EnemyAction{}, false
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return ai.EnemyAction{}, false
	}

	act := ai.EnemyAction{
		DX: lInt(rt, "dx"),
		DY: lInt(rt, "dy"),
	}
	switch lStr(rt, "type") {
	case "attack":
		act.Kind = ai.ActAttack
	case "move":
		act.Kind = ai.ActMove
	default:
		act.Kind = ai.ActWait
	}
	return act, true
}

// Hint calls Lua mentor_hint(ctx) and returns the hint text. Implements
// system.HintSource. An empty string means no advice.
func (e *Engine) Hint(ctx system.MentorContext) (string, error) {
	fn := e.vm.GetGlobal("mentor_hint")
	if fn == lua.LNil {
		return "", nil
	}

	t := e.vm.NewTable()
	t.RawSetString("player_hp", lua.LNumber(ctx.PlayerHP))
	t.RawSetString("player_max_hp", lua.LNumber(ctx.PlayerMaxHP))
	t.RawSetString("hostiles_nearby", lua.LNumber(ctx.HostilesNearby))
	t.RawSetString("in_combat", lua.LBool(ctx.InCombat))
	t.RawSetString("has_consumable", lua.LBool(ctx.HasConsumable))

	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, t); err != nil {
		return "", fmt.Errorf("lua mentor_hint: %w", err)
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)

	if s, ok := result.(lua.LString); ok {
		return string(s), nil
	}
	return "", nil
}

// Policy adapts the engine to ai.BehaviorPolicy with a fallback for scripts
// that are missing or misbehave.
type Policy struct {
	engine   *Engine
	fallback ai.BehaviorPolicy
}

func NewPolicy(engine *Engine, fallback ai.BehaviorPolicy) *Policy {
	if fallback == nil {
		fallback = ai.MeleePolicy{}
	}
	return &Policy{engine: engine, fallback: fallback}
}

func (p *Policy) DecideAction(ctx ai.Context, walkable func(x, y int) bool) ai.EnemyAction {
	act, ok := p.engine.DecideAction(ctx)
	if !ok {
		return p.fallback.DecideAction(ctx, walkable)
	}
	// Scripted moves still obey the validity predicate.
	if act.Kind == ai.ActMove && !walkable(ctx.X+act.DX, ctx.Y+act.DY) {
		return ai.EnemyAction{Kind: ai.ActWait}
	}
	return act
}

func lStr(t *lua.LTable, key string) string {
	if v, ok := t.RawGetString(key).(lua.LString); ok {
		return string(v)
	}
	return ""
}

func lInt(t *lua.LTable, key string) int {
	if v, ok := t.RawGetString(key).(lua.LNumber); ok {
		return int(v)
	}
	return 0
}
