package system_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vrushabhzade/retro-game-project-sub001/internal/core/event"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/core/sched"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/system"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/world"
)

const tick = 16 * time.Millisecond

func fixedSettings(s sched.AdaptiveSettings) func() sched.AdaptiveSettings {
	return func() sched.AdaptiveSettings { return s }
}

func TestRenderPrepBuildsView(t *testing.T) {
	st := combatState(hostileAt(101, "slime", 3, 2, 8, 2))
	st.Combat = world.CombatInCombat
	sess := newSession(st)

	r := system.NewRenderPrepSystem(
		sess,
		fixedSettings(sched.AdaptiveSettings{VisualEffects: true, AnimationQuality: sched.AnimationHigh}),
		func() string { return "intense" },
		func() string { return "watch your flank" },
	)
	require.NoError(t, r.Update(tick, tick))

	v := r.View()
	assert.Equal(t, 2, v.PlayerX)
	assert.Equal(t, 30, v.PlayerHP)
	assert.True(t, v.CombatActive)
	assert.Equal(t, "intense", v.Style)
	assert.Equal(t, "watch your flank", v.Hint)
	require.Len(t, v.Hostiles, 1)
	assert.Equal(t, "slime", v.Hostiles[0].Kind)

	// Dead hostiles drop out of the view.
	st.Hostiles[0].HP = 0
	st.Combat = world.CombatIdle
	require.NoError(t, r.Update(tick, tick))
	assert.Empty(t, r.View().Hostiles)
}

func TestRenderViewIsACopy(t *testing.T) {
	st := combatState(hostileAt(101, "slime", 3, 2, 8, 2))
	sess := newSession(st)
	r := system.NewRenderPrepSystem(sess, fixedSettings(sched.AdaptiveSettings{}), nil, nil)
	require.NoError(t, r.Update(tick, tick))

	v := r.View()
	v.Hostiles[0].HP = 0
	assert.Equal(t, 8, r.View().Hostiles[0].HP)
}

func TestDefaultStyleSelector(t *testing.T) {
	sel := system.DefaultStyleSelector{}
	perm := sched.AdaptiveSettings{VisualEffects: true, AnimationQuality: sched.AnimationHigh}

	assert.Equal(t, "vivid", sel.SelectStyle(perm, false))
	assert.Equal(t, "intense", sel.SelectStyle(perm, true))
	assert.Equal(t, "minimal", sel.SelectStyle(sched.AdaptiveSettings{}, true),
		"effects off wins over combat")

	perm.AnimationQuality = sched.AnimationMedium
	assert.Equal(t, "plain", sel.SelectStyle(perm, false))
}

func TestVisualAdaptationTracksCombat(t *testing.T) {
	st := combatState(hostileAt(101, "slime", 3, 2, 8, 2))
	sess := newSession(st)
	perm := sched.AdaptiveSettings{VisualEffects: true, AnimationQuality: sched.AnimationHigh}
	vs := system.NewVisualAdaptationSystem(nil, sess, fixedSettings(perm))

	assert.Equal(t, "plain", vs.Style(), "startup default")
	require.NoError(t, vs.Update(tick, tick))
	assert.Equal(t, "vivid", vs.Style())

	st.Combat = world.CombatInCombat
	require.NoError(t, vs.Update(tick, tick))
	assert.Equal(t, "intense", vs.Style())
}

// scriptedHints returns canned hints in order, then empty strings.
type scriptedHints struct {
	hints []string
	calls int
	ctxs  []system.MentorContext
	err   error
}

func (s *scriptedHints) Hint(ctx system.MentorContext) (string, error) {
	s.calls++
	s.ctxs = append(s.ctxs, ctx)
	if s.err != nil {
		return "", s.err
	}
	if len(s.hints) == 0 {
		return "", nil
	}
	h := s.hints[0]
	s.hints = s.hints[1:]
	return h, nil
}

func TestMentorIntervalAndDedupe(t *testing.T) {
	st := combatState(hostileAt(101, "slime", 3, 2, 8, 2))
	st.Player.Inventory = []world.Item{{ID: "potion_small", Kind: world.ItemConsumable, Heal: 10}}
	sess := newSession(st)

	bus := event.NewBus()
	var issued []event.HintIssued
	event.Subscribe(bus, func(ev event.HintIssued) { issued = append(issued, ev) })

	src := &scriptedHints{hints: []string{"heal up", "heal up", "press the attack"}}
	m := system.NewMentorSystem(src, sess, bus, 3, zap.NewNop())

	for i := 0; i < 9; i++ {
		require.NoError(t, m.Update(tick, tick))
	}
	assert.Equal(t, 3, src.calls, "source consulted every third tick")
	assert.Equal(t, "press the attack", m.LastHint())

	bus.SwapBuffers()
	bus.DispatchAll()
	require.Len(t, issued, 2, "repeated hint text is not re-published")
	assert.Equal(t, "heal up", issued[0].Text)
	assert.Equal(t, "press the attack", issued[1].Text)

	ctx := src.ctxs[0]
	assert.Equal(t, 30, ctx.PlayerHP)
	assert.Equal(t, 1, ctx.HostilesNearby)
	assert.True(t, ctx.HasConsumable)
	assert.False(t, ctx.InCombat)
}

func TestMentorSourceErrorPropagates(t *testing.T) {
	sess := newSession(combatState())
	src := &scriptedHints{err: errors.New("vm unavailable")}
	m := system.NewMentorSystem(src, sess, nil, 1, zap.NewNop())

	assert.Error(t, m.Update(tick, tick))
}

func TestCombatAnalysisAggregates(t *testing.T) {
	bus := event.NewBus()
	a := system.NewCombatAnalysisSystem(bus)

	event.Emit(bus, event.CombatStarted{Hostiles: 2})
	event.Emit(bus, event.TurnResolved{Turn: 1, DamageDealt: 4, DamageTaken: 5, Defeated: 0})
	event.Emit(bus, event.TurnResolved{Turn: 2, DamageDealt: 4, DamageTaken: 2, Defeated: 1})
	event.Emit(bus, event.ActorDefeated{ActorID: 101, Name: "slime"})
	bus.SwapBuffers()
	bus.DispatchAll()

	assert.Equal(t, system.CombatSummary{}, a.Summary(),
		"inbox drains in the system's own slot, not during dispatch")

	require.NoError(t, a.Update(tick, tick))
	got := a.Summary()
	assert.Equal(t, system.CombatSummary{
		Sessions:         1,
		Turns:            2,
		DamageDealt:      8,
		DamageTaken:      7,
		HostilesDefeated: 1,
	}, got)

	// The inbox does not double-count on the next pass.
	require.NoError(t, a.Update(tick, tick))
	assert.Equal(t, got, a.Summary())
}

// recordingSink captures enqueued snapshots.
type recordingSink struct {
	snaps  []*world.State
	frames []uint64
	err    error
}

func (s *recordingSink) Enqueue(snap *world.State, frame uint64) error {
	if s.err != nil {
		return s.err
	}
	s.snaps = append(s.snaps, snap)
	s.frames = append(s.frames, frame)
	return nil
}

func TestSaveSystemInterval(t *testing.T) {
	st := combatState(hostileAt(101, "slime", 3, 2, 8, 2))
	sess := newSession(st)
	sink := &recordingSink{}
	sv := system.NewSaveSystem(sink, sess, 4, zap.NewNop())

	for i := 0; i < 9; i++ {
		require.NoError(t, sv.Update(tick, tick))
	}
	require.Len(t, sink.snaps, 2, "fires on ticks 4 and 8")
	assert.Equal(t, []uint64{4, 8}, sink.frames)

	// Snapshots are deep copies, insulated from later mutation.
	st.Player.HP = 1
	assert.Equal(t, 30, sink.snaps[0].Player.HP)
}

func TestSaveNowIgnoresInterval(t *testing.T) {
	sess := newSession(combatState())
	sink := &recordingSink{}
	sv := system.NewSaveSystem(sink, sess, 1800, zap.NewNop())

	require.NoError(t, sv.SaveNow())
	assert.Len(t, sink.snaps, 1)

	sink.err = errors.New("queue full")
	assert.Error(t, sv.SaveNow())
}
