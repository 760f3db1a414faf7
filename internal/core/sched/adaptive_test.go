package sched_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrushabhzade/retro-game-project-sub001/internal/core/sched"
)

func newController() *sched.AdaptiveController {
	// target=16ms: critical=24, warning=19.2, aiThrottle=12.8
	return sched.NewAdaptiveController(sched.NewThresholds(target, 50*time.Millisecond))
}

func TestDefaultsArePermissive(t *testing.T) {
	c := newController()
	s := c.Settings()
	assert.True(t, s.AIProcessing)
	assert.True(t, s.VisualEffects)
	assert.Equal(t, sched.AnimationHigh, s.AnimationQuality)
	assert.False(t, s.RenderOptimizations)
}

func TestCriticalFrameDisablesAI(t *testing.T) {
	c := newController()

	for i := 0; i < 5; i++ {
		c.Observe(30) // > criticalFrameTime
	}
	s := c.Settings()
	assert.False(t, s.AIProcessing)
	assert.True(t, s.RenderOptimizations)

	// Stays off through the hysteresis band.
	c.Observe(15) // between aiThrottle (12.8) and warning (19.2)
	assert.False(t, c.Settings().AIProcessing, "no branch fires inside the dead zone")

	// Only a frame below aiThrottleThreshold restores the flags.
	c.Observe(10)
	s = c.Settings()
	assert.True(t, s.AIProcessing)
	assert.True(t, s.VisualEffects)
	assert.Equal(t, sched.AnimationHigh, s.AnimationQuality)
	assert.False(t, s.RenderOptimizations)
}

func TestWarningFrameDegradesVisuals(t *testing.T) {
	c := newController()

	c.Observe(20) // warning < 20 < critical
	s := c.Settings()
	assert.Equal(t, sched.AnimationMedium, s.AnimationQuality)
	assert.False(t, s.VisualEffects)
	assert.True(t, s.AIProcessing, "warning branch leaves AI alone")
	assert.False(t, s.RenderOptimizations)
}

func TestBranchOrderFirstMatchWins(t *testing.T) {
	c := newController()

	// Critical branch must not also fire the warning branch.
	c.Observe(30)
	s := c.Settings()
	assert.Equal(t, sched.AnimationHigh, s.AnimationQuality, "critical branch alone does not touch animation quality")
	assert.True(t, s.VisualEffects)
}

func TestDeadZoneKeepsSettings(t *testing.T) {
	c := newController()

	c.Observe(20) // degrade via warning branch
	before := c.Settings()
	for i := 0; i < 10; i++ {
		c.Observe(15) // dead zone
	}
	assert.Equal(t, before, c.Settings(), "settings persist inside the hysteresis band")
}

func TestSetPerformanceMode(t *testing.T) {
	c := newController()

	c.SetPerformanceMode(true)
	s := c.Settings()
	assert.False(t, s.AIProcessing)
	assert.False(t, s.VisualEffects)
	assert.Equal(t, sched.AnimationLow, s.AnimationQuality)
	assert.True(t, s.RenderOptimizations)

	c.SetPerformanceMode(false)
	assert.True(t, c.Settings().AIProcessing)

	// A qualifying frame overrides the forced profile.
	c.SetPerformanceMode(true)
	c.Observe(10) // below aiThrottleThreshold
	assert.True(t, c.Settings().AIProcessing)
}

func TestPerformanceLevelBuckets(t *testing.T) {
	for _, tc := range []struct {
		frameMs float64
		want    sched.PerformanceLevel
	}{
		{10, sched.PerfExcellent},
		{16, sched.PerfExcellent},
		{18, sched.PerfGood},
		{22, sched.PerfFair},
		{30, sched.PerfPoor},
	} {
		c := newController()
		c.Observe(tc.frameMs)
		assert.Equal(t, tc.want, c.PerformanceLevel(), "frame %vms", tc.frameMs)
	}
}

func TestFrameHistoryRing(t *testing.T) {
	var h sched.FrameTimeHistory
	assert.Equal(t, 0.0, h.Average())
	assert.Equal(t, 0.0, h.Latest())

	for i := 1; i <= 70; i++ {
		h.Record(float64(i))
	}
	require.Equal(t, 60, h.Len(), "capacity is 60, oldest dropped silently")
	assert.Equal(t, 70.0, h.Latest())
	// Samples 11..70 remain.
	assert.InDelta(t, 40.5, h.Average(), 1e-9)
}
