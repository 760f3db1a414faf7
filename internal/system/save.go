package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/vrushabhzade/retro-game-project-sub001/internal/core/sched"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/world"
)

// SnapshotSink receives deep-copied game-state snapshots. Implementations
// must never block the caller: the actual write happens off the frame loop.
type SnapshotSink interface {
	Enqueue(snap *world.State, frame uint64) error
}

// SaveSystem periodically snapshots the session and hands the copy to the
// sink. Registered as "saveSystem" (low priority, throttle-eligible, first
// skipped when the load climbs past 0.9).
type SaveSystem struct {
	sink    SnapshotSink
	session *Session
	log     *zap.Logger

	intervalTicks int
	tickCount     int
	frame         uint64
}

func NewSaveSystem(sink SnapshotSink, session *Session, intervalTicks int, log *zap.Logger) *SaveSystem {
	if intervalTicks <= 0 {
		intervalTicks = 1800
	}
	return &SaveSystem{
		sink:          sink,
		session:       session,
		log:           log,
		intervalTicks: intervalTicks,
	}
}

func (s *SaveSystem) Name() string { return sched.SystemSave }

func (s *SaveSystem) Update(_, _ time.Duration) error {
	s.frame++
	s.tickCount++
	if s.tickCount < s.intervalTicks {
		return nil
	}
	s.tickCount = 0
	return s.save()
}

// SaveNow snapshots immediately, ignoring the interval. Called between ticks
// for graceful shutdown so no progress is lost.
func (s *SaveSystem) SaveNow() error {
	return s.save()
}

func (s *SaveSystem) save() error {
	snap := s.session.Snapshot()
	if err := s.sink.Enqueue(snap, s.frame); err != nil {
		return err
	}
	s.log.Debug("snapshot queued", zap.Uint64("frame", s.frame))
	return nil
}
