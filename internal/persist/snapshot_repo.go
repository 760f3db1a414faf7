package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/vrushabhzade/retro-game-project-sub001/internal/world"
)

// snapshotDoc is the serialized form of one game-state snapshot.
type snapshotDoc struct {
	Combat   string        `json:"combat"`
	Player   playerDoc     `json:"player"`
	Hostiles []hostileDoc  `json:"hostiles"`
	Clock    time.Duration `json:"clock"`
}

type playerDoc struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	X           int           `json:"x"`
	Y           int           `json:"y"`
	HP          int           `json:"hp"`
	MaxHP       int           `json:"max_hp"`
	Offense     int           `json:"offense"`
	WeaponBonus int           `json:"weapon_bonus"`
	Inventory   []world.Item  `json:"inventory"`
}

type hostileDoc struct {
	ID      int64  `json:"id"`
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	HP      int    `json:"hp"`
	MaxHP   int    `json:"max_hp"`
	Offense int    `json:"offense"`
}

type snapshotJob struct {
	snap  *world.State
	frame uint64
}

// SnapshotRepo persists game-state snapshots. Enqueue never blocks the frame
// loop: snapshots go through a bounded channel to a writer goroutine, and the
// oldest queued snapshot is dropped when the writer falls behind.
type SnapshotRepo struct {
	db  *DB
	log *zap.Logger

	jobs     chan snapshotJob
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewSnapshotRepo(db *DB, log *zap.Logger) *SnapshotRepo {
	r := &SnapshotRepo{
		db:     db,
		log:    log,
		jobs:   make(chan snapshotJob, 4),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go r.writeLoop()
	return r
}

// Enqueue hands an independent snapshot copy to the writer. Implements
// system.SnapshotSink.
func (r *SnapshotRepo) Enqueue(snap *world.State, frame uint64) error {
	job := snapshotJob{snap: snap, frame: frame}
	for {
		select {
		case r.jobs <- job:
			return nil
		default:
		}
		// Queue full: sacrifice the oldest pending snapshot.
		select {
		case stale := <-r.jobs:
			r.log.Warn("snapshot writer behind, dropped snapshot",
				zap.Uint64("frame", stale.frame))
		default:
		}
	}
}

// Close stops the writer after flushing queued snapshots.
func (r *SnapshotRepo) Close() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		<-r.doneCh
	})
}

func (r *SnapshotRepo) writeLoop() {
	defer close(r.doneCh)
	for {
		select {
		case job := <-r.jobs:
			r.write(job)
		case <-r.stopCh:
			// Flush whatever is still queued.
			for {
				select {
				case job := <-r.jobs:
					r.write(job)
				default:
					return
				}
			}
		}
	}
}

func (r *SnapshotRepo) write(job snapshotJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Save(ctx, job.snap, job.frame); err != nil {
		r.log.Error("snapshot write failed",
			zap.Uint64("frame", job.frame),
			zap.Error(err),
		)
	}
}

// Save writes one snapshot synchronously.
func (r *SnapshotRepo) Save(ctx context.Context, snap *world.State, frame uint64) error {
	payload, err := json.Marshal(r.doc(snap))
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO snapshots (id, frame, game_clock, payload) VALUES ($1, $2, $3, $4)`,
		uuid.New(), int64(frame), int64(snap.Clock), payload,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// LoadLatest returns the most recent snapshot payload, or nil when none exist.
func (r *SnapshotRepo) LoadLatest(ctx context.Context) (*world.State, error) {
	var payload []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT payload FROM snapshots ORDER BY created_at DESC LIMIT 1`,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	var doc snapshotDoc
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return r.state(&doc), nil
}

func (r *SnapshotRepo) doc(snap *world.State) snapshotDoc {
	doc := snapshotDoc{
		Combat: snap.Combat.String(),
		Clock:  snap.Clock,
		Player: playerDoc{
			ID:          snap.Player.ID,
			Name:        snap.Player.Name,
			X:           snap.Player.X,
			Y:           snap.Player.Y,
			HP:          snap.Player.HP,
			MaxHP:       snap.Player.MaxHP,
			Offense:     snap.Player.Offense,
			WeaponBonus: snap.Player.WeaponBonus,
			Inventory:   snap.Player.Inventory,
		},
	}
	for _, h := range snap.Hostiles {
		doc.Hostiles = append(doc.Hostiles, hostileDoc{
			ID:      h.ID,
			Kind:    h.Kind,
			Name:    h.Name,
			X:       h.X,
			Y:       h.Y,
			HP:      h.HP,
			MaxHP:   h.MaxHP,
			Offense: h.Offense,
		})
	}
	return doc
}

func (r *SnapshotRepo) state(doc *snapshotDoc) *world.State {
	st := &world.State{
		Clock: doc.Clock,
		Player: &world.Player{
			Actor: world.Actor{
				ID:      doc.Player.ID,
				Name:    doc.Player.Name,
				X:       doc.Player.X,
				Y:       doc.Player.Y,
				HP:      doc.Player.HP,
				MaxHP:   doc.Player.MaxHP,
				Offense: doc.Player.Offense,
			},
			WeaponBonus: doc.Player.WeaponBonus,
			Inventory:   doc.Player.Inventory,
		},
	}
	if doc.Combat == world.CombatInCombat.String() {
		st.Combat = world.CombatInCombat
	}
	for _, h := range doc.Hostiles {
		st.Hostiles = append(st.Hostiles, &world.Hostile{
			Actor: world.Actor{
				ID:      h.ID,
				Name:    h.Name,
				X:       h.X,
				Y:       h.Y,
				HP:      h.HP,
				MaxHP:   h.MaxHP,
				Offense: h.Offense,
			},
			Kind: h.Kind,
		})
	}
	return st
}
