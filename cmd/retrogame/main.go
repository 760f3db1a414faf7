package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vrushabhzade/retro-game-project-sub001/internal/ai"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/config"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/core/event"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/core/sched"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/data"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/persist"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/scripting"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/system"
	"github.com/vrushabhzade/retro-game-project-sub001/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/game.toml"
	if p := os.Getenv("RETROGAME_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = config.Defaults()
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Load static data tables
	hostileTable, err := data.LoadHostileTable(cfg.Data.Hostiles)
	if err != nil {
		return fmt.Errorf("load hostile table: %w", err)
	}
	itemTable, err := data.LoadItemTable(cfg.Data.Items)
	if err != nil {
		return fmt.Errorf("load item table: %w", err)
	}
	floor, err := data.LoadFloor(cfg.Data.Floor)
	if err != nil {
		return fmt.Errorf("load floor: %w", err)
	}
	log.Info("data loaded",
		zap.Int("hostile_templates", hostileTable.Count()),
		zap.Int("item_templates", itemTable.Count()),
		zap.String("floor", floor.Name),
	)

	// 4. Build the game-state aggregate from the floor layout
	state, err := buildState(floor, hostileTable, itemTable)
	if err != nil {
		return fmt.Errorf("build state: %w", err)
	}

	// 5. Lua scripting: hostile behavior + mentor hints
	luaEngine, err := scripting.NewEngine(cfg.Scripts.Dir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()

	var policy ai.BehaviorPolicy = ai.MeleePolicy{}
	if luaEngine.HasBehavior() {
		policy = scripting.NewPolicy(luaEngine, ai.MeleePolicy{})
		log.Info("scripted hostile behavior enabled")
	}

	// 6. Optional persistence
	var snapshotRepo *persist.SnapshotRepo
	if cfg.Database.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.NewDB(ctx, cfg.Database, log)
		cancel()
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()

		migCtx, migCancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = persist.RunMigrations(migCtx, db.Pool)
		migCancel()
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		snapshotRepo = persist.NewSnapshotRepo(db, log)
		defer snapshotRepo.Close()
		log.Info("snapshot persistence enabled")
	}

	// 7. Assemble the frame loop
	bus := event.NewBus()
	combat := system.NewTurnCoordinator(state, policy, bus, log)
	session := system.NewSession(state, combat, log)
	scheduler := sched.New(
		cfg.Game.TargetFrameTime.Duration,
		cfg.Game.MaxInputDelay.Duration,
		cfg.Game.InQueueSize,
		session,
		bus,
		log,
	)

	visual := system.NewVisualAdaptationSystem(nil, session, scheduler.Settings)
	mentor := system.NewMentorSystem(luaEngine, session, bus, 60, log)
	render := system.NewRenderPrepSystem(session, scheduler.Settings, visual.Style, mentor.LastHint)
	analysis := system.NewCombatAnalysisSystem(bus)

	scheduler.Register(render)
	scheduler.Register(mentor)
	scheduler.Register(visual)
	scheduler.Register(analysis)

	var saveSys *system.SaveSystem
	if snapshotRepo != nil && cfg.Save.Enabled {
		saveSys = system.NewSaveSystem(snapshotRepo, session, cfg.Save.IntervalTicks, log)
		scheduler.Register(saveSys)
	} else {
		scheduler.Table().SetEnabled(sched.SystemSave, false)
	}

	// 8. Run until signalled
	if err := scheduler.Start(); err != nil {
		return err
	}
	log.Info("frame loop started",
		zap.Duration("target_frame_time", cfg.Game.TargetFrameTime.Duration),
		zap.Int("hostiles", len(state.Hostiles)),
	)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdownCh
	log.Info("shutdown signal received", zap.String("signal", sig.String()))

	scheduler.Stop()
	if saveSys != nil {
		// The loop is stopped, so this snapshot is taken between ticks.
		if err := saveSys.SaveNow(); err != nil {
			log.Warn("final save failed", zap.Error(err))
		}
	}
	if err := scheduler.Err(); err != nil {
		return err
	}
	log.Info("stopped")
	return nil
}

// buildState materializes the aggregate from the floor layout and templates.
func buildState(floor *data.Floor, hostiles *data.HostileTable, items *data.ItemTable) (*world.State, error) {
	grid := floor.Grid()
	if !grid.Walkable(floor.Player.X, floor.Player.Y) {
		return nil, fmt.Errorf("player spawn (%d,%d) not walkable", floor.Player.X, floor.Player.Y)
	}

	player := &world.Player{
		Actor: world.Actor{
			ID:      1,
			Name:    "player",
			X:       floor.Player.X,
			Y:       floor.Player.Y,
			HP:      30,
			MaxHP:   30,
			Offense: 4,
		},
	}
	for _, id := range floor.Items {
		item, ok := items.Item(id)
		if !ok {
			return nil, fmt.Errorf("unknown starting item %q", id)
		}
		if item.Kind == world.ItemWeapon {
			player.WeaponBonus = item.Dmg
			continue
		}
		player.Inventory = append(player.Inventory, item)
	}

	state := &world.State{Player: player, Grid: grid}
	nextID := int64(100)
	for _, spawn := range floor.Spawns {
		tmpl := hostiles.Get(spawn.Kind)
		if tmpl == nil {
			return nil, fmt.Errorf("unknown hostile kind %q", spawn.Kind)
		}
		if !grid.Walkable(spawn.X, spawn.Y) {
			return nil, fmt.Errorf("hostile spawn (%d,%d) not walkable", spawn.X, spawn.Y)
		}
		state.Hostiles = append(state.Hostiles, &world.Hostile{
			Actor: world.Actor{
				ID:      nextID,
				Name:    tmpl.Name,
				X:       spawn.X,
				Y:       spawn.Y,
				HP:      tmpl.HP,
				MaxHP:   tmpl.HP,
				Offense: tmpl.Offense,
			},
			Kind: tmpl.Kind,
		})
		nextID++
	}
	return state, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
