// Command campfire runs a small survival world whose characters strike up
// conversations with each other.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/talgya/campfire/internal/agents"
	"github.com/talgya/campfire/internal/api"
	"github.com/talgya/campfire/internal/config"
	"github.com/talgya/campfire/internal/engine"
	"github.com/talgya/campfire/internal/entropy"
	"github.com/talgya/campfire/internal/persistence"
	"github.com/talgya/campfire/internal/social"
	"github.com/talgya/campfire/internal/world"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	slog.Info("campfire starting", "seed", cfg.Seed, "archive", cfg.Archive, "step", cfg.SimStep)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.Archive != config.ArchiveNone {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			slog.Error("failed to create data directory", "error", err)
			os.Exit(1)
		}
		db, err = persistence.Open(cfg.DBPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("database opened", "path", cfg.DBPath)
	}

	var archive social.Archive
	switch cfg.Archive {
	case config.ArchiveSQLite:
		archive = db
	case config.ArchiveRedis:
		redisArchive, err := persistence.NewRedisArchive(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisArchive.Close()
		archive = redisArchive
		slog.Info("redis archive connected")
	}

	// ── World Map (always regenerated, deterministic from seed) ───────
	seed := cfg.Seed
	if db != nil {
		if saved, err := db.GetMeta(persistence.MetaSeed); err == nil && saved != "" {
			if s, err := strconv.ParseInt(saved, 10, 64); err == nil && s != seed {
				slog.Warn("using the saved world seed", "saved", s, "configured", seed)
				seed = s
			}
		}
	}

	gen := world.DefaultGenConfig()
	gen.Width = cfg.WorldSize
	gen.Height = cfg.WorldSize
	gen.Seed = seed
	worldMap := world.Generate(gen)
	for t, c := range world.TerrainCounts(worldMap) {
		slog.Debug("terrain", "type", world.TerrainName(t), "count", c)
	}

	// ── Load or Generate Characters ──────────────────────────────────
	spawner := agents.NewSpawner(seed)
	var characters []*agents.Character
	var startTick uint64

	if db != nil {
		characters, err = db.LoadCharacters()
		if err != nil {
			slog.Error("failed to load characters", "error", err)
			os.Exit(1)
		}
		if startTick, err = db.LastTick(); err != nil {
			slog.Error("failed to load last tick", "error", err)
			os.Exit(1)
		}
	}

	if len(characters) > 0 {
		var maxID agents.CharacterID
		for _, c := range characters {
			if c.ID > maxID {
				maxID = c.ID
			}
			spawner.Reserve(c.Name)
		}
		spawner.SetNextID(maxID + 1)
		slog.Info("world state restored", "characters", len(characters), "tick", humanize.Comma(int64(startTick)))
	} else {
		characters = spawner.SpawnPopulation(cfg.Population, worldMap)
		startTick = 0
		slog.Info("new population spawned", "characters", len(characters), "water_sites", len(worldMap.WaterSites))
	}

	// ── Randomness ───────────────────────────────────────────────────
	// The seeded source drives every tick. random.org, when configured, only
	// reseeds it once per sim-day so draws never wait on the network.
	rng := entropy.NewSeeded(seed)
	trueRandom := entropy.NewClient(cfg.RandomOrgKey, entropy.WithBatch(16))
	if trueRandom.Enabled() {
		if err := trueRandom.Fill(ctx); err != nil {
			slog.Warn("random.org unavailable, using crypto fallback", "error", err)
		}
		slog.Info("random.org entropy enabled for daily reseeding")
	}

	// ── Simulation ───────────────────────────────────────────────────
	sim := engine.NewSimulation(engine.Config{
		Map:        worldMap,
		Characters: characters,
		Spawner:    spawner,
		Step:       cfg.SimStep,
		Rand:       rng,
		Archive:    archive,
		StartTick:  startTick,
	})
	if err := sim.Social.RestoreMemory(); err != nil {
		slog.Warn("conversation memory not restored", "error", err)
	}

	if db != nil {
		if err := db.SaveMeta(persistence.MetaSeed, strconv.FormatInt(seed, 10)); err != nil {
			slog.Error("failed to save seed", "error", err)
		}
		if startTick == 0 {
			if err := db.SaveWorldState(sim); err != nil {
				slog.Error("initial save failed", "error", err)
			}
		}
	}

	eng := engine.NewEngine(cfg.TickInterval, cfg.SimStep)
	eng.Tick = startTick

	// Wire tick callbacks, auto-saving every sim-day.
	eng.OnTick = sim.Tick
	eng.OnHour = sim.TickHour
	eng.OnDay = func(tick uint64) {
		sim.TickDay(tick)
		if trueRandom.Enabled() {
			rng.Reseed(entropy.SeedFrom(trueRandom))
		}
		if db == nil {
			return
		}
		if err := db.SaveWorldState(sim); err != nil {
			slog.Error("daily save failed", "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	var apiServer *api.Server
	if cfg.APIPort > 0 {
		if cfg.AdminKey == "" {
			slog.Warn("CAMPFIRE_ADMIN_KEY not set, admin POST endpoints will be disabled")
		}
		apiServer = &api.Server{
			Sim:      sim,
			Eng:      eng,
			Port:     cfg.APIPort,
			AdminKey: cfg.AdminKey,
		}
		if db != nil {
			apiServer.DB = db
			apiServer.Events = db
		}
		if history, ok := archive.(api.ConversationArchive); ok {
			apiServer.Conversations = history
		}
		apiServer.Start()
	}

	// ── Start ─────────────────────────────────────────────────────────
	fmt.Printf("\nThe campfire is lit: %d characters on a %.0f×%.0f world.\n",
		len(characters), worldMap.Width, worldMap.Height)
	if apiServer != nil {
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.APIPort)
	}
	if startTick > 0 {
		fmt.Printf("Resuming from tick %s (%s)\n", humanize.Comma(int64(startTick)), engine.SimTime(sim.Elapsed()))
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run(ctx)

	// ── Shutdown ──────────────────────────────────────────────────────
	sim.Shutdown()
	trueRandom.Wait()

	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP shutdown", "error", err)
		}
		cancel()
	}

	if db != nil {
		slog.Info("final save...")
		if err := db.SaveWorldState(sim); err != nil {
			slog.Error("final save failed", "error", err)
		}
	}

	st := sim.Social.Stats()
	slog.Info("simulation stopped",
		"tick", humanize.Comma(int64(eng.Tick)),
		"conversations", humanize.Comma(int64(st.TotalConversations)),
		"avg_turns", fmt.Sprintf("%.2f", st.AvgTurns),
	)
}
