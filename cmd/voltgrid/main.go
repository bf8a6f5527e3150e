// VoltGrid Core - Energy Device Simulation Platform
//
// This is the main entry point for the VoltGrid Core service. It tracks
// each user's energy fleet (producers, batteries, consumers), simulates
// readings on a fixed interval, and serves the aggregated energy
// picture over REST, WebSocket, and optionally MQTT.
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	_ "github.com/voltgrid/voltgrid-core/migrations"

	"github.com/voltgrid/voltgrid-core/internal/api"
	"github.com/voltgrid/voltgrid-core/internal/device"
	"github.com/voltgrid/voltgrid-core/internal/infrastructure/config"
	"github.com/voltgrid/voltgrid-core/internal/infrastructure/database"
	"github.com/voltgrid/voltgrid-core/internal/infrastructure/logging"
	"github.com/voltgrid/voltgrid-core/internal/infrastructure/mqtt"
	"github.com/voltgrid/voltgrid-core/internal/infrastructure/redis"
	"github.com/voltgrid/voltgrid-core/internal/scheduler"
	"github.com/voltgrid/voltgrid-core/internal/simulation"
	"github.com/voltgrid/voltgrid-core/internal/stats"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Load .env before config so env overrides see its values.
	// A missing file is fine; containers set real env vars.
	//nolint:errcheck
	godotenv.Load()

	log := logging.Default()
	log.Info("starting VoltGrid Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)

	// Open database and run migrations
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete")

	deviceRepo := device.NewSQLiteRepository(db.DB)

	// Connect to the stats cache
	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		log.Info("closing redis connection")
		if closeErr := redisClient.Close(); closeErr != nil {
			log.Error("error closing redis", "error", closeErr)
		}
	}()
	log.Info("redis connected", "host", cfg.Redis.Host, "port", cfg.Redis.Port)

	statsStore := stats.NewRedisStore(redisClient.Raw())

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			mqttClient.Close()
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Seed development data when requested
	if owners := seedOwners(); len(owners) > 0 {
		seed := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		if err := device.Seed(ctx, deviceRepo, seed, owners); err != nil {
			return fmt.Errorf("seeding devices: %w", err)
		}
		log.Info("seeded demo devices", "owners", len(owners))
	}

	// WebSocket hub, shared by the API server and the snapshot fanout
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	fanout := api.NewSnapshotFanout(hub, mqttClient, log)

	// Simulation engine
	engine, err := simulation.New(simulation.Config{
		Repository: deviceRepo,
		Store:      statsStore,
		Notifier:   fanout,
		Logger:     log.With("component", "simulation"),
		Workers:    cfg.Simulation.Workers,
	})
	if err != nil {
		return fmt.Errorf("creating simulation engine: %w", err)
	}

	// Tick scheduler
	if cfg.Simulation.Enabled {
		sched, err := scheduler.New(engine, cfg.GetTickInterval(), log.With("component", "scheduler"))
		if err != nil {
			return fmt.Errorf("creating scheduler: %w", err)
		}
		sched.Start(ctx)
		defer func() {
			log.Info("stopping scheduler")
			sched.Close()
		}()
	} else {
		log.Info("scheduled simulation disabled, manual trigger only")
	}

	// API server
	server, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Security:    cfg.Security,
		Logger:      log,
		Devices:     deviceRepo,
		Stats:       statsStore,
		Ticker:      engine,
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("VoltGrid Core started",
		"api", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		"tick_interval", cfg.GetTickInterval(),
	)

	<-ctx.Done()
	log.Info("shutdown signal received")
	return nil
}

// getConfigPath returns the config file path from VOLTGRID_CONFIG,
// falling back to the default.
func getConfigPath() string {
	if path := os.Getenv("VOLTGRID_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// seedOwners parses VOLTGRID_SEED. "true" or "1" seeds the standard
// demo owners; any other non-empty value is a comma-separated owner
// ID list.
func seedOwners() []string {
	v := os.Getenv("VOLTGRID_SEED")
	switch v {
	case "":
		return nil
	case "true", "1":
		return []string{"user1", "user2", "user3", "user4", "user5"}
	}

	var owners []string
	for _, owner := range strings.Split(v, ",") {
		if owner = strings.TrimSpace(owner); owner != "" {
			owners = append(owners, owner)
		}
	}
	return owners
}
