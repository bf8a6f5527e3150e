package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voltgrid/voltgrid-core/internal/device"
	"github.com/voltgrid/voltgrid-core/internal/stats"
)

// ErrTickInProgress indicates a tick was requested while another is
// still running. The caller should skip, not queue.
var ErrTickInProgress = errors.New("simulation: tick already in progress")

// defaultWorkers bounds the persistence pool when none is configured.
const defaultWorkers = 4

// Logger is the minimal logging interface the engine needs. It is
// satisfied by *logging.Logger and by slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Notifier receives each published snapshot, best effort. Used to fan
// snapshots out to MQTT and the websocket hub.
type Notifier interface {
	NotifySnapshot(ownerID string, snap stats.Snapshot)
}

// Config assembles the engine's dependencies.
type Config struct {
	Repository device.Repository
	Store      stats.Store
	Logger     Logger

	// Notifier is optional; nil disables fan-out.
	Notifier Notifier

	// Workers bounds concurrent reading persistence. Defaults to 4.
	Workers int

	// Now and Rand exist for deterministic tests. Defaults: wall
	// clock and a time-seeded PCG source.
	Now  func() time.Time
	Rand *rand.Rand
}

// Engine runs simulation ticks. At most one tick executes at a time;
// overlapping requests fail fast with ErrTickInProgress.
type Engine struct {
	repo     device.Repository
	store    stats.Store
	notifier Notifier
	log      Logger
	now      func() time.Time
	rng      *rand.Rand
	workers  int

	mu sync.Mutex
}

// TickResult summarises one completed tick.
type TickResult struct {
	// Devices is the number of online devices simulated.
	Devices int
	// Owners is the number of distinct owners touched.
	Owners int
	// Published is the number of snapshots written to the cache.
	Published int
	// Failures counts devices or snapshots that could not be
	// persisted. The tick still completes.
	Failures int
	// Duration is the wall time of the tick.
	Duration time.Duration
}

// New creates an engine from its dependencies.
func New(cfg Config) (*Engine, error) {
	if cfg.Repository == nil {
		return nil, errors.New("simulation: repository is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("simulation: stats store is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("simulation: logger is required")
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	rng := cfg.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}

	return &Engine{
		repo:     cfg.Repository,
		store:    cfg.Store,
		notifier: cfg.Notifier,
		log:      cfg.Logger,
		now:      now,
		rng:      rng,
		workers:  workers,
	}, nil
}

// persistJob carries one device's new reading to the worker pool.
type persistJob struct {
	id   string
	kind device.Kind

	outputWatts int
	levelWh     int
	flowWatts   int
	rateWatts   int
}

// RunTick executes one full simulation pass.
//
// The random draws and the accumulator fold run sequentially so a
// seeded engine is fully deterministic; only the per-device writes fan
// out. Persistence failures are logged and counted, never fatal: one
// unreachable row must not starve every other owner of a snapshot.
func (e *Engine) RunTick(ctx context.Context) (*TickResult, error) {
	if !e.mu.TryLock() {
		return nil, ErrTickInProgress
	}
	defer e.mu.Unlock()

	wallStart := time.Now()
	at := e.now()
	hour := at.Hour()

	// One category at a time, in a fixed order, so a seeded engine
	// draws the same sequence on every run.
	var devices []device.Device
	for _, kind := range []device.Kind{device.KindProduction, device.KindStorage, device.KindConsumption} {
		batch, err := e.repo.ListByKindStatus(ctx, kind, device.StatusOnline)
		if err != nil {
			return nil, fmt.Errorf("listing online %s devices: %w", kind, err)
		}
		devices = append(devices, batch...)
	}

	jobs := make([]persistJob, 0, len(devices))
	accs := make(map[string]*stats.Accumulator)

	for i := range devices {
		d := &devices[i]
		job := persistJob{id: d.ID, kind: d.Kind}

		switch d.Kind {
		case device.KindProduction:
			d.Production.OutputWatts = simulateProduction(e.rng, d.Production.IsSolar, hour)
			job.outputWatts = d.Production.OutputWatts
		case device.KindStorage:
			level, flow := simulateStorage(e.rng, d.Storage.TotalCapacityWh, d.Storage.CurrentLevelWh)
			d.Storage.CurrentLevelWh = level
			d.Storage.ChargeDischargeRateWatts = flow
			job.levelWh = level
			job.flowWatts = flow
		case device.KindConsumption:
			d.Consumption.RateWatts = simulateConsumption(e.rng)
			job.rateWatts = d.Consumption.RateWatts
		default:
			e.log.Warn("skipping device of unknown kind", "device_id", d.ID, "kind", d.Kind)
			continue
		}

		acc := accs[d.OwnerID]
		if acc == nil {
			acc = &stats.Accumulator{}
			accs[d.OwnerID] = acc
		}
		acc.Fold(d)
		jobs = append(jobs, job)
	}

	var failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, job := range jobs {
		g.Go(func() error {
			if err := e.persist(gctx, job); err != nil {
				failures.Add(1)
				e.log.Error("persisting device reading failed",
					"device_id", job.id, "kind", job.kind, "error", err)
			}
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	published := 0
	for ownerID, acc := range accs {
		snap := stats.BuildSnapshot(*acc, at)
		if err := e.store.Put(ctx, ownerID, snap); err != nil {
			failures.Add(1)
			e.log.Error("publishing snapshot failed", "owner_id", ownerID, "error", err)
			continue
		}
		published++
		if e.notifier != nil {
			e.notifier.NotifySnapshot(ownerID, snap)
		}
	}

	result := &TickResult{
		Devices:   len(jobs),
		Owners:    len(accs),
		Published: published,
		Failures:  int(failures.Load()),
		Duration:  time.Since(wallStart),
	}

	e.log.Debug("tick complete",
		"devices", result.Devices,
		"owners", result.Owners,
		"published", result.Published,
		"failures", result.Failures,
		"duration", result.Duration)

	return result, nil
}

// persist writes one reading through the matching narrow update.
func (e *Engine) persist(ctx context.Context, job persistJob) error {
	switch job.kind {
	case device.KindProduction:
		return e.repo.UpdateProductionReading(ctx, job.id, job.outputWatts)
	case device.KindStorage:
		return e.repo.UpdateStorageReading(ctx, job.id, job.levelWh, job.flowWatts)
	case device.KindConsumption:
		return e.repo.UpdateConsumptionReading(ctx, job.id, job.rateWatts)
	default:
		return device.ErrUnsupportedKind
	}
}
