package ingest

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"vatpac/internal/db/repositories"
	"vatpac/internal/logging"
	"vatpac/internal/metrics"
	"vatpac/internal/sector"
	"vatpac/internal/vatsim"

	"gorm.io/gorm"
)

// Runner drives one ingest tick end to end: fetch, normalize, filter,
// persist, then feed the Sector Occupancy Engine. The ingest write and
// the engine's per-flight writes are snapshot-consistent reads after
// commit rather than one shared transaction, per §4.6's "free to...
// use snapshot-consistent reads immediately after commit" allowance --
// the sqlx transaction (ingest) and the GORM transaction (engine) are
// against the same Postgres instance but different driver
// connections, so they cannot literally share one SQL transaction.
type Runner struct {
	client          *vatsim.Client
	transceiversURL string
	normalizer      *Normalizer
	filter          *Filter
	ingestRepo      *repositories.IngestRepo
	gormDB          *gorm.DB
	engine          *sector.Engine
	met             *metrics.MetricsRegistry
	lastIngest      atomic.Pointer[time.Time]

	// onController, when set, is called once per accepted controller
	// sample so the Controller Summarizer's session tracker observes
	// every poll at ingest granularity rather than reconstructing
	// sessions from the database afterward.
	onController func(callsign string, cid int64, at time.Time)
}

// NewRunner wires a Runner from its collaborators. transceiversURL is
// the separate transceivers feed endpoint, fetched concurrently with
// the main snapshot on every tick.
func NewRunner(client *vatsim.Client, transceiversURL string, normalizer *Normalizer, filter *Filter, ingestRepo *repositories.IngestRepo, gormDB *gorm.DB, engine *sector.Engine, met *metrics.MetricsRegistry) *Runner {
	return &Runner{
		client:          client,
		transceiversURL: transceiversURL,
		normalizer:      normalizer,
		filter:          filter,
		ingestRepo:      ingestRepo,
		gormDB:          gormDB,
		engine:          engine,
		met:             met,
	}
}

// SetControllerObserver registers the callback invoked for every
// accepted controller sample during a tick.
func (r *Runner) SetControllerObserver(fn func(callsign string, cid int64, at time.Time)) {
	r.onController = fn
}

// Tick performs one full ingest cycle. On upstream or persistence
// failure the tick is dropped and state is left unchanged, per §4.5
// and §4.6's failure modes.
func (r *Runner) Tick(ctx context.Context) error {
	tickStart := time.Now()

	fetchStart := time.Now()
	var snap *vatsim.Snapshot
	var transceivers []vatsim.RawTransceiver
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = r.client.FetchSnapshot(gctx)
		return err
	})
	if r.transceiversURL != "" {
		g.Go(func() error {
			var err error
			transceivers, err = r.client.FetchTransceivers(gctx, r.transceiversURL)
			return err
		})
	}
	err := g.Wait()
	if r.met != nil {
		r.met.TickDuration.WithLabelValues("fetch").Observe(time.Since(fetchStart).Seconds())
	}
	if err != nil {
		logging.Error("ingest tick: upstream fetch failed, tick dropped", "error", err)
		return fmt.Errorf("upstream fetch failed: %w", err)
	}
	if transceivers != nil {
		snap.Transceivers = transceivers
	}

	normStart := time.Now()
	normalized := r.normalizer.Normalize(snap)
	if r.met != nil {
		r.met.TickDuration.WithLabelValues("normalize").Observe(time.Since(normStart).Seconds())
	}

	filterStart := time.Now()
	filtered := r.filter.Apply(normalized)
	if r.met != nil {
		r.met.TickDuration.WithLabelValues("filter").Observe(time.Since(filterStart).Seconds())
		r.met.TickFlightsAccepted.Add(float64(len(filtered.AcceptedFlights)))
		for reason, count := range filtered.Rejected {
			r.met.TickFlightsRejected.WithLabelValues(reason).Add(float64(count))
		}
		r.met.TickControllersActive.Set(float64(len(filtered.AcceptedControllers)))
	}

	persistStart := time.Now()
	if err := r.ingestRepo.WriteTick(ctx, filtered.AcceptedFlights, filtered.AcceptedControllers, normalized.Transceivers); err != nil {
		if r.met != nil {
			r.met.TickDuration.WithLabelValues("persist").Observe(time.Since(persistStart).Seconds())
		}
		logging.Error("ingest tick: persistence failed, tick abandoned", "error", err)
		return fmt.Errorf("ingest persistence failed: %w", err)
	}
	if r.met != nil {
		r.met.TickDuration.WithLabelValues("persist").Observe(time.Since(persistStart).Seconds())
	}

	if r.onController != nil {
		for _, c := range filtered.AcceptedControllers {
			r.onController(c.Callsign, c.CID, c.UpstreamLastUpdated)
		}
	}

	sectorStart := time.Now()
	r.runSectorEngine(ctx, filtered, persistStart)
	if r.met != nil {
		r.met.TickDuration.WithLabelValues("sector_engine").Observe(time.Since(sectorStart).Seconds())
	}

	now := time.Now()
	r.lastIngest.Store(&now)
	if r.met != nil {
		r.met.LastIngestTimestamp.Set(float64(now.Unix()))
		r.met.TickDuration.WithLabelValues("total").Observe(time.Since(tickStart).Seconds())
	}
	logging.Info("ingest tick completed", "flights", len(filtered.AcceptedFlights), "controllers", len(filtered.AcceptedControllers), "duration", time.Since(tickStart).String())
	return nil
}

// runSectorEngine feeds every accepted flight sample through the
// engine, one GORM transaction per flight per §5's transaction
// boundary rule. A single flight's failure is logged and does not
// abort the tick for other flights -- the ingest write itself already
// committed.
func (r *Runner) runSectorEngine(ctx context.Context, filtered FilterResult, sampleTime time.Time) {
	if r.engine == nil {
		// Sector tracking is disabled.
		return
	}
	for _, f := range filtered.AcceptedFlights {
		sample := sector.Sample{
			Key:         f.Key(),
			Time:        sampleTime,
			HasPosition: f.HasPosition,
			Lat:         f.Lat,
			Lon:         f.Lon,
			AltitudeFt:  f.AltitudeFt,
		}
		err := r.gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return r.engine.Process(ctx, tx, sample)
		})
		if err != nil {
			logging.Error("ingest tick: sector engine failed for flight", "callsign", f.Callsign, "error", err)
		}
	}
}

// LastIngestTime returns the timestamp of the most recently completed
// tick, or nil if none has completed yet -- read by health checks per
// §5's "process-wide last-ingest-time value" requirement.
func (r *Runner) LastIngestTime() *time.Time {
	return r.lastIngest.Load()
}
