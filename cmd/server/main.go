// Command server runs the VATSIM Australia snapshot ingestion
// pipeline: it polls the upstream data feed, filters and persists
// accepted flights/controllers/transceivers, tracks sector occupancy
// and ATC interactions, periodically summarizes completed flights and
// controller sessions, and exposes a read-only HTTP API over the
// result -- the bootstrap sequence mirrors the teacher's cmd/politburo
// main.go ordering (logging -> metrics -> db -> cache -> router ->
// listen) with the VA-specific services swapped for this domain's.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vatpac/internal/atc"
	"vatpac/internal/cache"
	"vatpac/internal/config"
	"vatpac/internal/db"
	"vatpac/internal/db/repositories"
	"vatpac/internal/geo"
	"vatpac/internal/ingest"
	"vatpac/internal/logging"
	"vatpac/internal/metrics"
	"vatpac/internal/refdata"
	"vatpac/internal/routes"
	"vatpac/internal/scheduler"
	"vatpac/internal/sector"
	"vatpac/internal/summary"
	"vatpac/internal/sweeper"
	"vatpac/internal/vatsim"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("vatpac ingestion pipeline starting up",
		"environment", cfg.AppEnv,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	rd, err := refdata.Load(cfg.FIRPolygonPath, cfg.SectorDataPath, cfg.CallsignAllowlist, cfg.ICAOStatePath)
	if err != nil {
		log.Fatalf("failed to load reference data: %v", err)
	}
	logging.Info("reference data loaded", "sectors", len(rd.Sectors))

	metricsReg := metrics.NewMetricsRegistry()

	sqlDB, err := db.InitPostgres(cfg.DatabaseURL, cfg.DatabasePoolSize, cfg.DatabaseOverflow)
	if err != nil {
		logging.Error("failed to connect to postgres via sqlx", "error", err)
		log.Fatalf("failed to connect to postgres (sqlx): %v", err)
	}
	logging.Info("connected to postgres (sqlx)")

	gormDB, err := db.InitPostgresORM(cfg.DatabaseURL, cfg.DatabasePoolSize, cfg.DatabaseOverflow)
	if err != nil {
		logging.Error("failed to connect to postgres via gorm", "error", err)
		log.Fatalf("failed to connect to postgres (gorm): %v", err)
	}
	logging.Info("connected to postgres (gorm)")

	var cacheService cache.Interface
	if redisSvc, err := cache.NewRedisService(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword); err != nil {
		logging.Warn("redis unavailable, falling back to in-memory cache", "error", err)
		cacheService = cache.NewMemoryService(300, 600, metricsReg)
	} else {
		cacheService = redisSvc
	}

	ingestRepo := repositories.NewIngestRepo(sqlDB)
	sectorRepo := repositories.NewSectorOccupancyRepo(gormDB)
	flightSummaryRepo := repositories.NewFlightSummaryRepo(gormDB)
	controllerSummaryRepo := repositories.NewControllerSummaryRepo(gormDB)

	boundaryFilter := geo.NewBoundaryFilter(rd.FIR)
	sectorIndex := geo.NewSectorIndex(rd.Sectors)
	validator := ingest.NewFlightPlanValidator(cfg.FlightPlanValidationOn)
	filter := ingest.NewFilter(boundaryFilter, cfg.EnableBoundaryFilter, validator, rd)
	normalizer := ingest.NewNormalizer()

	vatsimClient := vatsim.NewClient(cfg.UpstreamURL, cfg.RequestTimeout, cfg.RetryMaxAttempts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var engine *sector.Engine
	if cfg.SectorTrackingEnabled {
		engine, err = sector.NewEngine(ctx, sectorIndex, sectorRepo, metricsReg)
		if err != nil {
			log.Fatalf("failed to reconstruct sector occupancy engine: %v", err)
		}
		logging.Info("sector occupancy engine reconstructed from open rows")
	}

	runner := ingest.NewRunner(vatsimClient, cfg.TransceiversURL, normalizer, filter, ingestRepo, gormDB, engine, metricsReg)

	cachedSource := atc.NewCachedSource(ingestRepo, cacheService, cfg.VatsimPollingInterval)
	detector := atc.NewDetector(cachedSource, cfg.GuardFrequencyHz, cfg.MatchTimeWindow)

	flightSummarizer := summary.NewFlightSummarizer(
		flightSummaryRepo, sectorRepo, ingestRepo, detector, engine, metricsReg,
		cfg.FlightCompletionHours, int(cfg.AirborneGroundSpeedKt), cfg.VatsimPollingInterval,
	)
	controllerSummarizer := summary.NewControllerSummarizer(controllerSummaryRepo, ingestRepo, detector, metricsReg)

	sessionTracker := summary.NewSessionTracker(cfg.ControllerMergeWindow)
	flightJob := summary.NewFlightSummaryJob(ingestRepo, flightSummarizer, cfg.FlightCompletionHours)
	controllerJob := summary.NewControllerSummaryJob(ingestRepo, controllerSummarizer, sessionTracker, cfg.ControllerMergeWindow, cfg.ControllerCompletionMins)
	runner.SetControllerObserver(controllerJob.Observe)

	staleSweeper := sweeper.NewSweeper(sectorRepo, cfg.CleanupFlightTimeout, cfg.ControllerMergeWindow, metricsReg)

	sched := scheduler.New(60 * time.Second)
	sched.Register(&scheduler.Job{Name: "ingest_tick", Interval: cfg.VatsimPollingInterval, Run: runner.Tick})
	sched.Register(&scheduler.Job{Name: "flight_summarizer", Interval: cfg.FlightSummaryInterval, Run: flightJob.Run})
	sched.Register(&scheduler.Job{Name: "controller_summarizer", Interval: cfg.FlightSummaryInterval, Run: controllerJob.Run})
	lastSample := func(jobCtx context.Context, callsign string, cid int64, logonTime time.Time) (sweeper.FlightSnapshot, bool, error) {
		flight, err := ingestRepo.FlightByKey(jobCtx, callsign, logonTime)
		if err != nil {
			return sweeper.FlightSnapshot{}, false, nil
		}
		return sweeper.FlightSnapshot{
			Lat:                 flight.Lat,
			Lon:                 flight.Lon,
			AltitudeFt:          flight.AltitudeFt,
			UpstreamLastUpdated: flight.UpstreamLastUpdated,
		}, true, nil
	}
	sched.Register(&scheduler.Job{Name: "stale_sweeper", Interval: cfg.CleanupFlightTimeout, Run: func(jobCtx context.Context) error {
		_, err := staleSweeper.SweepStaleSectors(jobCtx, time.Now(), lastSample)
		return err
	}})

	schedDone := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(schedDone)
	}()
	logging.Info("scheduler started", "ingest_interval", cfg.VatsimPollingInterval.String())

	upSince := time.Now()
	handler := routes.New(routes.Deps{
		Config:              cfg,
		SQLDB:               sqlDB,
		GormDB:              gormDB,
		Metrics:             metricsReg,
		Runner:              runner,
		FlightSummaries:     flightSummaryRepo,
		ControllerSummaries: controllerSummaryRepo,
		UpSince:             upSince,
	})

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logging.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("http server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logging.Info("shutdown signal received, draining")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("http server shutdown error", "error", err)
	}
	<-schedDone

	logging.Info("vatpac ingestion pipeline stopped")
}
