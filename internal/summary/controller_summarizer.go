package summary

import (
	"context"
	"fmt"
	"time"

	"vatpac/internal/atc"
	"vatpac/internal/db/repositories"
	"vatpac/internal/logging"
	"vatpac/internal/metrics"
	gormModels "vatpac/internal/models/gorm"

	"gorm.io/gorm"
)

// ControllerMeta carries the last-known identity fields for a
// controller session, read from the live controllers row (or a
// last-seen cache) before it is archived.
type ControllerMeta struct {
	Name     string
	Rating   int
	Facility int
	Server   string
}

// ControllerSummarizer merges controller sessions across short
// disconnects and aggregates aircraft handled, peak load, and hourly
// breakdown, per §4.11.
type ControllerSummarizer struct {
	summaryRepo *repositories.ControllerSummaryRepo
	ingestRepo  *repositories.IngestRepo
	detector    *atc.Detector
	met         *metrics.MetricsRegistry
}

// NewControllerSummarizer wires a ControllerSummarizer.
func NewControllerSummarizer(summaryRepo *repositories.ControllerSummaryRepo, ingestRepo *repositories.IngestRepo, detector *atc.Detector, met *metrics.MetricsRegistry) *ControllerSummarizer {
	return &ControllerSummarizer{summaryRepo: summaryRepo, ingestRepo: ingestRepo, detector: detector, met: met}
}

// SummarizeOne processes one eligible (already-merged) session: runs
// the controller-side detector, aggregates aircraft statistics, and
// writes the summary + archive rows in one transaction. The live
// controllers row is deleted after that commit, outside the
// transaction; a failed delete is logged and not returned.
func (c *ControllerSummarizer) SummarizeOne(ctx context.Context, session Session, meta ControllerMeta, frequency string) error {
	start := time.Now()
	defer func() {
		if c.met != nil {
			c.met.SummaryJobDuration.WithLabelValues("controller_summarizer").Observe(time.Since(start).Seconds())
		}
	}()

	detected, err := c.detector.DetectForController(ctx, session.Callsign, session.Start, session.End)
	if err != nil {
		logging.Error("controller summarizer: detector failed", "callsign", session.Callsign, "error", err)
		return err
	}

	hourly := make(gormModels.CountByHour)
	peak := peakConcurrent(detected.SampleTimes)
	details := make(gormModels.AircraftDetailList, 0, len(detected.FlightFirstSeen))
	frequencies := gormModels.StringList{}
	if frequency != "" {
		frequencies = append(frequencies, frequency)
	}

	for callsign, first := range detected.FlightFirstSeen {
		last := detected.FlightLastSeen[callsign]
		details = append(details, gormModels.AircraftDetail{
			Callsign:  callsign,
			FirstSeen: first.UTC().Format(time.RFC3339),
			LastSeen:  last.UTC().Format(time.RFC3339),
		})
		seenHours := make(map[string]struct{})
		for _, t := range detected.SampleTimes[callsign] {
			hour := fmt.Sprintf("%02d", t.UTC().Hour())
			if _, ok := seenHours[hour]; ok {
				continue
			}
			seenHours[hour] = struct{}{}
			hourly[hour]++
		}
	}

	summaryRow := &gormModels.ControllerSummary{
		Callsign:                session.Callsign,
		CID:                     session.CID,
		Name:                    meta.Name,
		Rating:                  meta.Rating,
		Facility:                meta.Facility,
		Server:                  meta.Server,
		SessionStartTime:        session.Start,
		SessionEndTime:          &session.End,
		SessionDurationMinutes:  session.End.Sub(session.Start).Minutes(),
		TotalAircraftHandled:    len(detected.FlightFirstSeen),
		PeakAircraftCount:       peak,
		HourlyAircraftBreakdown: hourly,
		FrequenciesUsed:         frequencies,
		AircraftDetails:         details,
	}

	archiveRow := &gormModels.ControllerArchive{
		Callsign:            session.Callsign,
		CID:                 session.CID,
		Facility:            meta.Facility,
		Frequency:           frequency,
		LogonTime:           session.Start,
		UpstreamLastUpdated: session.End,
	}

	err = c.summaryRepo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := c.summaryRepo.Insert(ctx, tx, summaryRow); err != nil {
			return err
		}
		return c.summaryRepo.InsertArchiveRow(ctx, tx, archiveRow)
	})
	if err != nil {
		logging.Error("controller summarizer: transaction failed, session remains eligible", "callsign", session.Callsign, "error", err)
		return err
	}

	if c.ingestRepo != nil {
		if err := c.ingestRepo.DeleteController(ctx, session.Callsign); err != nil {
			logging.Error("controller summarizer: failed to delete live controller row after commit", "callsign", session.Callsign, "error", err)
		}
	}
	if c.met != nil {
		c.met.ControllersSummarized.Inc()
	}
	return nil
}

// peakConcurrent computes the maximum number of distinct flight
// callsigns with a matched sample in any 1-minute bucket.
func peakConcurrent(sampleTimes map[string][]time.Time) int {
	buckets := make(map[int64]map[string]struct{})
	for callsign, times := range sampleTimes {
		for _, t := range times {
			bucket := t.Unix() / 60
			set, ok := buckets[bucket]
			if !ok {
				set = make(map[string]struct{})
				buckets[bucket] = set
			}
			set[callsign] = struct{}{}
		}
	}
	peak := 0
	for _, set := range buckets {
		if len(set) > peak {
			peak = len(set)
		}
	}
	return peak
}
