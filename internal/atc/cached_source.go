package atc

import (
	"context"
	"fmt"
	"time"

	"vatpac/internal/cache"
	"vatpac/internal/models/entities"
)

// CachedSource wraps a TransceiverSource and caches the candidate
// controller pre-filter (step 1 of §4.8) for the duration of one
// ingest tick, since many flights evaluated in the same tick share an
// overlapping [t_start, now) window.
type CachedSource struct {
	inner TransceiverSource
	c     cache.Interface
	ttl   time.Duration
}

// NewCachedSource builds a CachedSource around inner, caching
// candidate-controller lookups for ttl (typically the poll interval).
func NewCachedSource(inner TransceiverSource, c cache.Interface, ttl time.Duration) *CachedSource {
	return &CachedSource{inner: inner, c: c, ttl: ttl}
}

// ActiveControllerCallsignsSince is cached by the `since` value as
// printed with %v (no truncation), since repeated calls within one
// tick typically share the same start time.
func (s *CachedSource) ActiveControllerCallsignsSince(ctx context.Context, since interface{}) ([]string, error) {
	key := fmt.Sprintf("atc:candidates:%v", since)
	val, err := s.c.GetOrSet(key, s.ttl, func() (any, error) {
		return s.inner.ActiveControllerCallsignsSince(ctx, since)
	})
	if err != nil {
		return nil, err
	}
	switch v := val.(type) {
	case []string:
		return v, nil
	case []interface{}:
		// The Redis cache hands values back JSON-decoded.
		callsigns := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return s.inner.ActiveControllerCallsignsSince(ctx, since)
			}
			callsigns = append(callsigns, str)
		}
		return callsigns, nil
	}
	return s.inner.ActiveControllerCallsignsSince(ctx, since)
}

// TransceiversForCallsignsInWindow passes straight through -- this
// step's result is too large and too specific (per-flight window) to
// benefit from caching.
func (s *CachedSource) TransceiversForCallsignsInWindow(ctx context.Context, callsigns []string, start, end interface{}) ([]entities.TransceiverSample, error) {
	return s.inner.TransceiversForCallsignsInWindow(ctx, callsigns, start, end)
}

// FlightTransceivers passes straight through.
func (s *CachedSource) FlightTransceivers(ctx context.Context, callsign string, start, end interface{}) ([]entities.TransceiverSample, error) {
	return s.inner.FlightTransceivers(ctx, callsign, start, end)
}

// FlightTransceiversInWindow passes straight through.
func (s *CachedSource) FlightTransceiversInWindow(ctx context.Context, start, end interface{}) ([]entities.TransceiverSample, error) {
	return s.inner.FlightTransceiversInWindow(ctx, start, end)
}
