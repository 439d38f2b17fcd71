package vatsim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSnapshotSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"pilots":[{"callsign":"QFA1"}],"controllers":[{"callsign":"YMML_TWR"}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, 3)
	snap, err := c.FetchSnapshot(context.Background())

	require.NoError(t, err)
	require.Len(t, snap.Pilots, 1)
	assert.Equal(t, "QFA1", snap.Pilots[0].Callsign)
}

func TestFetchSnapshotMissingArraysIsNotRetryable(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, 5)
	_, err := c.FetchSnapshot(context.Background())

	require.Error(t, err)
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrCodeInvalidResponse, pe.Code)
	assert.Equal(t, 1, attempts, "an invalid-response error must not be retried")
}

func TestFetchSnapshotRetriesOnRateLimitThenSucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"pilots":[],"controllers":[]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, 5)
	c.BaseBackoff = time.Millisecond
	c.MaxBackoff = 5 * time.Millisecond

	snap, err := c.FetchSnapshot(context.Background())

	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 3, attempts)
}

func TestFetchSnapshotExhaustsAttempts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, 2)
	c.BaseBackoff = time.Millisecond
	c.MaxBackoff = 5 * time.Millisecond

	_, err := c.FetchSnapshot(context.Background())
	require.Error(t, err)
}

func TestFetchSnapshotRespectsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, 10)
	c.BaseBackoff = 50 * time.Millisecond
	c.MaxBackoff = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := c.FetchSnapshot(ctx)
	require.Error(t, err)
}

func TestFetchTransceiversSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[{"callsign":"QFA1","transceivers":[{"id":1,"frequency":120500000}]}]`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, 3)
	list, err := c.FetchTransceivers(context.Background(), server.URL)

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "QFA1", list[0].Callsign)
}

func TestFetchTransceiversNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, 3)
	_, err := c.FetchTransceivers(context.Background(), server.URL)
	require.Error(t, err)
}

func TestNewClientDefaultsMaxAttempts(t *testing.T) {
	c := NewClient("http://example.invalid", time.Second, 0)
	assert.Equal(t, 20, c.MaxAttempts)
}
