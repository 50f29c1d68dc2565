package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fujie/v0-vcm/internal/api"
	"github.com/fujie/v0-vcm/internal/models"
)

func syncRequest() api.SyncRequest {
	return api.SyncRequest{
		CredentialTypes: []models.CredentialTypeDefinition{
			{ID: "1", Name: "学生証", IsActive: true},
			{ID: "2", Name: "卒業証明書", IsActive: true},
		},
		APIKey: "sl_test_key",
	}
}

func TestSyncInvalidKey(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	req := syncRequest()
	req.APIKey = "bad_key"

	engine := &Engine{}
	result, err := engine.Sync(context.Background(), req, []string{srv.URL}, time.Second)

	require.ErrorIs(t, err, ErrInvalidAPIKey)
	assert.Nil(t, result)
	assert.Zero(t, calls.Load(), "no delivery attempt may be made with an invalid key")
}

func TestSyncFirstCandidateWins(t *testing.T) {
	var first, second atomic.Int64
	srv1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"received":2}`))
	}))
	defer srv1.Close()
	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		second.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv2.Close()

	engine := &Engine{}
	result, err := engine.Sync(context.Background(), syncRequest(), []string{srv1.URL, srv2.URL}, time.Second)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, api.ModeDelivered, result.Mode)
	assert.Equal(t, srv1.URL, result.RespondingEndpoint)
	assert.Equal(t, 2, result.SyncedCount)
	assert.JSONEq(t, `{"received":2}`, string(result.RemoteResponse))
	assert.Equal(t, int64(1), first.Load())
	assert.Zero(t, second.Load(), "later candidates must not be attempted after a success")
}

func TestSyncSkipsNotFound(t *testing.T) {
	var first, second atomic.Int64
	srv1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first.Add(1)
		http.NotFound(w, r)
	}))
	defer srv1.Close()
	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		second.Add(1)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv2.Close()

	engine := &Engine{}
	result, err := engine.Sync(context.Background(), syncRequest(), []string{srv1.URL, srv2.URL}, time.Second)

	require.NoError(t, err)
	assert.Equal(t, api.ModeDelivered, result.Mode)
	assert.Equal(t, srv2.URL, result.RespondingEndpoint)
	assert.Equal(t, int64(1), first.Load())
	assert.Equal(t, int64(1), second.Load())
	assert.Empty(t, result.LastError, "a 404 skip is not a recorded failure")
}

func TestSyncRecordsLastError(t *testing.T) {
	srv1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv1.Close()
	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "teapot", http.StatusTeapot)
	}))
	defer srv2.Close()

	engine := &Engine{}
	result, err := engine.Sync(context.Background(), syncRequest(), []string{srv1.URL, srv2.URL}, time.Second)

	require.NoError(t, err)
	assert.True(t, result.Success, "remote failures never fail the sync")
	assert.Equal(t, api.ModeLocalFallback, result.Mode)
	assert.Equal(t, 2, result.SyncedCount)
	// The later failure overwrites the earlier one.
	assert.Contains(t, result.LastError, "418")
}

func TestSyncAllTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer slow.Close()

	engine := &Engine{}
	start := time.Now()
	result, err := engine.Sync(context.Background(), syncRequest(), []string{slow.URL, slow.URL}, 50*time.Millisecond)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, api.ModeLocalFallback, result.Mode)
	assert.NotEmpty(t, result.LastError)
	assert.Less(t, elapsed, 400*time.Millisecond, "attempts must be bounded by the per-attempt timeout")
}

func TestSyncEmptyCandidates(t *testing.T) {
	engine := &Engine{}
	result, err := engine.Sync(context.Background(), syncRequest(), nil, time.Second)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, api.ModeLocalFallback, result.Mode)
	assert.Equal(t, 2, result.SyncedCount)
	assert.Empty(t, result.LastError)
}

func TestSyncUndecodableSuccessBody(t *testing.T) {
	srv1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv1.Close()
	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv2.Close()

	engine := &Engine{}
	result, err := engine.Sync(context.Background(), syncRequest(), []string{srv1.URL, srv2.URL}, time.Second)

	require.NoError(t, err)
	assert.Equal(t, api.ModeDelivered, result.Mode)
	assert.Equal(t, srv2.URL, result.RespondingEndpoint, "a 2xx without a decodable body is not a success")
}

func TestSyncContextCancelled(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	engine := &Engine{}
	result, err := engine.Sync(ctx, syncRequest(), []string{srv.URL, srv.URL, srv.URL}, 10*time.Second)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Nil(t, result, "partial results are discarded on cancellation")
	assert.Equal(t, int64(1), calls.Load(), "no further candidates after cancellation")
}

func TestSyncDeliveryHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sl_test_key", r.Header.Get("Authorization"))
		assert.Equal(t, "sl_test_key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "VC-Admin-System/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "vc-admin-system", r.Header.Get("X-Source"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload api.SyncPayload
		require.NoError(t, jsonDecode(r, &payload))
		assert.Equal(t, SourceID, payload.Source)
		assert.Equal(t, "manual-sync", payload.Action)
		assert.Len(t, payload.CredentialTypes, 2)
		assert.False(t, payload.CredentialTypes[0].Schema.AdditionalProperties)

		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	req := syncRequest()
	req.Action = "manual-sync"

	engine := &Engine{}
	result, err := engine.Sync(context.Background(), req, []string{srv.URL}, time.Second)

	require.NoError(t, err)
	assert.Equal(t, api.ModeDelivered, result.Mode)
}

func TestTestConnection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"operational"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	engine := &Engine{}
	result := engine.TestConnection(context.Background(), srv.URL, "sl_abc", time.Second)

	assert.Equal(t, "connected", result.Status)
	// /api/health 404s, so /api/status is the first hit.
	assert.Equal(t, "/api/status", result.Endpoint)
	assert.JSONEq(t, `{"status":"operational"}`, string(result.HealthData))
}

func TestTestConnectionRootFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	engine := &Engine{}
	result := engine.TestConnection(context.Background(), srv.URL, "", time.Second)

	assert.Equal(t, "connected", result.Status)
	assert.Empty(t, result.Endpoint)
	assert.Equal(t, http.StatusNotFound, result.HTTPStatus)
}

func TestTestConnectionUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // reachable URL, closed listener

	engine := &Engine{}
	result := engine.TestConnection(context.Background(), srv.URL, "", 100*time.Millisecond)

	assert.Equal(t, "disconnected", result.Status)
	assert.NotEmpty(t, result.Message)
}

func jsonDecode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
