// Package syncer pushes credential type schemas to the Student Login Site by
// probing an ordered list of candidate endpoints.
package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fujie/v0-vcm/internal/api"
	"github.com/fujie/v0-vcm/internal/auth"
	"github.com/fujie/v0-vcm/internal/logging"
	"github.com/fujie/v0-vcm/internal/schema"
)

// ErrInvalidAPIKey is returned when the sync key precondition fails. No
// delivery attempt is made in that case.
var ErrInvalidAPIKey = errors.New("invalid API key")

const (
	// SourceID identifies this system in delivery payloads.
	SourceID = "vc-admin-system"

	userAgent      = "VC-Admin-System/1.0"
	payloadVersion = "1.0.0"

	// DefaultAction is used when a sync request names no action.
	DefaultAction = "sync"

	maxErrorBody = 512
)

// HealthProbePaths are the candidate health endpoints tried, in order, by
// TestConnection.
var HealthProbePaths = []string{"/api/health", "/api/status", "/health", "/api/v1/health"}

// Engine delivers formatted credential types to the first responding
// candidate endpoint.
type Engine struct {
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func (e *Engine) client() *http.Client {
	if e.HTTPClient != nil {
		return e.HTTPClient
	}
	return http.DefaultClient
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return zap.NewNop()
}

// Sync formats the request's credential types and probes candidates strictly
// in order, one attempt per candidate bounded by perAttemptTimeout. The first
// candidate answering 2xx with a decodable JSON body wins and no further
// candidates are tried. A 404 skips to the next candidate. Any other failure
// is recorded and the loop continues. When every candidate fails the result
// still reports success, in local-fallback mode, deferring delivery to a
// later invocation. Only an invalid key or a cancelled context produce an
// error.
func (e *Engine) Sync(ctx context.Context, req api.SyncRequest, candidates []string, perAttemptTimeout time.Duration) (*api.SyncResult, error) {
	if !auth.ValidateSyncKey(req.APIKey) {
		return nil, ErrInvalidAPIKey
	}

	action := req.Action
	if action == "" {
		action = DefaultAction
	}

	now := time.Now().UTC()
	formatted := make([]api.FormattedCredentialType, 0, len(req.CredentialTypes))
	for _, def := range req.CredentialTypes {
		formatted = append(formatted, schema.Format(def, now))
	}

	payload := api.SyncPayload{
		CredentialTypes: formatted,
		Source:          SourceID,
		Action:          action,
		Timestamp:       now.Format(time.RFC3339),
		Version:         payloadVersion,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode sync payload: %w", err)
	}

	log := e.logger()
	var lastError string

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log.Debug("trying sync candidate", logging.Candidate(candidate), logging.Action(action))

		remote, attemptErr := e.attempt(ctx, candidate, req.APIKey, body, perAttemptTimeout)
		switch {
		case attemptErr == nil && remote != nil:
			log.Info("sync delivered",
				logging.Candidate(candidate),
				logging.Action(action),
				logging.Count(len(req.CredentialTypes)))
			return &api.SyncResult{
				Success:            true,
				SyncedCount:        len(req.CredentialTypes),
				Mode:               api.ModeDelivered,
				RespondingEndpoint: candidate,
				RemoteResponse:     remote,
				Timestamp:          time.Now().UTC().Format(time.RFC3339),
			}, nil
		case attemptErr == nil:
			// 404: this candidate path does not exist on the remote.
			log.Debug("sync candidate not found", logging.Candidate(candidate))
		default:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastError = attemptErr.Error()
			log.Warn("sync candidate failed", logging.Candidate(candidate), zap.Error(attemptErr))
		}
	}

	log.Info("all sync candidates exhausted, falling back to local sync",
		logging.Action(action),
		logging.Count(len(req.CredentialTypes)),
		zap.String("last_error", lastError))

	return &api.SyncResult{
		Success:     true,
		SyncedCount: len(req.CredentialTypes),
		Mode:        api.ModeLocalFallback,
		LastError:   lastError,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// attempt performs a single delivery. It returns (body, nil) on a decodable
// 2xx, (nil, nil) on 404, and (nil, err) otherwise.
func (e *Engine) attempt(ctx context.Context, candidate, apiKey string, body []byte, timeout time.Duration) (json.RawMessage, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, candidate, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("X-API-Key", apiKey)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Source", SourceID)

	resp, err := e.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", candidate, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := respBody
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, fmt.Errorf("HTTP %d at %s: %s", resp.StatusCode, candidate, snippet)
	}

	if !json.Valid(respBody) {
		return nil, fmt.Errorf("undecodable response from %s", candidate)
	}
	return json.RawMessage(respBody), nil
}

// TestConnection probes a remote site's health endpoints in order, falling
// back to the root path, and reports whether the site is reachable.
func (e *Engine) TestConnection(ctx context.Context, baseURL, apiKey string, perAttemptTimeout time.Duration) *api.ConnectionTestResult {
	log := e.logger()

	for _, path := range HealthProbePaths {
		probeCtx, cancel := context.WithTimeout(ctx, perAttemptTimeout)
		body, status, err := e.probe(probeCtx, baseURL+path, apiKey)
		cancel()

		if err != nil {
			log.Debug("health probe failed", logging.Candidate(baseURL+path), zap.Error(err))
			continue
		}
		if status >= 200 && status <= 299 {
			return &api.ConnectionTestResult{
				Status:     "connected",
				Message:    "connected to remote site",
				Endpoint:   path,
				HealthData: body,
				Timestamp:  time.Now().UTC().Format(time.RFC3339),
			}
		}
	}

	// No health endpoint answered; a reachable root path still counts.
	probeCtx, cancel := context.WithTimeout(ctx, perAttemptTimeout)
	_, status, err := e.probe(probeCtx, baseURL, "")
	cancel()

	if err == nil && ((status >= 200 && status <= 299) || status == http.StatusNotFound) {
		return &api.ConnectionTestResult{
			Status:     "connected",
			Message:    "connected, but no health endpoint was found",
			HTTPStatus: status,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		}
	}

	result := &api.ConnectionTestResult{
		Status:    "disconnected",
		Message:   "remote site is unreachable",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		result.Message = err.Error()
	} else {
		result.HTTPStatus = status
	}
	return result
}

func (e *Engine) probe(ctx context.Context, url, apiKey string) (json.RawMessage, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", userAgent)
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := e.client().Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if !json.Valid(body) {
		body = nil
	}
	return json.RawMessage(body), resp.StatusCode, nil
}
