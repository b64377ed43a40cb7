// Package api provides the HTTP client for the shroombox controller backend.
package api

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	gocache "github.com/patrickmn/go-cache"

	"github.com/shroombox/boxtop/internal/log"
)

// Cache keys for read-only endpoints.
const (
	cacheKeyStatus       = "system_status"
	cacheKeyMeasurements = "measurements"
	cacheKeySettings     = "settings"
)

// Config holds client construction options.
type Config struct {
	// BaseURL is the controller's web API root, e.g. "http://shroombox.local:5000".
	BaseURL string

	// Timeout bounds non-streaming requests.
	Timeout time.Duration

	// CacheTTL is how long status/settings reads are served from cache.
	// Zero disables caching.
	CacheTTL time.Duration
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Body)
}

// Client talks to the controller backend. All control mutations go through
// it; read endpoints are cached briefly to keep poll ticks cheap.
type Client struct {
	http *resty.Client

	// stream carries the SSE log tail. It deliberately has no whole-request
	// timeout: http.Client.Timeout bounds body reads too, which would cut a
	// long-lived stream every cfg.Timeout. Connection setup is still bounded
	// by dial and response-header timeouts.
	stream *http.Client

	cache *gocache.Cache
	ttl   time.Duration
}

// New creates a client for the given backend.
func New(cfg Config) *Client {
	r := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	s := &http.Client{
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: cfg.Timeout}).DialContext,
			TLSHandshakeTimeout:   cfg.Timeout,
			ResponseHeaderTimeout: cfg.Timeout,
		},
	}

	var c *gocache.Cache
	if cfg.CacheTTL > 0 {
		c = gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}

	return &Client{http: r, stream: s, cache: c, ttl: cfg.CacheTTL}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.http.BaseURL
}

// SystemStatus fetches the control loop state from GET /api/system/status.
func (c *Client) SystemStatus(ctx context.Context) (SystemStatus, error) {
	var out SystemStatus
	if c.cached(cacheKeyStatus, &out) {
		return out, nil
	}
	if err := c.get(ctx, "/api/system/status", &out); err != nil {
		return SystemStatus{}, fmt.Errorf("fetching system status: %w", err)
	}
	c.store(cacheKeyStatus, out)
	return out, nil
}

// LatestMeasurements fetches the newest sensor snapshot.
func (c *Client) LatestMeasurements(ctx context.Context) (Measurements, error) {
	var out Measurements
	if c.cached(cacheKeyMeasurements, &out) {
		return out, nil
	}
	if err := c.get(ctx, "/api/measurements/latest", &out); err != nil {
		return Measurements{}, fmt.Errorf("fetching measurements: %w", err)
	}
	c.store(cacheKeyMeasurements, out)
	return out, nil
}

// Settings fetches the full controller configuration.
func (c *Client) Settings(ctx context.Context) (Settings, error) {
	var out Settings
	if c.cached(cacheKeySettings, &out) {
		return out, nil
	}
	if err := c.get(ctx, "/api/settings", &out); err != nil {
		return Settings{}, fmt.Errorf("fetching settings: %w", err)
	}
	c.store(cacheKeySettings, out)
	return out, nil
}

// SetPhase switches the active growth phase via POST /api/phase.
func (c *Client) SetPhase(ctx context.Context, phase string) error {
	body := map[string]string{"phase": phase}
	if err := c.post(ctx, "/api/phase", body); err != nil {
		return fmt.Errorf("setting phase %q: %w", phase, err)
	}
	c.invalidate(cacheKeySettings)
	return nil
}

// UpdateSettings applies a partial settings update via POST /api/settings.
func (c *Client) UpdateSettings(ctx context.Context, patch SettingsPatch) error {
	if err := c.post(ctx, "/api/settings", patch); err != nil {
		return fmt.Errorf("updating settings: %w", err)
	}
	c.invalidate(cacheKeySettings)
	return nil
}

// SystemControl starts or stops the control loop. Action must be
// "start" or "stop".
func (c *Client) SystemControl(ctx context.Context, action string) error {
	body := map[string]string{"action": action}
	if err := c.post(ctx, "/api/system/control", body); err != nil {
		return fmt.Errorf("system control %q: %w", action, err)
	}
	c.invalidate(cacheKeyStatus)
	return nil
}

// OpenLogStream opens the SSE log tail at GET /api/logs/stream.
// The caller owns the returned body and must close it; cancelling ctx also
// unblocks any pending read. The request bypasses resty (response buffering,
// whole-request timeout) because the body never ends.
func (c *Client) OpenLogStream(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.http.BaseURL+"/api/logs/stream", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opening log stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return resp.Body, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(out).
		Get(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return &StatusError{Code: resp.StatusCode(), Body: string(resp.Body())}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		log.Warn(log.CatAPI, "Control request rejected", "path", path, "status", resp.StatusCode())
		return &StatusError{Code: resp.StatusCode(), Body: string(resp.Body())}
	}
	return nil
}

// cached loads a typed value from the read cache. The stored values are
// concrete structs, so the type assertion cannot fail for our keys.
func (c *Client) cached(key string, out any) bool {
	if c.cache == nil {
		return false
	}
	v, ok := c.cache.Get(key)
	if !ok {
		return false
	}
	switch dst := out.(type) {
	case *SystemStatus:
		if s, ok := v.(SystemStatus); ok {
			*dst = s
			return true
		}
	case *Measurements:
		if m, ok := v.(Measurements); ok {
			*dst = m
			return true
		}
	case *Settings:
		if s, ok := v.(Settings); ok {
			*dst = s
			return true
		}
	}
	return false
}

func (c *Client) store(key string, v any) {
	if c.cache != nil {
		c.cache.Set(key, v, c.ttl)
	}
}

func (c *Client) invalidate(key string) {
	if c.cache != nil {
		c.cache.Delete(key)
	}
}
