package platform

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/rflorenc/towerctl/internal/logging"
	"github.com/rflorenc/towerctl/internal/models"
)

// ProbeConfig tunes the https probe. A zero Timeout selects the defaults.
type ProbeConfig struct {
	Retries int           // extra attempts after the first
	Backoff time.Duration // base wait, doubled per attempt
	Timeout time.Duration // per attempt
}

// DefaultProbeConfig returns the probe settings used when none are given.
func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{Retries: 2, Backoff: 500 * time.Millisecond, Timeout: 500 * time.Millisecond}
}

// Statuses that make the probe try again.
var probeRetryStatuses = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Resolver decides whether a platform speaks https or plain http.
type Resolver struct {
	conn   models.Connection
	client *retryablehttp.Client
	log    zerolog.Logger
}

// NewResolver creates a resolver for conn. The probe never verifies
// certificates; verification is applied to the real requests only.
func NewResolver(conn *models.Connection, cfg ProbeConfig, logger zerolog.Logger) *Resolver {
	if cfg.Timeout <= 0 {
		cfg = DefaultProbeConfig()
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	rc.RetryMax = cfg.Retries
	rc.RetryWaitMin = cfg.Backoff
	rc.RetryWaitMax = cfg.Backoff << uint(cfg.Retries)
	rc.CheckRetry = probeRetryPolicy
	rc.Logger = logging.Leveled{Log: logger}

	return &Resolver{conn: *conn, client: rc, log: logger}
}

// probeRetryPolicy retries transport errors and gateway-class statuses
// until the context ends.
func probeRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	return probeRetryStatuses[resp.StatusCode], nil
}

// Resolve probes https://host:port/api and returns whether it answered,
// together with the API root to use. Any final probe failure, including
// exhausted retries on a 5xx, falls back to plain http.
func (r *Resolver) Resolve(ctx context.Context) (bool, string) {
	secure := r.conn.BaseURL("https")
	plain := r.conn.BaseURL("http")

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, secure, nil)
	if err != nil {
		return false, plain
	}
	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Debug().Err(err).Str("url", secure).Msg("https probe failed, using http")
		return false, plain
	}
	resp.Body.Close()

	r.log.Trace().Str("url", secure).Int("status", resp.StatusCode).Msg("https probe answered")
	return true, secure
}
