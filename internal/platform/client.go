package platform

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rflorenc/towerctl/internal/models"
)

// Synthetic status codes reported when no HTTP response was received.
const (
	StatusConnectionTimeout = 522
	StatusConnectionFailed  = http.StatusRequestTimeout
)

// DefaultRequestTimeout bounds every request after the probe.
const DefaultRequestTimeout = 30 * time.Second

// maxErrorText caps the server text carried in a failure message.
const maxErrorText = 1024

// Options tunes a Client. The zero value is usable.
type Options struct {
	Probe          ProbeConfig
	RequestTimeout time.Duration
	Logger         zerolog.Logger

	// FollowPages makes lookups and listings walk every page. By default
	// only the first page the platform returns is searched.
	FollowPages bool
}

// Client talks to one platform. Every call probes the scheme first, then
// sends an authenticated JSON request and folds the outcome into a Result.
type Client struct {
	conn       models.Connection
	resolver   *Resolver
	httpClient *http.Client
	log        zerolog.Logger
	follow     bool
}

// NewClient creates a Client from a Connection.
func NewClient(conn *models.Connection, opts Options) *Client {
	transport := &http.Transport{}
	if !conn.VerifyTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	} else if conn.CACert != "" {
		caCertPool := x509.NewCertPool()
		if caCertPool.AppendCertsFromPEM([]byte(conn.CACert)) {
			transport.TLSClientConfig = &tls.Config{RootCAs: caCertPool}
		}
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	username, password := conn.Username, conn.Password
	return &Client{
		conn:     *conn,
		resolver: NewResolver(conn, opts.Probe, opts.Logger),
		follow:   opts.FollowPages,
		log:      opts.Logger.With().Str("connection", conn.Name).Logger(),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Re-apply basic auth on redirects
				if len(via) > 0 {
					req.SetBasicAuth(username, password)
				}
				return nil
			},
		},
	}
}

// Connection returns a copy of the connection the client was built from.
func (c *Client) Connection() models.Connection { return c.conn }

// paginatedResponse is the standard AWX paginated response envelope.
type paginatedResponse struct {
	Count   int               `json:"count"`
	Next    *string           `json:"next"`
	Results []models.Resource `json:"results"`
}

type rawResponse struct {
	status int
	body   []byte
}

// send probes the scheme and performs one request. The returned error is
// always a transport-level failure.
func (c *Client) send(ctx context.Context, method, path string, params url.Values, payload []byte) (rawResponse, error) {
	_, base := c.resolver.Resolve(ctx)
	return c.sendTo(ctx, base, method, path, params, payload)
}

// sendTo performs one request against an already resolved base URL.
func (c *Client) sendTo(ctx context.Context, base, method, path string, params url.Values, payload []byte) (rawResponse, error) {
	u := base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return rawResponse{}, fmt.Errorf("creating request: %w", err)
	}
	requestID := uuid.New().String()
	req.SetBasicAuth(c.conn.Username, c.conn.Password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("url", u).Str("request_id", requestID).Msg("request failed")
		return rawResponse{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.log.Debug().
		Str("method", method).
		Str("url", u).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Str("request_id", requestID).
		Msg("request")
	if err != nil {
		return rawResponse{status: resp.StatusCode}, fmt.Errorf("reading response: %w", err)
	}
	return rawResponse{status: resp.StatusCode, body: body}, nil
}

// connectionFailure maps a transport error to a synthetic status code:
// 522 for timeouts, 408 for refused, reset or otherwise failed connections.
func connectionFailure(err error) *models.Result {
	code := StatusConnectionFailed
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		code = StatusConnectionTimeout
	}
	return models.FailMessage(code, err.Error())
}

// decodeResult folds an HTTP response into a Result: a 2xx with a JSON body
// is a success, a 2xx without a body is an empty success, anything else is
// a failure that keeps the server's status code and text.
func decodeResult(raw rawResponse) *models.Result {
	if raw.status < 200 || raw.status >= 300 {
		text := strings.TrimSpace(string(raw.body))
		if text == "" {
			text = http.StatusText(raw.status)
		}
		return models.FailMessage(raw.status, truncate(text, maxErrorText))
	}
	if len(bytes.TrimSpace(raw.body)) == 0 {
		return models.Empty(raw.status, "")
	}
	var decoded interface{}
	if err := json.Unmarshal(raw.body, &decoded); err != nil {
		return models.Fail(raw.status, "malformed response body: %v", err)
	}
	return models.Success(raw.status, raw.body, decoded)
}

// Get performs an authenticated GET. path is relative to the API root,
// e.g. "/v2/organizations/".
func (c *Client) Get(ctx context.Context, path string, params url.Values) *models.Result {
	raw, err := c.send(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return connectionFailure(err)
	}
	return decodeResult(raw)
}

// Post performs an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, payload interface{}) *models.Result {
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return models.Fail(http.StatusBadRequest, "marshaling body: %v", err)
		}
	}
	raw, err := c.send(ctx, http.MethodPost, path, nil, data)
	if err != nil {
		return connectionFailure(err)
	}
	return decodeResult(raw)
}

// Delete removes the resource id of kind.
func (c *Client) Delete(ctx context.Context, kind models.Kind, id int) *models.Result {
	raw, err := c.send(ctx, http.MethodDelete, fmt.Sprintf("%s%d/", kind.Path, id), nil, nil)
	if err != nil {
		return connectionFailure(err)
	}

	switch {
	case raw.status == http.StatusNoContent, raw.status == http.StatusAccepted, raw.status == http.StatusOK:
		return models.Empty(raw.status, fmt.Sprintf("Resource %s with id %d has deleted.", kind.Name, id))
	case raw.status == http.StatusNotFound:
		return models.Fail(http.StatusNotFound, "The resource is not found, it could be due to resource_id is not specified.")
	case raw.status == http.StatusConflict:
		// The body lists the jobs holding the resource; it is kept whole.
		return models.FailMessage(http.StatusConflict, string(raw.body))
	default:
		return decodeResult(raw)
	}
}

// list fetches a collection: the first page, or all of them when the client
// follows pages.
func (c *Client) list(ctx context.Context, path string, params url.Values) ([]models.Resource, *models.Result) {
	var all []models.Resource
	next := path

	for next != "" {
		res := c.Get(ctx, next, params)
		if !res.OK() {
			return nil, res
		}
		var page paginatedResponse
		if err := res.Decode(&page); err != nil {
			return nil, models.Fail(res.Code, "parsing response: %v", err)
		}
		all = append(all, page.Results...)

		next = ""
		params = nil
		if c.follow && page.Next != nil && *page.Next != "" {
			next = relativeNext(*page.Next)
		}
	}
	return all, nil
}

// relativeNext turns a pagination link ("/api/v2/hosts/?page=2") into a path
// relative to the API root.
func relativeNext(link string) string {
	if u, err := url.Parse(link); err == nil && u.IsAbs() {
		link = u.RequestURI()
	}
	return strings.TrimPrefix(link, "/api")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
