package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rflorenc/towerctl/internal/models"
)

// PingPath is the unauthenticated health endpoint of the platform.
const PingPath = "/v2/ping/"

// PingResponse holds the parsed /ping/ response.
type PingResponse struct {
	Version    string `json:"version"`
	ActiveNode string `json:"active_node,omitempty"`
	Secure     bool   `json:"secure"`
	BaseURL    string `json:"base_url"`
}

// ParsePingResponse extracts the version from a /ping/ JSON response body.
func ParsePingResponse(body []byte) (*PingResponse, error) {
	var resp PingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing ping response: %w", err)
	}
	if resp.Version == "" {
		return nil, fmt.Errorf("ping response missing version field")
	}
	return &resp, nil
}

// Ping reports the platform version along with the scheme it answered on.
// If the response can't be parsed but HTTP succeeded, the version is left
// empty.
func (c *Client) Ping(ctx context.Context) (*PingResponse, *models.Result) {
	secure, base := c.resolver.Resolve(ctx)
	raw, err := c.sendTo(ctx, base, http.MethodGet, PingPath, nil, nil)
	if err != nil {
		return nil, connectionFailure(err)
	}
	res := decodeResult(raw)
	if !res.OK() {
		return nil, res
	}
	resp, err := ParsePingResponse(res.Body)
	if err != nil {
		resp = &PingResponse{}
	}
	resp.Secure = secure
	resp.BaseURL = base
	return resp, res
}

// SameMajor reports whether two versions share their major component.
// Unparseable versions are assumed to match.
func SameMajor(a, b string) bool {
	aParts, bParts := parseVersionParts(a), parseVersionParts(b)
	if len(aParts) == 0 || len(bParts) == 0 {
		return true
	}
	return aParts[0] == bParts[0]
}

func parseVersionParts(v string) []int {
	parts := strings.Split(v, ".")
	result := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			break
		}
		result = append(result, n)
	}
	return result
}
