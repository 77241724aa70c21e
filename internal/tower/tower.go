// Package tower creates, links, launches and removes AWX resources. Every
// operation returns a *models.Result; expected failures are never errors.
package tower

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/rflorenc/towerctl/internal/models"
	"github.com/rflorenc/towerctl/internal/platform"
	"github.com/rflorenc/towerctl/internal/remote"
)

// Tower is a resource client bound to one connection. It holds no mutable
// state and is meant for one in-flight operation at a time.
type Tower struct {
	client      *platform.Client
	stager      remote.Stager
	projectBase string
	log         zerolog.Logger
	clientOpts  platform.Options
}

// Option configures a Tower.
type Option func(*Tower)

// WithClientOptions sets the probe, timeout and paging behavior of the
// transport. The transport always logs through the Tower logger.
func WithClientOptions(opts platform.Options) Option {
	return func(t *Tower) { t.clientOpts = opts }
}

// WithLogger sets the logger of the Tower and its transport.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tower) { t.log = logger }
}

// WithStager enables project staging below base on the platform host.
func WithStager(s remote.Stager, base string) Option {
	return func(t *Tower) {
		t.stager = s
		if base != "" {
			t.projectBase = base
		}
	}
}

// New creates a Tower for conn.
func New(conn *models.Connection, opts ...Option) *Tower {
	t := &Tower{projectBase: remote.DefaultProjectBase, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(t)
	}
	t.clientOpts.Logger = t.log
	t.client = platform.NewClient(conn, t.clientOpts)
	return t
}

// Client exposes the underlying transport.
func (t *Tower) Client() *platform.Client { return t.client }

// encodeVariables renders variables the way the platform stores them: a
// string is sent as-is, anything else is JSON-encoded into a string.
func encodeVariables(v interface{}) (string, bool, error) {
	switch vars := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return vars, vars != "", nil
	case map[string]interface{}:
		if len(vars) == 0 {
			return "", false, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", false, fmt.Errorf("encoding variables: %w", err)
	}
	return string(data), true, nil
}

// setVariables adds key to payload when v holds variables.
func setVariables(payload map[string]interface{}, key string, v interface{}) *models.Result {
	vars, ok, err := encodeVariables(v)
	if err != nil {
		return models.FailMessage(http.StatusBadRequest, err.Error())
	}
	if ok {
		payload[key] = vars
	}
	return nil
}

func setString(payload map[string]interface{}, key, value string) {
	if value != "" {
		payload[key] = value
	}
}

func required(field string) *models.Result {
	return models.Fail(http.StatusBadRequest, "%s is required.", field)
}
