package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rflorenc/towerctl/internal/logging"
	"github.com/rflorenc/towerctl/internal/models"
	"github.com/rflorenc/towerctl/internal/platform"
	"github.com/rflorenc/towerctl/internal/remote"
)

// ConnectionConfig represents a pre-configured connection in the config file.
type ConnectionConfig struct {
	Name      string `yaml:"name"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	VerifyTLS bool   `yaml:"verify_tls"`
	CACert    string `yaml:"ca_cert"` // path to a PEM bundle
}

// LogConfig selects level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ProbeConfig tunes the scheme probe. Retries is a pointer so that an
// explicit 0 survives defaulting.
type ProbeConfig struct {
	Retries *int          `yaml:"retries"`
	Backoff time.Duration `yaml:"backoff"`
	Timeout time.Duration `yaml:"timeout"`
}

// SSHConfig enables project staging on the platform host.
type SSHConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	ProjectBase string `yaml:"project_base"`
}

// Config holds all configuration (CLI flags + config file).
type Config struct {
	Listen         string             `yaml:"listen"`
	Connections    []ConnectionConfig `yaml:"connections"`
	Log            LogConfig          `yaml:"log"`
	Probe          ProbeConfig        `yaml:"probe"`
	RequestTimeout time.Duration      `yaml:"request_timeout"`
	FollowPages    bool               `yaml:"follow_pages"`
	SSH            SSHConfig          `yaml:"ssh"`
}

// Load reads a YAML config file. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	c.ApplyDefaults()
	return c, nil
}

// ApplyDefaults fills anything still unset. Call it again after overlaying
// CLI flags.
func (c *Config) ApplyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	def := platform.DefaultProbeConfig()
	if c.Probe.Retries == nil {
		retries := def.Retries
		c.Probe.Retries = &retries
	}
	if c.Probe.Backoff == 0 {
		c.Probe.Backoff = def.Backoff
	}
	if c.Probe.Timeout == 0 {
		c.Probe.Timeout = def.Timeout
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = platform.DefaultRequestTimeout
	}
	for i := range c.Connections {
		if c.Connections[i].Port == 0 {
			c.Connections[i].Port = models.DefaultPort
		}
	}
	if c.SSH.ProjectBase == "" {
		c.SSH.ProjectBase = remote.DefaultProjectBase
	}
}

// Store builds a connection store from the configured connections.
func (c *Config) Store() (*models.ConnectionStore, error) {
	store := models.NewConnectionStore()
	for _, cc := range c.Connections {
		conn, err := cc.connection()
		if err != nil {
			return nil, err
		}
		store.Add(conn)
	}
	return store, nil
}

// Connection returns the named connection, or the first one for "".
func (c *Config) Connection(name string) (*models.Connection, error) {
	for _, cc := range c.Connections {
		if name == "" || cc.Name == name {
			return cc.connection()
		}
	}
	if name == "" {
		return nil, fmt.Errorf("no connections configured")
	}
	return nil, fmt.Errorf("connection %q not found", name)
}

func (cc ConnectionConfig) connection() (*models.Connection, error) {
	conn := &models.Connection{
		Name:      cc.Name,
		Host:      cc.Host,
		Port:      cc.Port,
		Username:  cc.Username,
		Password:  cc.Password,
		VerifyTLS: cc.VerifyTLS,
	}
	if cc.CACert != "" {
		pem, err := os.ReadFile(cc.CACert)
		if err != nil {
			return nil, fmt.Errorf("reading ca_cert of %s: %w", cc.Name, err)
		}
		conn.CACert = string(pem)
	}
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	return conn, nil
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format, Output: os.Stderr}
}

// ClientOptions returns transport options; the logger is set by the caller.
func (c *Config) ClientOptions() platform.Options {
	probe := platform.ProbeConfig{Backoff: c.Probe.Backoff, Timeout: c.Probe.Timeout}
	if c.Probe.Retries != nil {
		probe.Retries = *c.Probe.Retries
	}
	return platform.Options{
		Probe:          probe,
		RequestTimeout: c.RequestTimeout,
		FollowPages:    c.FollowPages,
	}
}

// SSHStagerConfig returns the stager settings, or false when staging is off.
// Username and password default to those of conn.
func (c *Config) SSHStagerConfig(conn *models.Connection) (remote.SSHConfig, bool) {
	if c.SSH.Host == "" {
		return remote.SSHConfig{}, false
	}
	cfg := remote.SSHConfig{
		Host:     c.SSH.Host,
		Port:     c.SSH.Port,
		Username: c.SSH.Username,
		Password: c.SSH.Password,
	}
	if cfg.Username == "" && conn != nil {
		cfg.Username = conn.Username
	}
	if cfg.Password == "" && conn != nil {
		cfg.Password = conn.Password
	}
	return cfg, true
}
