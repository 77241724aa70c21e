package models

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DefaultPort is the HTTP port of a dockerless AWX install.
const DefaultPort = 8052

// Connection is the session context of a client: who to authenticate as and
// where the platform lives. It is copied into a client at construction and
// never mutated afterwards.
type Connection struct {
	Name      string `json:"name"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Username  string `json:"username"`
	Password  string `json:"-"`
	VerifyTLS bool   `json:"verify_tls"` // only applied when the platform speaks https
	CACert    string `json:"-"`          // optional PEM bundle used when VerifyTLS is set
}

// BaseURL returns the API root for the given scheme, e.g. "https://awx:8052/api".
func (c *Connection) BaseURL(scheme string) string {
	return fmt.Sprintf("%s://%s:%d/api", scheme, c.Host, c.Port)
}

// MaskedPassword returns a fixed mask if a password is set.
func (c *Connection) MaskedPassword() string {
	if c.Password == "" {
		return ""
	}
	return "••••••••"
}

// Validate checks the fields every request needs.
func (c *Connection) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("connection %q: host is required", c.Name)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("connection %q: invalid port %d", c.Name, c.Port)
	}
	if c.Username == "" {
		return fmt.Errorf("connection %q: username is required", c.Name)
	}
	return nil
}

// ConnectionStore is an in-memory thread-safe store for named connections.
type ConnectionStore struct {
	mu    sync.RWMutex
	conns map[string]*Connection
	order []string
}

// NewConnectionStore creates a store holding the given connections. The first
// one becomes the default.
func NewConnectionStore(conns ...*Connection) *ConnectionStore {
	s := &ConnectionStore{conns: make(map[string]*Connection)}
	for _, c := range conns {
		s.Add(c)
	}
	return s
}

// Add registers a connection under its name, replacing any previous one.
// Unnamed connections are given a generated name.
func (s *ConnectionStore) Add(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Name == "" {
		c.Name = uuid.New().String()
	}
	if _, ok := s.conns[c.Name]; !ok {
		s.order = append(s.order, c.Name)
	}
	s.conns[c.Name] = c
}

// Get returns a copy of the named connection. An empty name selects the
// default connection.
func (s *ConnectionStore) Get(name string) (Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if name == "" {
		if len(s.order) == 0 {
			return Connection{}, false
		}
		name = s.order[0]
	}
	c, ok := s.conns[name]
	if !ok {
		return Connection{}, false
	}
	return *c, true
}

// List returns all connections in registration order.
func (s *ConnectionStore) List() []Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Connection, 0, len(s.order))
	for _, name := range s.order {
		result = append(result, *s.conns[name])
	}
	return result
}
