// Package awxtest provides an in-memory fake of the AWX REST API for tests.
package awxtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rflorenc/towerctl/internal/models"
	"github.com/rflorenc/towerctl/internal/platform"
)

// Request is one recorded API call. Probe requests to /api are not recorded.
type Request struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

// Server is a TLS httptest server that stores posted resources per
// collection and serves them back in paginated listings.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	nextID      int
	collections map[string][]models.Resource
	overrides   map[string]http.HandlerFunc
	requests    []Request
	pageSize    int
}

// New starts a fake platform that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		nextID:      100,
		collections: make(map[string][]models.Resource),
		overrides:   make(map[string]http.HandlerFunc),
	}
	s.Server = httptest.NewTLSServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Connection returns a connection pointing at the fake platform.
func (s *Server) Connection() *models.Connection {
	u, _ := url.Parse(s.URL)
	port, _ := strconv.Atoi(u.Port())
	return &models.Connection{
		Name:     "fake",
		Host:     u.Hostname(),
		Port:     port,
		Username: "admin",
		Password: "secret",
	}
}

// Client returns a platform client for the fake with a fast probe.
func (s *Server) Client() *platform.Client {
	return platform.NewClient(s.Connection(), Options())
}

// Options returns client options suited to tests.
func Options() platform.Options {
	return platform.Options{
		Probe:          platform.ProbeConfig{Retries: 0, Backoff: time.Millisecond, Timeout: 2 * time.Second},
		RequestTimeout: 5 * time.Second,
	}
}

// Seed adds resources to a collection, e.g. Seed("organizations", ...).
// Resources without an id are assigned one.
func (s *Server) Seed(collection string, items ...models.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		if _, ok := item["id"]; !ok {
			s.nextID++
			item["id"] = float64(s.nextID)
		}
		s.collections[collection] = append(s.collections[collection], item)
	}
}

// Items returns the stored resources of a collection.
func (s *Server) Items(collection string) []models.Resource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Resource(nil), s.collections[collection]...)
}

// SetPageSize splits listings into pages of n items.
func (s *Server) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = n
}

// Handle overrides one endpoint, e.g. Handle("DELETE", "/api/v2/hosts/3/", h).
func (s *Server) Handle(method, path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[method+" "+path] = h
}

// Requests returns the recorded calls.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Posts returns the bodies posted to path.
func (s *Server) Posts(path string) []map[string]interface{} {
	var bodies []map[string]interface{}
	for _, r := range s.Requests() {
		if r.Method == http.MethodPost && r.Path == path {
			bodies = append(bodies, r.Body)
		}
	}
	return bodies
}

// Count returns how many calls used method.
func (s *Server) Count(method string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method {
			n++
		}
	}
	return n
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api" || r.URL.Path == "/api/" {
		writeJSON(w, http.StatusOK, map[string]string{"current_version": "/api/v2/"})
		return
	}

	var body map[string]interface{}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})
	override := s.overrides[r.Method+" "+r.URL.Path]
	s.mu.Unlock()

	if override != nil {
		override(w, r)
		return
	}

	if user, pass, ok := r.BasicAuth(); !ok || user != "admin" || pass != "secret" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}

	segments := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v2"), "/"), "/")
	switch r.Method {
	case http.MethodGet:
		s.get(w, r, segments)
	case http.MethodPost:
		s.post(w, segments, body)
	case http.MethodDelete:
		s.delete(w, segments)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) get(w http.ResponseWriter, r *http.Request, segments []string) {
	if len(segments) == 1 && segments[0] == "ping" {
		writeJSON(w, http.StatusOK, map[string]interface{}{"version": "9.2.0", "active_node": "awx"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch len(segments) {
	case 1:
		items := s.collections[segments[0]]
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		var next interface{}
		if s.pageSize > 0 {
			start := (page - 1) * s.pageSize
			end := start + s.pageSize
			if start > len(items) {
				start = len(items)
			}
			if end < len(items) {
				next = fmt.Sprintf("/api/v2/%s/?page=%d", segments[0], page+1)
			} else {
				end = len(items)
			}
			items = items[start:end]
		}
		if items == nil {
			items = []models.Resource{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count": len(s.collections[segments[0]]), "next": next, "previous": nil, "results": items,
		})
	case 2:
		if item := s.find(segments[0], segments[1]); item != nil {
			writeJSON(w, http.StatusOK, item)
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	}
}

func (s *Server) post(w http.ResponseWriter, segments []string, body map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Association: POST {"id": n} to a sub-collection answers 204.
	if len(segments) == 3 {
		if _, ok := body["id"]; ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	if len(segments) == 3 && segments[2] == "launch" {
		s.nextID++
		job := models.Resource{"id": float64(s.nextID), "job": float64(s.nextID), "status": "pending", "extra_vars": body["extra_vars"]}
		s.collections["jobs"] = append(s.collections["jobs"], job)
		writeJSON(w, http.StatusCreated, job)
		return
	}

	collection := segments[len(segments)-1]
	if len(segments) == 3 && segments[0] == "job_templates" {
		collection = "credentials"
	}
	item := models.Resource{}
	for k, v := range body {
		item[k] = v
	}
	s.nextID++
	item["id"] = float64(s.nextID)
	s.collections[collection] = append(s.collections[collection], item)
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) delete(w http.ResponseWriter, segments []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(segments) != 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	items := s.collections[segments[0]]
	for i, item := range items {
		if fmt.Sprint(models.ToInt(item["id"])) == segments[1] {
			s.collections[segments[0]] = append(items[:i:i], items[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func (s *Server) find(collection, id string) models.Resource {
	for _, item := range s.collections[collection] {
		if fmt.Sprint(models.ToInt(item["id"])) == id {
			return item
		}
	}
	return nil
}

// SetField updates one field of a stored resource.
func (s *Server) SetField(collection string, id int, key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item := s.find(collection, strconv.Itoa(id)); item != nil {
		item[key] = value
	}
}

// Collections lists the names of non-empty collections.
func (s *Server) Collections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for name, items := range s.collections {
		if len(items) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
