package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/rflorenc/towerctl/internal/models"
	"github.com/rflorenc/towerctl/internal/tower"
)

// DefaultPollInterval is how often a job stream re-reads the job.
const DefaultPollInterval = 2 * time.Second

// Server holds shared state for all API handlers.
type Server struct {
	Connections *models.ConnectionStore

	// Tower builds the resource client of one request. Defaults to tower.New.
	Tower func(conn *models.Connection) *tower.Tower

	Log          zerolog.Logger
	PollInterval time.Duration
}

// NewRouter builds the chi router with all API routes.
func NewRouter(s *Server) http.Handler {
	if s.Tower == nil {
		s.Tower = func(conn *models.Connection) *tower.Tower {
			return tower.New(conn, tower.WithLogger(s.Log))
		}
	}
	if s.PollInterval <= 0 {
		s.PollInterval = DefaultPollInterval
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/connections", s.ListConnections)
		r.Get("/ping", s.Ping)

		// Builders
		r.Post("/organizations", create(s, (*tower.Tower).CreateOrganization))
		r.Post("/inventories", create(s, (*tower.Tower).CreateInventory))
		r.Post("/groups", create(s, (*tower.Tower).CreateInventoryGroup))
		r.Post("/hosts", create(s, (*tower.Tower).CreateInventoryHost))
		r.Post("/credentials", create(s, (*tower.Tower).CreateCredential))
		r.Post("/projects", create(s, (*tower.Tower).CreateProject))
		r.Post("/job_template_credentials", create(s, (*tower.Tower).AttachCredential))
		r.Post("/job_templates", s.CreateJobTemplate)
		r.Post("/job_templates/{ref}/launch", s.LaunchJob)

		// Lookups
		r.Get("/resources/{kind}", s.FindResources)
		r.Get("/resources/{kind}/{ref}", s.GetResource)
		r.Delete("/resources/{kind}/{ref}", s.DeleteResource)
	})

	// WebSocket (outside /api to avoid JSON content-type assumptions)
	r.Get("/ws/jobs/{id}", s.StreamJobStatus)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
