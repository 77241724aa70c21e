package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/towerctl/internal/models"
)

type launchRequest struct {
	ExtraVars map[string]interface{} `json:"extra_vars"`
}

// LaunchJob launches the job template named or numbered by {ref}. The body
// is optional.
func (s *Server) LaunchJob(w http.ResponseWriter, r *http.Request) {
	var req launchRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}
	t, ok := s.towerFor(w, r)
	if !ok {
		return
	}
	ref := models.ParseReference(chi.URLParam(r, "ref"))
	writeResult(w, t.LaunchJob(r.Context(), ref, req.ExtraVars))
}
