package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rflorenc/towerctl/internal/models"
	"github.com/rflorenc/towerctl/internal/tower"
)

// create adapts a builder taking a request body of type T.
func create[T any](s *Server, build func(*tower.Tower, context.Context, T) *models.Result) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body T
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		t, ok := s.towerFor(w, r)
		if !ok {
			return
		}
		writeResult(w, build(t, r.Context(), body))
	}
}

// CreateJobTemplate answers with both the template and the credential
// outcome. The status is that of the template.
func (s *Server) CreateJobTemplate(w http.ResponseWriter, r *http.Request) {
	var jt tower.JobTemplate
	if err := json.NewDecoder(r.Body).Decode(&jt); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	t, ok := s.towerFor(w, r)
	if !ok {
		return
	}
	res := t.CreateJobTemplate(r.Context(), jt)
	writeJSON(w, httpStatus(res.Template), res)
}
