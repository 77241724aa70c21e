package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/towerctl/internal/models"
)

func kindParam(w http.ResponseWriter, r *http.Request) (models.Kind, bool) {
	kind, ok := models.LookupKind(chi.URLParam(r, "kind"))
	if !ok || kind.Path == "" {
		writeError(w, http.StatusNotFound, "unknown resource kind")
		return models.Kind{}, false
	}
	return kind, true
}

// FindResources resolves ?name= to an id, or lists the kind when no name is
// given. ?extra= adds one more field to each listed entry.
func (s *Server) FindResources(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	t, ok := s.towerFor(w, r)
	if !ok {
		return
	}

	if name := r.URL.Query().Get("name"); name != "" {
		lookup := t.Find(r.Context(), kind, name)
		if !lookup.Found {
			writeResult(w, lookup.Envelope())
			return
		}
		writeJSON(w, http.StatusOK, lookup)
		return
	}

	col := t.Collect(r.Context(), kind, r.URL.Query().Get("extra"))
	if !col.OK() {
		writeJSON(w, httpStatus(models.FailMessage(col.Code, col.Message)), col)
		return
	}
	writeJSON(w, http.StatusOK, col)
}

func (s *Server) GetResource(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	t, ok := s.towerFor(w, r)
	if !ok {
		return
	}
	ref := models.ParseReference(chi.URLParam(r, "ref"))
	writeResult(w, t.Get(r.Context(), kind, ref))
}

func (s *Server) DeleteResource(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	t, ok := s.towerFor(w, r)
	if !ok {
		return
	}
	ref := models.ParseReference(chi.URLParam(r, "ref"))
	writeResult(w, t.Delete(r.Context(), kind, ref))
}
