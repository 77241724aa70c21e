package api

import (
	"encoding/json"
	"net/http"

	"github.com/rflorenc/towerctl/internal/models"
	"github.com/rflorenc/towerctl/internal/tower"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeResult answers with the status the platform gave. Empty successes
// carry a body, so 204 becomes 200.
func writeResult(w http.ResponseWriter, res *models.Result) {
	writeJSON(w, httpStatus(res), res)
}

func httpStatus(res *models.Result) int {
	switch {
	case res.Code == http.StatusNoContent:
		return http.StatusOK
	case res.Code < 100 || res.Code > 599:
		if res.OK() {
			return http.StatusOK
		}
		return http.StatusBadGateway
	}
	return res.Code
}

// towerFor resolves the ?connection= query against the store; the first
// connection is used when it is absent.
func (s *Server) towerFor(w http.ResponseWriter, r *http.Request) (*tower.Tower, bool) {
	name := r.URL.Query().Get("connection")
	conn, ok := s.Connections.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "connection not found")
		return nil, false
	}
	return s.Tower(&conn), true
}
