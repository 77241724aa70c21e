package api

import (
	"net/http"
)

type connectionView struct {
	Name      string `json:"name"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Username  string `json:"username"`
	Password  string `json:"password,omitempty"`
	VerifyTLS bool   `json:"verify_tls"`
}

func (s *Server) ListConnections(w http.ResponseWriter, r *http.Request) {
	conns := s.Connections.List()
	views := make([]connectionView, 0, len(conns))
	for _, c := range conns {
		views = append(views, connectionView{
			Name:      c.Name,
			Host:      c.Host,
			Port:      c.Port,
			Username:  c.Username,
			Password:  c.MaskedPassword(),
			VerifyTLS: c.VerifyTLS,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// Ping reports the platform version and the scheme it answered on.
func (s *Server) Ping(w http.ResponseWriter, r *http.Request) {
	t, ok := s.towerFor(w, r)
	if !ok {
		return
	}
	resp, res := t.Ping(r.Context())
	if !res.OK() {
		writeResult(w, res)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
