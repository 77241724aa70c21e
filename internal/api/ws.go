package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/rflorenc/towerctl/internal/tower"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// jobSnapshot is one message of a job stream.
type jobSnapshot struct {
	ID       int         `json:"id"`
	Status   string      `json:"status"`
	Failed   bool        `json:"failed"`
	Elapsed  interface{} `json:"elapsed,omitempty"`
	Finished interface{} `json:"finished,omitempty"`
}

// StreamJobStatus sends a snapshot of the job whenever its status changes
// and closes once the job reaches a terminal status.
func (s *Server) StreamJobStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	t, ok := s.towerFor(w, r)
	if !ok {
		return
	}
	first := t.JobStatus(r.Context(), id)
	if !first.OK() {
		writeResult(w, first)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	res := first
	last := ""
	for {
		job := res.Object()
		snap := jobSnapshot{ID: id, Elapsed: job["elapsed"], Finished: job["finished"]}
		snap.Status, _ = job["status"].(string)
		snap.Failed, _ = job["failed"].(bool)

		if snap.Status != last {
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
			last = snap.Status
		}
		if tower.IsTerminal(snap.Status) {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, snap.Status))
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		res = t.JobStatus(r.Context(), id)
		if !res.OK() {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, truncateReason(res.Message)))
			return
		}
	}
}

// Close reasons must fit a control frame.
func truncateReason(s string) string {
	if len(s) > 120 {
		return s[:120]
	}
	return s
}
