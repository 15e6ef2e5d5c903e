package api

import "net/http"

// handleStats serves the latest snapshot, gated by the access token when one
// is configured. Token comparison is exact; an empty configured token leaves
// the endpoint open.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.config.StatsToken != "" && r.URL.Query().Get("token") != s.config.StatsToken {
		writeError(w, http.StatusUnauthorized, "wrong token")
		return
	}

	snapshot := s.config.Stats.Current()
	if snapshot == nil {
		// The initial sync runs before ingress starts, so this only happens
		// when the server is wired up without it.
		writeError(w, http.StatusServiceUnavailable, "stats not available yet")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}
