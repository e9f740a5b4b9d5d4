package handlers

import "net/http"

// Health reports liveness. Database reachability is intentionally not probed
// here: a degraded pool should surface as request errors, not flapping
// healthchecks.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "report-api",
	})
}
