package httpapi

import (
	"net/http"
	"sync/atomic"
)

var draining atomic.Bool

// SetDraining makes /health report 503 while the server shuts down.
func SetDraining(v bool) {
	draining.Store(v)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	if draining.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
